package rtw8822b

// Power sequence tables. Each ends with a CmdEnd sentinel at offset 0xFFFF.

var cardDisToCardEmu = []PowerSeqCmd{
	{0x0086, PwrCutAll, PwrIntfSDIO, AddrSDIO, CmdWrite, 0x01, 0x00},
	{0x0086, PwrCutAll, PwrIntfSDIO, AddrSDIO, CmdPolling, 0x02, 0x02},
	{0x004A, PwrCutAll, PwrIntfUSB, AddrMAC, CmdWrite, 0x01, 0x00},
	{0x0005, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x98, 0x00},
	{0x0300, PwrCutAll, PwrIntfPCI, AddrMAC, CmdWrite, 0xFF, 0x00},
	{0x0301, PwrCutAll, PwrIntfPCI, AddrMAC, CmdWrite, 0xFF, 0x00},
	{0xFFFF, PwrCutAll, PwrIntfAll, AddrMAC, CmdEnd, 0x00, 0x00},
}

var cardEmuToAct = []PowerSeqCmd{
	{0x0012, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x02, 0x00},
	{0x0012, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x01, 0x01},
	{0x0020, PwrCutAll, PwrIntfUSB | PwrIntfSDIO, AddrMAC, CmdWrite, 0x01, 0x01},
	{0x0001, PwrCutAll, PwrIntfUSB | PwrIntfSDIO, AddrMAC, CmdDelay, 0x01, DelayMS},
	{0x0000, PwrCutAll, PwrIntfUSB | PwrIntfSDIO, AddrMAC, CmdWrite, 0x20, 0x00},
	{0x0005, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x1C, 0x00},
	{0x0075, PwrCutAll, PwrIntfPCI, AddrMAC, CmdWrite, 0x01, 0x01},
	{0x0006, PwrCutAll, PwrIntfAll, AddrMAC, CmdPolling, 0x02, 0x02},
	{0x0075, PwrCutAll, PwrIntfPCI, AddrMAC, CmdWrite, 0x01, 0x00},
	{0xFF1A, PwrCutAll, PwrIntfUSB, AddrMAC, CmdWrite, 0xFF, 0x00},
	{0x0006, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x01, 0x01},
	{0x0005, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x80, 0x00},
	{0x0005, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x18, 0x00},
	{0x10C3, PwrCutAll, PwrIntfUSB, AddrMAC, CmdWrite, 0x01, 0x01},
	{0x0005, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x01, 0x01},
	{0x0005, PwrCutAll, PwrIntfAll, AddrMAC, CmdPolling, 0x01, 0x00},
	{0x0020, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x08, 0x08},
	{0x10A8, PwrCutC, PwrIntfAll, AddrMAC, CmdWrite, 0xFF, 0x00},
	{0x10A9, PwrCutC, PwrIntfAll, AddrMAC, CmdWrite, 0xFF, 0xEF},
	{0x10AA, PwrCutC, PwrIntfAll, AddrMAC, CmdWrite, 0xFF, 0x0C},
	{0x0068, PwrCutC, PwrIntfSDIO, AddrMAC, CmdWrite, 0x10, 0x10},
	{0x0029, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0xFF, 0xF9},
	{0x0024, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x04, 0x00},
	{0x0074, PwrCutAll, PwrIntfPCI, AddrMAC, CmdWrite, 0x20, 0x20},
	{0x00AF, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x20, 0x20},
	{0xFFFF, PwrCutAll, PwrIntfAll, AddrMAC, CmdEnd, 0x00, 0x00},
}

var actToCardEmu = []PowerSeqCmd{
	{0x0003, PwrCutAll, PwrIntfSDIO, AddrMAC, CmdWrite, 0x04, 0x00},
	{0x0093, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x08, 0x00},
	{0x001F, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0xFF, 0x00},
	{0x00EF, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0xFF, 0x00},
	{0xFF1A, PwrCutAll, PwrIntfUSB, AddrMAC, CmdWrite, 0xFF, 0x30},
	{0x0049, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x02, 0x00},
	{0x0006, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x01, 0x01},
	{0x0002, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x02, 0x00},
	{0x10C3, PwrCutAll, PwrIntfUSB, AddrMAC, CmdWrite, 0x01, 0x00},
	{0x0005, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x02, 0x02},
	{0x0005, PwrCutAll, PwrIntfAll, AddrMAC, CmdPolling, 0x02, 0x00},
	{0x0020, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x08, 0x00},
	{0x0000, PwrCutAll, PwrIntfUSB | PwrIntfSDIO, AddrMAC, CmdWrite, 0x20, 0x20},
	{0xFFFF, PwrCutAll, PwrIntfAll, AddrMAC, CmdEnd, 0x00, 0x00},
}

var cardEmuToCardDis = []PowerSeqCmd{
	{0x0005, PwrCutAll, PwrIntfSDIO, AddrMAC, CmdWrite, 0x80, 0x80},
	{0x0007, PwrCutAll, PwrIntfUSB | PwrIntfSDIO, AddrMAC, CmdWrite, 0xFF, 0x20},
	{0x0067, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0x20, 0x00},
	{0x0005, PwrCutAll, PwrIntfPCI, AddrMAC, CmdWrite, 0x04, 0x04},
	{0x004A, PwrCutAll, PwrIntfUSB, AddrMAC, CmdWrite, 0x01, 0x00},
	{0x0067, PwrCutAll, PwrIntfSDIO, AddrMAC, CmdWrite, 0x20, 0x00},
	{0x0067, PwrCutAll, PwrIntfSDIO, AddrMAC, CmdWrite, 0x10, 0x00},
	{0x004F, PwrCutAll, PwrIntfSDIO, AddrMAC, CmdWrite, 0x01, 0x00},
	{0x0067, PwrCutAll, PwrIntfSDIO, AddrMAC, CmdWrite, 0x02, 0x00},
	{0x0046, PwrCutAll, PwrIntfSDIO, AddrMAC, CmdWrite, 0x40, 0x40},
	{0x0067, PwrCutAll, PwrIntfSDIO, AddrMAC, CmdWrite, 0x04, 0x00},
	{0x0046, PwrCutAll, PwrIntfSDIO, AddrMAC, CmdWrite, 0x80, 0x80},
	{0x0062, PwrCutAll, PwrIntfSDIO, AddrMAC, CmdWrite, 0x10, 0x10},
	{0x0081, PwrCutAll, PwrIntfAll, AddrMAC, CmdWrite, 0xC0, 0x00},
	{0x0005, PwrCutAll, PwrIntfUSB | PwrIntfSDIO, AddrMAC, CmdWrite, 0x18, 0x08},
	{0x0086, PwrCutAll, PwrIntfSDIO, AddrSDIO, CmdWrite, 0x01, 0x01},
	{0x0086, PwrCutAll, PwrIntfSDIO, AddrSDIO, CmdPolling, 0x02, 0x00},
	{0x0090, PwrCutAll, PwrIntfUSB | PwrIntfPCI, AddrMAC, CmdWrite, 0x02, 0x00},
	{0x0044, PwrCutAll, PwrIntfSDIO, AddrSDIO, CmdWrite, 0xFF, 0x00},
	{0x0040, PwrCutAll, PwrIntfSDIO, AddrSDIO, CmdWrite, 0xFF, 0x90},
	{0x0041, PwrCutAll, PwrIntfSDIO, AddrSDIO, CmdWrite, 0xFF, 0x00},
	{0x0042, PwrCutAll, PwrIntfSDIO, AddrSDIO, CmdWrite, 0xFF, 0x04},
	{0xFFFF, PwrCutAll, PwrIntfAll, AddrMAC, CmdEnd, 0x00, 0x00},
}

// CardEnableFlow takes the chip from card-disabled to active
var CardEnableFlow = [][]PowerSeqCmd{cardDisToCardEmu, cardEmuToAct}

// CardDisableFlow takes the chip from active to card-disabled
var CardDisableFlow = [][]PowerSeqCmd{actToCardEmu, cardEmuToCardDis}
