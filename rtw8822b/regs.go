package rtw8822b

// Common bit masks
const (
	MaskDWord = 0xFFFFFFFF
	MaskLWord = 0x0000FFFF
	MaskByte0 = 0x000000FF
	MaskByte1 = 0x0000FF00
	RFRegMask = 0x000FFFFF // RF registers are 20 bits wide
)

// BIT returns a value with only bit n set
func BIT(n uint) uint32 { return 1 << n }

// GENMASK returns a contiguous mask from bit l to bit h inclusive
func GENMASK(h, l uint) uint32 { return (^uint32(0) >> (31 - h)) &^ (1<<l - 1) }

// MAC/system registers
const (
	RegSysFuncEn     = 0x0002 // System function enable
	RegSysPwCtrl     = 0x0004 // Power control (PCIe polling retry)
	RegRFCtrl        = 0x001F // RF block control
	RegAFECtrl1      = 0x0024 // AFE control 1: crystal cap, MAC clock
	RegAFECtrl2      = 0x0028 // AFE control 2: crystal cap
	RegLDOEfuseCtrl  = 0x0034 // LDO25 / efuse power
	RegWLRF1         = 0x00EC // WL RF1 control
	RegMDIOV1        = 0x03F4 // PCIe MDIO data
	RegPCIeMixCfg    = 0x03F8 // PCIe MDIO address/page/flag
	RegCCKCheck      = 0x0454 // CCK check enable
	RegAMPDUMaxTime  = 0x0455 // AMPDU max time
	RegTxHangCtrl    = 0x045E // TX hang control
	RegDataSC        = 0x0483 // TX sub-channel
	RegSWAMPDUBurst  = 0x04BC // SW AMPDU burst mode control
	RegProtModeCtrl  = 0x04C8 // RTS/protection control
	RegBARModeCtrl   = 0x04CC // BAR mode control
	RegEDCAVOParam   = 0x0500 // EDCA VO parameters
	RegEDCAVIParam   = 0x0504 // EDCA VI parameters
	RegPIFS          = 0x0512 // PIFS
	RegSIFS          = 0x0514 // SIFS
	RegSlot          = 0x051B // slot time
	RegTxPtclCtrl    = 0x0520 // TX protocol control
	RegTxPause       = 0x0522 // TX pause
	RegTBTTProhibit  = 0x0540 // TBTT prohibit
	RegRdNavNxt      = 0x0544 // NAV
	RegBcnCtrl       = 0x0550 // beacon control
	RegDrvErlyInt    = 0x0558 // early interrupt
	RegBcnDMATim     = 0x0559 // beacon DMA time
	RegUsTimeTSF     = 0x055C // µs timer for TSF
	RegRxTSFOffCCK   = 0x055E // RX TSF offset CCK/OFDM
	RegTimer0SrcSel  = 0x05B4 // timer0 source select
	RegTCR           = 0x0604 // transmit configuration
	RegRCR           = 0x0608 // receive configuration
	RegRxPktLimit    = 0x060C // RX packet size limit
	RegUsTimeEDCA    = 0x0638 // µs timer for EDCA
	RegWMACTRXPtcl   = 0x0668 // WMAC TRX protocol control (RF mode)
	RegRxFltMap0     = 0x06A0 // RX filter map 0
	RegRxFltMap2     = 0x06A4 // RX filter map 2
	RegWMACOptionFn  = 0x07D0 // WMAC option functions
	RegFastEDCAVOVI  = 0x1448 // fast EDCA VO/VI thresholds
	RegFastEDCABEBK  = 0x144C // fast EDCA BE/BK thresholds
	RegWLBTCoexCtrl  = 0x0070 // WL/BT path controller
	RegSysPinMux     = 0x0064 // chip top mux
	RegLEDCfg        = 0x004C // LED / BB control mux
	RegGPIOMuxCfg    = 0x0040 // GPIO mux
	RegGntOverride   = 0x1700 // gnt_wl / gnt_bt override
	RegGntOverrideHi = 0x1704
	RegRFEInvMux     = 0x0974 // RFE input/output select
	RegRFEPathSel    = 0x1990 // RFE source s0/s1
)

// MAC/system register bits
const (
	BitFenBBGlbRst  = 1 << 1
	BitFenBBRstB    = 1 << 0
	BitRFEn         = 1 << 0
	BitRFRstB       = 1 << 1
	BitRFSDMRstB    = 1 << 2
	BitWLRF1BBRFEn  = (1 << 24) | (1 << 25) | (1 << 26)
	BitLDO25En      = 1 << 7 // in RegLDOEfuseCtrl+3
	BitPreTxCmd     = 1 << 6
	BitEnEOFV1      = 1 << 2
	BitTSFTSelTmr0  = 1 << 4
	BitEnBcnFunc    = 1 << 3
	BitSIFSBKEn     = 1 << 12
	BitCheckCCKEn   = 1 << 7
	BitRFMod        = (1 << 7) | (1 << 8)
	BitRFMod40M     = 1 << 7
	BitRFMod80M     = 1 << 8
	BitMACClkSel    = (1 << 20) | (1 << 21)
	BitMDIOWFlagV1  = 1 << 5
	BitSysPwCtrlPFM = 1 << 3
)

// Baseband registers
const (
	RegHTSTFWT    = 0x0800 // HT-STF weighting
	RegRxPSel     = 0x0808 // RX path select
	RegTxPSel     = 0x080C // TX path select
	RegRxCCAMsk   = 0x0814 // RX CCA mask
	RegCCASel     = 0x082C // CCA select (Reg82C)
	RegPDMFTh     = 0x0830 // packet detection threshold (Reg830)
	RegCCA2nd     = 0x0838 // second stage CCA (Reg838)
	RegL1WT       = 0x083C // L1 weighting (linearity)
	RegL1PkWT     = 0x0840 // L1 peak weighting
	RegMRC        = 0x0850 // maximal ratio combining
	RegClkTrk     = 0x0860 // clock tracking
	RegADCClk     = 0x08AC // ADC clock, RX sub-band, bandwidth
	RegADC160     = 0x08C4 // ADC 160 MHz enable
	RegADC40      = 0x08C8 // ADC 40 MHz / narrowband
	RegCDDTxP     = 0x093C // CDD TX path
	RegTxPSel1    = 0x0940 // TX path select 1
	RegACBB0      = 0x0948 // AC BB RX DFIR 0
	RegACBBRxFIR  = 0x094C // AC BB RX FIR
	RegACGG2Tbl   = 0x0958 // AGC table select
	RegRxSB       = 0x0A00 // RX sideband (CCK)
	RegADCIni     = 0x0A04 // CCK path/ADC init
	RegTxSF2      = 0x0A24 // CCK TX shaping filter 2
	RegTxSF6      = 0x0A28 // CCK TX shaping filter 6
	RegRxDesc     = 0x0A2C // CCK RX descriptor / FA reset
	RegENTxCCK    = 0x0A80 // CCK TX enable
	RegAGCTrA     = 0x0C08 // AGC target path A
	RegTxDFIR     = 0x0C20 // TX DFIR (path A, +0x200 for B)
	RegRxIGIA     = 0x0C50 // initial gain path A
	RegSIPIA      = 0x0C90 // RF serial write port path A
	RegTRSW       = 0x0CA0 // TR switch matrix (path A, +0x200 for B)
	RegTRSWB      = 0x0EA0
	RegRFESel0    = 0x0CB0 // RFE select 0
	RegRFESel8    = 0x0CB4 // RFE select 8
	RegRFECtl     = 0x0CB8 // RFE control
	RegRFEInv     = 0x0CBC // RFE inverse
	RegAGCTrB     = 0x0E08 // AGC target path B
	RegRxIGIB     = 0x0E50 // initial gain path B
	RegSIPIB      = 0x0E90 // RF serial write port path B
	RegANTWT      = 0x1904 // antenna weighting
	RegIQKFailMsk = 0x1BF0 // IQK fail mask / reload flag
	RegTxAGCA     = 0x1D00 // TX power index base path A
	RegTxAGCB     = 0x1D80 // TX power index base path B
	RegRFBaseA    = 0x2800 // direct RF read window path A
	RegRFBaseB    = 0x2C00 // direct RF read window path B
	RegCCKEnable  = 0x0808 // bit 28: CCK block enabled
	RegCCKFACnt   = 0x0A5C // CCK false alarm counter
	RegOFDMFACnt  = 0x0F48 // OFDM false alarm counter
	RegOFDMFARst  = 0x09A4 // OFDM FA reset
	RegCCKFARst   = 0x0A2C // CCK FA reset
	RegFARstAll   = 0x0B58 // FA counter hold/reset
	pathBRegDelta = 0x200  // path B mirror of the C-page registers
)

// Baseband register bits
const (
	BitRxPSelRst = (1 << 28) | (1 << 29)
)

// RF registers
const (
	RFChannel = 0x18 // band / channel / bandwidth
	RFDTXLOK  = 0x08 // IQK sentinel
	RFLUTWA   = 0x33 // LUT write address (status readback)
	RFLUTWD1  = 0x3E // LUT write data 1
	RFLUTWD0  = 0x3F // LUT write data 0
	RFXtalX2  = 0xB8 // crystal doubler
	RFMALSel  = 0xBE // band-edge compensation
	RFLUTDbg  = 0xDF // LUT debug, bit 18 is the ch144 pre-bit
	RFLUTWE   = 0xEF // LUT write enable
)

// RF 0x18 fields
const (
	rf18BandMask    = (1 << 16) | (1 << 9) | (1 << 8)
	rf18Band2G      = 0
	rf18Band5G      = (1 << 16) | (1 << 8)
	rf18ChannelMask = MaskByte0
	rf18RFSIMask    = (1 << 18) | (1 << 17)
	rf18RFSIGeCh80  = 1 << 17
	rf18RFSIGtCh144 = 1 << 18
	rf18BWMask      = (1 << 11) | (1 << 10)
	rf18BW20M       = (1 << 11) | (1 << 10)
	rf18BW40M       = 1 << 11
	rf18BW80M       = 1 << 10
	rfBEMask        = (1 << 17) | (1 << 16) | (1 << 15)
)

// SDIO local register window used by SDIO-domain power sequence commands
const SDIOLocalOffset = 0x10250000

// RegisterDescriptions names the registers the front-end logic touches, for the UI
var RegisterDescriptions = map[uint32]string{
	RegRxPSel:     "RXPSEL - RX path select",
	RegTxPSel:     "TXPSEL - TX path select",
	RegCCASel:     "CCASEL - CCA select (0x82C)",
	RegPDMFTh:     "PDMFTH - packet detect threshold (0x830)",
	RegCCA2nd:     "CCA2ND - second stage CCA (0x838)",
	RegL1WT:       "L1WT - linearity weighting",
	RegADCClk:     "ADCCLK - ADC clock / bandwidth",
	RegRxIGIA:     "RXIGI_A - initial gain A",
	RegRxIGIB:     "RXIGI_B - initial gain B",
	RegTRSW:       "TRSW - TR switch matrix A",
	RegTRSWB:      "TRSW - TR switch matrix B",
	RegRFESel0:    "RFESEL0 - RFE signal source",
	RegIQKFailMsk: "IQKFAILMSK - IQK fail mask",
}
