package plugins

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/linht/rfe-manager/rtw8822b"
	"github.com/prometheus/client_golang/prometheus"
)

// testResponse mirrors APIResponse with the payload left raw
type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// simRadioConfig is a simulated RFE option 5 chip with zero-delay polling
func simRadioConfig() RadioConfig {
	return RadioConfig{
		Bus:       BusSim,
		RFEOption: 5,
		ChipEnPin: -1,
		Sleeper:   rtw8822b.SleeperFunc(func(time.Duration) {}),
	}
}

// newRadioApp serves a radio plugin with a private metrics registry
func newRadioApp(t *testing.T, cfg RadioConfig) (*fiber.App, *RadioPlugin, *RadioCollector) {
	t.Helper()

	collector, err := NewRadioCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewRadioCollector: %v", err)
	}
	p, err := NewRadioPlugin(cfg, collector)
	if err != nil {
		t.Fatalf("NewRadioPlugin: %v", err)
	}
	t.Cleanup(func() { p.Shutdown() })

	app := fiber.New()
	p.RegisterRoutes(app)
	return app, p, collector
}

// call sends a request (JSON-encoding body unless it is a string) and decodes the APIResponse
func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, testResponse) {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var out testResponse
	if strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("%s %s: bad json %q", method, path, raw)
		}
	}
	return resp.StatusCode, out
}

// mustOK asserts a 200 response and decodes its data into v (when non-nil)
func mustOK(t *testing.T, app *fiber.App, method, path string, body, v interface{}) testResponse {
	t.Helper()
	status, resp := call(t, app, method, path, body)
	if status != http.StatusOK || !resp.Success {
		t.Fatalf("%s %s: status %d, error %q", method, path, status, resp.Error)
	}
	if v != nil {
		if err := json.Unmarshal(resp.Data, v); err != nil {
			t.Fatalf("%s %s: data %s: %v", method, path, resp.Data, err)
		}
	}
	return resp
}
