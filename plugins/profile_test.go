package plugins

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"gopkg.in/yaml.v3"
)

const sampleProfile = `# bench profile
channel: 155
bandwidth: 80
primary_index: 1
antenna_tx: AB # both chains
antenna_rx: AB
ldo25: true
iqk: false
txpower:
  default: 32
  table:
    A:
      MCS7: 30
`

func newProfileApp(t *testing.T, content string) (*fiber.App, *ProfilePlugin, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	p, err := NewProfilePlugin(path)
	if err != nil {
		t.Fatal(err)
	}
	app := fiber.New()
	p.RegisterRoutes(app)
	return app, p, path
}

func TestProfileLoadKeepsOrder(t *testing.T) {
	app, _, _ := newProfileApp(t, sampleProfile)

	resp := mustOK(t, app, "GET", "/api/profile/load", nil, nil)
	data := string(resp.Data)
	if !strings.HasPrefix(data, `{"channel":155,"bandwidth":80,"primary_index":1,"antenna_tx":"AB"`) {
		t.Errorf("data = %s", data)
	}
	if !strings.Contains(data, `"ldo25":true`) || !strings.Contains(data, `"table":{"A":{"MCS7":30}}`) {
		t.Errorf("nested values lost: %s", data)
	}
}

func TestProfileLoadMissingFile(t *testing.T) {
	app, _, _ := newProfileApp(t, "")
	resp := mustOK(t, app, "GET", "/api/profile/load", nil, nil)
	if string(resp.Data) != "" && string(resp.Data) != "null" {
		t.Errorf("data = %s", resp.Data)
	}
}

func TestProfileSave(t *testing.T) {
	app, _, path := newProfileApp(t, sampleProfile)

	mustOK(t, app, "POST", "/api/profile/save", map[string]interface{}{
		"channel":   36,
		"bandwidth": 40,
		"iqk":       true,
		"txpower":   map[string]interface{}{"default": 28},
		"notes":     "lab bench 3",
	}, nil)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"# bench profile", "channel: 36", "bandwidth: 40", "iqk: true", "default: 28", "MCS7: 30", "# both chains", "notes: lab bench 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("saved profile missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "channel:") > strings.Index(out, "bandwidth:") {
		t.Errorf("key order changed:\n%s", out)
	}
}

func TestProfileSaveRejectsInvalid(t *testing.T) {
	app, _, path := newProfileApp(t, sampleProfile)

	bodies := []map[string]interface{}{
		{"channel": 50},
		{"antenna_tx": "C"},
		{"txpower": map[string]interface{}{"table": map[string]interface{}{"A": map[string]interface{}{"MCS99": 1}}}},
		{"bandwidth": "wide"},
	}
	for _, body := range bodies {
		if status, _ := call(t, app, "POST", "/api/profile/save", body); status != http.StatusBadRequest {
			t.Errorf("%v: status %d", body, status)
		}
	}

	data, _ := os.ReadFile(path)
	if string(data) != sampleProfile {
		t.Errorf("profile rewritten after rejected saves:\n%s", data)
	}
}

type recordingApplier struct {
	got RadioProfile
	err error
}

func (r *recordingApplier) ApplyProfile(_ context.Context, prof RadioProfile) (ProfileReport, error) {
	r.got = prof
	return ProfileReport{Steps: []string{"channel"}}, r.err
}

func TestProfileApply(t *testing.T) {
	app, p, _ := newProfileApp(t, sampleProfile)

	if status, _ := call(t, app, "POST", "/api/profile/apply", nil); status != http.StatusServiceUnavailable {
		t.Errorf("without radio: status %d", status)
	}

	rec := &recordingApplier{}
	p.SetApplier(rec)

	var rep ProfileReport
	mustOK(t, app, "POST", "/api/profile/apply", nil, &rep)
	if rec.got.Channel != 155 || rec.got.Bandwidth != 80 || rec.got.LDO25 == nil || !*rec.got.LDO25 {
		t.Errorf("applied = %+v", rec.got)
	}
	if rec.got.TxPower == nil || rec.got.TxPower.Table["A"]["MCS7"] != 30 {
		t.Errorf("tx power = %+v", rec.got.TxPower)
	}

	rec.err = errors.New("bus gone")
	if status, _ := call(t, app, "POST", "/api/profile/apply", nil); status != http.StatusInternalServerError {
		t.Errorf("apply error: status %d", status)
	}
}

func TestProfileApplyThroughRadio(t *testing.T) {
	app, p, _ := newProfileApp(t, sampleProfile)
	_, radio, _ := newRadioApp(t, simRadioConfig())
	p.SetApplier(radio)

	var rep ProfileReport
	mustOK(t, app, "POST", "/api/profile/apply", nil, &rep)
	if rep.State.Channel != 155 || rep.State.Bandwidth != 80 {
		t.Errorf("state = %+v", rep.State)
	}
	if len(rep.Steps) != 4 {
		t.Errorf("steps = %v", rep.Steps)
	}
}

func TestMergeIntoNodeAppendsSorted(t *testing.T) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte("b: 1\n"), &root); err != nil {
		t.Fatal(err)
	}
	mergeIntoNode(&root, map[string]interface{}{"z": true, "a": 1.5, "b": float64(2)})

	out, err := yaml.Marshal(&root)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "b: 2\na: 1.5\nz: true\n" {
		t.Errorf("yaml = %q", out)
	}

	ordered, err := json.Marshal(nodeToOrdered(&root))
	if err != nil {
		t.Fatal(err)
	}
	if string(ordered) != `{"b":2,"a":1.5,"z":true}` {
		t.Errorf("json = %s", ordered)
	}
}
