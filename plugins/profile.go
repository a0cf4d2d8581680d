package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/linht/rfe-manager/rtw8822b"
	"gopkg.in/yaml.v3"
)

// RadioProfile is a stored radio setup. Zero fields are left untouched on apply.
type RadioProfile struct {
	Channel      int             `yaml:"channel" json:"channel"`
	Bandwidth    int             `yaml:"bandwidth" json:"bandwidth"`
	PrimaryIndex int             `yaml:"primary_index" json:"primary_index"`
	AntennaTx    string          `yaml:"antenna_tx" json:"antenna_tx"`
	AntennaRx    string          `yaml:"antenna_rx" json:"antenna_rx"`
	LDO25        *bool           `yaml:"ldo25" json:"ldo25"`
	IQK          bool            `yaml:"iqk" json:"iqk"`
	TxPower      *TxPowerRequest `yaml:"txpower" json:"txpower"`
}

// Validate checks every field without touching hardware
func (prof RadioProfile) Validate() error {
	if prof.AntennaTx != "" || prof.AntennaRx != "" {
		if _, _, err := parseAntenna(prof.AntennaTx, prof.AntennaRx); err != nil {
			return err
		}
	}
	if prof.Channel != 0 {
		req, err := channelRequest(prof.Channel, prof.Bandwidth, prof.PrimaryIndex)
		if err != nil {
			return err
		}
		if err := rtw8822b.CheckChannel(req.Channel); err != nil {
			return err
		}
	}
	if prof.TxPower != nil {
		if _, err := prof.TxPower.Build(); err != nil {
			return err
		}
	}
	return nil
}

// ProfileApplier programs a radio profile onto the hardware
type ProfileApplier interface {
	ApplyProfile(ctx context.Context, prof RadioProfile) (ProfileReport, error)
}

// OrderedMap represents a map that preserves insertion order
// It implements json.Marshaler to output keys in order
type OrderedMap struct {
	Keys   []string
	Values map[string]interface{}
}

// MarshalJSON implements json.Marshaler for OrderedMap
func (om *OrderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range om.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(om.Values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// nodeToOrdered converts a yaml.Node to a JSON-compatible value, keeping the
// key order of mappings
func nodeToOrdered(node *yaml.Node) interface{} {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil
		}
		return nodeToOrdered(node.Content[0])

	case yaml.MappingNode:
		om := &OrderedMap{
			Keys:   make([]string, 0, len(node.Content)/2),
			Values: make(map[string]interface{}, len(node.Content)/2),
		}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			om.Keys = append(om.Keys, key)
			om.Values[key] = nodeToOrdered(node.Content[i+1])
		}
		return om

	case yaml.SequenceNode:
		out := make([]interface{}, len(node.Content))
		for i, item := range node.Content {
			out[i] = nodeToOrdered(item)
		}
		return out

	case yaml.AliasNode:
		if node.Alias == nil {
			return nil
		}
		return nodeToOrdered(node.Alias)
	}

	switch node.Tag {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err == nil {
			return b
		}
	case "!!int":
		var v int64
		if err := node.Decode(&v); err == nil {
			return v
		}
	case "!!float":
		var v float64
		if err := node.Decode(&v); err == nil {
			return v
		}
	}
	return node.Value
}

// mergeIntoNode writes values into a mapping node. Existing keys keep their
// position and comments; unknown keys are appended in sorted order.
func mergeIntoNode(node *yaml.Node, values map[string]interface{}) {
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"})
		}
		mergeIntoNode(node.Content[0], values)
		return
	}
	if node.Kind != yaml.MappingNode {
		return
	}

	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		valueNode := node.Content[i+1]
		seen[key] = true

		v, ok := values[key]
		if !ok {
			continue
		}
		if m, isMap := v.(map[string]interface{}); isMap && valueNode.Kind == yaml.MappingNode {
			mergeIntoNode(valueNode, m)
			continue
		}
		fresh := newNode(v)
		valueNode.Kind, valueNode.Tag, valueNode.Value, valueNode.Content = fresh.Kind, fresh.Tag, fresh.Value, fresh.Content
		valueNode.Style = 0
	}

	added := make([]string, 0, len(values))
	for key := range values {
		if !seen[key] {
			added = append(added, key)
		}
	}
	sort.Strings(added)
	for _, key := range added {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			newNode(values[key]))
	}
}

// newNode builds a yaml.Node for a decoded JSON value
func newNode(value interface{}) *yaml.Node {
	switch v := value.(type) {
	case map[string]interface{}:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		mergeIntoNode(node, v)
		return node
	case []interface{}:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v {
			node.Content = append(node.Content, newNode(item))
		}
		return node
	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v)}
	case float64:
		if v == float64(int64(v)) {
			return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(int64(v), 10)}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v, 'g', -1, 64)}
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v, 10)}
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprintf("%v", value)}
}

// ProfilePlugin edits and applies the radio profile file
type ProfilePlugin struct {
	path    string
	applier ProfileApplier
}

// NewProfilePlugin creates a new profile plugin instance
func NewProfilePlugin(path string) (*ProfilePlugin, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required in profile plugin configuration")
	}
	return &ProfilePlugin{path: path}, nil
}

// SetApplier connects the plugin to the radio
func (p *ProfilePlugin) SetApplier(a ProfileApplier) {
	p.applier = a
}

// Name returns the plugin identifier
func (p *ProfilePlugin) Name() string {
	return "profile"
}

// RegisterRoutes adds the plugin's HTTP routes
func (p *ProfilePlugin) RegisterRoutes(app *fiber.App) {
	api := app.Group("/api/profile")

	api.Get("/load", p.loadProfile)
	api.Post("/save", p.saveProfile)
	api.Post("/apply", p.applyProfile)
}

// Shutdown performs cleanup
func (p *ProfilePlugin) Shutdown() error {
	return nil
}

// readNode parses the profile file. A missing file yields an empty document.
func (p *ProfilePlugin) readNode() (*yaml.Node, error) {
	var root yaml.Node
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		root.Kind = yaml.DocumentNode
		return &root, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if root.Kind == 0 {
		root.Kind = yaml.DocumentNode
	}
	return &root, nil
}

// loadProfile handles GET /api/profile/load
func (p *ProfilePlugin) loadProfile(c *fiber.Ctx) error {
	root, err := p.readNode()
	if err != nil {
		slog.Error("Failed to load profile", "path", p.path, "error", err)
		return SendError(c, 500, err)
	}
	return SendSuccess(c, nodeToOrdered(root), "Profile loaded successfully")
}

// saveProfile handles POST /api/profile/save
func (p *ProfilePlugin) saveProfile(c *fiber.Ctx) error {
	var values map[string]interface{}
	if err := c.BodyParser(&values); err != nil {
		return SendErrorMessage(c, 400, "Invalid request body")
	}

	root, err := p.readNode()
	if err != nil {
		return SendError(c, 500, err)
	}
	mergeIntoNode(root, values)

	var prof RadioProfile
	if err := root.Decode(&prof); err != nil {
		return SendError(c, 400, fmt.Errorf("profile does not decode: %w", err))
	}
	if err := prof.Validate(); err != nil {
		return SendError(c, 400, err)
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return SendError(c, 500, fmt.Errorf("failed to serialize profile: %w", err))
	}
	if err := os.WriteFile(p.path, data, 0644); err != nil {
		return SendError(c, 500, fmt.Errorf("failed to write profile: %w", err))
	}

	slog.Info("Profile saved", "path", p.path)
	return SendSuccess(c, nil, "Profile saved successfully")
}

// applyProfile handles POST /api/profile/apply
func (p *ProfilePlugin) applyProfile(c *fiber.Ctx) error {
	if p.applier == nil {
		return SendErrorMessage(c, 503, "Radio plugin not loaded")
	}

	root, err := p.readNode()
	if err != nil {
		return SendError(c, 500, err)
	}
	var prof RadioProfile
	if err := root.Decode(&prof); err != nil {
		return SendError(c, 400, fmt.Errorf("profile does not decode: %w", err))
	}

	rep, err := p.applier.ApplyProfile(c.UserContext(), prof)
	if err != nil {
		return SendRadioError(c, err)
	}
	return SendSuccess(c, rep, "Profile applied")
}

// Register the plugin
func init() {
	Register("profile", func(config interface{}) (Plugin, error) {
		var path string
		if configMap, ok := config.(map[string]interface{}); ok {
			if v, ok := configMap["path"].(string); ok {
				path = v
			}
		}
		return NewProfilePlugin(path)
	})
}
