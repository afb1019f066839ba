package signature

import (
	_ "embed"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Unknown is the label returned when no rule matches.
const Unknown = "Unknown"

//go:embed default_rules.json
var defaultRules []byte

// Rule is a single magic-byte alternative together with the size window of
// the entry it came from. SizeMin and SizeMax are nil when unbounded.
type Rule struct {
	Label   string
	Magic   []byte
	SizeMin *int64
	SizeMax *int64
}

// MagicLen is the evaluation ordering key.
func (r Rule) MagicLen() int {
	return len(r.Magic)
}

// MagicHex returns the magic bytes as uppercase hex.
func (r Rule) MagicHex() string {
	return strings.ToUpper(hex.EncodeToString(r.Magic))
}

// RuleSet is an immutable list of rules ordered longest magic first. It is
// safe for concurrent use.
type RuleSet struct {
	rules []Rule
}

type jsonSource struct {
	Rules []json.RawMessage `json:"rules"`
}

type yamlSource struct {
	Rules []yaml.Node `yaml:"rules"`
}

type sourceRule struct {
	Extension string   `json:"extension" yaml:"extension"`
	Magic     []string `json:"magic" yaml:"magic"`
	SizeMin   *int64   `json:"size_min,omitempty" yaml:"size_min,omitempty"`
	SizeMax   *int64   `json:"size_max,omitempty" yaml:"size_max,omitempty"`
}

// Load decodes a JSON rule source.
func Load(data []byte) (*RuleSet, error) {
	var src jsonSource
	if err := json.Unmarshal(data, &src); err != nil {
		return nil, &FormatError{Index: -1, Err: err}
	}
	if src.Rules == nil {
		return nil, errMissingRules()
	}
	entries := make([]sourceRule, len(src.Rules))
	for i, raw := range src.Rules {
		if err := json.Unmarshal(raw, &entries[i]); err != nil {
			var named struct {
				Extension string `json:"extension"`
			}
			_ = json.Unmarshal(raw, &named)
			return nil, &FormatError{Index: i, Label: strings.TrimSpace(named.Extension), Err: err}
		}
	}
	return build(entries)
}

// LoadYAML decodes a YAML rule source with the same layout as Load.
func LoadYAML(data []byte) (*RuleSet, error) {
	var src yamlSource
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, &FormatError{Index: -1, Err: err}
	}
	if src.Rules == nil {
		return nil, errMissingRules()
	}
	entries := make([]sourceRule, len(src.Rules))
	for i := range src.Rules {
		if err := src.Rules[i].Decode(&entries[i]); err != nil {
			var named struct {
				Extension string `yaml:"extension"`
			}
			_ = src.Rules[i].Decode(&named)
			return nil, &FormatError{Index: i, Label: strings.TrimSpace(named.Extension), Err: err}
		}
	}
	return build(entries)
}

// LoadFile reads a rule source from disk. Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON.
func LoadFile(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(data)
	default:
		return Load(data)
	}
}

// Default returns the built-in rule set.
func Default() *RuleSet {
	rs, err := Load(defaultRules)
	if err != nil {
		panic("signature: embedded rules: " + err.Error())
	}
	return rs
}

// New builds a RuleSet from already decoded rules. The input is copied and
// validated the same way a loaded source is.
func New(rules []Rule) (*RuleSet, error) {
	out := make([]Rule, 0, len(rules))
	for i, r := range rules {
		if err := validate(i, r.Label, r.SizeMin, r.SizeMax); err != nil {
			return nil, err
		}
		if len(r.Magic) == 0 {
			return nil, formatErr(i, r.Label, "empty magic")
		}
		r.Magic = slices.Clone(r.Magic)
		out = append(out, r)
	}
	return sorted(out), nil
}

func errMissingRules() error {
	return &FormatError{Index: -1, Err: errors.New("missing rules list")}
}

func build(entries []sourceRule) (*RuleSet, error) {
	var rules []Rule
	for i, sr := range entries {
		label := strings.TrimSpace(sr.Extension)
		if err := validate(i, label, sr.SizeMin, sr.SizeMax); err != nil {
			return nil, err
		}
		if len(sr.Magic) == 0 {
			return nil, formatErr(i, label, "no magic values")
		}
		for _, m := range sr.Magic {
			magic, err := decodeHex(m)
			if err != nil {
				return nil, formatErr(i, label, "magic %q: %w", m, err)
			}
			rules = append(rules, Rule{
				Label:   label,
				Magic:   magic,
				SizeMin: sr.SizeMin,
				SizeMax: sr.SizeMax,
			})
		}
	}
	return sorted(rules), nil
}

func validate(i int, label string, sizeMin, sizeMax *int64) error {
	if label == "" {
		return formatErr(i, "", "missing extension")
	}
	if sizeMin != nil && sizeMax != nil && *sizeMin > *sizeMax {
		return formatErr(i, label, "size_min %d exceeds size_max %d", *sizeMin, *sizeMax)
	}
	return nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return nil, errors.New("empty magic")
	}
	return hex.DecodeString(s)
}

// sorted orders rules longest magic first. Equal lengths keep source order.
func sorted(rules []Rule) *RuleSet {
	slices.SortStableFunc(rules, func(a, b Rule) int {
		return b.MagicLen() - a.MagicLen()
	})
	return &RuleSet{rules: rules}
}

// Rules returns a copy of the rules in evaluation order.
func (rs *RuleSet) Rules() []Rule {
	if rs == nil {
		return nil
	}
	return slices.Clone(rs.rules)
}

func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// MaxMagicLen is the minimum prefix a caller must supply for every rule to be
// testable.
func (rs *RuleSet) MaxMagicLen() int {
	if rs == nil || len(rs.rules) == 0 {
		return 0
	}
	return rs.rules[0].MagicLen()
}

// Labels returns the distinct labels in first-seen evaluation order.
func (rs *RuleSet) Labels() []string {
	if rs == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(rs.rules))
	labels := make([]string, 0, len(rs.rules))
	for _, r := range rs.rules {
		if _, ok := seen[r.Label]; ok {
			continue
		}
		seen[r.Label] = struct{}{}
		labels = append(labels, r.Label)
	}
	return labels
}
