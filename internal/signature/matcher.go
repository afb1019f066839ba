package signature

import "bytes"

const (
	// DefaultTolerance is the slack applied on both sides of a rule's size
	// window.
	DefaultTolerance int64 = 50

	// DefaultPrefixLen is how many leading bytes a scan reads per file.
	DefaultPrefixLen = 50

	// UnknownSize disables the size gate for a Detect call.
	UnknownSize int64 = -1
)

// Matcher maps a file's leading bytes and size to a label.
type Matcher struct {
	rules     *RuleSet
	tolerance int64
}

// NewMatcher returns a Matcher over rs. A negative tolerance is treated as 0.
func NewMatcher(rs *RuleSet, tolerance int64) *Matcher {
	if tolerance < 0 {
		tolerance = 0
	}
	return &Matcher{rules: rs, tolerance: tolerance}
}

func (m *Matcher) Rules() *RuleSet {
	return m.rules
}

func (m *Matcher) Tolerance() int64 {
	return m.tolerance
}

// PrefixLen returns n, or DefaultPrefixLen when n is not positive, raised to
// the longest magic in the rule set so that every rule can be tested.
func (m *Matcher) PrefixLen(n int) int {
	if n <= 0 {
		n = DefaultPrefixLen
	}
	return max(n, m.rules.MaxMagicLen())
}

// Detect returns the label of the first rule, in longest-magic-first order,
// whose magic prefixes the input and whose size window admits size. It
// returns Unknown when nothing matches. Pass UnknownSize when the size is not
// known.
func (m *Matcher) Detect(prefix []byte, size int64) string {
	r, ok := m.DetectRule(prefix, size)
	if !ok {
		return Unknown
	}
	return r.Label
}

// DetectRule is Detect but returns the winning rule.
func (m *Matcher) DetectRule(prefix []byte, size int64) (Rule, bool) {
	if len(prefix) == 0 || m.rules == nil {
		return Rule{}, false
	}
	for _, r := range m.rules.rules {
		if !bytes.HasPrefix(prefix, r.Magic) {
			continue
		}
		if !m.sizeOK(r, size) {
			continue
		}
		return r, true
	}
	return Rule{}, false
}

func (m *Matcher) sizeOK(r Rule, size int64) bool {
	if size < 0 {
		return true
	}
	if r.SizeMin != nil && size < *r.SizeMin-m.tolerance {
		return false
	}
	if r.SizeMax != nil && size > *r.SizeMax+m.tolerance {
		return false
	}
	return true
}
