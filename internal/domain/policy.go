package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// PolicyRecord is a single catalog entry. Records are immutable after the
// catalog is loaded; nothing in the request path writes to them.
type PolicyRecord struct {
	PolicyID      string       `json:"policy_id"`
	Name          string       `json:"name"`
	Type          string       `json:"type"`
	Description   string       `json:"description"`
	SumInsured    []float64    `json:"sum_insured"`
	PremiumYearly PremiumTable `json:"premium_yearly"`
	Eligibility   Eligibility  `json:"eligibility"`
	Exclusions    []string     `json:"exclusions"`
	Riders        []any        `json:"riders"`
}

// Eligibility holds optional age bounds. Absent bounds fall back to the
// defaults returned by Bounds.
type Eligibility struct {
	MinAge *int `json:"min_age,omitempty"`
	MaxAge *int `json:"max_age,omitempty"`
}

const (
	defaultMinAge = 0
	defaultMaxAge = 100
)

// Bounds returns the effective age window, substituting 0 and 100 for
// absent bounds.
func (e Eligibility) Bounds() (minAge, maxAge int) {
	minAge, maxAge = defaultMinAge, defaultMaxAge
	if e.MinAge != nil {
		minAge = *e.MinAge
	}
	if e.MaxAge != nil {
		maxAge = *e.MaxAge
	}
	return minAge, maxAge
}

// Covers reports whether the given age falls inside the effective bounds.
func (e Eligibility) Covers(age int) bool {
	minAge, maxAge := e.Bounds()
	return minAge <= age && age <= maxAge
}

// ErrEmptyPremiumTable is returned when a premium lookup needs a first
// value and the table has none.
var ErrEmptyPremiumTable = errors.New("premium table is empty")

// PremiumTable is an ordered mapping from a coverage-tier key (the string
// form of a sum_insured value, or a plan label like "flat") to a yearly
// premium. Key order follows the source JSON document; preserving it is a
// contract of the type, since the first entry is the reference premium for
// flat-plan policies. Values are kept raw and parsed on access so a
// malformed premium surfaces as a per-policy resolution error rather than
// a catalog load failure.
type PremiumTable struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewPremiumTable builds a table from ordered key/premium pairs.
func NewPremiumTable(pairs ...PremiumEntry) PremiumTable {
	t := PremiumTable{values: make(map[string]json.RawMessage, len(pairs))}
	for _, p := range pairs {
		raw, _ := json.Marshal(p.Premium)
		t.put(p.Key, raw)
	}
	return t
}

// PremiumEntry is one tier of a PremiumTable.
type PremiumEntry struct {
	Key     string
	Premium float64
}

func (t *PremiumTable) put(key string, raw json.RawMessage) {
	if t.values == nil {
		t.values = make(map[string]json.RawMessage)
	}
	if _, exists := t.values[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.values[key] = raw
}

// Len returns the number of tiers.
func (t PremiumTable) Len() int { return len(t.keys) }

// Keys returns the tier keys in document order.
func (t PremiumTable) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// First returns the premium of the first tier in document order. It fails
// when the table is empty or the first value is not numeric.
func (t PremiumTable) First() (float64, error) {
	if len(t.keys) == 0 {
		return 0, ErrEmptyPremiumTable
	}
	return parsePremium(t.keys[0], t.values[t.keys[0]])
}

// Premium returns the premium stored under key. ok is false when the key
// is absent; err is non-nil when the key exists but its value is not
// numeric.
func (t PremiumTable) Premium(key string) (value float64, ok bool, err error) {
	raw, exists := t.values[key]
	if !exists {
		return 0, false, nil
	}
	value, err = parsePremium(key, raw)
	return value, true, err
}

func parsePremium(key string, raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("premium for tier %q is not numeric", key)
	}
	return v, nil
}

// UnmarshalJSON decodes a JSON object while recording its key order.
func (t *PremiumTable) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("premium_yearly must be a JSON object")
	}

	t.keys = nil
	t.values = make(map[string]json.RawMessage)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("premium_yearly has a non-string key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		t.put(key, raw)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON re-emits the object with its original key order.
func (t PremiumTable) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		buf.Write(t.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// TierKey renders a sum_insured value the way premium_yearly keys are
// written: integral amounts without a decimal part.
func TierKey(sumInsured float64) string {
	return strconv.FormatFloat(sumInsured, 'f', -1, 64)
}
