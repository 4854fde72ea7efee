// Package dimension models the analytic tags (department, cost center,
// business object and friends) carried by ledger and budget lines.
package dimension

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Key names a dimension slot.
type Key string

const (
	Department     Key = "department"
	CostCenter     Key = "cost_center"
	BusinessObject Key = "business_object"
	Series         Key = "series"
	Person         Key = "person"
)

// MaxGeneric is the number of generic dimension slots.
const MaxGeneric = 15

var staticKeys = map[Key]struct{}{
	Department:     {},
	CostCenter:     {},
	BusinessObject: {},
	Series:         {},
	Person:         {},
}

// Generic returns the key of generic slot n (1..MaxGeneric).
func Generic(n int) Key {
	return Key(fmt.Sprintf("dim_%02d", n))
}

// Valid reports whether k is a static key or a generic slot in range.
func (k Key) Valid() bool {
	if _, ok := staticKeys[k]; ok {
		return true
	}
	s := string(k)
	if !strings.HasPrefix(s, "dim_") || len(s) != len("dim_00") {
		return false
	}
	n, err := strconv.Atoi(s[len("dim_"):])
	return err == nil && n >= 1 && n <= MaxGeneric
}

// ParseKeys parses a comma separated list such as "department,cost_center".
func ParseKeys(raw string) ([]Key, error) {
	var keys []Key
	seen := make(map[Key]struct{})
	for _, part := range strings.Split(raw, ",") {
		k := Key(strings.ToLower(strings.TrimSpace(part)))
		if k == "" {
			continue
		}
		if !k.Valid() {
			return nil, fmt.Errorf("dimension: unknown key %q", k)
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys, nil
}

// Set holds dimension values keyed by slot. Values are reference ids of the
// tagged master record.
type Set map[Key]int64

// Get returns the value for k and whether it is present.
func (s Set) Get(k Key) (int64, bool) {
	v, ok := s[k]
	return v, ok && v != 0
}

// Has reports whether k carries a non-zero value.
func (s Set) Has(k Key) bool {
	_, ok := s.Get(k)
	return ok
}

// With returns a copy of s with k set to v.
func (s Set) With(k Key, v int64) Set {
	out := s.Clone()
	if out == nil {
		out = Set{}
	}
	out[k] = v
	return out
}

// Clone copies the set; nil stays nil.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Validate rejects unknown keys and non-positive references.
func (s Set) Validate() error {
	for _, k := range s.Keys() {
		if !k.Valid() {
			return fmt.Errorf("dimension: unknown key %q", k)
		}
		if s[k] <= 0 {
			return fmt.Errorf("dimension: %s must reference a positive id", k)
		}
	}
	return nil
}

// Missing lists the required keys absent from s, preserving input order.
func (s Set) Missing(required []Key) []Key {
	var out []Key
	for _, k := range required {
		if !s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// Matches reports whether candidate agrees with the filter s on every key in
// keys. A key absent from s acts as a wildcard.
func (s Set) Matches(candidate Set, keys []Key) bool {
	for _, k := range keys {
		want, ok := s.Get(k)
		if !ok {
			continue
		}
		got, _ := candidate.Get(k)
		if got != want {
			return false
		}
	}
	return true
}

// Keys returns the present keys in sorted order.
func (s Set) Keys() []Key {
	keys := make([]Key, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
