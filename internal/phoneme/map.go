package phoneme

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Map remaps phoneme symbols from one language's inventory into another's.
// A missing entry is an identity mapping: unmapped phonemes pass through
// unchanged.
type Map struct {
	entries map[string]string
}

// NewMap builds a map from explicit entries. Multi-valued entries keep the
// first target.
func NewMap(entries map[string][]string) *Map {
	m := &Map{entries: make(map[string]string, len(entries))}
	for from, to := range entries {
		if len(to) > 0 && to[0] != "" {
			m.entries[from] = to[0]
		}
	}
	return m
}

// LoadMap reads a phoneme map from a JSON file. Values may be a single
// string or a list of candidate targets.
func LoadMap(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phoneme map: %w", err)
	}

	var rawMulti map[string][]string
	if err := json.Unmarshal(data, &rawMulti); err == nil {
		return NewMap(rawMulti), nil
	}

	var rawSingle map[string]string
	if err := json.Unmarshal(data, &rawSingle); err != nil {
		return nil, fmt.Errorf("parse phoneme map %s: %w", path, err)
	}
	multi := make(map[string][]string, len(rawSingle))
	for from, to := range rawSingle {
		multi[from] = []string{to}
	}
	return NewMap(multi), nil
}

// GuessMap derives a best-effort map between two inventories when no
// explicit map file is given. Matching is nearest-IPA: exact match first,
// then match ignoring stress and length marks, then shared leading rune.
// Phonemes with no plausible target are left unmapped (identity).
func GuessMap(from, to []string) *Map {
	entries := make(map[string][]string, len(from))
	toSet := make(map[string]bool, len(to))
	for _, t := range to {
		toSet[t] = true
	}

	for _, f := range from {
		if toSet[f] {
			continue // identity already
		}
		if t := nearestPhoneme(f, to, toSet); t != "" {
			entries[f] = []string{t}
		}
	}
	return NewMap(entries)
}

func nearestPhoneme(f string, to []string, toSet map[string]bool) string {
	base := stripMarks(f)
	if base != f && toSet[base] {
		return base
	}
	for _, t := range to {
		if stripMarks(t) == base {
			return t
		}
	}
	if first := firstRune(base); first != "" {
		for _, t := range to {
			if firstRune(stripMarks(t)) == first {
				return t
			}
		}
	}
	return ""
}

func stripMarks(p string) string {
	p = strings.TrimPrefix(p, StressPrimary)
	p = strings.TrimPrefix(p, StressSecondary)
	p = strings.TrimSuffix(p, "ː")
	return p
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// Apply returns the mapped symbol, or p itself when no mapping exists.
func (m *Map) Apply(p string) string {
	if m == nil {
		return p
	}
	if to, ok := m.entries[p]; ok {
		return to
	}
	return p
}

// Len returns the number of explicit (non-identity) entries.
func (m *Map) Len() int { return len(m.entries) }
