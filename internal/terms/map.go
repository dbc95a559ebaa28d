package terms

import (
	"encoding/json"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrAlreadyExpanded is returned when associations are set twice for one term
var ErrAlreadyExpanded = errors.New("term already expanded")

// ErrUnknownTerm is returned when expanding a term that is not in the map
var ErrUnknownTerm = errors.New("term not in map")

// Map is the term graph of one model: term -> associated terms.
// A nil association list marks a frontier term that has been discovered
// but not expanded. Keys keep their discovery order, also through JSON.
type Map struct {
	entries *orderedmap.OrderedMap[string, []string]
}

// NewMap returns a map holding only the root term as frontier
func NewMap(root string) *Map {
	m := &Map{entries: orderedmap.New[string, []string]()}
	m.entries.Set(root, nil)
	return m
}

// Len returns the number of terms, expanded or not
func (m *Map) Len() int {
	return m.entries.Len()
}

// Has reports whether term is a key
func (m *Map) Has(term string) bool {
	_, ok := m.entries.Get(term)
	return ok
}

// Associations returns the association list of term.
// expanded is false for frontier terms and for unknown terms.
func (m *Map) Associations(term string) (associations []string, expanded bool) {
	v, ok := m.entries.Get(term)
	if !ok || v == nil {
		return nil, false
	}
	return append([]string(nil), v...), true
}

// Frontier returns the first unexpanded term in discovery order
func (m *Map) Frontier() (string, bool) {
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			return pair.Key, true
		}
	}
	return "", false
}

// FrontierLen counts unexpanded terms
func (m *Map) FrontierLen() int {
	n := 0
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			n++
		}
	}
	return n
}

// Keys returns every term in discovery order
func (m *Map) Keys() []string {
	keys := make([]string, 0, m.entries.Len())
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each calls fn for every entry in discovery order. associations is nil for frontier terms.
func (m *Map) Each(fn func(term string, associations []string)) {
	for pair := m.entries.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Expand records the associations of a frontier term and adds every
// association that is not yet a key as a new frontier term.
// It returns the newly discovered terms in the order they were added.
func (m *Map) Expand(term string, associations []string) ([]string, error) {
	current, ok := m.entries.Get(term)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTerm, term)
	}
	if current != nil {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyExpanded, term)
	}

	// a non-nil empty list still marks the term as expanded
	list := make([]string, len(associations))
	copy(list, associations)
	m.entries.Set(term, list)

	var added []string
	for _, association := range list {
		if m.Has(association) {
			continue
		}
		m.entries.Set(association, nil)
		added = append(added, association)
	}
	return added, nil
}

// MarshalJSON encodes the map as a JSON object in discovery order
func (m *Map) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.entries)
}

// UnmarshalJSON decodes a JSON object, keeping key order
func (m *Map) UnmarshalJSON(data []byte) error {
	entries := orderedmap.New[string, []string]()
	if err := json.Unmarshal(data, entries); err != nil {
		return err
	}
	m.entries = entries
	return nil
}
