package catalog

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// Memory is a map-backed Catalog.
type Memory struct {
	mu         sync.RWMutex
	rules      map[int64]index.IndexDefinition
	labels     map[int64]string
	properties map[int64]string
	nextID     int64
}

var _ index.Catalog = (*Memory)(nil)

// NewMemory returns an empty catalog.
func NewMemory() *Memory {
	return &Memory{
		rules:      make(map[int64]index.IndexDefinition),
		labels:     make(map[int64]string),
		properties: make(map[int64]string),
	}
}

// Add registers an index rule with the given id on label.property.
// Token ids are allocated per call.
func (m *Memory) Add(id int64, label, property string) index.IndexDefinition {
	return m.AddRule(id, index.KindIndex, label, property)
}

// AddRule registers a rule of any kind.
func (m *Memory) AddRule(id int64, kind index.RuleKind, label, property string) index.IndexDefinition {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	labelID := m.nextID
	m.nextID++
	propID := m.nextID

	m.labels[labelID] = label
	m.properties[propID] = property
	def := index.IndexDefinition{ID: id, Kind: kind, LabelID: labelID, PropertyKeyID: propID}
	m.rules[id] = def
	return def
}

// Remove deletes a rule.
func (m *Memory) Remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rules, id)
}

// IndexDefinitions implements index.Catalog, ordered by id.
func (m *Memory) IndexDefinitions(context.Context) ([]index.IndexDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	defs := make([]index.IndexDefinition, 0, len(m.rules))
	for _, def := range m.rules {
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b index.IndexDefinition) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return defs, nil
}

// IndexDefinition implements index.Catalog.
func (m *Memory) IndexDefinition(_ context.Context, id int64) (index.IndexDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.rules[id]
	if !ok {
		return index.IndexDefinition{}, notFound("index rule", id)
	}
	return def, nil
}

// LabelName implements index.Catalog.
func (m *Memory) LabelName(_ context.Context, labelID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.labels[labelID]
	if !ok {
		return "", notFound("label", labelID)
	}
	return name, nil
}

// PropertyKeyName implements index.Catalog.
func (m *Memory) PropertyKeyName(_ context.Context, propertyKeyID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.properties[propertyKeyID]
	if !ok {
		return "", notFound("property key", propertyKeyID)
	}
	return name, nil
}
