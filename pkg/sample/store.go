// pkg/sample/store.go
package sample

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Store is an in-memory sample repository. List returns samples in the
// order they were created.
type Store struct {
	mu    sync.RWMutex
	items map[string]SampleData
	order []string
}

func NewStore() *Store {
	return &Store{items: map[string]SampleData{}}
}

// Create stores d under a fresh id and returns the stored copy.
func (s *Store) Create(d SampleData) SampleData {
	d.ID = uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[d.ID] = d
	s.order = append(s.order, d.ID)
	return d
}

func (s *Store) Get(id string) (SampleData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.items[id]
	return d, ok
}

// Update replaces the sample with d.ID.
func (s *Store) Update(d SampleData) (SampleData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[d.ID]; !ok {
		return SampleData{}, false
	}
	s.items[d.ID] = d
	return d, true
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// List filters by q's search and returns the requested page.
func (s *Store) List(q WantsGetAllSampleEvent) CompletedGetAllSampleEvent {
	page, size := NormalizePage(q.Page, q.PageSize)

	s.mu.RLock()
	matched := make([]SampleData, 0, len(s.order))
	for _, id := range s.order {
		d := s.items[id]
		if matches(d, q.SearchField, q.SearchTerm) {
			matched = append(matched, d)
		}
	}
	s.mu.RUnlock()

	total := len(matched)
	pages := (total + size - 1) / size
	out := CompletedGetAllSampleEvent{
		Data:        []SampleData{},
		CurrentPage: page,
		PageSize:    size,
		TotalPages:  pages,
		TotalCount:  total,
		HasPrevious: page > 1,
		HasNext:     page < pages,
	}
	if start := (page - 1) * size; start < total {
		end := min(start+size, total)
		out.Data = matched[start:end]
	}
	return out
}

// NormalizePage clamps paging input: page defaults to 1, size to
// DefaultPageSize, and size is capped at MaxPageSize.
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// matches is a case-insensitive substring search on one field, or on
// name, type and description when field is empty or unknown.
func matches(d SampleData, field, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	has := func(v string) bool { return strings.Contains(strings.ToLower(v), term) }
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "name":
		return has(d.Name)
	case "type":
		return has(d.Type)
	case "description":
		return has(d.Description)
	default:
		return has(d.Name) || has(d.Type) || has(d.Description)
	}
}
