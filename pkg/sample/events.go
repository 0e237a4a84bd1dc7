// pkg/sample/events.go
package sample

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"
)

type SampleData struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Count       int    `json:"count"`
}

type WantsCreateSampleEvent struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type"`
	Count       int    `json:"count"`
}

type CompletedCreateSampleEvent struct {
	SampleData
}

type WantsUpdateSampleEvent struct {
	SampleData
}

// Found is false when no sample had the requested id.
type CompletedUpdateSampleEvent struct {
	SampleData
	Found bool `json:"found"`
}

type WantsDeleteSampleEvent struct {
	ID string `json:"id"`
}

type CompletedDeleteSampleEvent struct {
	ID    string `json:"id"`
	Found bool   `json:"found"`
}

type WantsGetSampleEvent struct {
	ID string `json:"id"`
}

type CompletedGetSampleEvent struct {
	SampleData
	Found bool `json:"found"`
}

type WantsGetAllSampleEvent struct {
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
	SearchField string `json:"searchField,omitempty"`
	SearchTerm  string `json:"searchTerm,omitempty"`
}

type CompletedGetAllSampleEvent struct {
	Data        []SampleData `json:"data"`
	CurrentPage int          `json:"currentPage"`
	PageSize    int          `json:"pageSize"`
	TotalPages  int          `json:"totalPages"`
	TotalCount  int          `json:"totalCount"`
	HasPrevious bool         `json:"hasPrevious"`
	HasNext     bool         `json:"hasNext"`
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return "sample: invalid input: " + strings.Join(parts, "; ")
}

func validateFields(name, description, typ string, count int, fields map[string]string) {
	switch {
	case strings.TrimSpace(name) == "":
		fields["name"] = "required"
	case utf8.RuneCountInString(name) > 100:
		fields["name"] = "must be at most 100 characters"
	}
	if utf8.RuneCountInString(description) > 500 {
		fields["description"] = "must be at most 500 characters"
	}
	switch {
	case strings.TrimSpace(typ) == "":
		fields["type"] = "required"
	case utf8.RuneCountInString(typ) > 50:
		fields["type"] = "must be at most 50 characters"
	}
	if count < 1 {
		fields["count"] = fmt.Sprintf("must be at least 1, got %d", count)
	}
}

func (e WantsCreateSampleEvent) Validate() error {
	fields := map[string]string{}
	validateFields(e.Name, e.Description, e.Type, e.Count, fields)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (e WantsUpdateSampleEvent) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(e.ID) == "" {
		fields["id"] = "required"
	}
	validateFields(e.Name, e.Description, e.Type, e.Count, fields)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
