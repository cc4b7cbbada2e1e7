package db

import (
	"strings"
	"testing"
)

func TestIndexDefinition_Validate(t *testing.T) {
	idx := IndexDefinition{
		Name:     "pages-idx",
		Prefixes: []string{"pages:"},
		Fields: []IndexField{
			{Name: "$.title", Alias: "title", Type: IndexFieldTag},
			{Name: "$.year", Alias: "year", Type: IndexFieldNumeric},
			{
				Name:              "$.__vector",
				Alias:             "vector",
				Type:              IndexFieldVector,
				VectorDim:         1536,
				VectorDistance:    DistanceCosine,
				VectorM:           16,
				VectorEFConstruct: 200,
			},
		},
	}

	if err := idx.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIndexDefinition_Validate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		idx     IndexDefinition
		wantErr string
	}{
		{
			name:    "empty name",
			idx:     IndexDefinition{Fields: []IndexField{{Name: "$.title", Type: IndexFieldTag}}},
			wantErr: "index name is required",
		},
		{
			name:    "invalid name",
			idx:     IndexDefinition{Name: "bad name!", Fields: []IndexField{{Name: "$.title", Type: IndexFieldTag}}},
			wantErr: "invalid characters",
		},
		{
			name:    "no fields",
			idx:     IndexDefinition{Name: "idx"},
			wantErr: "at least one field",
		},
		{
			name: "empty field name",
			idx: IndexDefinition{Name: "idx", Fields: []IndexField{
				{Name: "", Type: IndexFieldTag},
			}},
			wantErr: "field name is required",
		},
		{
			name: "duplicate alias",
			idx: IndexDefinition{Name: "idx", Fields: []IndexField{
				{Name: "$.a", Alias: "title", Type: IndexFieldTag},
				{Name: "$.b", Alias: "title", Type: IndexFieldTag},
			}},
			wantErr: "duplicate field name",
		},
		{
			name: "vector without dim",
			idx: IndexDefinition{Name: "idx", Fields: []IndexField{
				{Name: "$.__vector", Alias: "vector", Type: IndexFieldVector},
			}},
			wantErr: "positive DIM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.idx.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"pages-idx", "gazette:pages:idx", "a", "Field_1"}
	for _, s := range valid {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "has space", "semi;colon", "star*", "quote\""}
	for _, s := range invalid {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true, want false", s)
		}
	}
}
