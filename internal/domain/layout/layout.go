package layout

import (
	"fmt"

	"github.com/kailas-cloud/gazette/internal/domain/search/result"
)

// MaxSuggestions caps the number of alternative suggestions in a selection.
// The palette below sizes it: one theme for the primary, one per suggestion.
const MaxSuggestions = 3

// themes is the poster color palette assigned across a selection: the primary
// takes the first color, suggestions take the rest in rank order.
var themes = [MaxSuggestions + 1]string{"blue", "green", "purple", "orange"}

// Selection is one primary layout pick plus up to MaxSuggestions alternatives.
// Invariants: the primary never appears among the suggestions, suggestion IDs
// are distinct, and suggestions are ordered by descending score.
type Selection struct {
	primary     result.Result
	suggestions []result.Result
	reason      string
}

// New validates and creates a Selection. Suggestions beyond MaxSuggestions,
// duplicates, and the primary itself are rejected rather than silently
// dropped: the caller is expected to have built a well-formed candidate list.
func New(primary result.Result, suggestions []result.Result, reason string) (Selection, error) {
	if len(suggestions) > MaxSuggestions {
		return Selection{}, fmt.Errorf("too many suggestions: %d (max %d)", len(suggestions), MaxSuggestions)
	}

	seen := map[string]bool{primary.ID(): true}
	prev := 2.0
	for _, s := range suggestions {
		if seen[s.ID()] {
			return Selection{}, fmt.Errorf("suggestion %q duplicates primary or another suggestion", s.ID())
		}
		seen[s.ID()] = true
		if s.Score() > prev {
			return Selection{}, fmt.Errorf("suggestions not ordered by descending score")
		}
		prev = s.Score()
	}

	return Selection{primary: primary, suggestions: suggestions, reason: reason}, nil
}

// Primary returns the selected best layout.
func (s *Selection) Primary() result.Result { return s.primary }

// Suggestions returns the ordered alternative picks.
func (s *Selection) Suggestions() []result.Result { return s.suggestions }

// Reason returns the model's explanation for the primary pick, if any.
func (s *Selection) Reason() string { return s.reason }

// PrimaryTheme returns the color theme assigned to the primary pick.
func (s *Selection) PrimaryTheme() string { return themes[0] }

// SuggestionTheme returns the color theme for the suggestion at position i,
// which must index Suggestions().
func (s *Selection) SuggestionTheme(i int) string { return themes[1+i] }
