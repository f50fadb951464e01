package domain

import (
	"fmt"
	"strings"
)

// Candidate is an influencer profile surfaced by a matching query. It is
// ephemeral: produced fresh per search and never persisted.
type Candidate struct {
	CandidateID      string
	DisplayName      string
	RelevanceScore   float64
	MatchingKeywords []string
	Annotation       string
}

// SearchQuery is the transient value object handed to the matching client.
// Two queries are debounce-equivalent iff all fields are structurally equal.
type SearchQuery struct {
	Niche    string
	Keywords []string
	Name     string
	Limit    int
}

// NewSearchQuery normalizes raw search intent: keywords are parsed from
// comma/space-delimited input, limit defaults to 20.
func NewSearchQuery(niche, keywords, name string, limit int) SearchQuery {
	if limit < 1 {
		limit = 20
	}
	return SearchQuery{
		Niche:    strings.TrimSpace(niche),
		Keywords: NormalizeKeywords(keywords),
		Name:     strings.TrimSpace(name),
		Limit:    limit,
	}
}

func (q SearchQuery) Empty() bool {
	return q.Niche == "" && len(q.Keywords) == 0 && q.Name == ""
}

func (q SearchQuery) Equal(other SearchQuery) bool {
	if q.Niche != other.Niche || q.Name != other.Name || q.Limit != other.Limit {
		return false
	}
	if len(q.Keywords) != len(other.Keywords) {
		return false
	}
	set := make(map[string]struct{}, len(q.Keywords))
	for _, kw := range q.Keywords {
		set[kw] = struct{}{}
	}
	for _, kw := range other.Keywords {
		if _, ok := set[kw]; !ok {
			return false
		}
	}
	return true
}

func (q SearchQuery) Validate() error {
	if q.Empty() {
		return fmt.Errorf("%w: at least one of niche, keywords or name is required", ErrInvalidInput)
	}
	if q.Limit < 1 {
		return fmt.Errorf("%w: limit must be at least 1", ErrInvalidInput)
	}
	return nil
}
