package ports

import (
	"context"

	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
)

// MatchingClient queries the external matching service. Results come back
// ordered by descending relevance as the service scored them; the core
// never re-sorts. Failures wrap domain.ErrMatchingUnavailable.
type MatchingClient interface {
	Match(ctx context.Context, query domain.SearchQuery) ([]domain.Candidate, error)
}
