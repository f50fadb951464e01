package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
)

// Client talks to the external matching service (M58 feed). It forwards
// the coalesced query and normalizes the scored-candidate response; the
// ordering is the service's own (descending relevance) and is preserved
// as-is. Errors are not retried here; the debouncer naturally re-triggers
// on the next user input.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type matchRequest struct {
	Niche    string   `json:"niche,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Name     string   `json:"name,omitempty"`
	Limit    int      `json:"limit"`
}

type matchResponse struct {
	Candidates []struct {
		CandidateID      string   `json:"candidate_id"`
		DisplayName      string   `json:"display_name"`
		RelevanceScore   float64  `json:"relevance_score"`
		MatchingKeywords []string `json:"matching_keywords"`
		Annotation       string   `json:"annotation"`
	} `json:"candidates"`
}

func (c *Client) Match(ctx context.Context, query domain.SearchQuery) ([]domain.Candidate, error) {
	body, err := json.Marshal(matchRequest{
		Niche:    query.Niche,
		Keywords: query.Keywords,
		Name:     query.Name,
		Limit:    query.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", domain.ErrMatchingUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/match", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMatchingUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMatchingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: matching service returned %d", domain.ErrMatchingUnavailable, resp.StatusCode)
	}
	var decoded matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrMatchingUnavailable, err)
	}

	out := make([]domain.Candidate, 0, len(decoded.Candidates))
	for _, c := range decoded.Candidates {
		out = append(out, domain.Candidate{
			CandidateID:      c.CandidateID,
			DisplayName:      c.DisplayName,
			RelevanceScore:   c.RelevanceScore,
			MatchingKeywords: c.MatchingKeywords,
			Annotation:       c.Annotation,
		})
	}
	return out, nil
}
