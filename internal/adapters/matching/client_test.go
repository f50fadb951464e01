package matching

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
)

func TestMatchPreservesServiceOrder(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"candidate_id": "c9", "display_name": "Low Score First", "relevance_score": 0.1},
				{"candidate_id": "c1", "display_name": "High Score Second", "relevance_score": 0.9},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	candidates, err := client.Match(context.Background(), domain.NewSearchQuery("gaming", "pc", "", 5))
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if gotPath != "/v1/match" {
		t.Fatalf("path: got %s", gotPath)
	}
	if gotBody["niche"] != "gaming" || gotBody["limit"] != float64(5) {
		t.Fatalf("request body: %v", gotBody)
	}
	// The service's own ordering is authoritative, even when it is not
	// score-descending.
	if len(candidates) != 2 || candidates[0].CandidateID != "c9" || candidates[1].CandidateID != "c1" {
		t.Fatalf("order not preserved: %v", candidates)
	}
}

func TestMatchWrapsServiceFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.Match(context.Background(), domain.NewSearchQuery("gaming", "", "", 0)); !errors.Is(err, domain.ErrMatchingUnavailable) {
		t.Fatalf("http 503: got %v, want ErrMatchingUnavailable", err)
	}
}

func TestMatchWrapsTransportFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL, time.Second)
	if _, err := client.Match(context.Background(), domain.NewSearchQuery("gaming", "", "", 0)); !errors.Is(err, domain.ErrMatchingUnavailable) {
		t.Fatalf("refused connection: got %v, want ErrMatchingUnavailable", err)
	}
}

func TestMatchWrapsMalformedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	if _, err := client.Match(context.Background(), domain.NewSearchQuery("gaming", "", "", 0)); !errors.Is(err, domain.ErrMatchingUnavailable) {
		t.Fatalf("malformed body: got %v, want ErrMatchingUnavailable", err)
	}
}
