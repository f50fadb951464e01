package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/application"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
)

type fixedMatcher struct {
	candidates []domain.Candidate
}

func (m fixedMatcher) Match(context.Context, domain.SearchQuery) ([]domain.Candidate, error) {
	return m.candidates, nil
}

type testEnv struct {
	server *httptest.Server
	sign   func(ports.AuthClaims) (string, error)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	verifier, sign, err := security.NewEphemeralJWTVerifier()
	if err != nil {
		t.Fatalf("ephemeral verifier: %v", err)
	}
	repos := memory.NewRepositories()
	service := application.NewService(application.Dependencies{
		Campaigns:     repos.Campaigns,
		Relationships: repos.Relationships,
		Outbox:        repos.Outbox,
		Matching:      fixedMatcher{candidates: []domain.Candidate{{CandidateID: "c1", DisplayName: "Alpha"}}},
	})
	server := httptest.NewServer(NewRouter(NewHandler(service, verifier)))
	t.Cleanup(server.Close)
	return &testEnv{server: server, sign: sign}
}

func (e *testEnv) token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	now := time.Now().UTC()
	token, err := e.sign(ports.AuthClaims{
		UserID:    userID,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp, _ := env.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz: got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/v1/campaigns", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("no token: got %d", resp.StatusCode)
	}
	if body["code"] != "UNAUTHORIZED" {
		t.Fatalf("error code: %v", body)
	}
	resp, _ = env.do(t, http.MethodGet, "/v1/campaigns", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token: got %d", resp.StatusCode)
	}
}

func TestCampaignAndRelationshipFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	sponsorID := uuid.New()
	influencerID := uuid.New()
	sponsorToken := env.token(t, sponsorID, "sponsor")
	influencerToken := env.token(t, influencerID, "influencer")

	resp, body := env.do(t, http.MethodPost, "/v1/campaigns", sponsorToken, map[string]any{
		"niche":    "gaming",
		"keywords": "pc, indie",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create campaign: got %d (%v)", resp.StatusCode, body)
	}
	data := body["data"].(map[string]any)
	campaignID := data["campaign_id"].(string)
	if data["status"] != "draft" {
		t.Fatalf("campaign status: %v", data["status"])
	}

	resp, _ = env.do(t, http.MethodPost, "/v1/campaigns/"+campaignID+"/status", sponsorToken, map[string]any{"status": "active"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("activate: got %d", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodPost, "/v1/campaigns/"+campaignID+"/relationships", sponsorToken, map[string]any{
		"influencer_id": influencerID.String(),
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("invite: got %d (%v)", resp.StatusCode, body)
	}

	resp, body = env.do(t, http.MethodPost, "/v1/campaigns/"+campaignID+"/relationships", sponsorToken, map[string]any{
		"influencer_id": influencerID.String(),
	})
	if resp.StatusCode != http.StatusConflict || body["code"] != "DUPLICATE_RELATIONSHIP" {
		t.Fatalf("duplicate invite: got %d (%v)", resp.StatusCode, body)
	}

	transitionPath := "/v1/campaigns/" + campaignID + "/relationships/" + influencerID.String() + "/transition"

	resp, body = env.do(t, http.MethodPost, transitionPath, sponsorToken, map[string]any{"action": "accept"})
	if resp.StatusCode != http.StatusForbidden || body["code"] != "ROLE_NOT_ALLOWED" {
		t.Fatalf("sponsor accept: got %d (%v)", resp.StatusCode, body)
	}

	resp, body = env.do(t, http.MethodPost, transitionPath, influencerToken, map[string]any{"action": "accept"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("accept: got %d (%v)", resp.StatusCode, body)
	}
	if body["data"].(map[string]any)["status"] != "accepted" {
		t.Fatalf("accept status: %v", body)
	}

	resp, body = env.do(t, http.MethodPost, transitionPath, influencerToken, map[string]any{"action": "complete"})
	if resp.StatusCode != http.StatusConflict || body["code"] != "ILLEGAL_TRANSITION" {
		t.Fatalf("complete from accepted: got %d (%v)", resp.StatusCode, body)
	}

	resp, body = env.do(t, http.MethodGet, "/v1/campaigns/"+campaignID+"/counts", sponsorToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("counts: got %d", resp.StatusCode)
	}
	counts := body["data"].(map[string]any)
	if counts["total"] != float64(1) {
		t.Fatalf("counts total: %v", counts)
	}
}

func TestSearchSessionFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	token := env.token(t, uuid.New(), "sponsor")

	resp, body := env.do(t, http.MethodPost, "/v1/search/sessions", token, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: got %d (%v)", resp.StatusCode, body)
	}
	sessionID := body["data"].(map[string]any)["session_id"].(string)

	resp, _ = env.do(t, http.MethodPut, "/v1/search/sessions/"+sessionID+"/query", token, map[string]any{"niche": "gaming"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("submit: got %d", resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodPost, "/v1/search/sessions/"+sessionID+"/search-now", token, map[string]any{"niche": "gaming"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search now: got %d (%v)", resp.StatusCode, body)
	}
	candidates := body["data"].(map[string]any)["candidates"].([]any)
	if len(candidates) != 1 {
		t.Fatalf("candidates: %v", candidates)
	}

	resp, body = env.do(t, http.MethodPut, "/v1/search/sessions/"+sessionID+"/query", token, map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank query: got %d (%v)", resp.StatusCode, body)
	}

	otherToken := env.token(t, uuid.New(), "sponsor")
	resp, body = env.do(t, http.MethodGet, "/v1/search/sessions/"+sessionID, otherToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign session read: got %d (%v)", resp.StatusCode, body)
	}

	resp, _ = env.do(t, http.MethodDelete, "/v1/search/sessions/"+sessionID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close session: got %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodGet, "/v1/search/sessions/"+sessionID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("read after close: got %d", resp.StatusCode)
	}
}
