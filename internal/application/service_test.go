package application

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
)

func newTestService(t *testing.T) (*Service, *memory.Repositories) {
	t.Helper()
	repos := memory.NewRepositories()
	service := NewService(Dependencies{
		Campaigns:     repos.Campaigns,
		Relationships: repos.Relationships,
		Outbox:        repos.Outbox,
		Matching:      &stubMatcher{},
	})
	return service, repos
}

func activeCampaign(t *testing.T, service *Service, sponsor Actor) CampaignResponse {
	t.Helper()
	ctx := context.Background()
	created, err := service.CreateCampaign(ctx, sponsor, CreateCampaignRequest{
		Niche:    "gaming",
		Keywords: "pc, indie",
	})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	campaignID := uuid.MustParse(created.CampaignID)
	activated, err := service.ChangeCampaignStatus(ctx, sponsor, campaignID, "active")
	if err != nil {
		t.Fatalf("activate campaign: %v", err)
	}
	return activated
}

func TestCampaignLifecycle(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	ctx := context.Background()
	sponsor := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}

	created, err := service.CreateCampaign(ctx, sponsor, CreateCampaignRequest{
		Niche:  "fitness",
		Budget: &BudgetRangeInput{Min: 100, Max: 1000},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != string(domain.CampaignDraft) {
		t.Fatalf("new campaign status: got %s, want draft", created.Status)
	}
	campaignID := uuid.MustParse(created.CampaignID)

	if _, err := service.ChangeCampaignStatus(ctx, sponsor, campaignID, "completed"); !errors.Is(err, domain.ErrIllegalTransition) {
		t.Fatalf("draft -> completed: got %v, want ErrIllegalTransition", err)
	}
	if _, err := service.ChangeCampaignStatus(ctx, sponsor, campaignID, "active"); err != nil {
		t.Fatalf("draft -> active: %v", err)
	}

	influencer := Actor{UserID: uuid.New(), Role: domain.RoleInfluencer}
	if _, err := service.CreateCampaign(ctx, influencer, CreateCampaignRequest{Niche: "gaming"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("influencer create campaign: got %v, want ErrForbidden", err)
	}

	other := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}
	if _, err := service.UpdateCampaign(ctx, other, campaignID, UpdateCampaignRequest{}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign sponsor update: got %v, want ErrForbidden", err)
	}
}

func TestRelationshipLifecycle(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	ctx := context.Background()
	sponsor := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}
	influencer := Actor{UserID: uuid.New(), Role: domain.RoleInfluencer}

	campaign := activeCampaign(t, service, sponsor)
	campaignID := uuid.MustParse(campaign.CampaignID)

	created, err := service.CreateRelationship(ctx, sponsor, campaignID, CreateRelationshipRequest{
		InfluencerID: influencer.UserID.String(),
		Note:         "loved your last series",
	})
	if err != nil {
		t.Fatalf("create relationship: %v", err)
	}
	if created.Status != string(domain.RelationshipInvited) {
		t.Fatalf("new relationship status: got %s, want invited", created.Status)
	}

	// Strict duplicate rejection for the same pair.
	if _, err := service.CreateRelationship(ctx, sponsor, campaignID, CreateRelationshipRequest{
		InfluencerID: influencer.UserID.String(),
	}); !errors.Is(err, domain.ErrDuplicateRelationship) {
		t.Fatalf("duplicate create: got %v, want ErrDuplicateRelationship", err)
	}

	// Sponsors cannot take influencer-only actions.
	if _, err := service.Transition(ctx, sponsor, campaignID, influencer.UserID, "accept"); !errors.Is(err, domain.ErrUnauthorizedActor) {
		t.Fatalf("sponsor accept: got %v, want ErrUnauthorizedActor", err)
	}

	accepted, err := service.Transition(ctx, influencer, campaignID, influencer.UserID, "accept")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != string(domain.RelationshipAccepted) || accepted.AcceptedAt == nil {
		t.Fatalf("accept result: %+v", accepted)
	}

	// Idempotent replay returns the current state unchanged.
	replayed, err := service.Transition(ctx, influencer, campaignID, influencer.UserID, "accept")
	if err != nil {
		t.Fatalf("replay accept: %v", err)
	}
	if replayed.Status != accepted.Status || !replayed.UpdatedAt.Equal(accepted.UpdatedAt) {
		t.Fatalf("replay mutated state: %+v vs %+v", replayed, accepted)
	}

	if _, err := service.Transition(ctx, influencer, campaignID, influencer.UserID, "start-work"); err != nil {
		t.Fatalf("start-work: %v", err)
	}
	completed, err := service.Transition(ctx, influencer, campaignID, influencer.UserID, "complete")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if completed.Status != string(domain.RelationshipCompleted) {
		t.Fatalf("complete result: %+v", completed)
	}

	if _, err := service.Transition(ctx, sponsor, campaignID, influencer.UserID, "cancel"); !errors.Is(err, domain.ErrTerminalState) {
		t.Fatalf("cancel after complete: got %v, want ErrTerminalState", err)
	}
}

func TestConcurrentTransitionsSerializePerPair(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	ctx := context.Background()
	sponsor := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}
	influencer := Actor{UserID: uuid.New(), Role: domain.RoleInfluencer}

	campaign := activeCampaign(t, service, sponsor)
	campaignID := uuid.MustParse(campaign.CampaignID)
	if _, err := service.CreateRelationship(ctx, sponsor, campaignID, CreateRelationshipRequest{
		InfluencerID: influencer.UserID.String(),
	}); err != nil {
		t.Fatalf("create relationship: %v", err)
	}

	// Race accept against reject on the same pair. Exactly one outcome may
	// win; every loser must fail under the terminal or legality rules, never
	// corrupt the row.
	const writers = 40
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		action := "accept"
		if i%2 == 1 {
			action = "reject"
		}
		wg.Add(1)
		go func(action string) {
			defer wg.Done()
			_, err := service.Transition(ctx, influencer, campaignID, influencer.UserID, action)
			errs <- err
		}(action)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrTerminalState) && !errors.Is(err, domain.ErrIllegalTransition) {
			t.Fatalf("racing transition failed with %v", err)
		}
	}

	final, err := service.GetRelationship(ctx, sponsor, campaignID, influencer.UserID)
	if err != nil {
		t.Fatalf("get relationship: %v", err)
	}
	if final.Status != string(domain.RelationshipAccepted) && final.Status != string(domain.RelationshipRejected) {
		t.Fatalf("final status: got %s, want accepted or rejected", final.Status)
	}
}

func TestListRelationshipsStatusFilter(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	ctx := context.Background()
	sponsor := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}
	influencer := Actor{UserID: uuid.New(), Role: domain.RoleInfluencer}

	campaign := activeCampaign(t, service, sponsor)
	campaignID := uuid.MustParse(campaign.CampaignID)
	if _, err := service.CreateRelationship(ctx, sponsor, campaignID, CreateRelationshipRequest{
		InfluencerID: influencer.UserID.String(),
	}); err != nil {
		t.Fatalf("create relationship: %v", err)
	}
	mustTransition(t, service, influencer, campaignID, "accept")

	accepted, err := service.ListCampaignRelationships(ctx, sponsor, campaignID, "Accepted")
	if err != nil {
		t.Fatalf("filter accepted: %v", err)
	}
	if len(accepted) != 1 {
		t.Fatalf("filter accepted: got %d rows", len(accepted))
	}
	invited, err := service.ListCampaignRelationships(ctx, sponsor, campaignID, "invited")
	if err != nil {
		t.Fatalf("filter invited: %v", err)
	}
	if len(invited) != 0 {
		t.Fatalf("filter invited: got %d rows", len(invited))
	}
	if _, err := service.ListCampaignRelationships(ctx, sponsor, campaignID, "archived"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown filter: got %v, want ErrInvalidInput", err)
	}
}

func TestCreateRelationshipRequiresActiveCampaign(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	ctx := context.Background()
	sponsor := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}

	draft, err := service.CreateCampaign(ctx, sponsor, CreateCampaignRequest{Niche: "gaming"})
	if err != nil {
		t.Fatalf("create campaign: %v", err)
	}
	_, err = service.CreateRelationship(ctx, sponsor, uuid.MustParse(draft.CampaignID), CreateRelationshipRequest{
		InfluencerID: uuid.NewString(),
	})
	if !errors.Is(err, domain.ErrCampaignNotActive) {
		t.Fatalf("invite on draft campaign: got %v, want ErrCampaignNotActive", err)
	}
}

func TestRelationshipAccessControl(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	ctx := context.Background()
	sponsor := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}
	influencer := Actor{UserID: uuid.New(), Role: domain.RoleInfluencer}

	campaign := activeCampaign(t, service, sponsor)
	campaignID := uuid.MustParse(campaign.CampaignID)
	if _, err := service.CreateRelationship(ctx, sponsor, campaignID, CreateRelationshipRequest{
		InfluencerID: influencer.UserID.String(),
	}); err != nil {
		t.Fatalf("create relationship: %v", err)
	}

	stranger := Actor{UserID: uuid.New(), Role: domain.RoleInfluencer}
	if _, err := service.GetRelationship(ctx, stranger, campaignID, influencer.UserID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger read: got %v, want ErrForbidden", err)
	}
	if _, err := service.Transition(ctx, stranger, campaignID, influencer.UserID, "accept"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("stranger transition: got %v, want ErrForbidden", err)
	}
}

func TestCountsSumToTotal(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	ctx := context.Background()
	sponsor := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}
	campaign := activeCampaign(t, service, sponsor)
	campaignID := uuid.MustParse(campaign.CampaignID)

	influencers := make([]Actor, 4)
	for i := range influencers {
		influencers[i] = Actor{UserID: uuid.New(), Role: domain.RoleInfluencer}
		if _, err := service.CreateRelationship(ctx, sponsor, campaignID, CreateRelationshipRequest{
			InfluencerID: influencers[i].UserID.String(),
		}); err != nil {
			t.Fatalf("invite %d: %v", i, err)
		}
	}
	// One accepted, one rejected, one in progress, one left invited.
	mustTransition(t, service, influencers[0], campaignID, "accept")
	mustTransition(t, service, influencers[1], campaignID, "reject")
	mustTransition(t, service, influencers[2], campaignID, "accept")
	mustTransition(t, service, influencers[2], campaignID, "start-work")

	counts, err := service.CountsByCampaign(ctx, sponsor, campaignID)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Total != 4 {
		t.Fatalf("total: got %d, want 4", counts.Total)
	}
	if len(counts.Counts) != len(domain.RelationshipStatuses) {
		t.Fatalf("every status must be present, got %v", counts.Counts)
	}
	sum := 0
	for _, n := range counts.Counts {
		sum += n
	}
	if sum != counts.Total {
		t.Fatalf("counts sum %d != total %d", sum, counts.Total)
	}
	if counts.Counts["invited"] != 1 || counts.Counts["accepted"] != 1 ||
		counts.Counts["rejected"] != 1 || counts.Counts["in_progress"] != 1 {
		t.Fatalf("unexpected distribution: %v", counts.Counts)
	}

	dashboard, err := service.DashboardCounts(ctx, sponsor)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if len(dashboard.Campaigns) != 1 || dashboard.Totals["invited"] != 1 {
		t.Fatalf("dashboard: %+v", dashboard)
	}
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]string{}} }

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.data[key], 10, 64)
	n++
	c.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.data, key)
	}
	return nil
}

func TestCountsCacheIgnoresLateStaleWrites(t *testing.T) {
	t.Parallel()

	cacheStore := newFakeCache()
	repos := memory.NewRepositories()
	service := NewService(Dependencies{
		Campaigns:     repos.Campaigns,
		Relationships: repos.Relationships,
		Outbox:        repos.Outbox,
		Matching:      &stubMatcher{},
		Cache:         cacheStore,
	})
	ctx := context.Background()
	sponsor := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}
	influencer := Actor{UserID: uuid.New(), Role: domain.RoleInfluencer}

	campaign := activeCampaign(t, service, sponsor)
	campaignID := uuid.MustParse(campaign.CampaignID)
	if _, err := service.CreateRelationship(ctx, sponsor, campaignID, CreateRelationshipRequest{
		InfluencerID: influencer.UserID.String(),
	}); err != nil {
		t.Fatalf("create relationship: %v", err)
	}

	before, err := service.CountsByCampaign(ctx, sponsor, campaignID)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if before.Counts["invited"] != 1 {
		t.Fatalf("pre-transition counts: %v", before.Counts)
	}
	staleKey := countsCacheKey(campaignID, "1")
	stale, _ := cacheStore.Get(ctx, staleKey)
	if stale == "" {
		t.Fatalf("expected counts cached under version 1")
	}

	mustTransition(t, service, influencer, campaignID, "accept")

	// A reader that computed against the pre-accept rows finishes late and
	// writes its snapshot under the version it read. The bumped version must
	// keep that entry unreachable.
	if err := cacheStore.Set(ctx, staleKey, stale, time.Minute); err != nil {
		t.Fatalf("stale set: %v", err)
	}

	after, err := service.CountsByCampaign(ctx, sponsor, campaignID)
	if err != nil {
		t.Fatalf("counts after accept: %v", err)
	}
	if after.Counts["accepted"] != 1 || after.Counts["invited"] != 0 {
		t.Fatalf("stale counts served: %v", after.Counts)
	}
}

func TestHandleInfluencerDeactivated(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	ctx := context.Background()
	sponsor := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}
	influencer := Actor{UserID: uuid.New(), Role: domain.RoleInfluencer}

	invited := activeCampaign(t, service, sponsor)
	working := activeCampaign(t, service, sponsor)
	for _, c := range []CampaignResponse{invited, working} {
		if _, err := service.CreateRelationship(ctx, sponsor, uuid.MustParse(c.CampaignID), CreateRelationshipRequest{
			InfluencerID: influencer.UserID.String(),
		}); err != nil {
			t.Fatalf("invite: %v", err)
		}
	}
	mustTransition(t, service, influencer, uuid.MustParse(working.CampaignID), "accept")
	mustTransition(t, service, influencer, uuid.MustParse(working.CampaignID), "start-work")

	payload := []byte(`{"event_id":"` + uuid.NewString() + `","data":{"influencer_id":"` + influencer.UserID.String() + `"}}`)
	if err := service.HandleInfluencerDeactivated(ctx, payload); err != nil {
		t.Fatalf("handle deactivated: %v", err)
	}

	rel1, err := service.GetRelationship(ctx, sponsor, uuid.MustParse(invited.CampaignID), influencer.UserID)
	if err != nil {
		t.Fatalf("get rel1: %v", err)
	}
	if rel1.Status != string(domain.RelationshipRejected) {
		t.Fatalf("invited relationship: got %s, want rejected", rel1.Status)
	}
	rel2, err := service.GetRelationship(ctx, sponsor, uuid.MustParse(working.CampaignID), influencer.UserID)
	if err != nil {
		t.Fatalf("get rel2: %v", err)
	}
	if rel2.Status != string(domain.RelationshipCancelled) {
		t.Fatalf("in-progress relationship: got %s, want cancelled", rel2.Status)
	}
}

func TestEventsAreEnqueued(t *testing.T) {
	t.Parallel()

	service, repos := newTestService(t)
	ctx := context.Background()
	sponsor := Actor{UserID: uuid.New(), Role: domain.RoleSponsor}
	influencer := Actor{UserID: uuid.New(), Role: domain.RoleInfluencer}

	campaign := activeCampaign(t, service, sponsor)
	campaignID := uuid.MustParse(campaign.CampaignID)
	if _, err := service.CreateRelationship(ctx, sponsor, campaignID, CreateRelationshipRequest{
		InfluencerID: influencer.UserID.String(),
	}); err != nil {
		t.Fatalf("create relationship: %v", err)
	}
	mustTransition(t, service, influencer, campaignID, "accept")

	records, err := repos.Outbox.FetchUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("fetch outbox: %v", err)
	}
	types := map[string]int{}
	for _, rec := range records {
		types[rec.EventType]++
	}
	if types[domain.EventCampaignStatusChanged] != 1 {
		t.Fatalf("campaign status event: %v", types)
	}
	if types[domain.EventRelationshipCreated] != 1 || types[domain.EventRelationshipTransitioned] != 1 {
		t.Fatalf("relationship events: %v", types)
	}
}

func mustTransition(t *testing.T, service *Service, influencer Actor, campaignID uuid.UUID, action string) {
	t.Helper()
	if _, err := service.Transition(context.Background(), influencer, campaignID, influencer.UserID, action); err != nil {
		t.Fatalf("%s: %v", action, err)
	}
}

func TestNewServiceDefaults(t *testing.T) {
	t.Parallel()

	service, _ := newTestService(t)
	if service.cfg.SearchDebounce != 500*time.Millisecond {
		t.Fatalf("debounce default: got %v", service.cfg.SearchDebounce)
	}
	if service.cfg.SearchTimeout != 10*time.Second {
		t.Fatalf("timeout default: got %v", service.cfg.SearchTimeout)
	}
}
