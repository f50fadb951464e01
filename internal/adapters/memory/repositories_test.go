package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
)

func TestRelationshipRepositoryRejectsDuplicatePair(t *testing.T) {
	t.Parallel()

	repos := NewRepositories()
	ctx := context.Background()
	params := ports.CreateRelationshipParams{
		CampaignID:   uuid.New(),
		InfluencerID: uuid.New(),
		CreatedAt:    time.Now().UTC(),
	}

	created, err := repos.Relationships.Create(ctx, params)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != domain.RelationshipInvited {
		t.Fatalf("initial status: got %s", created.Status)
	}
	if _, err := repos.Relationships.Create(ctx, params); !errors.Is(err, domain.ErrDuplicateRelationship) {
		t.Fatalf("duplicate: got %v, want ErrDuplicateRelationship", err)
	}

	// Same influencer on another campaign is a distinct pair.
	params.CampaignID = uuid.New()
	if _, err := repos.Relationships.Create(ctx, params); err != nil {
		t.Fatalf("other campaign: %v", err)
	}
}

func TestRelationshipUpdateRejectsStaleStatus(t *testing.T) {
	t.Parallel()

	repos := NewRepositories()
	ctx := context.Background()
	created, err := repos.Relationships.Create(ctx, ports.CreateRelationshipParams{
		CampaignID:   uuid.New(),
		InfluencerID: uuid.New(),
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	accepted := created
	accepted.MarkTransitioned(domain.RelationshipAccepted, time.Now().UTC())
	if _, err := repos.Relationships.Update(ctx, accepted, domain.RelationshipInvited); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// A writer that validated against the pre-accept row must not clobber
	// the accepted one.
	rejected := created
	rejected.MarkTransitioned(domain.RelationshipRejected, time.Now().UTC())
	if _, err := repos.Relationships.Update(ctx, rejected, domain.RelationshipInvited); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("stale write: got %v, want ErrConflict", err)
	}
	got, err := repos.Relationships.Get(ctx, created.CampaignID, created.InfluencerID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.RelationshipAccepted {
		t.Fatalf("status after stale write: got %s, want accepted", got.Status)
	}
}

func TestOutboxMarkPublished(t *testing.T) {
	t.Parallel()

	repos := NewRepositories()
	ctx := context.Background()
	eventID := uuid.New()
	if err := repos.Outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      eventID,
		EventType:    domain.EventRelationshipCreated,
		PartitionKey: "k",
		Payload:      []byte(`{}`),
		OccurredAt:   time.Now().UTC(),
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	records, err := repos.Outbox.FetchUnpublished(ctx, 10)
	if err != nil || len(records) != 1 {
		t.Fatalf("fetch: got %d records, err=%v", len(records), err)
	}
	if err := repos.Outbox.MarkPublished(ctx, eventID, time.Now().UTC()); err != nil {
		t.Fatalf("mark published: %v", err)
	}
	records, err = repos.Outbox.FetchUnpublished(ctx, 10)
	if err != nil || len(records) != 0 {
		t.Fatalf("after publish: got %d records, err=%v", len(records), err)
	}
}
