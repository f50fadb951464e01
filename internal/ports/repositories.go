package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
)

type CreateCampaignParams struct {
	SponsorID    uuid.UUID
	Niche        string
	Audience     string
	Budget       *domain.BudgetRange
	Keywords     []string
	Requirements string
	CreatedAt    time.Time
}

type UpdateCampaignParams struct {
	CampaignID   uuid.UUID
	Niche        *string
	Audience     *string
	Budget       *domain.BudgetRange
	Keywords     []string
	Requirements *string
	UpdatedAt    time.Time
}

type CampaignRepository interface {
	Create(ctx context.Context, params CreateCampaignParams) (domain.Campaign, error)
	GetByID(ctx context.Context, campaignID uuid.UUID) (domain.Campaign, error)
	ListBySponsor(ctx context.Context, sponsorID uuid.UUID) ([]domain.Campaign, error)
	Update(ctx context.Context, params UpdateCampaignParams) (domain.Campaign, error)
	UpdateStatus(ctx context.Context, campaignID uuid.UUID, status domain.CampaignStatus, at time.Time) (domain.Campaign, error)
}

type CreateRelationshipParams struct {
	CampaignID   uuid.UUID
	InfluencerID uuid.UUID
	Note         string
	CreatedAt    time.Time
}

// RelationshipRepository is the authoritative store for relationships,
// keyed by (campaign, influencer). Create must reject duplicates with
// domain.ErrDuplicateRelationship. Update persists the full row for the
// pair atomically, compare-and-swap style: the write is applied only while
// the stored status still equals expected, otherwise the store returns
// domain.ErrConflict so the caller re-reads and re-validates. This is what
// keeps the lifecycle machine honest across service instances, where the
// application's keyed mutex cannot reach.
type RelationshipRepository interface {
	Create(ctx context.Context, params CreateRelationshipParams) (domain.Relationship, error)
	Get(ctx context.Context, campaignID, influencerID uuid.UUID) (domain.Relationship, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Relationship, error)
	ListByInfluencer(ctx context.Context, influencerID uuid.UUID) ([]domain.Relationship, error)
	Update(ctx context.Context, rel domain.Relationship, expected domain.RelationshipStatus) (domain.Relationship, error)
}

type OutboxEvent struct {
	EventID          uuid.UUID
	EventType        string
	PartitionKey     string
	PartitionKeyPath string
	Payload          []byte
	OccurredAt       time.Time
	SchemaVersion    string
}

type OutboxRecord struct {
	OutboxID     uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	RetryCount   int
	PublishedAt  *time.Time
	LastError    *string
	FirstSeenAt  time.Time
}

type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error
}
