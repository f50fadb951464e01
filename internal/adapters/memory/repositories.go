package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
)

// Repositories is the in-memory variant of the store, used in dev mode
// (no DB_URL) and by tests.
type Repositories struct {
	Campaigns     *CampaignRepository
	Relationships *RelationshipRepository
	Outbox        *OutboxRepository
}

func NewRepositories() *Repositories {
	return &Repositories{
		Campaigns:     &CampaignRepository{rows: map[uuid.UUID]domain.Campaign{}},
		Relationships: &RelationshipRepository{rows: map[pairKey]domain.Relationship{}},
		Outbox:        &OutboxRepository{rows: map[uuid.UUID]ports.OutboxRecord{}},
	}
}

type CampaignRepository struct {
	mu   sync.Mutex
	rows map[uuid.UUID]domain.Campaign
}

func (r *CampaignRepository) Create(_ context.Context, params ports.CreateCampaignParams) (domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign := domain.Campaign{
		CampaignID:   uuid.New(),
		SponsorID:    params.SponsorID,
		Niche:        params.Niche,
		Audience:     params.Audience,
		Budget:       params.Budget,
		Keywords:     params.Keywords,
		Requirements: params.Requirements,
		Status:       domain.CampaignDraft,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	r.rows[campaign.CampaignID] = campaign
	return campaign, nil
}

func (r *CampaignRepository) GetByID(_ context.Context, campaignID uuid.UUID) (domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign, ok := r.rows[campaignID]
	if !ok {
		return domain.Campaign{}, domain.ErrNotFound
	}
	return campaign, nil
}

func (r *CampaignRepository) ListBySponsor(_ context.Context, sponsorID uuid.UUID) ([]domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Campaign, 0)
	for _, campaign := range r.rows {
		if campaign.SponsorID == sponsorID {
			out = append(out, campaign)
		}
	}
	return out, nil
}

func (r *CampaignRepository) Update(_ context.Context, params ports.UpdateCampaignParams) (domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign, ok := r.rows[params.CampaignID]
	if !ok {
		return domain.Campaign{}, domain.ErrNotFound
	}
	if params.Niche != nil {
		campaign.Niche = *params.Niche
	}
	if params.Audience != nil {
		campaign.Audience = *params.Audience
	}
	if params.Budget != nil {
		campaign.Budget = params.Budget
	}
	if params.Keywords != nil {
		campaign.Keywords = params.Keywords
	}
	if params.Requirements != nil {
		campaign.Requirements = *params.Requirements
	}
	campaign.UpdatedAt = params.UpdatedAt
	r.rows[params.CampaignID] = campaign
	return campaign, nil
}

func (r *CampaignRepository) UpdateStatus(_ context.Context, campaignID uuid.UUID, status domain.CampaignStatus, at time.Time) (domain.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	campaign, ok := r.rows[campaignID]
	if !ok {
		return domain.Campaign{}, domain.ErrNotFound
	}
	campaign.Status = status
	campaign.UpdatedAt = at
	r.rows[campaignID] = campaign
	return campaign, nil
}

type pairKey struct {
	campaignID   uuid.UUID
	influencerID uuid.UUID
}

type RelationshipRepository struct {
	mu   sync.Mutex
	rows map[pairKey]domain.Relationship
}

func (r *RelationshipRepository) Create(_ context.Context, params ports.CreateRelationshipParams) (domain.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{campaignID: params.CampaignID, influencerID: params.InfluencerID}
	if _, exists := r.rows[key]; exists {
		return domain.Relationship{}, domain.ErrDuplicateRelationship
	}
	rel := domain.Relationship{
		CampaignID:   params.CampaignID,
		InfluencerID: params.InfluencerID,
		Status:       domain.RelationshipInvited,
		Note:         params.Note,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	r.rows[key] = rel
	return rel, nil
}

func (r *RelationshipRepository) Get(_ context.Context, campaignID, influencerID uuid.UUID) (domain.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rel, ok := r.rows[pairKey{campaignID: campaignID, influencerID: influencerID}]
	if !ok {
		return domain.Relationship{}, domain.ErrNotFound
	}
	return rel, nil
}

func (r *RelationshipRepository) ListByCampaign(_ context.Context, campaignID uuid.UUID) ([]domain.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Relationship, 0)
	for key, rel := range r.rows {
		if key.campaignID == campaignID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *RelationshipRepository) ListByInfluencer(_ context.Context, influencerID uuid.UUID) ([]domain.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Relationship, 0)
	for key, rel := range r.rows {
		if key.influencerID == influencerID {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (r *RelationshipRepository) Update(_ context.Context, rel domain.Relationship, expected domain.RelationshipStatus) (domain.Relationship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey{campaignID: rel.CampaignID, influencerID: rel.InfluencerID}
	current, ok := r.rows[key]
	if !ok {
		return domain.Relationship{}, domain.ErrNotFound
	}
	if current.Status != expected {
		return domain.Relationship{}, fmt.Errorf("%w: relationship is %s, not %s", domain.ErrConflict, current.Status, expected)
	}
	r.rows[key] = rel
	return rel, nil
}

type OutboxRepository struct {
	mu   sync.Mutex
	rows map[uuid.UUID]ports.OutboxRecord
}

func (r *OutboxRepository) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[event.EventID] = ports.OutboxRecord{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      event.Payload,
		FirstSeenAt:  event.OccurredAt,
	}
	return nil
}

func (r *OutboxRepository) FetchUnpublished(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ports.OutboxRecord, 0, limit)
	for _, rec := range r.rows {
		if rec.PublishedAt != nil {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) MarkPublished(_ context.Context, outboxID uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.PublishedAt = &at
	r.rows[outboxID] = rec
	return nil
}

func (r *OutboxRepository) MarkFailed(_ context.Context, outboxID uuid.UUID, errMsg string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.rows[outboxID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.RetryCount++
	rec.LastError = &errMsg
	r.rows[outboxID] = rec
	return nil
}
