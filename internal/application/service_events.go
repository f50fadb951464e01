package application

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
)

type relationshipEventData struct {
	CampaignID     string `json:"campaign_id"`
	InfluencerID   string `json:"influencer_id"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status,omitempty"`
	OccurredAt     string `json:"occurred_at"`
}

type campaignStatusEventData struct {
	CampaignID     string `json:"campaign_id"`
	SponsorID      string `json:"sponsor_id"`
	Status         string `json:"status"`
	PreviousStatus string `json:"previous_status"`
	OccurredAt     string `json:"occurred_at"`
}

func (s *Service) enqueueRelationshipEvent(ctx context.Context, eventType string, rel domain.Relationship, previous domain.RelationshipStatus) error {
	occurredAt := s.nowFn()
	data := relationshipEventData{
		CampaignID:     rel.CampaignID.String(),
		InfluencerID:   rel.InfluencerID.String(),
		Status:         string(rel.Status),
		PreviousStatus: string(previous),
		OccurredAt:     occurredAt.Format(time.RFC3339),
	}
	return s.enqueueEvent(ctx, eventType, rel.CampaignID.String(), occurredAt, data)
}

func (s *Service) enqueueCampaignStatusChanged(ctx context.Context, campaign domain.Campaign, previous domain.CampaignStatus) error {
	occurredAt := s.nowFn()
	data := campaignStatusEventData{
		CampaignID:     campaign.CampaignID.String(),
		SponsorID:      campaign.SponsorID.String(),
		Status:         string(campaign.Status),
		PreviousStatus: string(previous),
		OccurredAt:     occurredAt.Format(time.RFC3339),
	}
	return s.enqueueEvent(ctx, domain.EventCampaignStatusChanged, campaign.CampaignID.String(), occurredAt, data)
}

func (s *Service) enqueueEvent(ctx context.Context, eventType, partitionKey string, occurredAt time.Time, data any) error {
	if s.outbox == nil {
		return nil
	}
	envelope := map[string]any{
		"event_id":           uuid.NewString(),
		"event_type":         eventType,
		"occurred_at":        occurredAt.Format(time.RFC3339),
		"source_service":     s.cfg.ServiceName,
		"schema_version":     "1.0",
		"partition_key_path": domain.CanonicalPartitionKeyPath(eventType),
		"partition_key":      partitionKey,
		"data":               data,
	}
	payload, _ := json.Marshal(envelope)
	return s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:          uuid.New(),
		EventType:        eventType,
		PartitionKey:     partitionKey,
		PartitionKeyPath: domain.CanonicalPartitionKeyPath(eventType),
		Payload:          payload,
		OccurredAt:       occurredAt,
		SchemaVersion:    "1.0",
	})
}
