package application

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
)

// CreateRelationship is the sponsor's add-candidate operation. The
// relationship always starts invited; only active campaigns accept new
// invitations, and exactly one relationship may exist per pair.
func (s *Service) CreateRelationship(ctx context.Context, actor Actor, campaignID uuid.UUID, req CreateRelationshipRequest) (RelationshipResponse, error) {
	campaign, err := s.ownedCampaign(ctx, actor, campaignID)
	if err != nil {
		return RelationshipResponse{}, err
	}
	if campaign.Status != domain.CampaignActive {
		return RelationshipResponse{}, fmt.Errorf("%w: campaign is %s", domain.ErrCampaignNotActive, campaign.Status)
	}
	influencerID, err := uuid.Parse(req.InfluencerID)
	if err != nil {
		return RelationshipResponse{}, fmt.Errorf("%w: invalid influencer_id", domain.ErrInvalidInput)
	}

	key := pairKey(campaignID, influencerID)
	s.pairLocks.Lock(key)
	defer s.pairLocks.Unlock(key)

	created, err := s.relationships.Create(ctx, ports.CreateRelationshipParams{
		CampaignID:   campaignID,
		InfluencerID: influencerID,
		Note:         req.Note,
		CreatedAt:    s.nowFn(),
	})
	if err != nil {
		return RelationshipResponse{}, err
	}
	_ = s.enqueueRelationshipEvent(ctx, domain.EventRelationshipCreated, created, "")
	s.invalidateCounts(ctx, campaignID)
	return toRelationshipResponse(created), nil
}

// Transition applies one lifecycle action to the (campaign, influencer)
// pair. Requests for the same pair are serialized; the engine validates
// role and edge against the state read under the lock.
func (s *Service) Transition(ctx context.Context, actor Actor, campaignID, influencerID uuid.UUID, rawAction string) (RelationshipResponse, error) {
	transition := domain.NormalizeTransition(rawAction)
	if transition == "" {
		return RelationshipResponse{}, fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, rawAction)
	}
	if err := s.authorizeParticipant(ctx, actor, campaignID, influencerID); err != nil {
		return RelationshipResponse{}, err
	}

	key := pairKey(campaignID, influencerID)
	s.pairLocks.Lock(key)
	defer s.pairLocks.Unlock(key)

	rel, err := s.relationships.Get(ctx, campaignID, influencerID)
	if err != nil {
		return RelationshipResponse{}, err
	}
	next, changed, err := domain.ApplyTransition(rel.Status, transition, actor.Role)
	if err != nil {
		return RelationshipResponse{}, err
	}
	if !changed {
		return toRelationshipResponse(rel), nil
	}

	previous := rel.Status
	rel.MarkTransitioned(next, s.nowFn())
	updated, err := s.relationships.Update(ctx, rel, previous)
	if err != nil {
		return RelationshipResponse{}, err
	}
	_ = s.enqueueRelationshipEvent(ctx, domain.EventRelationshipTransitioned, updated, previous)
	s.invalidateCounts(ctx, campaignID)
	return toRelationshipResponse(updated), nil
}

func (s *Service) GetRelationship(ctx context.Context, actor Actor, campaignID, influencerID uuid.UUID) (RelationshipResponse, error) {
	if err := s.authorizeParticipant(ctx, actor, campaignID, influencerID); err != nil {
		return RelationshipResponse{}, err
	}
	rel, err := s.relationships.Get(ctx, campaignID, influencerID)
	if err != nil {
		return RelationshipResponse{}, err
	}
	return toRelationshipResponse(rel), nil
}

func (s *Service) ListCampaignRelationships(ctx context.Context, actor Actor, campaignID uuid.UUID, statusFilter string) ([]RelationshipResponse, error) {
	var filter domain.RelationshipStatus
	if statusFilter != "" {
		filter = domain.NormalizeRelationshipStatus(statusFilter)
		if filter == "" {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, statusFilter)
		}
	}
	if _, err := s.ownedCampaign(ctx, actor, campaignID); err != nil {
		return nil, err
	}
	rels, err := s.relationships.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	out := make([]RelationshipResponse, 0, len(rels))
	for _, rel := range rels {
		if filter != "" && rel.Status != filter {
			continue
		}
		out = append(out, toRelationshipResponse(rel))
	}
	return out, nil
}

func (s *Service) ListInfluencerRelationships(ctx context.Context, actor Actor) ([]RelationshipResponse, error) {
	if actor.Role != domain.RoleInfluencer {
		return nil, fmt.Errorf("%w: influencer role required", domain.ErrForbidden)
	}
	rels, err := s.relationships.ListByInfluencer(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]RelationshipResponse, 0, len(rels))
	for _, rel := range rels {
		out = append(out, toRelationshipResponse(rel))
	}
	return out, nil
}

type influencerDeactivatedEvent struct {
	EventID string `json:"event_id"`
	Data    struct {
		InfluencerID string `json:"influencer_id"`
	} `json:"data"`
}

// HandleInfluencerDeactivated closes every open relationship of a
// deactivated influencer through the regular engine: pending invitations
// are rejected, committed collaborations cancelled.
func (s *Service) HandleInfluencerDeactivated(ctx context.Context, payload []byte) error {
	var evt influencerDeactivatedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("%w: invalid influencer.deactivated payload", domain.ErrInvalidInput)
	}
	influencerID, err := uuid.Parse(evt.Data.InfluencerID)
	if err != nil {
		return fmt.Errorf("%w: invalid influencer_id", domain.ErrInvalidInput)
	}
	rels, err := s.relationships.ListByInfluencer(ctx, influencerID)
	if err != nil {
		return err
	}
	actor := Actor{UserID: influencerID, Role: domain.RoleInfluencer}
	for _, rel := range rels {
		if rel.Status.Terminal() {
			continue
		}
		action := domain.TransitionCancel
		if rel.Status == domain.RelationshipInvited {
			action = domain.TransitionReject
		}
		if _, err := s.Transition(ctx, actor, rel.CampaignID, rel.InfluencerID, string(action)); err != nil {
			return err
		}
	}
	return nil
}

// authorizeParticipant limits relationship access to the two parties:
// the campaign's sponsor, or the influencer on the other end.
func (s *Service) authorizeParticipant(ctx context.Context, actor Actor, campaignID, influencerID uuid.UUID) error {
	switch actor.Role {
	case domain.RoleSponsor:
		campaign, err := s.campaigns.GetByID(ctx, campaignID)
		if err != nil {
			return err
		}
		if campaign.SponsorID != actor.UserID {
			return fmt.Errorf("%w: campaign belongs to another sponsor", domain.ErrForbidden)
		}
	case domain.RoleInfluencer:
		if actor.UserID != influencerID {
			return fmt.Errorf("%w: relationship belongs to another influencer", domain.ErrForbidden)
		}
	default:
		return fmt.Errorf("%w: unknown role %q", domain.ErrUnauthorized, actor.Role)
	}
	return nil
}

func pairKey(campaignID, influencerID uuid.UUID) string {
	return campaignID.String() + ":" + influencerID.String()
}
