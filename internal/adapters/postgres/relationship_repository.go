package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type relationshipRepository struct {
	db *gorm.DB
}

func (r *relationshipRepository) Create(ctx context.Context, params ports.CreateRelationshipParams) (domain.Relationship, error) {
	rec := relationshipModel{
		CampaignID:   params.CampaignID,
		InfluencerID: params.InfluencerID,
		Status:       string(domain.RelationshipInvited),
		Note:         params.Note,
		CreatedAt:    params.CreatedAt,
		UpdatedAt:    params.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Relationship{}, domain.ErrDuplicateRelationship
		}
		return domain.Relationship{}, err
	}
	return toDomainRelationship(rec), nil
}

func (r *relationshipRepository) Get(ctx context.Context, campaignID, influencerID uuid.UUID) (domain.Relationship, error) {
	var rec relationshipModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND influencer_id = ?", campaignID, influencerID).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Relationship{}, domain.ErrNotFound
		}
		return domain.Relationship{}, err
	}
	return toDomainRelationship(rec), nil
}

func (r *relationshipRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID) ([]domain.Relationship, error) {
	var recs []relationshipModel
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Find(&recs).Error; err != nil {
		return nil, err
	}
	return toDomainRelationships(recs), nil
}

func (r *relationshipRepository) ListByInfluencer(ctx context.Context, influencerID uuid.UUID) ([]domain.Relationship, error) {
	var recs []relationshipModel
	if err := r.db.WithContext(ctx).Where("influencer_id = ?", influencerID).Find(&recs).Error; err != nil {
		return nil, err
	}
	return toDomainRelationships(recs), nil
}

// Update persists the whole row for the pair inside a transaction with a
// row lock and re-checks the expected from-status under that lock. A
// writer on another instance that raced past the application-level
// validation loses here with domain.ErrConflict instead of clobbering a
// transition it never saw.
func (r *relationshipRepository) Update(ctx context.Context, rel domain.Relationship, expected domain.RelationshipStatus) (domain.Relationship, error) {
	rec := relationshipModel{
		CampaignID:   rel.CampaignID,
		InfluencerID: rel.InfluencerID,
		Status:       string(rel.Status),
		Note:         rel.Note,
		CreatedAt:    rel.CreatedAt,
		UpdatedAt:    rel.UpdatedAt,
		AcceptedAt:   rel.AcceptedAt,
		RejectedAt:   rel.RejectedAt,
		StartedAt:    rel.StartedAt,
		CompletedAt:  rel.CompletedAt,
		CancelledAt:  rel.CancelledAt,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current relationshipModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("campaign_id = ? AND influencer_id = ?", rel.CampaignID, rel.InfluencerID).
			Take(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if current.Status != string(expected) {
			return fmt.Errorf("%w: relationship is %s, not %s", domain.ErrConflict, current.Status, expected)
		}
		return tx.Model(&relationshipModel{}).
			Where("campaign_id = ? AND influencer_id = ?", rel.CampaignID, rel.InfluencerID).
			Updates(map[string]any{
				"status":       rec.Status,
				"updated_at":   rec.UpdatedAt,
				"accepted_at":  rec.AcceptedAt,
				"rejected_at":  rec.RejectedAt,
				"started_at":   rec.StartedAt,
				"completed_at": rec.CompletedAt,
				"cancelled_at": rec.CancelledAt,
			}).Error
	})
	if err != nil {
		return domain.Relationship{}, err
	}
	return toDomainRelationship(rec), nil
}

func toDomainRelationships(recs []relationshipModel) []domain.Relationship {
	out := make([]domain.Relationship, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDomainRelationship(rec))
	}
	return out
}
