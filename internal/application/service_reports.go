package application

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
)

// CountsByCampaign returns the per-status relationship counts for one
// campaign. The counts always cover all six statuses and sum to the
// campaign's total relationship count. A short-lived cache fronts the
// recompute; every create and transition invalidates it, so reads are
// never stale.
func (s *Service) CountsByCampaign(ctx context.Context, actor Actor, campaignID uuid.UUID) (CampaignCountsResponse, error) {
	if _, err := s.ownedCampaign(ctx, actor, campaignID); err != nil {
		return CampaignCountsResponse{}, err
	}
	ver := s.countsVersion(ctx, campaignID)
	if cached, ok := s.cachedCounts(ctx, campaignID, ver); ok {
		return cached, nil
	}
	counts, err := s.computeCounts(ctx, campaignID)
	if err != nil {
		return CampaignCountsResponse{}, err
	}
	// Stored under the version read before the recompute: if an apply
	// bumped the version in between, this entry is already unreachable and
	// only ever ages out by TTL.
	s.storeCounts(ctx, campaignID, ver, counts)
	return counts, nil
}

// DashboardCounts aggregates counts over every campaign of the calling
// sponsor, recomputed from the authoritative store on demand.
func (s *Service) DashboardCounts(ctx context.Context, actor Actor) (DashboardCountsResponse, error) {
	if actor.Role != domain.RoleSponsor {
		return DashboardCountsResponse{}, domain.ErrForbidden
	}
	campaigns, err := s.campaigns.ListBySponsor(ctx, actor.UserID)
	if err != nil {
		return DashboardCountsResponse{}, err
	}

	resp := DashboardCountsResponse{
		SponsorID: actor.UserID.String(),
		Campaigns: make([]CampaignCountsResponse, 0, len(campaigns)),
		Totals:    emptyCounts(),
	}
	for _, campaign := range campaigns {
		counts, err := s.computeCounts(ctx, campaign.CampaignID)
		if err != nil {
			return DashboardCountsResponse{}, err
		}
		resp.Campaigns = append(resp.Campaigns, counts)
		for status, n := range counts.Counts {
			resp.Totals[status] += n
		}
	}
	return resp, nil
}

func (s *Service) computeCounts(ctx context.Context, campaignID uuid.UUID) (CampaignCountsResponse, error) {
	rels, err := s.relationships.ListByCampaign(ctx, campaignID)
	if err != nil {
		return CampaignCountsResponse{}, err
	}
	counts := emptyCounts()
	for _, rel := range rels {
		counts[string(rel.Status)]++
	}
	return CampaignCountsResponse{
		CampaignID: campaignID.String(),
		Counts:     counts,
		Total:      len(rels),
	}, nil
}

func emptyCounts() map[string]int {
	counts := make(map[string]int, len(domain.RelationshipStatuses))
	for _, status := range domain.RelationshipStatuses {
		counts[string(status)] = 0
	}
	return counts
}

// countsVersion reads the campaign's cache generation. Every apply bumps
// it, so entries written by readers that computed against pre-apply data
// land under a key nobody looks up anymore.
func (s *Service) countsVersion(ctx context.Context, campaignID uuid.UUID) string {
	if s.cache == nil {
		return "0"
	}
	raw, err := s.cache.Get(ctx, countsVersionKey(campaignID))
	if err != nil || raw == "" {
		return "0"
	}
	return raw
}

func (s *Service) cachedCounts(ctx context.Context, campaignID uuid.UUID, ver string) (CampaignCountsResponse, bool) {
	if s.cache == nil {
		return CampaignCountsResponse{}, false
	}
	raw, err := s.cache.Get(ctx, countsCacheKey(campaignID, ver))
	if err != nil || raw == "" {
		return CampaignCountsResponse{}, false
	}
	var counts CampaignCountsResponse
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		return CampaignCountsResponse{}, false
	}
	return counts, true
}

func (s *Service) storeCounts(ctx context.Context, campaignID uuid.UUID, ver string, counts CampaignCountsResponse) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, countsCacheKey(campaignID, ver), string(raw), s.cfg.CountsCacheTTL)
}

func (s *Service) invalidateCounts(ctx context.Context, campaignID uuid.UUID) {
	if s.cache == nil {
		return
	}
	ver := s.countsVersion(ctx, campaignID)
	_, _ = s.cache.Incr(ctx, countsVersionKey(campaignID))
	_ = s.cache.Delete(ctx, countsCacheKey(campaignID, ver))
}

func countsCacheKey(campaignID uuid.UUID, ver string) string {
	return "collab:counts:" + campaignID.String() + ":v" + ver
}

func countsVersionKey(campaignID uuid.UUID) string {
	return "collab:counts:ver:" + campaignID.String()
}
