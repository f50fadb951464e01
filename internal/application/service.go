package application

import (
	"time"

	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
)

type Config struct {
	ServiceName        string
	SearchDebounce     time.Duration
	SearchTimeout      time.Duration
	CountsCacheTTL     time.Duration
	SessionIdleTimeout time.Duration
}

type Service struct {
	cfg           Config
	campaigns     ports.CampaignRepository
	relationships ports.RelationshipRepository
	outbox        ports.OutboxRepository
	matching      ports.MatchingClient
	cache         ports.Cache
	sessions      *SessionRegistry
	pairLocks     *keyedMutex
	nowFn         func() time.Time
}

type Dependencies struct {
	Config        Config
	Campaigns     ports.CampaignRepository
	Relationships ports.RelationshipRepository
	Outbox        ports.OutboxRepository
	Matching      ports.MatchingClient
	Cache         ports.Cache
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "M22-Collaboration-Service"
	}
	if cfg.SearchDebounce <= 0 {
		cfg.SearchDebounce = 500 * time.Millisecond
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 10 * time.Second
	}
	if cfg.CountsCacheTTL <= 0 {
		cfg.CountsCacheTTL = time.Minute
	}
	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = 30 * time.Minute
	}

	return &Service{
		cfg:           cfg,
		campaigns:     deps.Campaigns,
		relationships: deps.Relationships,
		outbox:        deps.Outbox,
		matching:      deps.Matching,
		cache:         deps.Cache,
		sessions:      NewSessionRegistry(deps.Matching, cfg.SearchDebounce, cfg.SearchTimeout),
		pairLocks:     newKeyedMutex(),
		nowFn:         func() time.Time { return time.Now().UTC() },
	}
}

// Sessions exposes the search session registry for runtime housekeeping.
func (s *Service) Sessions() *SessionRegistry {
	return s.sessions
}
