package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
)

func (s *Service) CreateSearchSession(actor Actor) SearchSessionResponse {
	session := s.sessions.Create(actor.UserID)
	return toSessionResponse(session.Snapshot())
}

// SubmitSearch records debounced search intent. The matching call is
// issued only after the debounce interval settles with no newer submit.
func (s *Service) SubmitSearch(actor Actor, sessionID uuid.UUID, req SearchRequest) error {
	session, err := s.ownedSession(actor, sessionID)
	if err != nil {
		return err
	}
	return session.Submit(toSearchQuery(req))
}

// SearchNow bypasses the debounce timer for explicit "search now" actions
// and returns the fresh candidate list.
func (s *Service) SearchNow(ctx context.Context, actor Actor, sessionID uuid.UUID, req SearchRequest) (SearchSessionResponse, error) {
	session, err := s.ownedSession(actor, sessionID)
	if err != nil {
		return SearchSessionResponse{}, err
	}
	if _, err := session.SearchNow(ctx, toSearchQuery(req)); err != nil {
		return SearchSessionResponse{}, err
	}
	return toSessionResponse(session.Snapshot()), nil
}

func (s *Service) GetSearchSession(actor Actor, sessionID uuid.UUID) (SearchSessionResponse, error) {
	session, err := s.ownedSession(actor, sessionID)
	if err != nil {
		return SearchSessionResponse{}, err
	}
	return toSessionResponse(session.Snapshot()), nil
}

// CancelSearch discards any pending (not yet issued) query.
func (s *Service) CancelSearch(actor Actor, sessionID uuid.UUID) error {
	session, err := s.ownedSession(actor, sessionID)
	if err != nil {
		return err
	}
	session.Cancel()
	return nil
}

func (s *Service) CloseSearchSession(actor Actor, sessionID uuid.UUID) error {
	if _, err := s.ownedSession(actor, sessionID); err != nil {
		return err
	}
	s.sessions.Close(sessionID)
	return nil
}

func (s *Service) ownedSession(actor Actor, sessionID uuid.UUID) (*SearchSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: search session", domain.ErrNotFound)
	}
	if session.OwnerID != actor.UserID {
		return nil, fmt.Errorf("%w: session belongs to another user", domain.ErrForbidden)
	}
	return session, nil
}

func toSearchQuery(req SearchRequest) domain.SearchQuery {
	return domain.NewSearchQuery(req.Niche, req.Keywords, req.Name, req.Limit)
}

func toSessionResponse(view SearchSessionView) SearchSessionResponse {
	return SearchSessionResponse{
		SessionID:  view.SessionID.String(),
		Candidates: toCandidateViews(view.Results),
		LastError:  view.LastError,
		Searching:  view.Searching,
	}
}
