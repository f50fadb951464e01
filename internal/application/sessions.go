package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/domain"
	"github.com/viralforge/mesh/services/marketplace/M22-collaboration-service/internal/ports"
)

// SearchSession pairs one debouncer with one caller's result view. Results
// are applied generation-fenced: a response belonging to a superseded
// request is dropped, and a failed search keeps the previous result set
// visible alongside the error message.
type SearchSession struct {
	SessionID uuid.UUID
	OwnerID   uuid.UUID

	debouncer *Debouncer
	matching  ports.MatchingClient
	timeout   time.Duration

	mu           sync.Mutex
	gen          uint64
	appliedGen   uint64
	query        domain.SearchQuery
	results      []domain.Candidate
	lastError    string
	inFlight     int
	lastActivity time.Time
}

type SearchSessionView struct {
	SessionID uuid.UUID
	Query     domain.SearchQuery
	Results   []domain.Candidate
	LastError string
	Searching bool
}

func newSearchSession(ownerID uuid.UUID, matching ports.MatchingClient, interval, timeout time.Duration) *SearchSession {
	s := &SearchSession{
		SessionID:    uuid.New(),
		OwnerID:      ownerID,
		matching:     matching,
		timeout:      timeout,
		lastActivity: time.Now().UTC(),
	}
	s.debouncer = NewDebouncer(interval, s.search)
	return s
}

// Submit records search intent; the matching call goes out only after the
// debounce interval settles.
func (s *SearchSession) Submit(query domain.SearchQuery) error {
	s.touch()
	return s.debouncer.Submit(query)
}

// SearchNow bypasses the debounce timer and returns the candidates
// synchronously. Any pending debounced query is superseded.
func (s *SearchSession) SearchNow(ctx context.Context, query domain.SearchQuery) ([]domain.Candidate, error) {
	s.touch()
	return s.debouncer.SubmitImmediate(ctx, query)
}

// Cancel discards any not-yet-issued query. In-flight network calls are
// not interrupted; their results are fenced out if superseded.
func (s *SearchSession) Cancel() {
	s.touch()
	s.debouncer.Cancel()
}

func (s *SearchSession) Snapshot() SearchSessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	results := make([]domain.Candidate, len(s.results))
	copy(results, s.results)
	return SearchSessionView{
		SessionID: s.SessionID,
		Query:     s.query,
		Results:   results,
		LastError: s.lastError,
		Searching: s.inFlight > 0,
	}
}

// search is the debouncer's emit target. Debounced submits reach it on the
// settling timer's goroutine, search-now on the request's; results are
// applied generation-fenced either way.
func (s *SearchSession) search(ctx context.Context, query domain.SearchQuery) ([]domain.Candidate, error) {
	gen := s.begin()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	candidates, err := s.matching.Match(ctx, query)
	s.finish(gen, query, candidates, err)
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (s *SearchSession) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.inFlight++
	return s.gen
}

func (s *SearchSession) finish(gen uint64, query domain.SearchQuery, candidates []domain.Candidate, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight--
	if gen < s.appliedGen || gen != s.gen {
		// A newer request was issued (or already applied); this result is stale.
		return
	}
	s.appliedGen = gen
	s.query = query
	if err != nil {
		// Keep the previous result set visible; surface the failure.
		s.lastError = err.Error()
		return
	}
	s.results = candidates
	s.lastError = ""
}

func (s *SearchSession) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now().UTC()
	s.mu.Unlock()
}

func (s *SearchSession) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActivity)
}

// SessionRegistry owns the live search sessions for this node. Sessions
// are ephemeral UI state and are never persisted.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*SearchSession
	matching ports.MatchingClient
	interval time.Duration
	timeout  time.Duration
}

func NewSessionRegistry(matching ports.MatchingClient, interval, timeout time.Duration) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[uuid.UUID]*SearchSession),
		matching: matching,
		interval: interval,
		timeout:  timeout,
	}
}

func (r *SessionRegistry) Create(ownerID uuid.UUID) *SearchSession {
	session := newSearchSession(ownerID, r.matching, r.interval, r.timeout)
	r.mu.Lock()
	r.sessions[session.SessionID] = session
	r.mu.Unlock()
	return session
}

func (r *SessionRegistry) Get(sessionID uuid.UUID) (*SearchSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	return session, ok
}

func (r *SessionRegistry) Close(sessionID uuid.UUID) {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	delete(r.sessions, sessionID)
	r.mu.Unlock()
	if ok {
		session.Cancel()
	}
}

// CloseIdle drops sessions with no activity within maxIdle and returns how
// many were closed. The runtime runs this on a ticker.
func (r *SessionRegistry) CloseIdle(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	stale := make([]*SearchSession, 0)
	for id, session := range r.sessions {
		if session.idleSince(now) > maxIdle {
			stale = append(stale, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, session := range stale {
		session.Cancel()
	}
	return len(stale)
}
