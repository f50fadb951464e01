package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RelationshipStatus string

const (
	RelationshipInvited    RelationshipStatus = "invited"
	RelationshipAccepted   RelationshipStatus = "accepted"
	RelationshipRejected   RelationshipStatus = "rejected"
	RelationshipInProgress RelationshipStatus = "in_progress"
	RelationshipCompleted  RelationshipStatus = "completed"
	RelationshipCancelled  RelationshipStatus = "cancelled"
)

// RelationshipStatuses lists every lifecycle status in dashboard order.
var RelationshipStatuses = []RelationshipStatus{
	RelationshipInvited,
	RelationshipAccepted,
	RelationshipRejected,
	RelationshipInProgress,
	RelationshipCompleted,
	RelationshipCancelled,
}

type ActorRole string

const (
	RoleSponsor    ActorRole = "sponsor"
	RoleInfluencer ActorRole = "influencer"
)

type Transition string

const (
	TransitionAccept    Transition = "accept"
	TransitionReject    Transition = "reject"
	TransitionStartWork Transition = "start-work"
	TransitionComplete  Transition = "complete"
	TransitionCancel    Transition = "cancel"
)

// Relationship links one campaign to one influencer. Exactly one may exist
// per (campaign, influencer) pair; it is never deleted, only closed.
type Relationship struct {
	CampaignID   uuid.UUID
	InfluencerID uuid.UUID
	Status       RelationshipStatus
	Note         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	AcceptedAt   *time.Time
	RejectedAt   *time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
}

type transitionEdge struct {
	from  map[RelationshipStatus]struct{}
	to    RelationshipStatus
	roles map[ActorRole]struct{}
}

var transitionTable = map[Transition]transitionEdge{
	TransitionAccept: {
		from:  statusSet(RelationshipInvited),
		to:    RelationshipAccepted,
		roles: roleSet(RoleInfluencer),
	},
	TransitionReject: {
		from:  statusSet(RelationshipInvited),
		to:    RelationshipRejected,
		roles: roleSet(RoleInfluencer),
	},
	TransitionStartWork: {
		from:  statusSet(RelationshipAccepted),
		to:    RelationshipInProgress,
		roles: roleSet(RoleInfluencer),
	},
	TransitionComplete: {
		from:  statusSet(RelationshipInProgress),
		to:    RelationshipCompleted,
		roles: roleSet(RoleInfluencer),
	},
	TransitionCancel: {
		from:  statusSet(RelationshipAccepted, RelationshipInProgress),
		to:    RelationshipCancelled,
		roles: roleSet(RoleSponsor, RoleInfluencer),
	},
}

func statusSet(statuses ...RelationshipStatus) map[RelationshipStatus]struct{} {
	out := make(map[RelationshipStatus]struct{}, len(statuses))
	for _, s := range statuses {
		out[s] = struct{}{}
	}
	return out
}

func roleSet(roles ...ActorRole) map[ActorRole]struct{} {
	out := make(map[ActorRole]struct{}, len(roles))
	for _, r := range roles {
		out[r] = struct{}{}
	}
	return out
}

func (s RelationshipStatus) Terminal() bool {
	switch s {
	case RelationshipRejected, RelationshipCompleted, RelationshipCancelled:
		return true
	default:
		return false
	}
}

func NormalizeRole(raw string) ActorRole {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sponsor":
		return RoleSponsor
	case "influencer":
		return RoleInfluencer
	default:
		return ""
	}
}

func NormalizeRelationshipStatus(raw string) RelationshipStatus {
	candidate := RelationshipStatus(strings.ToLower(strings.TrimSpace(raw)))
	for _, status := range RelationshipStatuses {
		if candidate == status {
			return status
		}
	}
	return ""
}

func NormalizeTransition(raw string) Transition {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "accept":
		return TransitionAccept
	case "reject":
		return TransitionReject
	case "start-work", "start_work":
		return TransitionStartWork
	case "complete":
		return TransitionComplete
	case "cancel":
		return TransitionCancel
	default:
		return ""
	}
}

// LegalTransitions returns the transitions permitted from the given status,
// in stable order.
func LegalTransitions(from RelationshipStatus) []Transition {
	ordered := []Transition{TransitionAccept, TransitionReject, TransitionStartWork, TransitionComplete, TransitionCancel}
	out := make([]Transition, 0, len(ordered))
	for _, tr := range ordered {
		if _, ok := transitionTable[tr].from[from]; ok {
			out = append(out, tr)
		}
	}
	return out
}

// ApplyTransition validates one lifecycle step and returns the next status.
// changed is false when the request is an idempotent replay of the
// transition that already produced the current status.
//
// Checks run in a fixed order: role authorization first (a sponsor calling
// an influencer-only edge always fails regardless of state), then
// idempotent replay, then terminal-state protection, then edge legality.
func ApplyTransition(current RelationshipStatus, transition Transition, actor ActorRole) (next RelationshipStatus, changed bool, err error) {
	edge, ok := transitionTable[transition]
	if !ok {
		return current, false, fmt.Errorf("%w: unknown transition %q", ErrInvalidInput, string(transition))
	}
	if _, ok := edge.roles[actor]; !ok {
		return current, false, fmt.Errorf("%w: %s may not %s", ErrUnauthorizedActor, actor, transition)
	}
	if edge.to == current {
		return current, false, nil
	}
	if current.Terminal() {
		return current, false, fmt.Errorf("%w: %s", ErrTerminalState, current)
	}
	if _, ok := edge.from[current]; !ok {
		return current, false, fmt.Errorf("%w: cannot %s from %s (legal: %s)",
			ErrIllegalTransition, transition, current, joinTransitions(LegalTransitions(current)))
	}
	return edge.to, true, nil
}

func joinTransitions(transitions []Transition) string {
	if len(transitions) == 0 {
		return "none"
	}
	parts := make([]string, len(transitions))
	for i, tr := range transitions {
		parts[i] = string(tr)
	}
	return strings.Join(parts, ", ")
}

// MarkTransitioned updates the relationship in place after a successful
// transition, stamping the audit timestamp for the status entered.
func (r *Relationship) MarkTransitioned(next RelationshipStatus, at time.Time) {
	r.Status = next
	r.UpdatedAt = at
	switch next {
	case RelationshipAccepted:
		r.AcceptedAt = &at
	case RelationshipRejected:
		r.RejectedAt = &at
	case RelationshipInProgress:
		r.StartedAt = &at
	case RelationshipCompleted:
		r.CompletedAt = &at
	case RelationshipCancelled:
		r.CancelledAt = &at
	}
}
