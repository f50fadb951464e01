package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrForbidden             = errors.New("forbidden")
	ErrUnauthorizedActor     = errors.New("actor role not permitted")
	ErrIllegalTransition     = errors.New("illegal transition")
	ErrTerminalState         = errors.New("relationship closed")
	ErrDuplicateRelationship = errors.New("relationship already exists")
	ErrNotFound              = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrCampaignNotActive     = errors.New("campaign does not accept invitations")
	ErrMatchingUnavailable   = errors.New("matching service unavailable")
	ErrStorageUnavailable    = errors.New("storage unavailable")
)
