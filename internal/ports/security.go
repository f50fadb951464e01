package ports

import (
	"time"

	"github.com/google/uuid"
)

// AuthClaims is the identity the platform hands this service. The core
// trusts the role as given; token issuance lives in M01.
type AuthClaims struct {
	UserID    uuid.UUID
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenVerifier interface {
	ParseAndValidate(raw string) (AuthClaims, error)
}
