// Package auth provides user registration, credential checks and the
// JWT sessions the RPC layer uses to identify the requester.
package auth

import (
	"context"

	"github.com/mmynk/splitledger/internal/models"
)

// Authenticator registers and verifies users. The ledger never sees
// credentials; it only receives the user ID resolved here.
type Authenticator interface {
	// Register stores a new user. Fails with ErrEmailExists, ErrInvalidEmail
	// or an implementation-specific credential error.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the user owning email when credential matches,
	// ErrInvalidCredentials otherwise.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	ValidateCredential(credential string) error
}
