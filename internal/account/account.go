package account

import (
	"context"
	"errors"

	"github.com/hackgods/vaccine-scheduler/internal/identity"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidRole        = errors.New("account role must be patient or caregiver")
)

// Account is a stored credential row. Patients and caregivers live in
// separate tables but share this shape.
type Account struct {
	Username string
	Salt     []byte
	Hash     []byte
}

// Repository contains the credential-store DB interactions.
type Repository interface {
	Create(ctx context.Context, role identity.Role, a Account) error
	Get(ctx context.Context, role identity.Role, username string) (*Account, error)
}
