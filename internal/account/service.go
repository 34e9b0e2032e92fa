package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/hackgods/vaccine-scheduler/internal/identity"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new patient or caregiver account.
func (s *Service) Create(ctx context.Context, role identity.Role, username, password string) error {
	if role != identity.RolePatient && role != identity.RoleCaregiver {
		return ErrInvalidRole
	}

	salt, err := generateSalt()
	if err != nil {
		return err
	}

	a := Account{
		Username: username,
		Salt:     salt,
		Hash:     hashPassword(password, salt),
	}

	if err := s.repo.Create(ctx, role, a); err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Authenticate checks credentials and returns the identity the core
// trusts. Unknown usernames and wrong passwords are indistinguishable.
func (s *Service) Authenticate(ctx context.Context, role identity.Role, username, password string) (identity.Identity, error) {
	a, err := s.repo.Get(ctx, role, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return identity.Identity{}, ErrInvalidCredentials
		}
		return identity.Identity{}, fmt.Errorf("load account: %w", err)
	}

	candidate := hashPassword(password, a.Salt)
	if subtle.ConstantTimeCompare(candidate, a.Hash) != 1 {
		return identity.Identity{}, ErrInvalidCredentials
	}

	return identity.Identity{Role: role, Username: username}, nil
}
