package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/vaccine-scheduler/internal/identity"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// tableFor maps a role to its credential table. The returned name is one
// of two fixed constants, never user input.
func tableFor(role identity.Role) (string, error) {
	switch role {
	case identity.RolePatient:
		return "patients", nil
	case identity.RoleCaregiver:
		return "caregivers", nil
	default:
		return "", ErrInvalidRole
	}
}

func (r *PgRepository) Create(ctx context.Context, role identity.Role, a Account) error {
	table, err := tableFor(role)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (username, salt, hash)
		VALUES ($1, $2, $3)
	`, table), a.Username, a.Salt, a.Hash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert %s account: %w", role, err)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, role identity.Role, username string) (*Account, error) {
	table, err := tableFor(role)
	if err != nil {
		return nil, err
	}

	var a Account
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT username, salt, hash
		FROM %s
		WHERE username = $1
	`, table), username)

	if err := row.Scan(&a.Username, &a.Salt, &a.Hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}
