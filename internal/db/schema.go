package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS patients (
		username text PRIMARY KEY,
		salt     bytea NOT NULL,
		hash     bytea NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS caregivers (
		username text PRIMARY KEY,
		salt     bytea NOT NULL,
		hash     bytea NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS vaccines (
		name            text PRIMARY KEY,
		available_doses int NOT NULL CHECK (available_doses >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS availabilities (
		caregiver_username text NOT NULL,
		day                date NOT NULL,
		PRIMARY KEY (caregiver_username, day)
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id                 bigserial PRIMARY KEY,
		day                date NOT NULL,
		patient_username   text NOT NULL,
		caregiver_username text NOT NULL,
		vaccine_name       text NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS appointments_patient_idx ON appointments (patient_username)`,
	`CREATE INDEX IF NOT EXISTS appointments_caregiver_idx ON appointments (caregiver_username)`,
}

// Migrate creates the scheduler tables when they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
