package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/vaccine-scheduler/internal/identity"
)

// querier is the pgx surface shared by *pgxpool.Pool and pgx.Tx, so the
// same query methods serve both pooled and transactional stores.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgStore struct {
	pool *pgxpool.Pool
	db   querier
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, db: pool}
}

func (s *PgStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PgStore{pool: s.pool, db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Helpers

func scanVaccine(row pgx.Row) (*Vaccine, error) {
	var v Vaccine
	if err := row.Scan(&v.Name, &v.AvailableDoses); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVaccineNotFound
		}
		return nil, err
	}
	return &v, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.Day,
		&a.PatientUsername,
		&a.CaregiverUsername,
		&a.VaccineName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	a.Day = Day(a.Day)
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Vaccine inventory

func (s *PgStore) GetVaccine(ctx context.Context, name string) (*Vaccine, error) {
	row := s.db.QueryRow(ctx, `
		SELECT name, available_doses
		FROM vaccines
		WHERE name = $1
	`, name)
	return scanVaccine(row)
}

func (s *PgStore) CreateVaccine(ctx context.Context, name string, doses int) (*Vaccine, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO vaccines (name, available_doses)
		VALUES ($1, $2)
		RETURNING name, available_doses
	`, name, doses)

	v, err := scanVaccine(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrVaccineExists
		}
		return nil, err
	}
	return v, nil
}

func (s *PgStore) AddDoses(ctx context.Context, name string, n int) (int, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE vaccines
		SET available_doses = available_doses + $2
		WHERE name = $1
		RETURNING available_doses
	`, name, n)

	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrVaccineNotFound
		}
		return 0, err
	}
	return count, nil
}

func (s *PgStore) RemoveDoses(ctx context.Context, name string, n int) (int, error) {
	// The guard in the WHERE clause makes check-and-subtract one atomic
	// statement, so concurrent reservations cannot drive the count
	// negative.
	row := s.db.QueryRow(ctx, `
		UPDATE vaccines
		SET available_doses = available_doses - $2
		WHERE name = $1
		  AND available_doses >= $2
		RETURNING available_doses
	`, name, n)

	var count int
	if err := row.Scan(&count); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the guard failed or the vaccine is unknown.
			if _, getErr := s.GetVaccine(ctx, name); getErr != nil {
				return 0, getErr
			}
			return 0, ErrInsufficientDoses
		}
		return 0, err
	}
	return count, nil
}

func (s *PgStore) ListVaccines(ctx context.Context) ([]Vaccine, error) {
	rows, err := s.db.Query(ctx, `
		SELECT name, available_doses
		FROM vaccines
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Vaccine
	for rows.Next() {
		var v Vaccine
		if err := rows.Scan(&v.Name, &v.AvailableDoses); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// Caregiver availability

func (s *PgStore) ListAvailableCaregivers(ctx context.Context, day time.Time) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT caregiver_username
		FROM availabilities
		WHERE day = $1
		ORDER BY caregiver_username
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, err
		}
		result = append(result, username)
	}
	return result, rows.Err()
}

func (s *PgStore) PublishAvailability(ctx context.Context, caregiver string, day time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO availabilities (caregiver_username, day)
		VALUES ($1, $2)
	`, caregiver, day)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotExists
		}
		return err
	}
	return nil
}

func (s *PgStore) RemoveAvailability(ctx context.Context, caregiver string, day time.Time) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM availabilities
		WHERE caregiver_username = $1 AND day = $2
	`, caregiver, day)
	if err != nil {
		return err
	}
	// Zero rows means another transaction consumed the slot after our
	// earlier read; callers treat this as losing the race.
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// Appointments

func (s *PgStore) CreateAppointment(ctx context.Context, day time.Time, patient, caregiver, vaccine string) (int64, error) {
	row := s.db.QueryRow(ctx, `
		INSERT INTO appointments (day, patient_username, caregiver_username, vaccine_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, day, patient, caregiver, vaccine)

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *PgStore) GetAppointmentByDayAndCaregiver(ctx context.Context, day time.Time, caregiver string) (*Appointment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, day, patient_username, caregiver_username, vaccine_name
		FROM appointments
		WHERE day = $1 AND caregiver_username = $2
		ORDER BY id DESC
		LIMIT 1
	`, day, caregiver)
	return scanAppointment(row)
}

func (s *PgStore) GetAppointment(ctx context.Context, id int64) (*Appointment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, day, patient_username, caregiver_username, vaccine_name
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (s *PgStore) FindOwnedAppointment(ctx context.Context, id int64, owner identity.Identity) (*Appointment, error) {
	var ownerColumn string
	switch owner.Role {
	case identity.RolePatient:
		ownerColumn = "patient_username"
	case identity.RoleCaregiver:
		ownerColumn = "caregiver_username"
	default:
		return nil, ErrAppointmentNotFound
	}

	row := s.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT id, day, patient_username, caregiver_username, vaccine_name
		FROM appointments
		WHERE id = $1 AND %s = $2
	`, ownerColumn), id, owner.Username)
	return scanAppointment(row)
}

func (s *PgStore) ListPatientAppointments(ctx context.Context, patient string) ([]Appointment, error) {
	return s.listAppointments(ctx, `
		SELECT id, day, patient_username, caregiver_username, vaccine_name
		FROM appointments
		WHERE patient_username = $1
	`, patient)
}

func (s *PgStore) ListCaregiverAppointments(ctx context.Context, caregiver string) ([]Appointment, error) {
	return s.listAppointments(ctx, `
		SELECT id, day, patient_username, caregiver_username, vaccine_name
		FROM appointments
		WHERE caregiver_username = $1
		ORDER BY id
	`, caregiver)
}

func (s *PgStore) listAppointments(ctx context.Context, sql string, arg any) ([]Appointment, error) {
	rows, err := s.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (s *PgStore) DeleteAppointment(ctx context.Context, id int64) (*Appointment, error) {
	row := s.db.QueryRow(ctx, `
		DELETE FROM appointments
		WHERE id = $1
		RETURNING id, day, patient_username, caregiver_username, vaccine_name
	`, id)
	return scanAppointment(row)
}
