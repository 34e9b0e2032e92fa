package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/hackgods/vaccine-scheduler/internal/identity"
)

var (
	ErrVaccineNotFound     = errors.New("vaccine not found")
	ErrVaccineExists       = errors.New("vaccine already exists")
	ErrInsufficientDoses   = errors.New("not enough available doses")
	ErrSlotExists          = errors.New("availability already published for that day")
	ErrSlotNotFound        = errors.New("availability slot not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Store contains all DB interactions needed by the service. A Store
// handed to a WithTx callback is bound to that transaction; mutations
// made through it only persist when the callback returns nil.
type Store interface {
	// Vaccine inventory. Counts never go below zero: RemoveDoses
	// subtracts n only when at least n doses remain and reports
	// ErrInsufficientDoses otherwise.
	GetVaccine(ctx context.Context, name string) (*Vaccine, error)
	CreateVaccine(ctx context.Context, name string, doses int) (*Vaccine, error)
	AddDoses(ctx context.Context, name string, n int) (int, error)
	RemoveDoses(ctx context.Context, name string, n int) (int, error)
	ListVaccines(ctx context.Context) ([]Vaccine, error)

	// Caregiver availability. At most one slot per (caregiver, day).
	// ListAvailableCaregivers returns usernames in ascending order.
	ListAvailableCaregivers(ctx context.Context, day time.Time) ([]string, error)
	PublishAvailability(ctx context.Context, caregiver string, day time.Time) error
	RemoveAvailability(ctx context.Context, caregiver string, day time.Time) error

	// Appointments. IDs are assigned by the store and strictly increase.
	CreateAppointment(ctx context.Context, day time.Time, patient, caregiver, vaccine string) (int64, error)
	GetAppointment(ctx context.Context, id int64) (*Appointment, error)
	GetAppointmentByDayAndCaregiver(ctx context.Context, day time.Time, caregiver string) (*Appointment, error)
	// FindOwnedAppointment filters by the owner's role so that a missing
	// appointment and someone else's appointment are indistinguishable.
	FindOwnedAppointment(ctx context.Context, id int64, owner identity.Identity) (*Appointment, error)
	ListPatientAppointments(ctx context.Context, patient string) ([]Appointment, error)
	ListCaregiverAppointments(ctx context.Context, caregiver string) ([]Appointment, error)
	DeleteAppointment(ctx context.Context, id int64) (*Appointment, error)

	// WithTx runs fn against a Store bound to a single transaction,
	// committing when fn returns nil and rolling back otherwise.
	WithTx(ctx context.Context, fn func(Store) error) error
}
