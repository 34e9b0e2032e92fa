package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hackgods/vaccine-scheduler/internal/identity"
	redisclient "github.com/hackgods/vaccine-scheduler/internal/redis"
)

var (
	ErrLoginRequired        = errors.New("login required")
	ErrPatientRequired      = errors.New("patient login required")
	ErrCaregiverRequired    = errors.New("caregiver login required")
	ErrUnknownVaccine       = errors.New("unknown vaccine")
	ErrNoCaregiverAvailable = errors.New("no caregiver available on that day")
	ErrNotFoundOrNotOwned   = errors.New("appointment not found for this account")
	ErrInvalidDoseCount     = errors.New("dose count must be positive")
)

type Service struct {
	store  Store
	locker redisclient.Locker
}

// NewService builder; a nil locker means reservations are guarded by the
// database transaction alone.
func NewService(store Store, locker redisclient.Locker) *Service {
	if locker == nil {
		locker = redisclient.NoopLocker{}
	}
	return &Service{
		store:  store,
		locker: locker,
	}
}

// Reserve books a patient with the lexicographically first caregiver
// available on day, consuming one dose of the requested vaccine and the
// caregiver's slot. All four mutations happen in one transaction: either
// the appointment exists with the dose spent and the slot gone, or
// nothing changed.
func (s *Service) Reserve(ctx context.Context, who identity.Identity, day time.Time, vaccineName string) (*Reservation, error) {
	if !who.LoggedIn() {
		return nil, ErrLoginRequired
	}
	if who.Role != identity.RolePatient {
		return nil, ErrPatientRequired
	}
	day = Day(day)

	var res *Reservation
	err := s.locker.WithDayLock(ctx, day, func(lockCtx context.Context) error {
		return s.store.WithTx(lockCtx, func(tx Store) error {
			vaccine, err := tx.GetVaccine(lockCtx, vaccineName)
			if err != nil {
				if errors.Is(err, ErrVaccineNotFound) {
					return ErrUnknownVaccine
				}
				return fmt.Errorf("load vaccine: %w", err)
			}
			if vaccine.AvailableDoses < 1 {
				return ErrInsufficientDoses
			}

			caregivers, err := tx.ListAvailableCaregivers(lockCtx, day)
			if err != nil {
				return fmt.Errorf("list available caregivers: %w", err)
			}
			if len(caregivers) == 0 {
				return ErrNoCaregiverAvailable
			}
			// The list is username-ascending, so the first entry is the
			// deterministic pick.
			caregiver := caregivers[0]

			if _, err := tx.RemoveDoses(lockCtx, vaccineName, 1); err != nil {
				if errors.Is(err, ErrInsufficientDoses) {
					return ErrInsufficientDoses
				}
				return fmt.Errorf("consume dose: %w", err)
			}

			if _, err := tx.CreateAppointment(lockCtx, day, who.Username, caregiver, vaccineName); err != nil {
				return fmt.Errorf("create appointment: %w", err)
			}

			if err := tx.RemoveAvailability(lockCtx, caregiver, day); err != nil {
				if errors.Is(err, ErrSlotNotFound) {
					// A concurrent reservation consumed the slot between
					// our read and this delete; abort and report no
					// caregiver.
					return ErrNoCaregiverAvailable
				}
				return fmt.Errorf("consume availability: %w", err)
			}

			appt, err := tx.GetAppointmentByDayAndCaregiver(lockCtx, day, caregiver)
			if err != nil {
				return fmt.Errorf("look up created appointment: %w", err)
			}

			res = &Reservation{AppointmentID: appt.ID, Caregiver: caregiver}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Cancel removes an appointment owned by the caller, restoring one dose
// of its vaccine and re-publishing the caregiver's slot, all in one
// transaction. A missing appointment and someone else's appointment both
// report ErrNotFoundOrNotOwned.
func (s *Service) Cancel(ctx context.Context, who identity.Identity, id int64) error {
	if !who.LoggedIn() {
		return ErrLoginRequired
	}

	return s.store.WithTx(ctx, func(tx Store) error {
		appt, err := tx.FindOwnedAppointment(ctx, id, who)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return ErrNotFoundOrNotOwned
			}
			return fmt.Errorf("look up appointment: %w", err)
		}

		if _, err := tx.DeleteAppointment(ctx, appt.ID); err != nil {
			return fmt.Errorf("delete appointment: %w", err)
		}
		if _, err := tx.AddDoses(ctx, appt.VaccineName, 1); err != nil {
			return fmt.Errorf("restore dose: %w", err)
		}
		if err := tx.PublishAvailability(ctx, appt.CaregiverUsername, appt.Day); err != nil {
			return fmt.Errorf("restore availability: %w", err)
		}
		return nil
	})
}

// UploadAvailability publishes a caregiver's free slot for day.
func (s *Service) UploadAvailability(ctx context.Context, who identity.Identity, day time.Time) error {
	if who.Role != identity.RoleCaregiver {
		return ErrCaregiverRequired
	}

	if err := s.store.PublishAvailability(ctx, who.Username, Day(day)); err != nil {
		if errors.Is(err, ErrSlotExists) {
			return ErrSlotExists
		}
		return fmt.Errorf("publish availability: %w", err)
	}
	return nil
}

// AddDoses tops up a vaccine's stock, creating the vaccine when it is
// not known yet.
func (s *Service) AddDoses(ctx context.Context, who identity.Identity, name string, n int) (int, error) {
	if who.Role != identity.RoleCaregiver {
		return 0, ErrCaregiverRequired
	}
	if n <= 0 {
		return 0, ErrInvalidDoseCount
	}

	var count int
	err := s.store.WithTx(ctx, func(tx Store) error {
		c, err := tx.AddDoses(ctx, name, n)
		if err == nil {
			count = c
			return nil
		}
		if !errors.Is(err, ErrVaccineNotFound) {
			return fmt.Errorf("add doses: %w", err)
		}

		v, err := tx.CreateVaccine(ctx, name, n)
		if err != nil {
			return fmt.Errorf("create vaccine: %w", err)
		}
		count = v.AvailableDoses
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Schedule reports the caregivers free on day together with every
// vaccine's remaining doses.
func (s *Service) Schedule(ctx context.Context, day time.Time) (*DaySchedule, error) {
	day = Day(day)

	caregivers, err := s.store.ListAvailableCaregivers(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list available caregivers: %w", err)
	}

	vaccines, err := s.store.ListVaccines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vaccines: %w", err)
	}

	return &DaySchedule{
		Day:        day,
		Caregivers: caregivers,
		Vaccines:   vaccines,
	}, nil
}

// Vaccines lists every vaccine with its remaining doses, name ascending.
func (s *Service) Vaccines(ctx context.Context) ([]Vaccine, error) {
	vaccines, err := s.store.ListVaccines(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vaccines: %w", err)
	}
	return vaccines, nil
}

// Appointments lists the caller's appointments, filtered by role.
func (s *Service) Appointments(ctx context.Context, who identity.Identity) ([]Appointment, error) {
	switch who.Role {
	case identity.RolePatient:
		appts, err := s.store.ListPatientAppointments(ctx, who.Username)
		if err != nil {
			return nil, fmt.Errorf("list patient appointments: %w", err)
		}
		return appts, nil
	case identity.RoleCaregiver:
		appts, err := s.store.ListCaregiverAppointments(ctx, who.Username)
		if err != nil {
			return nil, fmt.Errorf("list caregiver appointments: %w", err)
		}
		return appts, nil
	default:
		return nil, ErrLoginRequired
	}
}
