package scheduling

import (
	"context"
	"sort"
	"time"

	"github.com/hackgods/vaccine-scheduler/internal/identity"
)

type slotKey struct {
	caregiver string
	day       string
}

func keyFor(caregiver string, day time.Time) slotKey {
	return slotKey{caregiver: caregiver, day: day.Format("2006-01-02")}
}

// fakeStore is an in-memory Store. WithTx snapshots state and restores
// it when the callback fails, mirroring a rolled-back transaction.
// failures injects an error for a named operation to simulate store
// faults mid-transaction.
type fakeStore struct {
	vaccines     map[string]int
	slots        map[slotKey]bool
	appointments map[int64]Appointment
	nextID       int64
	failures     map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vaccines:     make(map[string]int),
		slots:        make(map[slotKey]bool),
		appointments: make(map[int64]Appointment),
		nextID:       1,
		failures:     make(map[string]error),
	}
}

func (f *fakeStore) failOn(op string, err error) {
	f.failures[op] = err
}

func (f *fakeStore) snapshot() (map[string]int, map[slotKey]bool, map[int64]Appointment, int64) {
	vaccines := make(map[string]int, len(f.vaccines))
	for k, v := range f.vaccines {
		vaccines[k] = v
	}
	slots := make(map[slotKey]bool, len(f.slots))
	for k, v := range f.slots {
		slots[k] = v
	}
	appointments := make(map[int64]Appointment, len(f.appointments))
	for k, v := range f.appointments {
		appointments[k] = v
	}
	return vaccines, slots, appointments, f.nextID
}

func (f *fakeStore) WithTx(_ context.Context, fn func(Store) error) error {
	vaccines, slots, appointments, nextID := f.snapshot()
	if err := fn(f); err != nil {
		f.vaccines = vaccines
		f.slots = slots
		f.appointments = appointments
		f.nextID = nextID
		return err
	}
	return nil
}

func (f *fakeStore) GetVaccine(_ context.Context, name string) (*Vaccine, error) {
	if err := f.failures["GetVaccine"]; err != nil {
		return nil, err
	}
	doses, ok := f.vaccines[name]
	if !ok {
		return nil, ErrVaccineNotFound
	}
	return &Vaccine{Name: name, AvailableDoses: doses}, nil
}

func (f *fakeStore) CreateVaccine(_ context.Context, name string, doses int) (*Vaccine, error) {
	if err := f.failures["CreateVaccine"]; err != nil {
		return nil, err
	}
	if _, ok := f.vaccines[name]; ok {
		return nil, ErrVaccineExists
	}
	f.vaccines[name] = doses
	return &Vaccine{Name: name, AvailableDoses: doses}, nil
}

func (f *fakeStore) AddDoses(_ context.Context, name string, n int) (int, error) {
	if err := f.failures["AddDoses"]; err != nil {
		return 0, err
	}
	if _, ok := f.vaccines[name]; !ok {
		return 0, ErrVaccineNotFound
	}
	f.vaccines[name] += n
	return f.vaccines[name], nil
}

func (f *fakeStore) RemoveDoses(_ context.Context, name string, n int) (int, error) {
	if err := f.failures["RemoveDoses"]; err != nil {
		return 0, err
	}
	current, ok := f.vaccines[name]
	if !ok {
		return 0, ErrVaccineNotFound
	}
	if current < n {
		return 0, ErrInsufficientDoses
	}
	f.vaccines[name] = current - n
	return f.vaccines[name], nil
}

func (f *fakeStore) ListVaccines(_ context.Context) ([]Vaccine, error) {
	if err := f.failures["ListVaccines"]; err != nil {
		return nil, err
	}
	var result []Vaccine
	for name, doses := range f.vaccines {
		result = append(result, Vaccine{Name: name, AvailableDoses: doses})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (f *fakeStore) ListAvailableCaregivers(_ context.Context, day time.Time) ([]string, error) {
	if err := f.failures["ListAvailableCaregivers"]; err != nil {
		return nil, err
	}
	dayKey := day.Format("2006-01-02")
	var result []string
	for slot := range f.slots {
		if slot.day == dayKey {
			result = append(result, slot.caregiver)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (f *fakeStore) PublishAvailability(_ context.Context, caregiver string, day time.Time) error {
	if err := f.failures["PublishAvailability"]; err != nil {
		return err
	}
	key := keyFor(caregiver, day)
	if f.slots[key] {
		return ErrSlotExists
	}
	f.slots[key] = true
	return nil
}

func (f *fakeStore) RemoveAvailability(_ context.Context, caregiver string, day time.Time) error {
	if err := f.failures["RemoveAvailability"]; err != nil {
		return err
	}
	key := keyFor(caregiver, day)
	if !f.slots[key] {
		return ErrSlotNotFound
	}
	delete(f.slots, key)
	return nil
}

func (f *fakeStore) CreateAppointment(_ context.Context, day time.Time, patient, caregiver, vaccine string) (int64, error) {
	if err := f.failures["CreateAppointment"]; err != nil {
		return 0, err
	}
	id := f.nextID
	f.nextID++
	f.appointments[id] = Appointment{
		ID:                id,
		Day:               Day(day),
		PatientUsername:   patient,
		CaregiverUsername: caregiver,
		VaccineName:       vaccine,
	}
	return id, nil
}

func (f *fakeStore) GetAppointmentByDayAndCaregiver(_ context.Context, day time.Time, caregiver string) (*Appointment, error) {
	if err := f.failures["GetAppointmentByDayAndCaregiver"]; err != nil {
		return nil, err
	}
	var latest *Appointment
	for id, a := range f.appointments {
		if a.CaregiverUsername != caregiver || !a.Day.Equal(Day(day)) {
			continue
		}
		if latest == nil || id > latest.ID {
			appt := a
			latest = &appt
		}
	}
	if latest == nil {
		return nil, ErrAppointmentNotFound
	}
	return latest, nil
}

func (f *fakeStore) GetAppointment(_ context.Context, id int64) (*Appointment, error) {
	if err := f.failures["GetAppointment"]; err != nil {
		return nil, err
	}
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeStore) FindOwnedAppointment(_ context.Context, id int64, owner identity.Identity) (*Appointment, error) {
	if err := f.failures["FindOwnedAppointment"]; err != nil {
		return nil, err
	}
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	switch owner.Role {
	case identity.RolePatient:
		if a.PatientUsername != owner.Username {
			return nil, ErrAppointmentNotFound
		}
	case identity.RoleCaregiver:
		if a.CaregiverUsername != owner.Username {
			return nil, ErrAppointmentNotFound
		}
	default:
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeStore) ListPatientAppointments(_ context.Context, patient string) ([]Appointment, error) {
	if err := f.failures["ListPatientAppointments"]; err != nil {
		return nil, err
	}
	return f.listAppointments(func(a Appointment) bool { return a.PatientUsername == patient }), nil
}

func (f *fakeStore) ListCaregiverAppointments(_ context.Context, caregiver string) ([]Appointment, error) {
	if err := f.failures["ListCaregiverAppointments"]; err != nil {
		return nil, err
	}
	return f.listAppointments(func(a Appointment) bool { return a.CaregiverUsername == caregiver }), nil
}

func (f *fakeStore) listAppointments(match func(Appointment) bool) []Appointment {
	var result []Appointment
	for _, a := range f.appointments {
		if match(a) {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (f *fakeStore) DeleteAppointment(_ context.Context, id int64) (*Appointment, error) {
	if err := f.failures["DeleteAppointment"]; err != nil {
		return nil, err
	}
	a, ok := f.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	delete(f.appointments, id)
	return &a, nil
}
