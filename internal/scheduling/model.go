package scheduling

import "time"

// Day normalizes t to midnight UTC so calendar dates compare reliably on
// both sides of the store boundary.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type Vaccine struct {
	Name           string
	AvailableDoses int
}

type AvailabilitySlot struct {
	CaregiverUsername string
	Day               time.Time
}

type Appointment struct {
	ID                int64
	Day               time.Time
	PatientUsername   string
	CaregiverUsername string
	VaccineName       string
}

// DaySchedule is what a schedule search shows: who is free on a day plus
// the remaining doses for every vaccine.
type DaySchedule struct {
	Day        time.Time
	Caregivers []string
	Vaccines   []Vaccine
}

// Reservation reports the outcome of a successful reserve call.
type Reservation struct {
	AppointmentID int64
	Caregiver     string
}
