package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hackgods/vaccine-scheduler/internal/account"
	"github.com/hackgods/vaccine-scheduler/internal/identity"
	redisclient "github.com/hackgods/vaccine-scheduler/internal/redis"
	"github.com/hackgods/vaccine-scheduler/internal/scheduling"
)

// Session is one interactive run. It holds the at-most-one logged-in
// identity; nothing about the current user is process-global.
type Session struct {
	accounts *account.Service
	sched    *scheduling.Service
	current  identity.Identity
	in       io.Reader
	out      io.Writer
}

func NewSession(accounts *account.Service, sched *scheduling.Service, in io.Reader, out io.Writer) *Session {
	return &Session{
		accounts: accounts,
		sched:    sched,
		in:       in,
		out:      out,
	}
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *Session) printHelp() {
	s.printf("")
	s.printf("Welcome to the vaccine reservation scheduler!")
	s.printf("*** Please enter one of the following commands ***")
	s.printf("> create_patient <username> <password>")
	s.printf("> create_caregiver <username> <password>")
	s.printf("> login_patient <username> <password>")
	s.printf("> login_caregiver <username> <password>")
	s.printf("> search_caregiver_schedule <date>")
	s.printf("> reserve <date> <vaccine>")
	s.printf("> upload_availability <date>")
	s.printf("> cancel <appointment_id>")
	s.printf("> add_doses <vaccine> <number>")
	s.printf("> show_appointments")
	s.printf("> logout")
	s.printf("> quit")
	s.printf("")
}

// Run reads commands until quit or EOF. Each command is processed to
// completion before the next is accepted.
func (s *Session) Run(ctx context.Context) error {
	s.printHelp()

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}

		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}

		if tokens[0] == "quit" {
			s.printf("Bye!")
			return nil
		}

		s.dispatch(ctx, tokens)
		s.printHelp()
	}
	return scanner.Err()
}

func (s *Session) dispatch(ctx context.Context, tokens []string) {
	switch tokens[0] {
	case "create_patient":
		s.createAccount(ctx, identity.RolePatient, tokens)
	case "create_caregiver":
		s.createAccount(ctx, identity.RoleCaregiver, tokens)
	case "login_patient":
		s.login(ctx, identity.RolePatient, tokens)
	case "login_caregiver":
		s.login(ctx, identity.RoleCaregiver, tokens)
	case "search_caregiver_schedule":
		s.searchSchedule(ctx, tokens)
	case "reserve":
		s.reserve(ctx, tokens)
	case "upload_availability":
		s.uploadAvailability(ctx, tokens)
	case "cancel":
		s.cancel(ctx, tokens)
	case "add_doses":
		s.addDoses(ctx, tokens)
	case "show_appointments":
		s.showAppointments(ctx, tokens)
	case "logout":
		s.logout(tokens)
	default:
		s.printf("Invalid operation name! Please check your spelling!")
	}
}

func parseDay(value string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	return scheduling.Day(day), nil
}

func (s *Session) createAccount(ctx context.Context, role identity.Role, tokens []string) {
	if len(tokens) != 3 {
		s.printf("Failed to create user. Usage: create_%s <username> <password>", role)
		return
	}

	err := s.accounts.Create(ctx, role, tokens[1], tokens[2])
	switch {
	case err == nil:
		s.printf("Created user %s", tokens[1])
	case errors.Is(err, account.ErrUsernameTaken):
		s.printf("Username taken, try again!")
	default:
		s.printf("Failed to create user.")
	}
}

func (s *Session) login(ctx context.Context, role identity.Role, tokens []string) {
	if s.current.LoggedIn() {
		s.printf("User already logged in.")
		return
	}
	if len(tokens) != 3 {
		s.printf("Login failed. Usage: login_%s <username> <password>", role)
		return
	}

	who, err := s.accounts.Authenticate(ctx, role, tokens[1], tokens[2])
	if err != nil {
		s.printf("Login failed.")
		return
	}

	s.current = who
	s.printf("Logged in as: %s", who.Username)
}

func (s *Session) searchSchedule(ctx context.Context, tokens []string) {
	if !s.current.LoggedIn() {
		s.printf("Please login first!")
		return
	}
	if len(tokens) != 2 {
		s.printf("Please try again! Usage: search_caregiver_schedule YYYY-MM-DD")
		return
	}

	day, err := parseDay(tokens[1])
	if err != nil {
		s.printf("Please enter a valid date in format YYYY-MM-DD")
		return
	}

	schedule, err := s.sched.Schedule(ctx, day)
	if err != nil {
		s.printf("Error occurred while searching schedule")
		return
	}

	if len(schedule.Caregivers) == 0 {
		s.printf("No caregivers available for this date!")
	} else {
		for _, caregiver := range schedule.Caregivers {
			s.printf("Caregiver: %s", caregiver)
		}
	}
	for _, v := range schedule.Vaccines {
		s.printf("%s %d doses left", v.Name, v.AvailableDoses)
	}
}

func (s *Session) reserve(ctx context.Context, tokens []string) {
	if !s.current.LoggedIn() {
		s.printf("Please login first!")
		return
	}
	if s.current.Role != identity.RolePatient {
		s.printf("Please login as a patient!")
		return
	}
	if len(tokens) != 3 {
		s.printf("Please try again! Usage: reserve YYYY-MM-DD <vaccine>")
		return
	}

	day, err := parseDay(tokens[1])
	if err != nil {
		s.printf("Please enter a valid date in format YYYY-MM-DD")
		return
	}

	res, err := s.sched.Reserve(ctx, s.current, day, tokens[2])
	switch {
	case err == nil:
		s.printf("Appointment ID: %d, Caregiver username: %s", res.AppointmentID, res.Caregiver)
	case errors.Is(err, scheduling.ErrUnknownVaccine):
		s.printf("Please check your spelling, and enter a valid vaccine!")
	case errors.Is(err, scheduling.ErrInsufficientDoses):
		s.printf("Not enough available doses!")
	case errors.Is(err, scheduling.ErrNoCaregiverAvailable):
		s.printf("No caregiver is available!")
	case errors.Is(err, redisclient.ErrLockNotAcquired):
		s.printf("Another reservation for this date is in progress, please retry!")
	default:
		s.printf("Error occurred while reserving appointment")
	}
}

func (s *Session) uploadAvailability(ctx context.Context, tokens []string) {
	if s.current.Role != identity.RoleCaregiver {
		s.printf("Please login as a caregiver first!")
		return
	}
	if len(tokens) != 2 {
		s.printf("Please try again! Usage: upload_availability YYYY-MM-DD")
		return
	}

	day, err := parseDay(tokens[1])
	if err != nil {
		s.printf("Please enter a valid date in format YYYY-MM-DD")
		return
	}

	err = s.sched.UploadAvailability(ctx, s.current, day)
	switch {
	case err == nil:
		s.printf("Availability uploaded!")
	case errors.Is(err, scheduling.ErrSlotExists):
		s.printf("You already uploaded availability for that date!")
	default:
		s.printf("Error occurred when uploading availability")
	}
}

func (s *Session) cancel(ctx context.Context, tokens []string) {
	if !s.current.LoggedIn() {
		s.printf("Please login first!")
		return
	}
	if len(tokens) != 2 {
		s.printf("Please try again! Usage: cancel <appointment_id>")
		return
	}

	id, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil {
		s.printf("Please enter a valid appointment ID!")
		return
	}

	err = s.sched.Cancel(ctx, s.current, id)
	switch {
	case err == nil:
		s.printf("Appointment successfully cancelled!")
	case errors.Is(err, scheduling.ErrNotFoundOrNotOwned):
		s.printf("Unable to cancel appointment! Please make sure you're logged into the right account and double check the appointment ID.")
	default:
		s.printf("Error occurred while cancelling appointment")
	}
}

func (s *Session) addDoses(ctx context.Context, tokens []string) {
	if s.current.Role != identity.RoleCaregiver {
		s.printf("Please login as a caregiver first!")
		return
	}
	if len(tokens) != 3 {
		s.printf("Please try again! Usage: add_doses <vaccine> <number>")
		return
	}

	n, err := strconv.Atoi(tokens[2])
	if err != nil || n <= 0 {
		s.printf("Please enter a positive number of doses!")
		return
	}

	if _, err := s.sched.AddDoses(ctx, s.current, tokens[1], n); err != nil {
		s.printf("Error occurred when adding doses")
		return
	}
	s.printf("Doses updated!")
}

func (s *Session) showAppointments(ctx context.Context, tokens []string) {
	if !s.current.LoggedIn() {
		s.printf("Please login first!")
		return
	}
	if len(tokens) != 1 {
		s.printf("Please try again! Usage: show_appointments")
		return
	}

	appts, err := s.sched.Appointments(ctx, s.current)
	if err != nil {
		s.printf("Error occurred while showing appointments")
		return
	}

	if len(appts) == 0 {
		s.printf("You do not have any appointments scheduled!")
		return
	}

	if s.current.Role == identity.RoleCaregiver {
		s.printf("ApptID  Vaccine  Date  Patient")
		for _, a := range appts {
			s.printf("%d %s %s %s", a.ID, a.VaccineName, a.Day.Format("2006-01-02"), a.PatientUsername)
		}
	} else {
		s.printf("ApptID  Vaccine  Date  Caregiver")
		for _, a := range appts {
			s.printf("%d %s %s %s", a.ID, a.VaccineName, a.Day.Format("2006-01-02"), a.CaregiverUsername)
		}
	}
}

func (s *Session) logout(tokens []string) {
	if !s.current.LoggedIn() {
		s.printf("Please login first!")
		return
	}
	if len(tokens) != 1 {
		s.printf("Please try again! Usage: logout")
		return
	}

	s.current = identity.Identity{}
	s.printf("Successfully logged out!")
}
