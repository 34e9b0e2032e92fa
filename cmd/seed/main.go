package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/vaccine-scheduler/internal/account"
	"github.com/hackgods/vaccine-scheduler/internal/db"
	"github.com/hackgods/vaccine-scheduler/internal/identity"
	"github.com/hackgods/vaccine-scheduler/internal/scheduling"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	caregiverCount := getInt("SEED_CAREGIVERS", 20)
	patientCount := getInt("SEED_PATIENTS", 200)
	availabilityDays := getInt("SEED_AVAILABILITY_DAYS", 14)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("apply schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedVaccines(ctx, pool); err != nil {
		log.Fatalf("seed vaccines: %v", err)
	}

	accounts := account.NewService(account.NewPgRepository(pool))
	store := scheduling.NewPgStore(pool)

	caregivers, err := seedAccounts(ctx, accounts, identity.RoleCaregiver, caregiverCount)
	if err != nil {
		log.Fatalf("seed caregivers: %v", err)
	}
	if _, err := seedAccounts(ctx, accounts, identity.RolePatient, patientCount); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	if err := seedAvailabilities(ctx, store, caregivers, availabilityDays); err != nil {
		log.Fatalf("seed availabilities: %v", err)
	}

	log.Println("seed complete")
}

func seedVaccines(ctx context.Context, pool *pgxpool.Pool) error {
	vaccines := []string{"Pfizer", "Moderna", "Janssen", "Novavax"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, name := range vaccines {
		doses := gofakeit.Number(50, 500)
		_, err := tx.Exec(ctx, `
			INSERT INTO vaccines (name, available_doses)
			VALUES ($1, $2)
			ON CONFLICT (name) DO NOTHING
		`, name, doses)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("vaccines seeded: %d", len(vaccines))
	return nil
}

func seedAccounts(ctx context.Context, accounts *account.Service, role identity.Role, count int) ([]string, error) {
	log.Printf("seeding %d %s accounts", count, role)

	usernames := make([]string, 0, count)
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		password := gofakeit.Password(true, true, true, false, false, 12)

		if err := accounts.Create(ctx, role, username, password); err != nil {
			// Random usernames collide occasionally; skip and carry on.
			if errors.Is(err, account.ErrUsernameTaken) {
				continue
			}
			return nil, err
		}
		usernames = append(usernames, username)
		log.Printf("created %s %s password=%s", role, username, password)
	}

	log.Printf("%s accounts seeded: %d", role, len(usernames))
	return usernames, nil
}

func seedAvailabilities(ctx context.Context, store *scheduling.PgStore, caregivers []string, days int) error {
	start := scheduling.Day(time.Now())

	total := 0
	for _, caregiver := range caregivers {
		for d := 0; d < days; d++ {
			// Each caregiver is free on roughly two thirds of the days.
			if gofakeit.Number(0, 2) == 0 {
				continue
			}
			day := start.AddDate(0, 0, d)
			if err := store.PublishAvailability(ctx, caregiver, day); err != nil {
				if errors.Is(err, scheduling.ErrSlotExists) {
					continue
				}
				return err
			}
			total++
		}
	}

	log.Printf("availabilities seeded: %d", total)
	return nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
