package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/vaccine-scheduler/internal/config"
	"github.com/hackgods/vaccine-scheduler/internal/db"
	"github.com/hackgods/vaccine-scheduler/internal/identity"
	redisclient "github.com/hackgods/vaccine-scheduler/internal/redis"
	"github.com/hackgods/vaccine-scheduler/internal/scheduling"
)

// The simulator hammers the reservation and cancellation engines from
// many goroutines against a narrow date window, then checks that the
// store still satisfies its invariants: stock never negative, no
// caregiver double-booked on a day.

type SimConfig struct {
	Duration     time.Duration
	Workers      int
	Days         int
	CancelRatio  float64
	PatientLimit int
	PostgresDSN  string
}

type bookedAppointment struct {
	ID      int64
	Patient string
}

type DataPool struct {
	Patients []string
	Vaccines []string
	Days     []time.Time

	mu           sync.RWMutex
	appointments []bookedAppointment
}

func (dp *DataPool) AddAppointment(id int64, patient string) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, bookedAppointment{ID: id, Patient: patient})
}

func (dp *DataPool) TakeRandomAppointment() (bookedAppointment, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	if len(dp.appointments) == 0 {
		return bookedAppointment{}, false
	}
	idx := rand.Intn(len(dp.appointments))
	appt := dp.appointments[idx]
	dp.appointments[idx] = dp.appointments[len(dp.appointments)-1]
	dp.appointments = dp.appointments[:len(dp.appointments)-1]
	return appt, true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Denied    int64
	Error     int64
	mu        sync.Mutex
	Latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, denied bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if denied {
		atomic.AddInt64(&om.Denied, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Reserve OperationMetrics
	Cancel  OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	service *scheduling.Service
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d days=%d cancel=%.2f",
		cfg.Duration, cfg.Workers, cfg.Days, cfg.CancelRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d patients, %d vaccines, %d days",
		len(dataPool.Patients), len(dataPool.Vaccines), len(dataPool.Days))

	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("load base config: %v", err)
	}

	var locker redisclient.Locker
	if baseCfg.RedisAddr != "" {
		rdb, err := redisclient.NewRedisClient(baseCfg.RedisAddr, baseCfg.RedisUsername, baseCfg.RedisPassword)
		if err != nil {
			log.Fatalf("connect redis: %v", err)
		}
		defer rdb.Close()
		locker = redisclient.NewRedisDayLocker(rdb, baseCfg.LockTTL)
	}

	sim := &Simulator{
		config:  cfg,
		pool:    dataPool,
		service: scheduling.NewService(scheduling.NewPgStore(pgPool), locker),
	}

	sim.Run()
	sim.PrintReport()

	if err := verifyInvariants(context.Background(), pgPool); err != nil {
		log.Fatalf("invariant violated: %v", err)
	}
	log.Println("invariants hold: stock non-negative, no double-booking")
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		Days:         getInt("SIM_DAYS", 3),
		CancelRatio:  getFloat("SIM_CANCEL_RATIO", 0.2),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 200),
		PostgresDSN:  baseCfg.PostgresDSN,
	}
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Days <= 0 {
		return fmt.Errorf("SIM_DAYS must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	rows, err := pool.Query(ctx, `
		SELECT username FROM patients LIMIT $1
	`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, username)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	vaccineRows, err := pool.Query(ctx, `SELECT name FROM vaccines`)
	if err != nil {
		return nil, fmt.Errorf("load vaccines: %w", err)
	}
	defer vaccineRows.Close()

	for vaccineRows.Next() {
		var name string
		if err := vaccineRows.Scan(&name); err != nil {
			return nil, err
		}
		dataPool.Vaccines = append(dataPool.Vaccines, name)
	}
	if err := vaccineRows.Err(); err != nil {
		return nil, err
	}

	start := scheduling.Day(time.Now())
	for d := 0; d < cfg.Days; d++ {
		dataPool.Days = append(dataPool.Days, start.AddDate(0, 0, d))
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients in store, run cmd/seed first")
	}
	if len(dataPool.Vaccines) == 0 {
		return nil, fmt.Errorf("no vaccines in store, run cmd/seed first")
	}

	return dataPool, nil
}

func (sim *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sim.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < sim.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sim.worker(ctx)
		}()
	}
	wg.Wait()
}

func (sim *Simulator) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if rand.Float64() < sim.config.CancelRatio {
			sim.doCancel(ctx)
		} else {
			sim.doReserve(ctx)
		}
	}
}

func (sim *Simulator) doReserve(ctx context.Context) {
	patient := sim.pool.Patients[rand.Intn(len(sim.pool.Patients))]
	day := sim.pool.Days[rand.Intn(len(sim.pool.Days))]
	vaccine := sim.pool.Vaccines[rand.Intn(len(sim.pool.Vaccines))]

	start := time.Now()
	res, err := sim.service.Reserve(ctx, identity.Patient(patient), day, vaccine)
	latency := time.Since(start)

	switch {
	case err == nil:
		sim.pool.AddAppointment(res.AppointmentID, patient)
		sim.metrics.Reserve.Record(latency, true, false)
	case isDenial(err):
		sim.metrics.Reserve.Record(latency, false, true)
	default:
		sim.metrics.Reserve.Record(latency, false, false)
	}
}

func (sim *Simulator) doCancel(ctx context.Context) {
	appt, ok := sim.pool.TakeRandomAppointment()
	if !ok {
		return
	}

	start := time.Now()
	err := sim.service.Cancel(ctx, identity.Patient(appt.Patient), appt.ID)
	latency := time.Since(start)

	switch {
	case err == nil:
		sim.metrics.Cancel.Record(latency, true, false)
	case errors.Is(err, scheduling.ErrNotFoundOrNotOwned):
		sim.metrics.Cancel.Record(latency, false, true)
	default:
		sim.metrics.Cancel.Record(latency, false, false)
	}
}

func isDenial(err error) bool {
	return errors.Is(err, scheduling.ErrUnknownVaccine) ||
		errors.Is(err, scheduling.ErrInsufficientDoses) ||
		errors.Is(err, scheduling.ErrNoCaregiverAvailable) ||
		errors.Is(err, redisclient.ErrLockNotAcquired)
}

func (sim *Simulator) PrintReport() {
	printOperation := func(name string, om *OperationMetrics) {
		avg, min, max, p50, p95 := om.Stats()
		log.Printf("%s: total=%d success=%d denied=%d error=%d",
			name, om.Total, om.Success, om.Denied, om.Error)
		log.Printf("%s latency: avg=%s min=%s max=%s p50=%s p95=%s",
			name, avg, min, max, p50, p95)
	}

	printOperation("reserve", &sim.metrics.Reserve)
	printOperation("cancel", &sim.metrics.Cancel)
}

func verifyInvariants(ctx context.Context, pool *pgxpool.Pool) error {
	var negative int
	err := pool.QueryRow(ctx, `
		SELECT count(*) FROM vaccines WHERE available_doses < 0
	`).Scan(&negative)
	if err != nil {
		return fmt.Errorf("check stock: %w", err)
	}
	if negative > 0 {
		return fmt.Errorf("%d vaccines with negative stock", negative)
	}

	var doubleBooked int
	err = pool.QueryRow(ctx, `
		SELECT count(*) FROM (
			SELECT caregiver_username, day
			FROM appointments
			GROUP BY caregiver_username, day
			HAVING count(*) > 1
		) d
	`).Scan(&doubleBooked)
	if err != nil {
		return fmt.Errorf("check double booking: %w", err)
	}
	if doubleBooked > 0 {
		return fmt.Errorf("%d caregiver/day pairs double-booked", doubleBooked)
	}

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

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
