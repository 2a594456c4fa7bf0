package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-front-office/internal/config"
	"github.com/hackgods/clinic-front-office/internal/db"
	"github.com/hackgods/clinic-front-office/internal/logger"
)

type SimConfig struct {
	APIBaseURL   string
	Username     string
	Password     string
	Duration     time.Duration
	Workers      int
	Doctors      int
	Date         string
	BookingRatio float64
	CheckRatio   float64
}

// DataPool holds the doctors and patients the workers book against. A small
// doctor set on a single date forces overlapping requests.
type DataPool struct {
	Doctors  []uuid.UUID
	Patients []uuid.UUID
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	token   string
	log     zerolog.Logger
	metrics Metrics
}

func main() {
	cfg := SimConfig{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Hammer the booking API with overlapping requests and verify no doctor is double-booked",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cfg.APIBaseURL, "api", "http://localhost:8080", "API base URL")
	f.StringVar(&cfg.Username, "username", "admin", "Login username")
	f.StringVar(&cfg.Password, "password", "admin123", "Login password")
	f.DurationVar(&cfg.Duration, "duration", 30*time.Second, "How long to run")
	f.IntVar(&cfg.Workers, "workers", 20, "Concurrent workers")
	f.IntVar(&cfg.Doctors, "doctors", 3, "Number of doctors to book against")
	f.StringVar(&cfg.Date, "date", time.Now().AddDate(0, 0, 7).Format(time.DateOnly), "Appointment date (YYYY-MM-DD)")
	f.Float64Var(&cfg.BookingRatio, "booking-ratio", 0.6, "Share of operations that try to book")
	f.Float64Var(&cfg.CheckRatio, "check-ratio", 0.3, "Share of operations that only run a conflict check")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, simCfg SimConfig) error {
	if simCfg.Workers <= 0 || simCfg.Duration <= 0 || simCfg.Doctors <= 0 {
		return errors.New("workers, duration and doctors must be positive")
	}
	if _, err := time.Parse(time.DateOnly, simCfg.Date); err != nil {
		return fmt.Errorf("invalid --date: %w", err)
	}

	baseCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load base config: %w", err)
	}
	log := logger.New(baseCfg.Env, baseCfg.LogLevel, os.Stdout)

	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(loadCtx, baseCfg.PostgresDSN, baseCfg.DBMaxConns, baseCfg.DBMinConns)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(loadCtx, pgPool, simCfg.Doctors)
	if err != nil {
		return fmt.Errorf("load data pool: %w", err)
	}
	log.Info().
		Int("doctors", len(dataPool.Doctors)).
		Int("patients", len(dataPool.Patients)).
		Str("date", simCfg.Date).
		Msg("data pool loaded")

	sim := &Simulator{
		config: simCfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	if err := sim.login(loadCtx); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	sim.Run(ctx)
	sim.PrintReport()

	overlaps, err := findOverlaps(ctx, pgPool, simCfg.Date)
	if err != nil {
		return fmt.Errorf("verify overlaps: %w", err)
	}
	if len(overlaps) > 0 {
		for _, o := range overlaps {
			log.Error().
				Str("doctor_id", o.DoctorID.String()).
				Str("first", fmt.Sprintf("%s %s-%s", o.FirstID, o.FirstStart, o.FirstEnd)).
				Str("second", fmt.Sprintf("%s %s-%s", o.SecondID, o.SecondStart, o.SecondEnd)).
				Msg("double booking detected")
		}
		return fmt.Errorf("%d overlapping appointment pair(s) on %s", len(overlaps), simCfg.Date)
	}

	log.Info().Str("date", simCfg.Date).Msg("no overlapping appointments found")
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, doctors int) (*DataPool, error) {
	dp := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM doctors WHERE status = 'Active' ORDER BY random() LIMIT $1`, doctors)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dp.Doctors = append(dp.Doctors, id)
	}
	rows.Close()

	rows, err = pool.Query(ctx, `SELECT id FROM patients WHERE status = 'Active' ORDER BY random() LIMIT 500`)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Patients = append(dp.Patients, id)
	}

	if len(dp.Doctors) == 0 {
		return nil, errors.New("no active doctors, run seed first")
	}
	if len(dp.Patients) == 0 {
		return nil, errors.New("no active patients, run seed first")
	}
	return dp, nil
}

func (s *Simulator) login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{"username": s.config.Username, "password": s.config.Password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login returned %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return err
	}
	s.token = out.Token
	return nil
}

func (s *Simulator) Run(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.config.Duration)
	defer cancel()

	s.log.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(time.Now().UnixNano())))
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := newRand(uint64(workerID))

	for ctx.Err() == nil {
		r := rng.Float64()
		switch {
		case r < s.config.BookingRatio:
			s.doBooking(ctx, rng)
		case r < s.config.BookingRatio+s.config.CheckRatio:
			s.doConflictCheck(ctx, rng)
		default:
			s.doCalendarDay(ctx)
		}
	}
}

// randomInterval picks a 15 to 60 minute interval on a quarter hour between
// 08:00 and 18:00.
func (s *Simulator) randomInterval(rng *rand.Rand) (string, string) {
	startMin := 8*60 + rng.IntN(37)*15
	endMin := startMin + (rng.IntN(4)+1)*15
	return clock(startMin), clock(endMin)
}

func clock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	start, end := s.randomInterval(rng)
	body, _ := json.Marshal(map[string]string{
		"doctor_id":        s.pool.Doctors[rng.IntN(len(s.pool.Doctors))].String(),
		"patient_id":       s.pool.Patients[rng.IntN(len(s.pool.Patients))].String(),
		"appointment_date": s.config.Date,
		"start_time":       start,
		"end_time":         end,
		"appointment_type": "Regular",
	})

	res, err := s.send(ctx, http.MethodPost, "/api/v1/appointments", body)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Booking.Record(res.latency, bookingOutcome(res, err))
}

func (s *Simulator) doConflictCheck(ctx context.Context, rng *rand.Rand) {
	start, end := s.randomInterval(rng)
	path := fmt.Sprintf("/api/v1/appointments/conflicts?doctor_id=%s&date=%s&start_time=%s&end_time=%s",
		s.pool.Doctors[rng.IntN(len(s.pool.Doctors))], s.config.Date, start, end)

	res, err := s.send(ctx, http.MethodGet, path, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.ConflictCheck.Record(res.latency, readOutcome(res, err))
}

func (s *Simulator) doCalendarDay(ctx context.Context) {
	res, err := s.send(ctx, http.MethodGet, "/api/v1/appointments/calendar?date="+s.config.Date, nil)
	if ctx.Err() != nil {
		return
	}
	s.metrics.CalendarDay.Record(res.latency, readOutcome(res, err))
}

type response struct {
	status  int
	code    string
	latency time.Duration
}

// bookingOutcome separates a lost lock race from a genuine overlap.
func bookingOutcome(res response, err error) outcome {
	switch {
	case err != nil:
		return outcomeError
	case res.status == http.StatusCreated:
		return outcomeSuccess
	case res.status == http.StatusConflict && res.code == "slot_being_booked":
		return outcomeBusy
	case res.status == http.StatusConflict:
		return outcomeConflict
	default:
		return outcomeError
	}
}

func readOutcome(res response, err error) outcome {
	if err == nil && res.status == http.StatusOK {
		return outcomeSuccess
	}
	return outcomeError
}

func (s *Simulator) send(ctx context.Context, method, path string, body []byte) (response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	start := time.Now()
	resp, err := s.client.Do(req)
	res := response{latency: time.Since(start)}
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()

	res.status = resp.StatusCode
	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		res.code = e.Error
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return res, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + rule())
	fmt.Println("SIMULATION REPORT")
	fmt.Println(rule())
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Doctors: %d on %s\n", len(s.pool.Doctors), s.config.Date)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Conflict check", &s.metrics.ConflictCheck)
	printOperationReport("Calendar day", &s.metrics.CalendarDay)
}
