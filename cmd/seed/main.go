package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackgods/clinic-front-office/internal/auth"
	"github.com/hackgods/clinic-front-office/internal/config"
	"github.com/hackgods/clinic-front-office/internal/db"
	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/logger"
	"github.com/hackgods/clinic-front-office/internal/patient"
)

const batchSize = 500

func main() {
	var doctors, patients int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake doctors, patients and an admin user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), doctors, patients)
		},
	}
	cmd.Flags().IntVar(&doctors, "doctors", 25, "Number of doctors to create")
	cmd.Flags().IntVar(&patients, "patients", 500, "Number of patients to create")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, doctorCount, patientCount int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Env, cfg.LogLevel, os.Stdout)
	log.Info().Msg("seed starting")

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	pool, err := db.ConnectPostgres(connectCtx, cfg.PostgresDSN, cfg.DBMaxConns, cfg.DBMinConns)
	cancel()
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	authSvc := auth.NewService(auth.NewPgRepository(pool), auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), log)
	if err := seedAdmin(ctx, authSvc, log); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := seedDoctors(ctx, pool, doctor.NewService(doctor.NewPgRepository(pool)), doctorCount, log); err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}
	if err := seedPatients(ctx, pool, patient.NewService(patient.NewPgRepository(pool)), patientCount, log); err != nil {
		return fmt.Errorf("seed patients: %w", err)
	}

	log.Info().Msg("seed complete")
	return nil
}

func seedAdmin(ctx context.Context, svc *auth.Service, log zerolog.Logger) error {
	_, err := svc.CreateUser(ctx, "admin", "admin123", "Front Desk Admin", auth.RoleAdmin)
	if errors.Is(err, auth.ErrDuplicateUser) {
		log.Info().Msg("admin user already exists")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Msg("admin user created")
	return nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, svc *doctor.Service, count int, log zerolog.Logger) error {
	log.Info().Int("count", count).Msg("seeding doctors")

	return inBatches(ctx, pool, count, log, "doctors", func(ctx context.Context, i int) error {
		first, last := gofakeit.FirstName(), gofakeit.LastName()
		years := gofakeit.Number(0, 35)
		status := doctor.StatusActive
		if gofakeit.Number(1, 10) == 1 {
			status = doctor.StatusInactive
		}

		_, err := svc.CreateDoctor(ctx, doctor.Input{
			Name:            "Dr. " + first + " " + last,
			Email:           uniqueEmail(first, last),
			Phone:           gofakeit.Phone(),
			LicenseNumber:   "LIC-" + strings.ToUpper(uuid.NewString()[:8]),
			Specialization:  doctor.Specializations[gofakeit.Number(0, len(doctor.Specializations)-1)],
			Status:          status,
			ExperienceYears: &years,
			Qualification:   gofakeit.RandomString([]string{"MBBS", "MD", "MBBS, MD", "MBBS, MS", "DO"}),
			Address:         gofakeit.Street() + ", " + gofakeit.City(),
		})
		return err
	})
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, svc *patient.Service, count int, log zerolog.Logger) error {
	log.Info().Int("count", count).Msg("seeding patients")

	oldest := time.Now().AddDate(-90, 0, 0)
	youngest := time.Now().AddDate(0, -1, 0)

	return inBatches(ctx, pool, count, log, "patients", func(ctx context.Context, i int) error {
		first, last := gofakeit.FirstName(), gofakeit.LastName()

		_, err := svc.CreatePatient(ctx, patient.Input{
			FullName:              first + " " + last,
			PhoneNumber:           gofakeit.Phone(),
			EmailAddress:          uniqueEmail(first, last),
			DateOfBirth:           gofakeit.DateRange(oldest, youngest).Format(time.DateOnly),
			Gender:                gofakeit.RandomString([]string{"Male", "Female", "Other"}),
			BloodGroup:            gofakeit.RandomString([]string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}),
			Address:               gofakeit.Street(),
			City:                  gofakeit.City(),
			State:                 gofakeit.State(),
			ZipCode:               gofakeit.Zip(),
			Country:               gofakeit.Country(),
			EmergencyContactPhone: gofakeit.Phone(),
			Occupation:            gofakeit.JobTitle(),
			MaritalStatus:         gofakeit.RandomString([]string{"Single", "Married", "Divorced", "Widowed"}),
		})
		return err
	})
}

// inBatches runs fn count times, committing every batchSize rows.
func inBatches(ctx context.Context, pool *pgxpool.Pool, count int, log zerolog.Logger, what string, fn func(ctx context.Context, i int) error) error {
	for offset := 0; offset < count; offset += batchSize {
		end := min(offset+batchSize, count)

		err := db.WithTx(ctx, pool, func(ctx context.Context) error {
			for i := offset; i < end; i++ {
				if err := fn(ctx, i); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Info().Int("done", end).Int("total", count).Msgf("%s seeded", what)
	}
	return nil
}

func uniqueEmail(first, last string) string {
	return fmt.Sprintf("%s.%s.%s@clinic.test",
		strings.ToLower(first), strings.ToLower(last), uuid.NewString()[:6])
}
