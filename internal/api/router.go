package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-front-office/internal/appointment"
	"github.com/hackgods/clinic-front-office/internal/auth"
	"github.com/hackgods/clinic-front-office/internal/booking"
	"github.com/hackgods/clinic-front-office/internal/dashboard"
	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/invoice"
	"github.com/hackgods/clinic-front-office/internal/patient"
)

type DoctorService interface {
	CreateDoctor(ctx context.Context, in doctor.Input) (*doctor.Doctor, error)
	UpdateDoctor(ctx context.Context, id uuid.UUID, in doctor.Input) (*doctor.Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error)
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
	ListDoctors(ctx context.Context, f doctor.ListFilter) ([]doctor.Doctor, error)
	DoctorStats(ctx context.Context) (doctor.Stats, error)
}

type PatientService interface {
	CreatePatient(ctx context.Context, in patient.Input) (*patient.Patient, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, in patient.Input) (*patient.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	DeletePatient(ctx context.Context, id uuid.UUID) error
	ListPatients(ctx context.Context, f patient.ListFilter) ([]patient.Patient, error)
	PatientStats(ctx context.Context) (patient.Stats, error)
}

type AppointmentService interface {
	CheckConflict(ctx context.Context, q appointment.ConflictQuery) (appointment.ConflictResult, error)
	CreateAppointment(ctx context.Context, in appointment.Input) (*appointment.Appointment, error)
	UpdateAppointment(ctx context.Context, id uuid.UUID, in appointment.Input) (*appointment.Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ListAppointments(ctx context.Context, f appointment.ListFilter) ([]appointment.Appointment, error)
	ListByDate(ctx context.Context, date string) ([]appointment.Appointment, error)
	ListByMonth(ctx context.Context, year, month int) (map[string][]appointment.Appointment, error)
}

type BookingService interface {
	Start(ctx context.Context) (*booking.Draft, error)
	Get(ctx context.Context, id uuid.UUID) (*booking.Draft, error)
	SelectDoctor(ctx context.Context, id, doctorID uuid.UUID) (*booking.Draft, error)
	SelectPatient(ctx context.Context, id, patientID uuid.UUID) (*booking.Draft, error)
	SetSchedule(ctx context.Context, id uuid.UUID, in booking.ScheduleInput) (*booking.Draft, error)
	SetDetails(ctx context.Context, id uuid.UUID, in booking.DetailsInput) (*booking.Draft, error)
	Recheck(ctx context.Context, id uuid.UUID) (*booking.Draft, error)
	Next(ctx context.Context, id uuid.UUID) (*booking.Draft, error)
	Back(ctx context.Context, id uuid.UUID) (*booking.Draft, error)
	Commit(ctx context.Context, id uuid.UUID) (*booking.Draft, *appointment.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) error
}

type InvoiceService interface {
	CreateInvoice(ctx context.Context, in invoice.Input) (*invoice.Invoice, error)
	UpdateInvoice(ctx context.Context, id uuid.UUID, in invoice.Input) (*invoice.Invoice, error)
	PreviewInvoice(ctx context.Context, in invoice.Input) (*invoice.Invoice, error)
	GetInvoice(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, f invoice.ListFilter) ([]invoice.Invoice, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error
}

type AuthService interface {
	Authenticator
	Login(ctx context.Context, in auth.LoginInput) (*auth.LoginResult, error)
}

type DashboardService interface {
	Summary(ctx context.Context) (*dashboard.Summary, error)
}

type RouterConfig struct {
	Doctors      DoctorService
	Patients     PatientService
	Appointments AppointmentService
	Bookings     BookingService
	Invoices     InvoiceService
	Auth         AuthService
	Dashboard    DashboardService
	Postgres     Pinger
	Redis        Pinger
	Logger       zerolog.Logger
	CORSOrigins  []string
	Env          string
	Version      string
	// Now defaults to time.Now; export filenames use it.
	Now func() time.Time
}

func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", loginHandler(cfg.Auth))

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(cfg.Auth))

			r.Get("/auth/me", meHandler())
			r.Get("/dashboard", dashboardHandler(cfg.Dashboard))

			r.Route("/doctors", func(r chi.Router) {
				r.Get("/", listDoctorsHandler(cfg.Doctors))
				r.Post("/", createDoctorHandler(cfg.Doctors))
				r.Get("/stats", doctorStatsHandler(cfg.Doctors))
				r.Get("/export.csv", exportDoctorsHandler(cfg.Doctors, cfg.Now))
				r.Get("/{id}", getDoctorHandler(cfg.Doctors))
				r.Put("/{id}", updateDoctorHandler(cfg.Doctors))
				r.Delete("/{id}", deleteDoctorHandler(cfg.Doctors))
			})

			r.Route("/patients", func(r chi.Router) {
				r.Get("/", listPatientsHandler(cfg.Patients))
				r.Post("/", createPatientHandler(cfg.Patients))
				r.Get("/stats", patientStatsHandler(cfg.Patients))
				r.Get("/export.csv", exportPatientsHandler(cfg.Patients, cfg.Now))
				r.Get("/{id}", getPatientHandler(cfg.Patients))
				r.Put("/{id}", updatePatientHandler(cfg.Patients))
				r.Delete("/{id}", deletePatientHandler(cfg.Patients))
			})

			r.Route("/appointments", func(r chi.Router) {
				r.Get("/", listAppointmentsHandler(cfg.Appointments))
				r.Post("/", createAppointmentHandler(cfg.Appointments))
				r.Get("/conflicts", checkConflictHandler(cfg.Appointments))
				r.Get("/calendar", calendarDayHandler(cfg.Appointments))
				r.Get("/calendar/month", calendarMonthHandler(cfg.Appointments))
				r.Get("/export.csv", exportAppointmentsHandler(cfg.Appointments, cfg.Now))
				r.Get("/{id}", getAppointmentHandler(cfg.Appointments))
				r.Put("/{id}", updateAppointmentHandler(cfg.Appointments))
				r.Delete("/{id}", deleteAppointmentHandler(cfg.Appointments))
			})

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", startBookingHandler(cfg.Bookings))
				r.Get("/{id}", getBookingHandler(cfg.Bookings))
				r.Put("/{id}/doctor", selectBookingDoctorHandler(cfg.Bookings))
				r.Put("/{id}/patient", selectBookingPatientHandler(cfg.Bookings))
				r.Put("/{id}/schedule", setBookingScheduleHandler(cfg.Bookings))
				r.Put("/{id}/details", setBookingDetailsHandler(cfg.Bookings))
				r.Post("/{id}/recheck", bookingStepHandler(cfg.Bookings, stepRecheck))
				r.Post("/{id}/next", bookingStepHandler(cfg.Bookings, stepNext))
				r.Post("/{id}/back", bookingStepHandler(cfg.Bookings, stepBack))
				r.Post("/{id}/commit", commitBookingHandler(cfg.Bookings))
				r.Delete("/{id}", cancelBookingHandler(cfg.Bookings))
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", listInvoicesHandler(cfg.Invoices))
				r.Post("/", createInvoiceHandler(cfg.Invoices))
				r.Post("/preview", previewInvoiceHandler(cfg.Invoices))
				r.Get("/{id}", getInvoiceHandler(cfg.Invoices))
				r.Put("/{id}", updateInvoiceHandler(cfg.Invoices))
				r.Delete("/{id}", deleteInvoiceHandler(cfg.Invoices))
			})
		})
	})

	return r
}
