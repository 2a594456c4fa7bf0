package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-front-office/internal/appointment"
	"github.com/hackgods/clinic-front-office/internal/auth"
	"github.com/hackgods/clinic-front-office/internal/booking"
	"github.com/hackgods/clinic-front-office/internal/dashboard"
	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/invoice"
	"github.com/hackgods/clinic-front-office/internal/patient"
	"github.com/hackgods/clinic-front-office/internal/validation"
)

// --- fakes ---

type fakeAppointments struct {
	store     map[uuid.UUID]*appointment.Appointment
	createErr error
	conflict  *appointment.Appointment
	panicOn   string
}

func (f *fakeAppointments) CheckConflict(_ context.Context, q appointment.ConflictQuery) (appointment.ConflictResult, error) {
	if q.DoctorID == uuid.Nil {
		return appointment.ConflictResult{}, validation.Field("doctor_id", "doctor_id is required")
	}
	if f.conflict != nil {
		return appointment.ConflictResult{Conflict: true, Conflicting: f.conflict, Message: appointment.ConflictMessage(*f.conflict)}, nil
	}
	return appointment.ConflictResult{}, nil
}

func (f *fakeAppointments) CreateAppointment(_ context.Context, in appointment.Input) (*appointment.Appointment, error) {
	if f.panicOn == "create" {
		panic("boom")
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	a := &appointment.Appointment{
		ID:              uuid.New(),
		DoctorID:        uuid.MustParse(in.DoctorID),
		PatientID:       uuid.MustParse(in.PatientID),
		Date:            in.Date,
		StartTime:       in.StartTime,
		EndTime:         in.EndTime,
		AppointmentTime: appointment.DisplayTime(in.StartTime, in.EndTime),
		Status:          appointment.StatusScheduled,
	}
	f.store[a.ID] = a
	return a, nil
}

func (f *fakeAppointments) UpdateAppointment(_ context.Context, id uuid.UUID, _ appointment.Input) (*appointment.Appointment, error) {
	a, ok := f.store[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return a, nil
}

func (f *fakeAppointments) DeleteAppointment(_ context.Context, id uuid.UUID) error {
	if _, ok := f.store[id]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	delete(f.store, id)
	return nil
}

func (f *fakeAppointments) GetAppointment(_ context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := f.store[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return a, nil
}

func (f *fakeAppointments) ListAppointments(_ context.Context, lf appointment.ListFilter) ([]appointment.Appointment, error) {
	out := []appointment.Appointment{}
	for _, a := range f.store {
		if lf.DoctorID != nil && a.DoctorID != *lf.DoctorID {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAppointments) ListByDate(ctx context.Context, date string) ([]appointment.Appointment, error) {
	return f.ListAppointments(ctx, appointment.ListFilter{Date: date})
}

func (f *fakeAppointments) ListByMonth(_ context.Context, year, month int) (map[string][]appointment.Appointment, error) {
	if month < 1 || month > 12 {
		return nil, validation.Field("month", "month must be between 1 and 12")
	}
	return map[string][]appointment.Appointment{}, nil
}

type fakeDoctors struct {
	list []doctor.Doctor
	err  error
}

func (f *fakeDoctors) CreateDoctor(_ context.Context, in doctor.Input) (*doctor.Doctor, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	return nil, &doctor.DuplicateError{Field: "email"}
}

func (f *fakeDoctors) UpdateDoctor(context.Context, uuid.UUID, doctor.Input) (*doctor.Doctor, error) {
	return nil, doctor.ErrDoctorNotFound
}

func (f *fakeDoctors) GetDoctor(context.Context, uuid.UUID) (*doctor.Doctor, error) {
	return nil, doctor.ErrDoctorNotFound
}

func (f *fakeDoctors) DeleteDoctor(context.Context, uuid.UUID) error {
	return doctor.ErrDoctorNotFound
}

func (f *fakeDoctors) ListDoctors(context.Context, doctor.ListFilter) ([]doctor.Doctor, error) {
	return f.list, f.err
}

func (f *fakeDoctors) DoctorStats(context.Context) (doctor.Stats, error) {
	return doctor.Stats{Total: len(f.list)}, f.err
}

type fakePatients struct {
	store     map[uuid.UUID]*patient.Patient
	createErr error
}

func (f *fakePatients) CreatePatient(_ context.Context, in patient.Input) (*patient.Patient, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p := &patient.Patient{ID: uuid.New(), FullName: in.FullName, PhoneNumber: in.PhoneNumber, Status: patient.StatusActive}
	f.store[p.ID] = p
	return p, nil
}

func (f *fakePatients) UpdatePatient(_ context.Context, id uuid.UUID, in patient.Input) (*patient.Patient, error) {
	p, ok := f.store[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	p.FullName = in.FullName
	p.PhoneNumber = in.PhoneNumber
	return p, nil
}

func (f *fakePatients) GetPatient(_ context.Context, id uuid.UUID) (*patient.Patient, error) {
	p, ok := f.store[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (f *fakePatients) DeletePatient(_ context.Context, id uuid.UUID) error {
	if _, ok := f.store[id]; !ok {
		return patient.ErrPatientNotFound
	}
	delete(f.store, id)
	return nil
}

func (f *fakePatients) ListPatients(context.Context, patient.ListFilter) ([]patient.Patient, error) {
	out := []patient.Patient{}
	for _, p := range f.store {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePatients) PatientStats(context.Context) (patient.Stats, error) {
	return patient.Stats{Total: len(f.store)}, nil
}

type fakeBookings struct {
	drafts map[uuid.UUID]*booking.Draft
}

func (f *fakeBookings) get(id uuid.UUID) (*booking.Draft, error) {
	d, ok := f.drafts[id]
	if !ok {
		return nil, booking.ErrDraftNotFound
	}
	return d, nil
}

func (f *fakeBookings) Start(context.Context) (*booking.Draft, error) {
	d := booking.NewDraft(time.Now())
	f.drafts[d.ID] = d
	return d, nil
}

func (f *fakeBookings) Get(_ context.Context, id uuid.UUID) (*booking.Draft, error) {
	return f.get(id)
}

func (f *fakeBookings) SelectDoctor(_ context.Context, id, doctorID uuid.UUID) (*booking.Draft, error) {
	d, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return d, d.SetDoctor(doctorID, "Dr. Rao")
}

func (f *fakeBookings) SelectPatient(_ context.Context, id, patientID uuid.UUID) (*booking.Draft, error) {
	d, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return d, d.SetPatient(patientID, "Asha Patel", "555-0101", "MR-000001")
}

func (f *fakeBookings) SetSchedule(_ context.Context, id uuid.UUID, in booking.ScheduleInput) (*booking.Draft, error) {
	d, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return d, d.SetSchedule(in.Date, in.StartTime, in.EndTime)
}

func (f *fakeBookings) SetDetails(_ context.Context, id uuid.UUID, in booking.DetailsInput) (*booking.Draft, error) {
	d, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return d, d.SetDetails(in.Type, in.Status, in.Fee, in.Notes)
}

func (f *fakeBookings) Recheck(_ context.Context, id uuid.UUID) (*booking.Draft, error) {
	return f.get(id)
}

func (f *fakeBookings) Next(_ context.Context, id uuid.UUID) (*booking.Draft, error) {
	d, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return d, d.Next()
}

func (f *fakeBookings) Back(_ context.Context, id uuid.UUID) (*booking.Draft, error) {
	d, err := f.get(id)
	if err != nil {
		return nil, err
	}
	return d, d.Back()
}

func (f *fakeBookings) Commit(_ context.Context, id uuid.UUID) (*booking.Draft, *appointment.Appointment, error) {
	d, err := f.get(id)
	if err != nil {
		return nil, nil, err
	}
	return d, nil, booking.ErrInvalidTransition
}

func (f *fakeBookings) Cancel(_ context.Context, id uuid.UUID) error {
	if _, err := f.get(id); err != nil {
		return err
	}
	delete(f.drafts, id)
	return nil
}

type fakeDashboard struct{}

func (fakeDashboard) Summary(context.Context) (*dashboard.Summary, error) {
	return &dashboard.Summary{TotalDoctors: 2, AppointmentsByStatus: map[string]int{}}, nil
}

type userRepo struct {
	users map[string]*auth.User
	err   error
}

func (u *userRepo) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	if u.err != nil {
		return nil, u.err
	}
	usr, ok := u.users[username]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return usr, nil
}

func (u *userRepo) Create(_ context.Context, usr *auth.User) (*auth.User, error) {
	usr.ID = uuid.New()
	u.users[usr.Username] = usr
	return usr, nil
}

// --- harness ---

type harness struct {
	handler      http.Handler
	token        string
	appointments *fakeAppointments
	doctors      *fakeDoctors
	patients     *fakePatients
	bookings     *fakeBookings
	users        *userRepo
	postgresErr  error
	redisErr     error
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		appointments: &fakeAppointments{store: make(map[uuid.UUID]*appointment.Appointment)},
		doctors:      &fakeDoctors{},
		patients:     &fakePatients{store: make(map[uuid.UUID]*patient.Patient)},
		bookings:     &fakeBookings{drafts: make(map[uuid.UUID]*booking.Draft)},
		users:        &userRepo{users: make(map[string]*auth.User)},
	}

	authSvc := auth.NewService(h.users, auth.NewTokenIssuer("test-secret", time.Hour), zerolog.Nop())
	if _, err := authSvc.CreateUser(context.Background(), "admin", "admin123", "Admin", auth.RoleAdmin); err != nil {
		t.Fatalf("create user: %v", err)
	}
	res, err := authSvc.Login(context.Background(), auth.LoginInput{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	h.token = res.Token

	h.handler = NewRouter(RouterConfig{
		Doctors:      h.doctors,
		Patients:     h.patients,
		Appointments: h.appointments,
		Bookings:     h.bookings,
		Invoices:     invoice.NewService(nil, nil, nil, nil, zerolog.Nop()),
		Auth:         authSvc,
		Dashboard:    fakeDashboard{},
		Postgres:     PingFunc(func(context.Context) error { return h.postgresErr }),
		Redis:        PingFunc(func(context.Context) error { return h.redisErr }),
		Logger:       zerolog.Nop(),
		CORSOrigins:  []string{"http://localhost:3000"},
		Env:          "test",
		Version:      "v-test",
		Now:          func() time.Time { return time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC) },
	})
	return h
}

func (h *harness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return resp
}

func appointmentBody(doctorID uuid.UUID) map[string]any {
	return map[string]any{
		"doctor_id":        doctorID.String(),
		"patient_id":       uuid.NewString(),
		"appointment_date": "2024-06-10",
		"start_time":       "09:00",
		"end_time":         "09:30",
	}
}

// --- tests ---

func TestHealth(t *testing.T) {
	h := newHarness(t)
	h.token = ""

	rec := h.do(t, http.MethodGet, "/health/live", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}

	h.redisErr = errors.New("redis down")
	rec = h.do(t, http.MethodGet, "/health/ready", nil)
	var ready ReadinessResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &ready)
	if rec.Code != http.StatusOK || ready.Status != "degraded" || ready.Dependencies["redis"] != "down" {
		t.Fatalf("expected degraded 200, got %d %+v", rec.Code, ready)
	}

	h.postgresErr = errors.New("pg down")
	rec = h.do(t, http.MethodGet, "/health/ready", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when postgres is down, got %d", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	h := newHarness(t)

	h.token = ""
	if rec := h.do(t, http.MethodGet, "/api/v1/doctors", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	h.token = "garbage"
	if rec := h.do(t, http.MethodGet, "/api/v1/doctors", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token, got %d", rec.Code)
	}
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.token = ""

	tests := []struct {
		name string
		body any
		want int
	}{
		{"ok", map[string]string{"username": "admin", "password": "admin123"}, http.StatusOK},
		{"missing password", map[string]string{"username": "admin"}, http.StatusBadRequest},
		{"missing username", map[string]string{"password": "admin123"}, http.StatusBadRequest},
		{"wrong password", map[string]string{"username": "admin", "password": "nope"}, http.StatusUnauthorized},
		{"malformed", "{not json", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/api/v1/auth/login", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}

	h.users.err = errors.New("db down")
	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin", "password": "admin123"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 on store failure, got %d", rec.Code)
	}
}

func TestMe(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/auth/me", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sess auth.Session
	_ = json.Unmarshal(rec.Body.Bytes(), &sess)
	if sess.Username != "admin" || sess.Role != auth.RoleAdmin {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestCreateAppointment(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/appointments", appointmentBody(uuid.New()))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var appt appointment.Appointment
	_ = json.Unmarshal(rec.Body.Bytes(), &appt)
	if appt.AppointmentTime != "09:00 - 09:30" {
		t.Fatalf("unexpected appointment_time %q", appt.AppointmentTime)
	}
}

func TestCreateAppointment_ErrorMapping(t *testing.T) {
	existing := &appointment.Appointment{ID: uuid.New(), StartTime: "09:00", EndTime: "10:00"}

	tests := []struct {
		name     string
		err      error
		body     any
		wantCode int
		wantErr  string
	}{
		{"validation", nil, map[string]any{"doctor_id": "x"}, http.StatusUnprocessableEntity, "validation_failed"},
		{"bad json", nil, "{", http.StatusBadRequest, "invalid_request_body"},
		{"conflict", &appointment.ConflictError{Existing: existing}, nil, http.StatusConflict, "time_conflict"},
		{"busy", appointment.ErrScheduleBusy, nil, http.StatusConflict, "slot_being_booked"},
		{"missing doctor", doctor.ErrDoctorNotFound, nil, http.StatusNotFound, "doctor_not_found"},
		{"gateway", errors.New("connection refused"), nil, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.appointments.createErr = tt.err
			body := tt.body
			if body == nil {
				body = appointmentBody(uuid.New())
			}

			rec := h.do(t, http.MethodPost, "/api/v1/appointments", body)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			resp := decodeError(t, rec)
			if resp.Error != tt.wantErr {
				t.Fatalf("expected %s, got %s", tt.wantErr, resp.Error)
			}
			if tt.name == "validation" && resp.Fields["patient_id"] == "" {
				t.Fatalf("expected field errors, got %v", resp.Fields)
			}
			if tt.name == "conflict" {
				if resp.Conflicting == nil || resp.Conflicting.ID != existing.ID {
					t.Fatalf("expected conflicting appointment in body, got %+v", resp.Conflicting)
				}
				if resp.Details != "Doctor has existing appointment from 09:00 to 10:00" {
					t.Fatalf("unexpected message %q", resp.Details)
				}
			}
			if tt.name == "gateway" && strings.Contains(rec.Body.String(), "connection refused") {
				t.Fatal("internal error details leaked")
			}
		})
	}
}

func TestCheckConflict(t *testing.T) {
	h := newHarness(t)
	h.appointments.conflict = &appointment.Appointment{ID: uuid.New(), StartTime: "09:00", EndTime: "10:00"}

	rec := h.do(t, http.MethodGet, "/api/v1/appointments/conflicts?doctor_id="+uuid.NewString()+"&date=2024-06-10&start_time=09:30&end_time=10:30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res appointment.ConflictResult
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	if !res.Conflict || res.Conflicting == nil {
		t.Fatalf("expected conflict, got %+v", res)
	}

	rec = h.do(t, http.MethodGet, "/api/v1/appointments/conflicts?doctor_id=nope&date=2024-06-10", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad doctor_id, got %d", rec.Code)
	}
}

func TestAppointmentNotFoundAndDelete(t *testing.T) {
	h := newHarness(t)

	if rec := h.do(t, http.MethodGet, "/api/v1/appointments/"+uuid.NewString(), nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/api/v1/appointments/not-a-uuid", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for malformed id, got %d", rec.Code)
	}

	rec := h.do(t, http.MethodPost, "/api/v1/appointments", appointmentBody(uuid.New()))
	var appt appointment.Appointment
	_ = json.Unmarshal(rec.Body.Bytes(), &appt)

	if rec := h.do(t, http.MethodDelete, "/api/v1/appointments/"+appt.ID.String(), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestListAppointments_EmptyIsArray(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/appointments?doctor_id="+uuid.NewString(), nil)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected 200 [], got %d %s", rec.Code, rec.Body.String())
	}
}

func TestCalendarMonth(t *testing.T) {
	h := newHarness(t)

	if rec := h.do(t, http.MethodGet, "/api/v1/appointments/calendar/month?year=2024&month=6", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/api/v1/appointments/calendar/month?year=2024&month=13", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, "/api/v1/appointments/calendar/month?year=x", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestExportDoctors(t *testing.T) {
	h := newHarness(t)
	h.doctors.list = []doctor.Doctor{{Name: "Dr. Rao", Email: "rao@clinic.test", Status: doctor.StatusActive, ExperienceYears: 7}}

	rec := h.do(t, http.MethodGet, "/api/v1/doctors/export.csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="doctors_2024-06-10.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !strings.HasPrefix(rec.Body.String(), "Name,Email,Phone,License Number,Specialization,Status,Experience Years\n") {
		t.Fatalf("unexpected csv %q", rec.Body.String())
	}
}

func TestDoctorErrors(t *testing.T) {
	h := newHarness(t)

	years := 3
	rec := h.do(t, http.MethodPost, "/api/v1/doctors", doctor.Input{
		Name: "Dr. Rao", Email: "rao@clinic.test", Phone: "1", LicenseNumber: "L1",
		Specialization: "Cardiology", Qualification: "MBBS", ExperienceYears: &years,
	})
	if rec.Code != http.StatusConflict || decodeError(t, rec).Details != "email is already registered" {
		t.Fatalf("expected 409 duplicate email, got %d %s", rec.Code, rec.Body.String())
	}

	h.patients.createErr = patient.ErrDuplicateMR
	if rec := h.do(t, http.MethodPost, "/api/v1/patients", map[string]string{"full_name": "A"}); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 duplicate MR, got %d", rec.Code)
	}

	h.doctors.err = errors.New("db down")
	if rec := h.do(t, http.MethodGet, "/api/v1/doctors/stats", nil); rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestPatientByID(t *testing.T) {
	h := newHarness(t)
	known := &patient.Patient{ID: uuid.New(), FullName: "Asha Patel", PhoneNumber: "555-0101", Status: patient.StatusActive}
	h.patients.store[known.ID] = known
	missing := uuid.NewString()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"get", http.MethodGet, "/api/v1/patients/" + known.ID.String(), nil, http.StatusOK, ""},
		{"get uppercase id", http.MethodGet, "/api/v1/patients/" + strings.ToUpper(known.ID.String()), nil, http.StatusOK, ""},
		{"get missing", http.MethodGet, "/api/v1/patients/" + missing, nil, http.StatusNotFound, "patient_not_found"},
		{"get malformed id", http.MethodGet, "/api/v1/patients/not-an-id", nil, http.StatusUnprocessableEntity, "validation_failed"},
		{"update", http.MethodPut, "/api/v1/patients/" + known.ID.String(), map[string]string{"full_name": "Asha P. Patel", "phone_number": "555-0102"}, http.StatusOK, ""},
		{"update missing", http.MethodPut, "/api/v1/patients/" + missing, map[string]string{"full_name": "X", "phone_number": "1"}, http.StatusNotFound, "patient_not_found"},
		{"update malformed id", http.MethodPut, "/api/v1/patients/123", map[string]string{"full_name": "X"}, http.StatusUnprocessableEntity, "validation_failed"},
		{"update bad body", http.MethodPut, "/api/v1/patients/" + known.ID.String(), "{", http.StatusBadRequest, "invalid_request_body"},
		{"delete missing", http.MethodDelete, "/api/v1/patients/" + missing, nil, http.StatusNotFound, "patient_not_found"},
		{"delete malformed id", http.MethodDelete, "/api/v1/patients/xyz", nil, http.StatusUnprocessableEntity, "validation_failed"},
		{"delete", http.MethodDelete, "/api/v1/patients/" + known.ID.String(), nil, http.StatusNoContent, ""},
		{"get after delete", http.MethodGet, "/api/v1/patients/" + known.ID.String(), nil, http.StatusNotFound, "patient_not_found"},
	}

	for _, tt := range tests {
		rec := h.do(t, tt.method, tt.path, tt.body)
		if rec.Code != tt.status {
			t.Fatalf("%s: expected %d, got %d %s", tt.name, tt.status, rec.Code, rec.Body.String())
		}
		if tt.code != "" && decodeError(t, rec).Error != tt.code {
			t.Fatalf("%s: expected code %s, got %s", tt.name, tt.code, rec.Body.String())
		}
	}

	if known.FullName != "Asha P. Patel" || known.PhoneNumber != "555-0102" {
		t.Fatalf("update not applied: %+v", known)
	}
}

func TestBookingFlow(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/bookings", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var d booking.Draft
	_ = json.Unmarshal(rec.Body.Bytes(), &d)
	base := "/api/v1/bookings/" + d.ID.String()

	if rec := h.do(t, http.MethodPost, base+"/back", nil); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 going back from the first step, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodPost, base+"/next", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without doctor and patient, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodPut, base+"/doctor", map[string]string{"doctor_id": "x"}); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad doctor id, got %d", rec.Code)
	}

	h.do(t, http.MethodPut, base+"/doctor", map[string]string{"doctor_id": uuid.NewString()})
	h.do(t, http.MethodPut, base+"/patient", map[string]string{"patient_id": uuid.NewString()})
	rec = h.do(t, http.MethodPost, base+"/next", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &d)
	if d.State != booking.StateScheduleTime {
		t.Fatalf("expected schedule step, got %s", d.State)
	}

	if rec := h.do(t, http.MethodDelete, base, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := h.do(t, http.MethodGet, base, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after cancel, got %d", rec.Code)
	}
}

func TestInvoicePreview(t *testing.T) {
	h := newHarness(t)

	body := map[string]any{
		"doctor_id":           uuid.NewString(),
		"patient_id":          uuid.NewString(),
		"services":            []map[string]any{{"service_name": "Consultation", "charges": "500", "discount": "50"}},
		"payments":            []map[string]any{{"amount": "100", "payment_mode": "cash"}},
		"settlement_discount": "0",
	}
	rec := h.do(t, http.MethodPost, "/api/v1/invoices/preview", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var inv invoice.Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inv.Status != invoice.StatusPartial || inv.BalanceDue.String() != "350" {
		t.Fatalf("unexpected preview %s %s", inv.Status, inv.BalanceDue)
	}

	body["services"] = []map[string]any{{"service_name": "X", "charges": "-1"}}
	rec = h.do(t, http.MethodPost, "/api/v1/invoices/preview", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for negative charge, got %d", rec.Code)
	}

	if rec := h.do(t, http.MethodGet, "/api/v1/invoices?status=overdue", nil); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown status, got %d", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/api/v1/dashboard", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total_doctors":2`) {
		t.Fatalf("unexpected dashboard response %d %s", rec.Code, rec.Body.String())
	}
}

func TestRecoveryAndRequestID(t *testing.T) {
	h := newHarness(t)
	h.appointments.panicOn = "create"

	rec := h.do(t, http.MethodPost, "/api/v1/appointments", appointmentBody(uuid.New()))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}
