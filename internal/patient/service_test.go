package patient

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-front-office/internal/validation"
)

type mockRepo struct {
	store map[uuid.UUID]*Patient
	seq   int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	c := *p
	return &c, nil
}

func (m *mockRepo) List(_ context.Context, f ListFilter) ([]Patient, error) {
	out := []Patient{}
	q := strings.ToLower(f.Query)
	for _, p := range m.store {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(p.FullName), q) &&
			!strings.Contains(strings.ToLower(p.PhoneNumber), q) &&
			!strings.Contains(strings.ToLower(p.MRNumber), q) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (m *mockRepo) Create(_ context.Context, p *Patient) (*Patient, error) {
	for _, other := range m.store {
		if other.MRNumber == p.MRNumber {
			return nil, ErrDuplicateMR
		}
	}
	p.ID = uuid.New()
	c := *p
	m.store[p.ID] = &c
	return p, nil
}

func (m *mockRepo) Update(_ context.Context, p *Patient) (*Patient, error) {
	if _, ok := m.store[p.ID]; !ok {
		return nil, ErrPatientNotFound
	}
	c := *p
	m.store[p.ID] = &c
	return p, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.store[id]; !ok {
		return ErrPatientNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *mockRepo) NextMRNumber(_ context.Context) (string, error) {
	m.seq++
	return FormatMRNumber(m.seq), nil
}

func (m *mockRepo) Stats(_ context.Context) (Stats, error) {
	var s Stats
	for _, p := range m.store {
		s.Total++
		if p.Status == StatusActive {
			s.Active++
		} else {
			s.Inactive++
		}
	}
	return s, nil
}

func fixedNow() time.Time {
	return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	svc.now = fixedNow
	return svc
}

func TestCreatePatient_AssignsMRAndAge(t *testing.T) {
	svc := newTestService(newMockRepo())

	p, err := svc.CreatePatient(context.Background(), Input{
		FullName:    " Noor Haddad ",
		PhoneNumber: "555-0199",
		DateOfBirth: "1990-06-16",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MRNumber != "MR-000001" {
		t.Errorf("expected MR-000001, got %s", p.MRNumber)
	}
	if p.FullName != "Noor Haddad" {
		t.Errorf("expected trimmed name, got %q", p.FullName)
	}
	if p.Age == nil || *p.Age != 34 {
		t.Errorf("expected age 34 the day before the birthday, got %v", p.Age)
	}
	if p.Status != StatusActive {
		t.Errorf("expected default Active status, got %s", p.Status)
	}
}

func TestCreatePatient_KeepsProvidedMR(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	p, err := svc.CreatePatient(context.Background(), Input{FullName: "A", PhoneNumber: "1", MRNumber: "MR-777777"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.MRNumber != "MR-777777" || repo.seq != 0 {
		t.Errorf("expected supplied MR number to be kept, got %s (seq %d)", p.MRNumber, repo.seq)
	}

	_, err = svc.CreatePatient(context.Background(), Input{FullName: "B", PhoneNumber: "2", MRNumber: "MR-777777"})
	if !errors.Is(err, ErrDuplicateMR) {
		t.Errorf("expected duplicate MR error, got %v", err)
	}
}

func TestCreatePatient_Validation(t *testing.T) {
	svc := newTestService(newMockRepo())

	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"missing name", Input{PhoneNumber: "1"}, "full_name"},
		{"missing phone", Input{FullName: "A"}, "phone_number"},
		{"bad email", Input{FullName: "A", PhoneNumber: "1", EmailAddress: "nope"}, "email_address"},
		{"bad dob", Input{FullName: "A", PhoneNumber: "1", DateOfBirth: "15/06/1990"}, "date_of_birth"},
		{"future dob", Input{FullName: "A", PhoneNumber: "1", DateOfBirth: "2030-01-01"}, "date_of_birth"},
		{"bad blood group", Input{FullName: "A", PhoneNumber: "1", BloodGroup: "C+"}, "blood_group"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePatient(context.Background(), tt.in)
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("expected field %s in %v", tt.field, verr.Fields)
			}
		})
	}
}

func TestUpdatePatient_KeepsMRNumber(t *testing.T) {
	svc := newTestService(newMockRepo())
	ctx := context.Background()

	p, err := svc.CreatePatient(ctx, Input{FullName: "A", PhoneNumber: "1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := svc.UpdatePatient(ctx, p.ID, Input{FullName: "A B", PhoneNumber: "2", Status: StatusInactive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.MRNumber != p.MRNumber {
		t.Errorf("expected MR number %s kept, got %s", p.MRNumber, updated.MRNumber)
	}
	if updated.Status != StatusInactive || updated.PhoneNumber != "2" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	if _, err := svc.UpdatePatient(ctx, uuid.New(), Input{FullName: "X", PhoneNumber: "3"}); !errors.Is(err, ErrPatientNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListPatients_Search(t *testing.T) {
	svc := newTestService(newMockRepo())
	ctx := context.Background()

	for _, in := range []Input{
		{FullName: "Sara Khan", PhoneNumber: "555-1000"},
		{FullName: "Omar Ali", PhoneNumber: "555-2000"},
		{FullName: "Lina Park", PhoneNumber: "555-3000"},
	} {
		if _, err := svc.CreatePatient(ctx, in); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	byPhone, err := svc.ListPatients(ctx, ListFilter{Query: "2000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byPhone) != 1 || byPhone[0].FullName != "Omar Ali" {
		t.Errorf("expected Omar Ali by phone, got %+v", byPhone)
	}

	byMR, err := svc.ListPatients(ctx, ListFilter{Query: "mr-000003"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byMR) != 1 || byMR[0].FullName != "Lina Park" {
		t.Errorf("expected Lina Park by MR, got %+v", byMR)
	}

	all, err := svc.ListPatients(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].FullName != "Lina Park" {
		t.Errorf("expected ordering by full name, got %+v", all)
	}
}

func TestAgeOn(t *testing.T) {
	dob := time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		today time.Time
		want  int
	}{
		{time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), 24},
		{time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), 25},
		{time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC), 0},
	}
	for _, c := range cases {
		if got := AgeOn(dob, c.today); got != c.want {
			t.Errorf("AgeOn(%s) = %d, want %d", c.today.Format("2006-01-02"), got, c.want)
		}
	}
}
