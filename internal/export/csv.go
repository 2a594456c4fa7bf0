// Package export renders registry and appointment listings as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hackgods/clinic-front-office/internal/appointment"
	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/patient"
)

const (
	KindAppointments = "appointments"
	KindDoctors      = "doctors"
	KindPatients     = "patients"
)

var (
	appointmentHeader = []string{"Doctor", "Patient Name", "Phone", "Date", "Time", "Status"}
	doctorHeader      = []string{"Name", "Email", "Phone", "License Number", "Specialization", "Status", "Experience Years"}
	patientHeader     = []string{"Full Name", "Email", "Phone", "Age", "Gender", "Address", "Status", "Registration Date"}
)

// Filename returns {kind}_{YYYY-MM-DD}.csv for the given day.
func Filename(kind string, now time.Time) string {
	return fmt.Sprintf("%s_%s.csv", kind, now.Format(time.DateOnly))
}

func WriteAppointments(w io.Writer, appts []appointment.Appointment) error {
	rows := make([][]string, 0, len(appts))
	for _, a := range appts {
		rows = append(rows, []string{
			a.DoctorName,
			a.PatientName,
			a.Phone,
			a.Date,
			a.AppointmentTime,
			string(a.Status),
		})
	}
	return write(w, appointmentHeader, rows)
}

func WriteDoctors(w io.Writer, doctors []doctor.Doctor) error {
	rows := make([][]string, 0, len(doctors))
	for _, d := range doctors {
		rows = append(rows, []string{
			d.Name,
			d.Email,
			d.Phone,
			d.LicenseNumber,
			d.Specialization,
			string(d.Status),
			strconv.Itoa(d.ExperienceYears),
		})
	}
	return write(w, doctorHeader, rows)
}

func WritePatients(w io.Writer, patients []patient.Patient) error {
	rows := make([][]string, 0, len(patients))
	for _, p := range patients {
		age := ""
		if p.Age != nil {
			age = strconv.Itoa(*p.Age)
		}
		rows = append(rows, []string{
			p.FullName,
			p.EmailAddress,
			p.PhoneNumber,
			age,
			p.Gender,
			p.Address,
			string(p.Status),
			p.CreatedAt.Format(time.DateOnly),
		})
	}
	return write(w, patientHeader, rows)
}

func write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
