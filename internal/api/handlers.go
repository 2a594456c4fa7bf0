package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-front-office/internal/appointment"
	"github.com/hackgods/clinic-front-office/internal/export"
	"github.com/hackgods/clinic-front-office/internal/validation"
)

func createAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in appointment.Input
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), in)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, appt)
	}
}

func updateAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var in appointment.Input
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		appt, err := svc.UpdateAppointment(r.Context(), id, in)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

func getAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, appt)
	}
}

func deleteAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			respondError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func appointmentFilter(r *http.Request) (appointment.ListFilter, error) {
	q := r.URL.Query()
	errs := &validation.Error{}

	doctorID, err := queryID(r, "doctor_id")
	if err := errs.Merge(err); err != nil {
		return appointment.ListFilter{}, err
	}
	patientID, err := queryID(r, "patient_id")
	if err := errs.Merge(err); err != nil {
		return appointment.ListFilter{}, err
	}

	f := appointment.ListFilter{
		DoctorID:  doctorID,
		PatientID: patientID,
		Date:      q.Get("date"),
		DateFrom:  q.Get("from"),
		DateTo:    q.Get("to"),
		Status:    appointment.Status(q.Get("status")),
		Query:     q.Get("q"),
	}
	return f, errs.OrNil()
}

func listAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := appointmentFilter(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		appts, err := svc.ListAppointments(r.Context(), f)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, appts)
	}
}

func checkConflictHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		errs := &validation.Error{}

		var doctorID, excludeID uuid.UUID
		if id, err := queryID(r, "doctor_id"); err != nil {
			_ = errs.Merge(err)
		} else if id != nil {
			doctorID = *id
		}
		if id, err := queryID(r, "exclude_id"); err != nil {
			_ = errs.Merge(err)
		} else if id != nil {
			excludeID = *id
		}
		if err := errs.OrNil(); err != nil {
			respondError(w, r, err)
			return
		}

		res, err := svc.CheckConflict(r.Context(), appointment.ConflictQuery{
			DoctorID:  doctorID,
			Date:      q.Get("date"),
			Start:     q.Get("start_time"),
			End:       q.Get("end_time"),
			ExcludeID: excludeID,
		})
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func calendarDayHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.ListByDate(r.Context(), r.URL.Query().Get("date"))
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, appts)
	}
}

func calendarMonthHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		errs := &validation.Error{}

		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			errs.Add("year", "year must be a number")
		}
		month, err := strconv.Atoi(q.Get("month"))
		if err != nil {
			errs.Add("month", "month must be a number")
		}
		if err := errs.OrNil(); err != nil {
			respondError(w, r, err)
			return
		}

		days, err := svc.ListByMonth(r.Context(), year, month)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, days)
	}
}

func exportAppointmentsHandler(svc AppointmentService, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := appointmentFilter(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		appts, err := svc.ListAppointments(r.Context(), f)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeCSVHeaders(w, export.Filename(export.KindAppointments, now()))
		if err := export.WriteAppointments(w, appts); err != nil {
			logWriteFailure(r, err)
		}
	}
}
