package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-front-office/internal/appointment"
	"github.com/hackgods/clinic-front-office/internal/booking"
	"github.com/hackgods/clinic-front-office/internal/validation"
)

type selectDoctorRequest struct {
	DoctorID string `json:"doctor_id"`
}

type selectPatientRequest struct {
	PatientID string `json:"patient_id"`
}

type CommitResponse struct {
	Booking     *booking.Draft           `json:"booking"`
	Appointment *appointment.Appointment `json:"appointment"`
}

type bookingStep int

const (
	stepRecheck bookingStep = iota
	stepNext
	stepBack
)

func startBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Start(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, d)
	}
}

func getBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		d, err := svc.Get(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, d)
	}
}

func selectBookingDoctorHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var req selectDoctorRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		doctorID, err := uuid.Parse(req.DoctorID)
		if err != nil {
			respondError(w, r, validation.Field("doctor_id", "Please select a doctor"))
			return
		}

		respondDraft(w, r)(svc.SelectDoctor(r.Context(), id, doctorID))
	}
}

func selectBookingPatientHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var req selectPatientRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			respondError(w, r, validation.Field("patient_id", "Please select a patient"))
			return
		}

		respondDraft(w, r)(svc.SelectPatient(r.Context(), id, patientID))
	}
}

func setBookingScheduleHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var in booking.ScheduleInput
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		respondDraft(w, r)(svc.SetSchedule(r.Context(), id, in))
	}
}

func setBookingDetailsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var in booking.DetailsInput
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		respondDraft(w, r)(svc.SetDetails(r.Context(), id, in))
	}
}

func bookingStepHandler(svc BookingService, step bookingStep) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var run func(ctx context.Context, id uuid.UUID) (*booking.Draft, error)
		switch step {
		case stepRecheck:
			run = svc.Recheck
		case stepNext:
			run = svc.Next
		default:
			run = svc.Back
		}

		respondDraft(w, r)(run(r.Context(), id))
	}
}

func commitBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		d, appt, err := svc.Commit(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, CommitResponse{Booking: d, Appointment: appt})
	}
}

func cancelBookingHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		if err := svc.Cancel(r.Context(), id); err != nil {
			respondError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// respondDraft writes the draft or maps the error. Gate failures leave the
// draft unchanged, so the client re-fetches it when it needs the state.
func respondDraft(w http.ResponseWriter, r *http.Request) func(*booking.Draft, error) {
	return func(d *booking.Draft, err error) {
		if err != nil {
			respondError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}
