package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-front-office/internal/appointment"
	"github.com/hackgods/clinic-front-office/internal/auth"
	"github.com/hackgods/clinic-front-office/internal/booking"
	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/invoice"
	"github.com/hackgods/clinic-front-office/internal/patient"
	redisclient "github.com/hackgods/clinic-front-office/internal/redis"
	"github.com/hackgods/clinic-front-office/internal/validation"
)

// respondError maps service errors to status codes. Anything unrecognised is
// logged and reported as 500 without leaking the cause.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *validation.Error
		cerr *appointment.ConflictError
	)

	switch {
	case errors.Is(err, errBadBody):
		writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())

	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation_failed",
			Details: verr.Error(),
			Fields:  verr.Fields,
		})

	case errors.As(err, &cerr):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:       "time_conflict",
			Details:     cerr.Error(),
			Conflicting: cerr.Existing,
		})
	case errors.Is(err, appointment.ErrTimeConflict):
		writeError(w, http.StatusConflict, "time_conflict", err.Error())
	case errors.Is(err, appointment.ErrScheduleBusy),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", appointment.ErrScheduleBusy.Error())

	case errors.Is(err, doctor.ErrDuplicateDoctor),
		errors.Is(err, patient.ErrDuplicateMR):
		writeError(w, http.StatusConflict, "duplicate", err.Error())

	case errors.Is(err, booking.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, booking.ErrDraftFinished):
		writeError(w, http.StatusConflict, "booking_finished", err.Error())
	case errors.Is(err, booking.ErrConflictUnresolved):
		writeError(w, http.StatusConflict, "conflict_check_pending", err.Error())

	case errors.Is(err, doctor.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, patient.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrDraftNotFound):
		writeError(w, http.StatusNotFound, "booking_not_found", err.Error())
	case errors.Is(err, invoice.ErrInvoiceNotFound):
		writeError(w, http.StatusNotFound, "invoice_not_found", err.Error())

	case errors.Is(err, auth.ErrMissingCredentials):
		writeError(w, http.StatusBadRequest, "missing_credentials", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())

	default:
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
