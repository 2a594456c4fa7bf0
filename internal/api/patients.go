package api

import (
	"net/http"
	"time"

	"github.com/hackgods/clinic-front-office/internal/export"
	"github.com/hackgods/clinic-front-office/internal/patient"
)

func createPatientHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in patient.Input
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		p, err := svc.CreatePatient(r.Context(), in)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, p)
	}
}

func updatePatientHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var in patient.Input
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		p, err := svc.UpdatePatient(r.Context(), id, in)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}

func getPatientHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		p, err := svc.GetPatient(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}

func deletePatientHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		if err := svc.DeletePatient(r.Context(), id); err != nil {
			respondError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func patientFilter(r *http.Request) patient.ListFilter {
	q := r.URL.Query()
	return patient.ListFilter{
		Status: patient.Status(q.Get("status")),
		Query:  q.Get("q"),
	}
}

func listPatientsHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context(), patientFilter(r))
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, patients)
	}
}

func patientStatsHandler(svc PatientService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.PatientStats(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, st)
	}
}

func exportPatientsHandler(svc PatientService, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := svc.ListPatients(r.Context(), patientFilter(r))
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeCSVHeaders(w, export.Filename(export.KindPatients, now()))
		if err := export.WritePatients(w, patients); err != nil {
			logWriteFailure(r, err)
		}
	}
}
