package api

import (
	"net/http"
	"time"

	"github.com/hackgods/clinic-front-office/internal/doctor"
	"github.com/hackgods/clinic-front-office/internal/export"
)

func createDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in doctor.Input
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		d, err := svc.CreateDoctor(r.Context(), in)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, d)
	}
}

func updateDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var in doctor.Input
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		d, err := svc.UpdateDoctor(r.Context(), id, in)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, d)
	}
}

func getDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		d, err := svc.GetDoctor(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, d)
	}
}

func deleteDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		if err := svc.DeleteDoctor(r.Context(), id); err != nil {
			respondError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func doctorFilter(r *http.Request) doctor.ListFilter {
	q := r.URL.Query()
	return doctor.ListFilter{
		Status: doctor.Status(q.Get("status")),
		Query:  q.Get("q"),
	}
}

func listDoctorsHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context(), doctorFilter(r))
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, doctors)
	}
}

func doctorStatsHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svc.DoctorStats(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, st)
	}
}

func exportDoctorsHandler(svc DoctorService, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctors, err := svc.ListDoctors(r.Context(), doctorFilter(r))
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeCSVHeaders(w, export.Filename(export.KindDoctors, now()))
		if err := export.WriteDoctors(w, doctors); err != nil {
			logWriteFailure(r, err)
		}
	}
}
