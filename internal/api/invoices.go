package api

import (
	"net/http"

	"github.com/hackgods/clinic-front-office/internal/invoice"
	"github.com/hackgods/clinic-front-office/internal/validation"
)

func createInvoiceHandler(svc InvoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in invoice.Input
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		inv, err := svc.CreateInvoice(r.Context(), in)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, inv)
	}
}

func previewInvoiceHandler(svc InvoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in invoice.Input
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		inv, err := svc.PreviewInvoice(r.Context(), in)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, inv)
	}
}

func updateInvoiceHandler(svc InvoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		var in invoice.Input
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		inv, err := svc.UpdateInvoice(r.Context(), id, in)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, inv)
	}
}

func getInvoiceHandler(svc InvoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		inv, err := svc.GetInvoice(r.Context(), id)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, inv)
	}
}

func deleteInvoiceHandler(svc InvoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			respondError(w, r, err)
			return
		}

		if err := svc.DeleteInvoice(r.Context(), id); err != nil {
			respondError(w, r, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listInvoicesHandler(svc InvoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		errs := &validation.Error{}
		doctorID, err := queryID(r, "doctor_id")
		_ = errs.Merge(err)
		patientID, err := queryID(r, "patient_id")
		_ = errs.Merge(err)
		if err := errs.OrNil(); err != nil {
			respondError(w, r, err)
			return
		}

		invoices, err := svc.ListInvoices(r.Context(), invoice.ListFilter{
			DoctorID:  doctorID,
			PatientID: patientID,
			Status:    invoice.Status(r.URL.Query().Get("status")),
		})
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, invoices)
	}
}
