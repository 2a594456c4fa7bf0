package api

import (
	"net/http"

	"github.com/hackgods/clinic-front-office/internal/auth"
)

func loginHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in auth.LoginInput
		if err := decodeJSON(r, &in); err != nil {
			respondError(w, r, err)
			return
		}

		res, err := svc.Login(r.Context(), in)
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}

func meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := auth.SessionFromContext(r.Context())
		if !ok {
			respondError(w, r, auth.ErrInvalidToken)
			return
		}

		writeJSON(w, http.StatusOK, sess)
	}
}

func dashboardHandler(svc DashboardService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := svc.Summary(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, s)
	}
}
