package api

import "net/http"

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/v1/decide", requireMethod(http.MethodPost, h.Decide))
	mux.HandleFunc("/v1/attestations", requireMethod(http.MethodGet, h.Attestations))
	mux.HandleFunc("/v1/verify", requireMethod(http.MethodPost, h.Verify))
	mux.HandleFunc("/v1/runs/", requireMethod(http.MethodGet, h.Run))
	return mux
}

func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		next(w, r)
	}
}
