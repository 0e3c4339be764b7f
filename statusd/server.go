package statusd

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer builds the statusd HTTP handler: GET /status (a JSON
// Snapshot) and GET /metrics (Prometheus exposition). Routed with
// gorilla/mux, adapted from the teacher's admin-router.go subrouter
// shape.
func NewServer(guard *Guard) http.Handler {
	router := mux.NewRouter()
	router.Methods(http.MethodGet).Path("/status").HandlerFunc(statusHandler(guard))
	router.Methods(http.MethodGet).Path("/metrics").Handler(promhttp.Handler())
	return router
}

func statusHandler(guard *Guard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := guard.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}
