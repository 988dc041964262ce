package lifecycle

import (
	"encoding/json"
	"net/http"
)

// HealthHandler reports liveness. It answers as long as the process serves HTTP.
func (c *Coordinator) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	}
}

// ReadyHandler reports readiness: 503 until every startup hook has completed
// and again once shutdown has begun.
func (c *Coordinator) ReadyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !c.Ready() || c.ctx.Err() != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	}
}

func writeStatus(w http.ResponseWriter, status int, state string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": state})
}
