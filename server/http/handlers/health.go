package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthInfo is what /health reports besides the status.
type HealthInfo interface {
	Articles() int
	Lines() int
	Weights() int
}

func Health(info HealthInfo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if info != nil {
			body["articles"] = info.Articles()
			body["lines"] = info.Lines()
			body["weights"] = info.Weights()
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_ = json.NewEncoder(w).Encode(body)
	}
}
