package quota

import (
	"encoding/json"
	"net/http"

	"github.com/benaiah8/gatherly/pkg/kv"
)

// Handler returns an http.HandlerFunc serving the usage report as JSON.
// Mount it on a debug router:
//
//	r.Get("/debug/cache", quota.Handler(storage))
func Handler(storage kv.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := Inspect(r.Context(), storage)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(report)
	}
}
