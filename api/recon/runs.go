package recon

import (
	"encoding/json"
	"errors"
	"net/http"

	"OurFloWorks/api"
	"OurFloWorks/api/constants"
	"OurFloWorks/api/utils"
	"OurFloWorks/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// ListRuns returns persisted runs newest first, paginated via page/limit
// query params.
func ListRuns(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.store == nil {
			api.RespondWithError(w, http.StatusServiceUnavailable, constants.ErrRunHistoryDisabled)
			return
		}
		params, err := utils.ExtractPagination(r)
		if err != nil {
			api.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		runs, err := d.store.ListRuns(r.Context(), params.Limit, params.Offset)
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "failed to list runs: "+err.Error())
			return
		}
		total, err := d.store.CountRuns(r.Context())
		if err != nil {
			api.RespondWithError(w, http.StatusInternalServerError, "failed to count runs: "+err.Error())
			return
		}
		params.SetPaginationStats(total)

		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":    true,
			"rows":       runs,
			"pagination": params,
		})
	}
}

// GetRun returns one persisted run including the full result payload.
func GetRun(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, ok := fetchRun(d, w, r)
		if !ok {
			return
		}
		w.Header().Set("Content-Type", constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"run":     run,
		})
	}
}

// fetchRun resolves the {id} path variable and loads the run, writing
// the error response itself when it cannot.
func fetchRun(d *deps, w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	if d.store == nil {
		api.RespondWithError(w, http.StatusServiceUnavailable, constants.ErrRunHistoryDisabled)
		return nil, false
	}
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		api.RespondWithError(w, http.StatusBadRequest, constants.ErrMissingRunID)
		return nil, false
	}
	run, err := d.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.RespondWithError(w, http.StatusNotFound, constants.ErrRunNotFound)
			return nil, false
		}
		api.RespondWithError(w, http.StatusInternalServerError, "failed to load run: "+err.Error())
		return nil, false
	}
	return run, true
}
