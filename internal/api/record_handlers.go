// Package api provides config record handlers for the config server endpoints.
package api

import (
	"log/slog"
	"net/http"

	"github.com/swingerman/dual-thermostat-config/internal/flow"
	"github.com/swingerman/dual-thermostat-config/internal/models"
)

// recordView is a committed record plus its merged base+overlay view, so
// clients see the values a thermostat would actually run with.
type recordView struct {
	models.ConfigRecord
	Current map[string]any `json:"current"`
}

// listRecordsHandler handles GET /records
func (s *Server) listRecordsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.listRecordsHandler: processing list request")

	records, err := s.st.ListRecords()
	if err != nil {
		slog.Error("Server.listRecordsHandler: list failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list records"))
		return
	}

	views := make([]recordView, 0, len(records))
	for _, rec := range records {
		views = append(views, recordView{
			ConfigRecord: rec,
			Current:      flow.CurrentView(rec.Base, rec.Overlay),
		})
	}
	slog.Debug("Server.listRecordsHandler: records listed", "count", len(views))
	writeJSONResponse(w, http.StatusOK, models.Success(views))
}

// getRecordHandler handles GET /records/{id}
func (s *Server) getRecordHandler(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	slog.Debug("Server.getRecordHandler: processing get request", "entryID", entryID)

	rec, err := s.st.GetRecord(entryID)
	if err != nil {
		slog.Error("Server.getRecordHandler: lookup failed", "error", err, "entryID", entryID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load record"))
		return
	}
	if rec == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Config record not found"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(recordView{
		ConfigRecord: *rec,
		Current:      flow.CurrentView(rec.Base, rec.Overlay),
	}))
}

// deleteRecordHandler handles DELETE /records/{id}
func (s *Server) deleteRecordHandler(w http.ResponseWriter, r *http.Request) {
	entryID := r.PathValue("id")
	slog.Debug("Server.deleteRecordHandler: processing delete request", "entryID", entryID)

	rec, err := s.st.GetRecord(entryID)
	if err != nil {
		slog.Error("Server.deleteRecordHandler: lookup failed", "error", err, "entryID", entryID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to load record"))
		return
	}
	if rec == nil {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Config record not found"))
		return
	}
	if err := s.st.DeleteRecord(entryID); err != nil {
		slog.Error("Server.deleteRecordHandler: delete failed", "error", err, "entryID", entryID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete record"))
		return
	}
	slog.Info("Server.deleteRecordHandler: record deleted", "entryID", entryID)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Record deleted", nil))
}
