package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"jewelbox/backup"
	"jewelbox/models"
)

const maxBackupBytes = 64 << 20

type BackupHandler struct {
	backups *backup.Service
}

func NewBackupHandler(svc *backup.Service) *BackupHandler {
	return &BackupHandler{backups: svc}
}

// Download streams the full backup as a JSON attachment
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.backups.Export(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to create backup")
		return
	}
	filename := fmt.Sprintf("jewelbox-backup-%s.json", bundle.CreatedAt.Format("2006-01-02_15-04-05"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		slog.Error("failed to write backup", "error", err)
		return
	}
	logAdmin(r, "backup downloaded", "products", len(bundle.Products), "orders", len(bundle.Orders))
}

// Restore replaces products and orders with an uploaded backup
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var bundle models.BackupBundle
	if !decodeJSON(w, r, &bundle, maxBackupBytes) {
		return
	}
	if err := h.backups.Restore(r.Context(), bundle); err != nil {
		writeServiceError(w, err, "Failed to restore backup")
		return
	}
	logAdmin(r, "backup restored", "products", len(bundle.Products), "orders", len(bundle.Orders))
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"products": len(bundle.Products),
		"orders":   len(bundle.Orders),
	})
}
