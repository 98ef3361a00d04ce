package handlers

import (
	"net/http"

	"jewelbox/models"
	"jewelbox/notify"
)

type NotificationHandler struct {
	outbox *notify.Outbox
}

func NewNotificationHandler(outbox *notify.Outbox) *NotificationHandler {
	return &NotificationHandler{outbox: outbox}
}

// List shows the outbox, newest first, optionally narrowed by ?status=pending|sent|failed
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	all, err := h.outbox.List(r.Context())
	if err != nil {
		writeServiceError(w, err, "Failed to retrieve notifications")
		return
	}
	status := models.NotificationStatus(r.URL.Query().Get("status"))
	list := make([]models.Notification, 0, len(all))
	for _, n := range all {
		if status == "" || n.Status == status {
			list = append(list, n)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "notifications": list, "count": len(list)})
}
