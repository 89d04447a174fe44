package httpapi

import (
	"net/http"
	"time"
)

type notificationResponse struct {
	NotificationID string    `json:"notification_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Category       string    `json:"category"`
	LinkTo         string    `json:"link_to,omitempty"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	notes, err := s.notes.List(r.Context(), id.UserID, limit, offset)
	if err != nil {
		respondErr(w, err)
		return
	}
	out := make([]notificationResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, notificationResponse{
			NotificationID: n.ID.String(),
			Title:          n.Title,
			Message:        n.Message,
			Category:       n.Category,
			LinkTo:         n.LinkTo,
			IsRead:         n.IsRead,
			CreatedAt:      n.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, ok := caller(w, r)
	if !ok {
		return
	}
	noteID, ok := pathUUID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "bad notification id")
		return
	}
	if err := s.notes.MarkRead(r.Context(), noteID, id.UserID); err != nil {
		respondErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "notification read"})
}
