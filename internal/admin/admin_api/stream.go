package admin_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"etickets/internal/auth"
)

const keepAliveInterval = 25 * time.Second

// StreamOrders pushes order lifecycle events to a connected dashboard as
// Server-Sent Events until the client goes away.
func (h *Handler) StreamOrders(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The server write timeout would otherwise cut the stream.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.Logger.Debug("SSE", fmt.Sprintf("Cannot clear write deadline: %v", err))
	}

	setupSSEHeaders(w)

	ctx := r.Context()
	events := h.Feed.Subscribe(ctx)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	if err := rc.Flush(); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Streaming unsupported: %v", err))
		return
	}

	adminID := auth.UserID(ctx)
	h.Logger.Info("SSE", fmt.Sprintf("Admin %d connected to the order stream (%d clients)", adminID, h.Feed.ClientCount()))

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Order stream closed for admin %d", adminID))
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize order event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, jsonData)
			rc.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			rc.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Admin %d disconnected from the order stream", adminID))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}
