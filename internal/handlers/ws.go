package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/internal/models"
)

// WSHub tracks open sockets per user so a user's open clients can
// refresh their task table when any of them mutates a task.
type WSHub struct {
	connections map[primitive.ObjectID]map[*websocket.Conn]bool
	mutex       sync.Mutex
}

func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[primitive.ObjectID]map[*websocket.Conn]bool)}
}

// BroadcastTaskUpdate sends a task event to all sockets of the owning user.
func (h *WSHub) BroadcastTaskUpdate(userID primitive.ObjectID, event string, task *models.TaskView) {
	h.broadcast(userID, map[string]interface{}{
		"event": event,
		"task":  task,
	})
}

func (h *WSHub) BroadcastTaskDeleted(userID primitive.ObjectID, taskID string) {
	h.broadcast(userID, map[string]interface{}{
		"event":   "task_deleted",
		"task_id": taskID,
	})
}

func (h *WSHub) broadcast(userID primitive.ObjectID, payload map[string]interface{}) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conns, exists := h.connections[userID]
	if !exists {
		return
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			delete(conns, conn)
			conn.Close()
		}
	}
}

// checkOrigin allows everything when ALLOWED_ORIGINS is unset and
// filters against the comma-separated list otherwise.
func checkOrigin(r *http.Request) bool {
	allowed := os.Getenv("ALLOWED_ORIGINS")
	if allowed == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range strings.Split(allowed, ",") {
		if strings.TrimSpace(o) == origin {
			return true
		}
	}
	return false
}

func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFrom(r)
	if !ok {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if !h.RateLimiter.Allow(clientIP(r)) {
		sendError(w, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	h.WSHub.mutex.Lock()
	if h.WSHub.connections[userID] == nil {
		h.WSHub.connections[userID] = make(map[*websocket.Conn]bool)
	}
	h.WSHub.connections[userID][conn] = true
	h.WSHub.mutex.Unlock()

	// The stream is one-way; the read loop only detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.WSHub.mutex.Lock()
			delete(h.WSHub.connections[userID], conn)
			h.WSHub.mutex.Unlock()
			conn.Close()
			return
		}
	}
}
