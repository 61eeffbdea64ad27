package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"task-manager/internal/db"
	"task-manager/internal/models"
)

type Handler struct {
	TaskRepo    db.TaskRepositoryInterface
	RateLimiter *RateLimiter
	WSHub       *WSHub
	Log         *logrus.Logger
}

type taskResponse struct {
	Message string           `json:"message"`
	Task    *models.TaskView `json:"task"`
}

type taskListResponse struct {
	Message string             `json:"message"`
	Tasks   []*models.TaskView `json:"tasks"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func sendJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// sendError writes the uniform {message} envelope; every failure path
// goes through here so no internal detail leaks past the message text.
func sendError(w http.ResponseWriter, msg string, code int) {
	sendJSON(w, code, messageResponse{Message: msg})
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.Log.WithError(err).WithField("op", op).Error("task operation failed")
	sendError(w, "Internal server error", http.StatusInternalServerError)
}

// HandleHealth is the unauthenticated liveness probe.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func isJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(strings.ToLower(ct), "application/json")
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type RateLimiter struct {
	attempts map[string]int
	limit    int
	mutex    sync.Mutex
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		attempts: make(map[string]int),
		limit:    limit,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) Allow(ip string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	count, exists := rl.attempts[ip]
	if !exists {
		rl.attempts[ip] = 1
		return true
	}
	if count >= rl.limit {
		return false
	}
	rl.attempts[ip]++
	return true
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(rl.window)
		rl.mutex.Lock()
		rl.attempts = make(map[string]int)
		rl.mutex.Unlock()
	}
}
