package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"task-manager/internal/db"
	"task-manager/internal/models"
)

// fakeTaskRepo is an in-memory stand-in for the mongo repository,
// including the creator join the real one performs.
type fakeTaskRepo struct {
	mu    sync.RWMutex
	order []primitive.ObjectID
	tasks map[primitive.ObjectID]models.Task
	users map[primitive.ObjectID]models.User
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{
		tasks: make(map[primitive.ObjectID]models.Task),
		users: make(map[primitive.ObjectID]models.User),
	}
}

func (f *fakeTaskRepo) addUser(name string) primitive.ObjectID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := primitive.NewObjectID()
	f.users[id] = models.User{ID: id, Name: name}
	return id
}

func (f *fakeTaskRepo) compose(task models.Task) *models.TaskWithCreator {
	return &models.TaskWithCreator{
		Task:    task,
		Creator: f.users[task.CreatedBy],
	}
}

func (f *fakeTaskRepo) ListByOwner(_ context.Context, owner primitive.ObjectID) ([]*models.TaskWithCreator, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := []*models.TaskWithCreator{}
	for _, id := range f.order {
		task, ok := f.tasks[id]
		if ok && task.CreatedBy == owner {
			out = append(out, f.compose(task))
		}
	}
	return out, nil
}

func (f *fakeTaskRepo) GetOwned(_ context.Context, id, owner primitive.ObjectID) (*models.TaskWithCreator, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	task, ok := f.tasks[id]
	if !ok || task.CreatedBy != owner {
		return nil, db.ErrTaskNotFound
	}
	return f.compose(task), nil
}

func (f *fakeTaskRepo) Insert(_ context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	f.tasks[task.ID] = *task
	f.order = append(f.order, task.ID)
	return nil
}

func (f *fakeTaskRepo) Update(_ context.Context, task *models.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[task.ID]; !ok {
		return db.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now().UTC()
	f.tasks[task.ID] = *task
	return nil
}

func (f *fakeTaskRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return db.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

// stored returns a copy of the persisted task, for asserting that a
// rejected operation left the document untouched.
func (f *fakeTaskRepo) stored(t *testing.T, id primitive.ObjectID) models.Task {
	t.Helper()
	f.mu.RLock()
	defer f.mu.RUnlock()
	task, ok := f.tasks[id]
	if !ok {
		t.Fatalf("task %s not in fake store", id.Hex())
	}
	return task
}

func setupHTTP(t *testing.T) (*http.ServeMux, *fakeTaskRepo, string) {
	t.Helper()

	secret := strings.Repeat("a", 32)
	t.Setenv("JWT_SECRET", secret)

	repo := newFakeTaskRepo()
	log := logrus.New()
	log.SetOutput(io.Discard)

	h := &Handler{
		TaskRepo:    repo,
		RateLimiter: NewRateLimiter(5, time.Second),
		WSHub:       NewWSHub(),
		Log:         log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", h.AuthMiddleware(h.HandleTasks))
	mux.HandleFunc("/tasks/", h.AuthMiddleware(h.HandleTaskByID))
	mux.HandleFunc("/ws", h.AuthMiddleware(h.HandleWebSocket))

	return mux, repo, secret
}

func bearerForUser(t *testing.T, secret string, userID primitive.ObjectID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": userID.Hex(),
		"exp": time.Now().Add(1 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return "Bearer " + signed
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, authz, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}
