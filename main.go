package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"task-manager/internal/db"
	"task-manager/internal/handlers"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file loaded, relying on process environment")
	}
	validateEnv(log)

	client, database := initDB(log)
	defer func() {
		if err := db.Disconnect(client); err != nil {
			log.WithError(err).Error("Failed to disconnect from MongoDB")
		}
	}()

	mux := initHandlers(database, log)
	server := initServer(mux)
	startServer(server, log)
}

func validateEnv(log *logrus.Logger) {
	requiredEnvVars := []string{
		"MONGO_URI", "MONGO_DB", "SERVER_PORT", "JWT_SECRET",
	}
	for _, env := range requiredEnvVars {
		if os.Getenv(env) == "" {
			log.Fatalf("Environment variable %s must be set", env)
		}
	}
}

func initDB(log *logrus.Logger) (*mongo.Client, *mongo.Database) {
	client, database, err := db.Connect(os.Getenv("MONGO_URI"), os.Getenv("MONGO_DB"))
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.WithField("database", os.Getenv("MONGO_DB")).Info("Connected to MongoDB")
	return client, database
}

func initHandlers(database *mongo.Database, log *logrus.Logger) *http.ServeMux {
	handler := &handlers.Handler{
		TaskRepo:    db.NewTaskRepository(database),
		RateLimiter: handlers.NewRateLimiter(5, time.Second),
		WSHub:       handlers.NewWSHub(),
		Log:         log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", handler.RequestLogger(handler.AuthMiddleware(handler.HandleTasks)))
	mux.HandleFunc("/tasks/", handler.RequestLogger(handler.AuthMiddleware(handler.HandleTaskByID)))
	mux.HandleFunc("/ws", handler.AuthMiddleware(handler.HandleWebSocket))
	mux.HandleFunc("/health", handler.HandleHealth)
	return mux
}

func initServer(mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         ":" + os.Getenv("SERVER_PORT"),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func startServer(server *http.Server, log *logrus.Logger) {
	log.WithField("addr", server.Addr).Info("Starting tasks server")

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Info("Server stopped")
}
