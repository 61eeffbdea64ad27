package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"task-manager/internal/models"
)

var ErrTaskNotFound = errors.New("task not found")

// defines methods for task db operations; every read and write is
// filtered by the owning user
type TaskRepositoryInterface interface {
	ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]*models.TaskWithCreator, error)
	GetOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.TaskWithCreator, error)
	Insert(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TaskRepository struct {
	tasks *mongo.Collection
}

func NewTaskRepository(database *mongo.Database) *TaskRepository {
	tasks := database.Collection("tasks")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = tasks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdBy", Value: 1}},
	})

	return &TaskRepository{tasks: tasks}
}

// lookupPipeline joins the createdBy reference against the users
// collection so callers receive a composed task-with-creator view.
func lookupPipeline(match bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "createdBy",
			"foreignField": "_id",
			"as":           "creator",
		}}},
		bson.D{{Key: "$unwind", Value: "$creator"}},
	}
}

func (r *TaskRepository) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]*models.TaskWithCreator, error) {
	cursor, err := r.tasks.Aggregate(ctx, lookupPipeline(bson.M{"createdBy": owner}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	tasks := []*models.TaskWithCreator{}
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) GetOwned(ctx context.Context, id, owner primitive.ObjectID) (*models.TaskWithCreator, error) {
	cursor, err := r.tasks.Aggregate(ctx, lookupPipeline(bson.M{"_id": id, "createdBy": owner}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		return nil, ErrTaskNotFound
	}
	task := &models.TaskWithCreator{}
	if err := cursor.Decode(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) Insert(ctx context.Context, task *models.Task) error {
	task.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.tasks.InsertOne(ctx, task)
	return err
}

func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()

	update := bson.M{"$set": bson.M{
		"title":      task.Title,
		"status":     task.Status,
		"priority":   task.Priority,
		"category":   task.Category,
		"dueDate":    task.DueDate,
		"updated_at": task.UpdatedAt,
	}}
	result := r.tasks.FindOneAndUpdate(
		ctx,
		bson.M{"_id": task.ID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return ErrTaskNotFound
		}
		return result.Err()
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}
