package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lectoria/lectoria/domain"
)

// AppointmentRepository implements domain.AppointmentRepository on MongoDB.
type AppointmentRepository struct {
	appointments *mongo.Collection
}

// NewAppointmentRepository creates a new AppointmentRepository and ensures
// its indexes.
func NewAppointmentRepository(ctx context.Context, db *mongo.Database) (*AppointmentRepository, error) {
	repo := &AppointmentRepository{
		appointments: db.Collection(AppointmentsCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create appointment indexes")
	}
	return repo, nil
}

func (r *AppointmentRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
		},
	}

	_, err := r.appointments.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes for appointments collection: %w", err)
	}
	return nil
}

// Create persists a new appointment.
func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	if a.ID == "" {
		a.ID = NewObjectID()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := r.appointments.InsertOne(ctx, a); err != nil {
		log.Error().Err(err).Str("user_id", a.UserID).Msg("Error creating appointment in MongoDB")
		return err
	}
	return nil
}

// GetByID retrieves an appointment.
func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := r.appointments.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAppointmentNotFound
		}
		log.Error().Err(err).Str("id", id).Msg("Error getting appointment from MongoDB")
		return nil, err
	}
	return &a, nil
}

// ListByUser retrieves a user's appointments, soonest first.
func (r *AppointmentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Appointment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.appointments.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Error listing appointments from MongoDB")
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domain.Appointment
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces an existing appointment.
func (r *AppointmentRepository) Update(ctx context.Context, a *domain.Appointment) error {
	if a.ID == "" {
		return errors.New("appointment ID is required for update")
	}
	a.UpdatedAt = time.Now().UTC()

	result, err := r.appointments.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if err != nil {
		log.Error().Err(err).Str("id", a.ID).Msg("Error updating appointment in MongoDB")
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

// Delete removes an appointment.
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.appointments.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Error deleting appointment from MongoDB")
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

// Ensure interface compliance
var _ domain.AppointmentRepository = (*AppointmentRepository)(nil)
