package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/lectoria/lectoria/domain"
)

// EventRepository implements domain.EventRepository on MongoDB. Events and
// participations live in separate collections; a participation is one row
// per (event, user) pair, enforced by a compound unique index.
type EventRepository struct {
	events         *mongo.Collection
	participations *mongo.Collection
}

// NewEventRepository creates a new EventRepository and ensures its indexes.
func NewEventRepository(ctx context.Context, db *mongo.Database) (*EventRepository, error) {
	repo := &EventRepository{
		events:         db.Collection(EventsCollection),
		participations: db.Collection(ParticipationsCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create event indexes")
	}
	return repo, nil
}

func (r *EventRepository) createIndexes(ctx context.Context) error {
	eventIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "date", Value: 1}},
		},
	}
	if _, err := r.events.Indexes().CreateMany(ctx, eventIndexes); err != nil {
		return fmt.Errorf("failed to create indexes for events collection: %w", err)
	}

	participationIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := r.participations.Indexes().CreateMany(ctx, participationIndexes); err != nil {
		return fmt.Errorf("failed to create indexes for participations collection: %w", err)
	}
	return nil
}

// Create persists a new event.
func (r *EventRepository) Create(ctx context.Context, e *domain.Event) error {
	if e.ID == "" {
		e.ID = NewObjectID()
	}
	e.CreatedAt = time.Now().UTC()

	if _, err := r.events.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEvent
		}
		log.Error().Err(err).Str("title", e.Title).Msg("Error creating event in MongoDB")
		return err
	}
	return nil
}

// GetByID retrieves an event.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var e domain.Event
	err := r.events.FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrEventNotFound
		}
		log.Error().Err(err).Str("id", id).Msg("Error getting event from MongoDB")
		return nil, err
	}
	return &e, nil
}

// List retrieves a paginated list of events ordered by date, the way the
// booking frontend displays them.
func (r *EventRepository) List(ctx context.Context, pageToken string, pageSize int) ([]*domain.Event, string, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	skip := int64(0)
	if pageToken != "" {
		parsed, err := strconv.ParseInt(pageToken, 10, 64)
		if err == nil && parsed > 0 {
			skip = parsed
		}
	}

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(int64(pageSize)).
		SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.events.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		log.Error().Err(err).Msg("Error listing events from MongoDB")
		return nil, "", err
	}
	defer cursor.Close(ctx)

	var events []*domain.Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, "", err
	}

	nextPageToken := ""
	if len(events) == pageSize {
		nextPageToken = strconv.FormatInt(skip+int64(pageSize), 10)
	}

	return events, nextPageToken, nil
}

// Update replaces an existing event.
func (r *EventRepository) Update(ctx context.Context, e *domain.Event) error {
	if e.ID == "" {
		return errors.New("event ID is required for update")
	}

	result, err := r.events.ReplaceOne(ctx, bson.M{"_id": e.ID}, e)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEvent
		}
		log.Error().Err(err).Str("id", e.ID).Msg("Error updating event in MongoDB")
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// Delete removes an event together with its participations.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.events.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Error deleting event from MongoDB")
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrEventNotFound
	}

	if _, err := r.participations.DeleteMany(ctx, bson.M{"event_id": id}); err != nil {
		log.Error().Err(err).Str("event_id", id).Msg("Error deleting participations of removed event")
		return err
	}
	return nil
}

// AddParticipation signs a user up for an event.
func (r *EventRepository) AddParticipation(ctx context.Context, p *domain.Participation) error {
	if p.ID == "" {
		p.ID = NewObjectID()
	}
	p.CreatedAt = time.Now().UTC()

	if _, err := r.participations.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateParticipant
		}
		log.Error().Err(err).Str("event_id", p.EventID).Str("user_id", p.UserID).
			Msg("Error creating participation in MongoDB")
		return err
	}
	return nil
}

// RemoveParticipation withdraws a user from an event.
func (r *EventRepository) RemoveParticipation(ctx context.Context, eventID, userID string) error {
	result, err := r.participations.DeleteOne(ctx, bson.M{"event_id": eventID, "user_id": userID})
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Str("user_id", userID).
			Msg("Error deleting participation from MongoDB")
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrParticipationNotFound
	}
	return nil
}

// ListParticipations returns all sign-ups for an event.
func (r *EventRepository) ListParticipations(ctx context.Context, eventID string) ([]*domain.Participation, error) {
	cursor, err := r.participations.Find(ctx, bson.M{"event_id": eventID})
	if err != nil {
		log.Error().Err(err).Str("event_id", eventID).Msg("Error listing participations from MongoDB")
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domain.Participation
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ensure interface compliance
var _ domain.EventRepository = (*EventRepository)(nil)
