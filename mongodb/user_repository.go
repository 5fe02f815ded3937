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

// UserRepository implements domain.UserRepository on MongoDB. Accounts are
// keyed by the unique Telegram handle; the phone number, when present, is
// unique as well.
type UserRepository struct {
	users *mongo.Collection
}

// NewUserRepository creates a new UserRepository and ensures its indexes.
func NewUserRepository(ctx context.Context, db *mongo.Database) (*UserRepository, error) {
	repo := &UserRepository{
		users: db.Collection(UsersCollection),
	}
	if err := repo.createIndexes(ctx); err != nil {
		// Index creation can fail against pre-existing compatible indexes.
		log.Warn().Err(err).Msg("Failed to create user indexes")
	}
	return repo, nil
}

func (r *UserRepository) createIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Sparse: phone number is optional, uniqueness applies only
			// where one is set.
			Keys:    bson.D{{Key: "phone_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "telegram_id", Value: 1}},
			Options: options.Index().SetUnique(false),
		},
	}

	_, err := r.users.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create indexes for users collection: %w", err)
	}
	return nil
}

// Upsert creates the account on first login or refreshes its profile
// fields on subsequent logins. A single atomic FindOneAndUpdate keyed by
// username; the store's unique index arbitrates concurrent first logins.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user.Username == "" {
		return nil, errors.New("username is required for upsert")
	}
	now := time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"telegram_id": user.TelegramID,
			"first_name":  user.FirstName,
			"last_name":   user.LastName,
			"photo_url":   user.PhotoURL,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"_id":        NewObjectID(),
			"status":     domain.UserStatusActive,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out domain.User
	err := r.users.FindOneAndUpdate(ctx, bson.M{"username": user.Username}, update, opts).Decode(&out)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateUser
		}
		log.Error().Err(err).Str("username", user.Username).Msg("Error upserting user in MongoDB")
		return nil, err
	}
	return &out, nil
}

// GetByUsername retrieves a user by their Telegram handle.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		log.Error().Err(err).Str("username", username).Msg("Error getting user by username from MongoDB")
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		log.Error().Err(err).Str("id", id).Msg("Error getting user by ID from MongoDB")
		return nil, err
	}
	return &user, nil
}

// TouchLastLogin records a successful authentication.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	result, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"last_login_at": at, "updated_at": at},
	})
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Error updating last login in MongoDB")
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetPhoneNumber stores a phone number on the account. The sparse unique
// index rejects a number already claimed by another account.
func (r *UserRepository) SetPhoneNumber(ctx context.Context, id, phone string) error {
	result, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"phone_number": phone, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateUser
		}
		log.Error().Err(err).Str("id", id).Msg("Error setting phone number in MongoDB")
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List retrieves a paginated list of users. pageToken is a skip offset.
func (r *UserRepository) List(ctx context.Context, pageToken string, pageSize int) ([]*domain.User, string, error) {
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
		} else if err != nil {
			log.Warn().Err(err).Str("pageToken", pageToken).Msg("Invalid pageToken, using default skip 0")
		}
	}

	findOptions := options.Find().
		SetSkip(skip).
		SetLimit(int64(pageSize)).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.users.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		log.Error().Err(err).Msg("Error listing users from MongoDB")
		return nil, "", err
	}
	defer cursor.Close(ctx)

	var users []*domain.User
	if err = cursor.All(ctx, &users); err != nil {
		log.Error().Err(err).Msg("Error decoding listed users from MongoDB")
		return nil, "", err
	}

	nextPageToken := ""
	if len(users) == pageSize {
		nextPageToken = strconv.FormatInt(skip+int64(pageSize), 10)
	}

	return users, nextPageToken, nil
}

// Ensure interface compliance
var _ domain.UserRepository = (*UserRepository)(nil)
