// Package mongo implements the store contracts on a single MongoDB "users"
// collection. Messages and identities are embedded arrays, so every write in
// this package is one atomic document update.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Shailesh2302/CipherChat/internal/models"
	"github.com/Shailesh2302/CipherChat/internal/store"
)

const usersCollection = "users"

// withoutChildren keeps lookups from dragging the embedded arrays along.
var withoutChildren = bson.M{"messages": 0, "identities": 0}

// Store is a MongoDB-backed store.Store.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, selects dbName and makes sure the unique indexes exist.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	s := New(client.Database(dbName))
	s.client = client

	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New wraps an existing database handle.
func New(db *mongo.Database) *Store {
	return &Store{
		client: db.Client(),
		users:  db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique username/email indexes and the index the
// purge task filters on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "is_verified", Value: 1}, {Key: "verify_code_expiry", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now

	_, err := s.users.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Store) UpdatePendingUser(ctx context.Context, u *models.User) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": u.ID, "is_verified": false},
		bson.M{"$set": bson.M{
			"username":           u.Username,
			"password_hash":      u.PasswordHash,
			"verify_code":        u.VerifyCode,
			"verify_code_expiry": u.VerifyCodeExpiry,
			"updated_at":         time.Now(),
		}},
	)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update pending user: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ReplacePendingUser runs without a transaction so standalone servers work.
// The stale document is removed first and reinserted if the save fails.
func (s *Store) ReplacePendingUser(ctx context.Context, staleID string, u *models.User) error {
	var stale bson.M
	err := s.users.FindOneAndDelete(ctx, bson.M{"_id": staleID, "is_verified": false}).Decode(&stale)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to release pending user: %w", err)
	}

	if u.ID == "" {
		err = s.CreateUser(ctx, u)
	} else {
		err = s.UpdatePendingUser(ctx, u)
	}
	if err == nil {
		return nil
	}

	if _, restoreErr := s.users.InsertOne(context.WithoutCancel(ctx), stale); restoreErr != nil {
		return errors.Join(err, fmt.Errorf("failed to restore pending user %s: %w", staleID, restoreErr))
	}
	return err
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"_id": id})
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"username": username})
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, filter, options.FindOne().SetProjection(withoutChildren)).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *Store) MarkVerified(ctx context.Context, username, code string, now time.Time) (bool, error) {
	res, err := s.users.UpdateOne(ctx,
		bson.M{
			"username":           username,
			"is_verified":        false,
			"verify_code":        code,
			"verify_code_expiry": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"is_verified": true, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark user verified: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (s *Store) SetAcceptingMessages(ctx context.Context, id string, accepting bool) (*models.User, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutChildren)

	var user models.User
	err := s.users.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_accepting_messages": accepting, "updated_at": time.Now()}},
		opts,
	).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update message acceptance: %w", err)
	}
	return &user, nil
}

func (s *Store) DeleteUnverifiedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.users.DeleteMany(ctx, bson.M{
		"is_verified":        false,
		"verify_code_expiry": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to purge unverified users: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) AppendMessage(ctx context.Context, userID string, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.UserID = userID

	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"messages": msg}},
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID string) ([]models.Message, error) {
	var doc struct {
		Messages []models.Message `bson:"messages"`
	}
	err := s.users.FindOne(ctx,
		bson.M{"_id": userID},
		options.FindOne().SetProjection(bson.M{"messages": 1}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	msgs := make([]models.Message, 0, len(doc.Messages))
	for _, m := range doc.Messages {
		m.UserID = userID
		msgs = append(msgs, m)
	}
	models.SortNewestFirst(msgs)
	return msgs, nil
}

func (s *Store) DeleteMessage(ctx context.Context, userID, messageID string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"messages": bson.M{"_id": messageID}}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if res.ModifiedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertIdentity(ctx context.Context, userID string, identity *models.AuthIdentity) error {
	now := time.Now()
	identity.UserID = userID
	identity.UpdatedAt = now

	res, err := s.users.UpdateOne(ctx,
		bson.M{
			"_id": userID,
			"identities": bson.M{"$elemMatch": bson.M{
				"provider":         identity.Provider,
				"provider_user_id": identity.ProviderUserID,
			}},
		},
		bson.M{"$set": bson.M{
			"identities.$.access_token":  identity.AccessToken,
			"identities.$.refresh_token": identity.RefreshToken,
			"identities.$.token_expiry":  identity.TokenExpiry,
			"identities.$.profile":       identity.Profile,
			"identities.$.updated_at":    now,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update identity: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	identity.CreatedAt = now
	res, err = s.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$push": bson.M{"identities": identity}},
	)
	if err != nil {
		return fmt.Errorf("failed to link identity: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
