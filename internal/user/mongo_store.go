package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	mongoEmailIndex    = "users_email_unique"
	mongoUsernameIndex = "users_username_unique"

	mongoDuplicateKeyCode = 11000
)

// mongoUser is the document layout of a user in MongoDB.
type mongoUser struct {
	ID          string    `bson:"_id"`
	FirstName   string    `bson:"firstName"`
	LastName    string    `bson:"lastName"`
	Username    string    `bson:"username"`
	Email       string    `bson:"email"`
	Password    string    `bson:"password"`
	IsConfirmed bool      `bson:"isConfirmed"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// MongoStore keeps users in a MongoDB collection.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the unique indexes on email and username.
// It is idempotent and must run before the store serves inserts.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(mongoEmailIndex),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(mongoUsernameIndex),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, u *User) error {
	prepare(u)

	if _, err := s.coll.InsertOne(ctx, toMongoUser(u)); err != nil {
		if dup := mongoDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.findOne(ctx, bson.M{"email": NormalizeEmail(email)})
}

func (s *MongoStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoStore) MarkConfirmed(ctx context.Context, username string) (*User, error) {
	update := bson.M{"$set": bson.M{
		"isConfirmed": true,
		"updatedAt":   time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoUser
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"username": username}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to confirm user: %w", err)
	}
	return doc.toModel()
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var doc mongoUser
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel()
}

// mongoDuplicate maps a duplicate key write error to the colliding field.
func mongoDuplicate(err error) error {
	var we mongo.WriteException
	if !errors.As(err, &we) {
		return nil
	}
	for _, e := range we.WriteErrors {
		if e.Code != mongoDuplicateKeyCode {
			continue
		}
		switch {
		case strings.Contains(e.Message, mongoEmailIndex):
			return ErrDuplicateEmail
		case strings.Contains(e.Message, mongoUsernameIndex):
			return ErrDuplicateUsername
		}
	}
	return nil
}

func toMongoUser(u *User) mongoUser {
	return mongoUser{
		ID:          u.ID.String(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Username:    u.Username,
		Email:       u.Email,
		Password:    u.PasswordHash,
		IsConfirmed: u.IsConfirmed,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (d mongoUser) toModel() (*User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return &User{
		ID:           id,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		IsConfirmed:  d.IsConfirmed,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}, nil
}
