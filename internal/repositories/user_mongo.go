package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/sbilibin2017/localbite/internal/logger"
	"github.com/sbilibin2017/localbite/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const emailIndexName = "email_unique"

// userDocument is the shape of a record in the users collection.
type userDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d *userDocument) toModel() *models.User {
	return &models.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		CreatedAt:    d.CreatedAt,
	}
}

// UserMongoRepository stores credential records in a MongoDB collection.
// Uniqueness of email is enforced by a unique index.
type UserMongoRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewUserMongoRepository creates a repository over db.collection.
func NewUserMongoRepository(db *mongo.Database, collection string, timeout time.Duration) *UserMongoRepository {
	return &UserMongoRepository{
		coll:    db.Collection(collection),
		timeout: timeout,
	}
}

// EnsureIndexes creates the unique email index if it does not exist.
// It must run before the repository serves Create calls.
func (r *UserMongoRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	name, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})

	logger.Log.Infow("ensure index",
		"collection", r.coll.Name(),
		"index", name,
		"error", err,
	)

	if err != nil {
		return unavailable("create email index", err)
	}
	return nil
}

// FindByEmail returns the record for email, or nil if there is none.
func (r *UserMongoRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.D{{Key: "email", Value: email}}

	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)

	logger.Log.Infow("find",
		"collection", r.coll.Name(),
		"filter", filter,
		"found", err == nil,
		"error", err,
	)

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, unavailable("find user", err)
	}

	return doc.toModel(), nil
}

// Create inserts a new record. A duplicate key error from the unique
// index is reported as ErrAlreadyExists.
func (r *UserMongoRepository) Create(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Email:     email,
		Password:  passwordHash,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	_, err := r.coll.InsertOne(ctx, doc)

	logger.Log.Infow("insert",
		"collection", r.coll.Name(),
		"id", doc.ID.Hex(),
		"email", email,
		"error", err,
	)

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, unavailable("create user", err)
	}

	return doc.toModel(), nil
}

// Ping checks connectivity to the primary.
func (r *UserMongoRepository) Ping(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.coll.Database().Client().Ping(ctx, readpref.Primary()); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// ConnectMongo opens a client for uri and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, unavailable("connect", err)
	}

	pingCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, unavailable("ping", err)
	}
	return client, nil
}
