package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/incuna/user-management/internal/core/domain"
)

const (
	usersCollection    = "users"
	countersCollection = "counters"
	userSequence       = "users"
)

// UserRepository stores accounts in the users collection. Numeric ids come
// from a per-collection sequence document in counters.
type UserRepository struct {
	users    *mongo.Collection
	counters *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		users:    db.Collection(usersCollection),
		counters: db.Collection(countersCollection),
	}
}

type mongoUser struct {
	ID            int64     `bson:"_id"`
	Email         string    `bson:"email"`
	EmailKey      string    `bson:"email_key"`
	Name          string    `bson:"name"`
	PasswordHash  string    `bson:"password_hash"`
	IsActive      bool      `bson:"is_active"`
	VerifiedEmail bool      `bson:"verified_email"`
	IsStaff       bool      `bson:"is_staff"`
	DateJoined    time.Time `bson:"date_joined"`
	Avatar        string    `bson:"avatar,omitempty"`
}

func toMongoUser(u *domain.User) mongoUser {
	return mongoUser{
		ID:            u.ID,
		Email:         u.Email,
		EmailKey:      domain.EmailKey(u.Email),
		Name:          u.Name,
		PasswordHash:  u.PasswordHash,
		IsActive:      u.IsActive,
		VerifiedEmail: u.VerifiedEmail,
		IsStaff:       u.IsStaff,
		DateJoined:    u.DateJoined,
		Avatar:        u.Avatar,
	}
}

func (m mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:            m.ID,
		Email:         m.Email,
		Name:          m.Name,
		PasswordHash:  m.PasswordHash,
		IsActive:      m.IsActive,
		VerifiedEmail: m.VerifiedEmail,
		IsStaff:       m.IsStaff,
		DateJoined:    m.DateJoined.UTC(),
		Avatar:        m.Avatar,
	}
}

// EnsureIndexes creates the unique case-insensitive email index.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_key_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	return nil
}

func (r *UserRepository) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": userSequence},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next user id: %w", err)
	}
	return counter.Seq, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	id, err := r.nextID(ctx)
	if err != nil {
		return nil, err
	}

	doc := toMongoUser(user)
	doc.ID = id
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var mu mongoUser
	if err := r.users.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email_key": domain.EmailKey(email)})
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	cur, err := r.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	return r.updateOne(ctx, user.ID, bson.M{
		"email":     user.Email,
		"email_key": domain.EmailKey(user.Email),
		"name":      user.Name,
		"is_staff":  user.IsStaff,
		"avatar":    user.Avatar,
	})
}

func (r *UserRepository) SetPassword(ctx context.Context, id int64, hash string) error {
	return r.updateOne(ctx, id, bson.M{"password_hash": hash})
}

func (r *UserRepository) MarkVerified(ctx context.Context, id int64) error {
	return r.updateOne(ctx, id, bson.M{"verified_email": true, "is_active": true})
}

func (r *UserRepository) updateOne(ctx context.Context, id int64, set bson.M) error {
	res, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
