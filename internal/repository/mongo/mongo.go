// Package mongo stores users and transactions in MongoDB across three collections: users,
// incomes and expenses. Amounts are Decimal128 so $sum stays exact.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/TiwariV18/FinTrack/internal/domain"
	"github.com/TiwariV18/FinTrack/internal/repository"
)

const usersCollection = "users"

// Repository implements repository.Store on MongoDB.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ repository.Store = (*Repository)(nil)

// Connect dials uri, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, uri, database string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	repo := &Repository{client: client, db: client.Database(database)}
	if err := repo.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return repo, nil
}

func (r *Repository) ensureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create email index: %w", err)
	}
	for _, kind := range domain.Kinds() {
		_, err := r.db.Collection(kind.Plural()).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: -1}, {Key: "createdAt", Value: -1}},
		})
		if err != nil {
			return fmt.Errorf("create %s index: %w", kind.Plural(), err)
		}
	}
	return nil
}

// Ping checks the primary.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (r *Repository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

type userDocument struct {
	ID              string    `bson:"_id"`
	Name            string    `bson:"name"`
	Email           string    `bson:"email"`
	PasswordHash    []byte    `bson:"passwordHash"`
	ProfileImageURL *string   `bson:"profileImageUrl"`
	CreatedAt       time.Time `bson:"createdAt"`
}

func (d userDocument) toDomain() *domain.User {
	u := &domain.User{
		ID:           d.ID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt.UTC(),
	}
	if d.ProfileImageURL != nil {
		u.ProfileImageURL = *d.ProfileImageURL
	}
	return u
}

// CreateUser inserts a user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	doc := userDocument{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if user.ProfileImageURL != "" {
		image := user.ProfileImageURL
		doc.ProfileImageURL = &image
	}
	_, err := r.db.Collection(usersCollection).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetUserByEmail fetches a user by email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findUser(ctx, bson.M{"email": email})
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

func (r *Repository) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.db.Collection(usersCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

type transactionDocument struct {
	ID        string               `bson:"_id"`
	User      string               `bson:"user"`
	Title     string               `bson:"title"`
	Amount    primitive.Decimal128 `bson:"amount"`
	Category  string               `bson:"category"`
	Date      time.Time            `bson:"date"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

func (d transactionDocument) toDomain(kind domain.Kind) (*domain.Transaction, error) {
	amount, err := decimalToAmount(d.Amount)
	if err != nil {
		return nil, err
	}
	return &domain.Transaction{
		ID:        d.ID,
		Kind:      kind,
		OwnerID:   d.User,
		Title:     d.Title,
		Amount:    amount,
		Category:  d.Category,
		Date:      domain.DateOf(d.Date),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

func (r *Repository) collection(kind domain.Kind) (*mongo.Collection, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown transaction kind %q", kind)
	}
	return r.db.Collection(kind.Plural()), nil
}

// CreateTransaction inserts into the collection for txn.Kind.
func (r *Repository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	coll, err := r.collection(txn.Kind)
	if err != nil {
		return err
	}
	amount, err := amountToDecimal(txn.Amount)
	if err != nil {
		return err
	}
	_, err = coll.InsertOne(ctx, transactionDocument{
		ID:        txn.ID,
		User:      txn.OwnerID,
		Title:     txn.Title,
		Amount:    amount,
		Category:  txn.Category,
		Date:      txn.Date.Time(),
		CreatedAt: txn.CreatedAt,
		UpdatedAt: txn.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// ListTransactions returns the owner's records, newest date first.
func (r *Repository) ListTransactions(ctx context.Context, kind domain.Kind, ownerID string) ([]domain.Transaction, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := coll.Find(ctx, bson.M{"user": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]domain.Transaction, 0)
	for cursor.Next(ctx) {
		var doc transactionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		txn, err := doc.toDomain(kind)
		if err != nil {
			return nil, err
		}
		items = append(items, *txn)
	}
	return items, cursor.Err()
}

// UpdateTransaction uses FindOneAndUpdate filtered on both id and owner.
func (r *Repository) UpdateTransaction(ctx context.Context, kind domain.Kind, ownerID, id string, fields domain.TransactionFields) (*domain.Transaction, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return nil, err
	}
	amount, err := amountToDecimal(fields.Amount)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{
		"title":     fields.Title,
		"amount":    amount,
		"category":  fields.Category,
		"date":      fields.Date.Time(),
		"updatedAt": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc transactionDocument
	err = coll.FindOneAndUpdate(ctx, bson.M{"_id": id, "user": ownerID}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(kind)
}

// DeleteTransaction uses FindOneAndDelete filtered on both id and owner.
func (r *Repository) DeleteTransaction(ctx context.Context, kind domain.Kind, ownerID, id string) (*domain.Transaction, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return nil, err
	}
	var doc transactionDocument
	if err := coll.FindOneAndDelete(ctx, bson.M{"_id": id, "user": ownerID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(kind)
}

type groupResult struct {
	ID    string               `bson:"_id"`
	Total primitive.Decimal128 `bson:"total"`
	Count int                  `bson:"count"`
}

// SumTransactions totals the owner's amounts with a $group stage.
func (r *Repository) SumTransactions(ctx context.Context, kind domain.Kind, ownerID string) (domain.Amount, error) {
	results, err := r.group(ctx, kind, ownerID, nil)
	if err != nil || len(results) == 0 {
		return domain.Amount{}, err
	}
	return decimalToAmount(results[0].Total)
}

// SumByCategory groups the owner's amounts by category.
func (r *Repository) SumByCategory(ctx context.Context, kind domain.Kind, ownerID string) ([]domain.CategoryTotal, error) {
	results, err := r.group(ctx, kind, ownerID, "$category")
	if err != nil {
		return nil, err
	}
	totals := make([]domain.CategoryTotal, 0, len(results))
	for _, res := range results {
		amount, err := decimalToAmount(res.Total)
		if err != nil {
			return nil, err
		}
		totals = append(totals, domain.CategoryTotal{Category: res.ID, Total: amount, Count: res.Count})
	}
	repository.SortCategoryTotals(totals)
	return totals, nil
}

func (r *Repository) group(ctx context.Context, kind domain.Kind, ownerID string, key any) ([]groupResult, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user": ownerID}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: key},
			{Key: "total", Value: bson.M{"$sum": "$amount"}},
			{Key: "count", Value: bson.M{"$sum": 1}},
		}}},
	}
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var results []groupResult
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func amountToDecimal(a domain.Amount) (primitive.Decimal128, error) {
	d, err := primitive.ParseDecimal128(a.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode amount %s: %w", a, err)
	}
	return d, nil
}

func decimalToAmount(d primitive.Decimal128) (domain.Amount, error) {
	return domain.ParseStoredAmount(d.String())
}
