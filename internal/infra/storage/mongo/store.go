package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"foodbike/internal/storage/core"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultDatabase   = "foodbike"
	defaultCollection = "units"
	defaultTimeout    = 10 * time.Second
)

// Config carries connection parameters for the Mongo unit store.
type Config struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type unitDocument struct {
	Name      string    `bson:"_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Store keeps each unit as one document keyed by the unit name.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongo uri is required")
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = defaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    cfg.Timeout,
	}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverMongo }

func (s *Store) Read(ctx context.Context, unit string) ([]byte, error) {
	if err := core.ValidateUnitName(unit); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc unitDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": unit}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, core.NotFound(unit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit %s: %w", unit, err)
	}
	return doc.Payload, nil
}

func (s *Store) Write(ctx context.Context, unit string, data []byte) error {
	if err := core.ValidateUnitName(unit); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	doc := unitDocument{Name: unit, Payload: data, UpdatedAt: time.Now().UTC()}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": unit}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write unit %s: %w", unit, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, unit string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": unit})
	if err != nil {
		return false, fmt.Errorf("failed to delete unit %s: %w", unit, err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"_id": bson.M{"$regex": "^" + regexp.QuoteMeta(prefix)}}
	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var out []string
	for cursor.Next(ctx) {
		var doc struct {
			Name string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode unit: %w", err)
		}
		out = append(out, doc.Name)
	}
	return out, cursor.Err()
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
