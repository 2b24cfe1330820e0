package catalog

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

type movieDocument struct {
	Title  *string  `bson:"movie_title"`
	Year   *int64   `bson:"year"`
	Rating *float64 `bson:"rating"`
}

// Mongo reads catalog tables stored as collections. The catalog database
// maps to a Mongo database.
type Mongo struct {
	client *mongo.Client
	logger *log.Logger
	opts   Options
}

// NewMongo connects a client and validates it with Ping.
func NewMongo(ctx context.Context, uri string, opts Options) (*Mongo, error) {
	logger := opts.logger()

	clientOpts := options.Client().ApplyURI(uri)
	if opts.MaxConns > 0 {
		clientOpts.SetMaxPoolSize(uint64(opts.MaxConns))
	}
	if opts.MinConns > 0 {
		clientOpts.SetMinPoolSize(uint64(opts.MinConns))
	}
	if opts.MaxConnIdleTime > 0 {
		clientOpts.SetMaxConnIdleTime(opts.MaxConnIdleTime)
	}
	if opts.ConnTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnTimeout)
	}

	connCtx, cancel := opts.withConnTimeout(ctx)
	defer cancel()

	client, err := mongo.Connect(connCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	logger.Println("catalog: mongo connection established")
	return &Mongo{client: client, logger: logger, opts: opts}, nil
}

// Scan streams every document of the collection through fn.
func (m *Mongo) Scan(ctx context.Context, ref domain.TableRef, fn func(domain.MovieRecord) error) error {
	db := m.client.Database(ref.Database)

	names, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: ref.Table}})
	if err != nil {
		return fmt.Errorf("list collections %s: %w", ref.Database, err)
	}
	if len(names) == 0 {
		return tableNotFound(ref, fmt.Errorf("collection %q does not exist", ref.Table))
	}

	projection := bson.D{
		{Key: ColumnTitle, Value: 1},
		{Key: ColumnYear, Value: 1},
		{Key: ColumnRating, Value: 1},
	}
	cur, err := db.Collection(ref.Table).Find(ctx, bson.D{}, options.Find().SetProjection(projection))
	if err != nil {
		return fmt.Errorf("query %s: %w", ref, err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc movieDocument
		if err := cur.Decode(&doc); err != nil {
			return fmt.Errorf("decode %s: %w", ref, err)
		}
		rec := domain.MovieRecord{Title: doc.Title, Year: doc.Year, Rating: doc.Rating}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := cur.Err(); err != nil {
		return fmt.Errorf("query %s: %w", ref, err)
	}
	return nil
}

// Ping verifies the server is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	checkCtx, cancel := m.opts.withConnTimeout(ctx)
	defer cancel()
	return m.client.Ping(checkCtx, nil)
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	m.logger.Println("catalog: disconnecting mongo client")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
