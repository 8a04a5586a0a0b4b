package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/config"
	"github.com/Sajeel041/FIX-POINT/internal/store"
	"github.com/Sajeel041/FIX-POINT/internal/store/memstore"
	"github.com/Sajeel041/FIX-POINT/internal/store/mongostore"
	"github.com/Sajeel041/FIX-POINT/internal/store/pgstore"
)

// Open connects the configured backend and prepares its schema or indexes.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		s := pgstore.New(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("Connected to Postgres", zap.String("host", cfg.Postgres.Host), zap.String("db", cfg.Postgres.Name))
		return s, nil

	case "mongo":
		client, err := OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		s := mongostore.New(client, cfg.Mongo.Database, cfg.Mongo.Transactions)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		log.Info("Connected to MongoDB",
			zap.String("db", cfg.Mongo.Database),
			zap.Bool("transactions", cfg.Mongo.Transactions),
		)
		return s, nil

	case "memory":
		log.Warn("Using in-memory store, data is lost on restart")
		return memstore.New(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// OpenPostgres creates a pool and verifies the connection.
func OpenPostgres(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}
	return pool, nil
}

// OpenMongo connects a client and verifies the primary is reachable.
func OpenMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("unable to ping mongo: %w", err)
	}
	return client, nil
}
