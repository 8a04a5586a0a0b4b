// Package pgstore persists the marketplace in PostgreSQL through pgx. Offers
// live in their own table so the per-request cap and the one-offer-per-merchant
// rule are enforced under a row lock.
package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sajeel041/FIX-POINT/internal/store"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool   *pgxpool.Pool
	db     querier
	inTx   bool
	tracer trace.Tracer
}

var _ store.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:   pool,
		db:     pool,
		tracer: otel.Tracer("github.com/Sajeel041/FIX-POINT/internal/store/pgstore"),
	}
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, s store.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	ctx, span := s.tracer.Start(ctx, "Store.Atomically")
	defer span.End()

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(ctx, s.withTx(tx))
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Store) withTx(tx pgx.Tx) *Store {
	return &Store{pool: s.pool, db: tx, inTx: true, tracer: s.tracer}
}

// locked runs fn in a transaction, or a savepoint when s is already one.
func (s *Store) locked(ctx context.Context, fn func(q *Store) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(s.withTx(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

// exists distinguishes a missing row from a failed guard after an update
// touched nothing.
func (s *Store) exists(ctx context.Context, table, id string) error {
	var found bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&found)
	if err != nil {
		return err
	}
	if !found {
		return store.ErrNotFound
	}
	return store.ErrConditionFailed
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrDuplicate
	}
	return err
}
