package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// SequenceRepository hands out a strictly increasing sequence per partition.
type SequenceRepository interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresSequenceRepository struct {
	db RowQuerier
}

func NewSequenceRepository(db RowQuerier) *PostgresSequenceRepository {
	return &PostgresSequenceRepository{db: db}
}

// NextSequence atomically increments and returns the next sequence for a partition.
func (r *PostgresSequenceRepository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, errors.New("partition key is required")
	}

	var next int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO event_sequences (partition_key, last_sequence, updated_at)
		VALUES ($1, 1, now())
		ON CONFLICT (partition_key) DO UPDATE
		SET last_sequence = event_sequences.last_sequence + 1,
		    updated_at = now()
		RETURNING last_sequence
	`, partitionKey).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("increment sequence %s: %w", partitionKey, err)
	}
	return next, nil
}
