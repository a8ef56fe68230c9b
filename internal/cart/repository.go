package cart

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Repository persists one cart snapshot per user. Writes replace the whole
// snapshot; the last writer wins.
type Repository interface {
	GetCart(ctx context.Context, userID string) (Cart, error)
	UpsertCart(ctx context.Context, userID string, c Cart) error
	ClearCart(ctx context.Context, userID string) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetCart returns the stored cart, or an empty cart for an unknown user.
func (r *PostgresRepository) GetCart(ctx context.Context, userID string) (Cart, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT item, quantity
		FROM cart_items
		WHERE user_id = $1
		ORDER BY position
	`, userID)
	if err != nil {
		return Cart{}, fmt.Errorf("query cart %s: %w", userID, err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.Item, &l.Quantity); err != nil {
			return Cart{}, fmt.Errorf("scan cart %s: %w", userID, err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return Cart{}, fmt.Errorf("read cart %s: %w", userID, err)
	}

	return New(lines...), nil
}

func (r *PostgresRepository) UpsertCart(ctx context.Context, userID string, c Cart) (err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `
		INSERT INTO carts (user_id, updated_at)
		VALUES ($1, now())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = now()
	`, userID); err != nil {
		return fmt.Errorf("upsert cart %s: %w", userID, err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear items %s: %w", userID, err)
	}

	for pos, l := range c.Lines() {
		if _, err = tx.Exec(ctx, `
			INSERT INTO cart_items (user_id, item, quantity, position)
			VALUES ($1, $2, $3, $4)
		`, userID, l.Item, l.Quantity, pos); err != nil {
			return fmt.Errorf("insert item %s for %s: %w", l.Item, userID, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit cart %s: %w", userID, err)
	}
	return nil
}

func (r *PostgresRepository) ClearCart(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete cart %s: %w", userID, err)
	}
	return nil
}
