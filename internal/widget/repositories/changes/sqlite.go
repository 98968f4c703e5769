package changes

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cartwidget/internal/dbx"
	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, key, origin string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO changes (key, origin, changed_at) VALUES (?, ?, ?)`,
		key, origin, at.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to append change[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) Since(ctx context.Context, after int64, limit int) ([]models.Change, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, key, origin, changed_at FROM changes WHERE seq > ? ORDER BY seq LIMIT ?`,
		after, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select changes: %w", err)
	}
	defer rows.Close()

	var result []models.Change
	for rows.Next() {
		var (
			c  models.Change
			ms int64
		)
		if err := rows.Scan(&c.Seq, &c.Key, &c.Origin, &ms); err != nil {
			return nil, fmt.Errorf("failed to scan change row: %w", err)
		}
		c.ChangedAt = time.UnixMilli(ms).UTC()
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate change rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Latest(ctx context.Context) (int64, error) {
	var seq int64
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM changes`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest change: %w", err)
	}
	return seq, nil
}

func (r *SQLiteRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM changes WHERE changed_at < ?`, t.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune changes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
