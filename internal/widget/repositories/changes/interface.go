package changes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cartwidget/internal/widget/models"
)

// Repository describes the change log operations.
type Repository interface {
	// Append records that key was written or removed by origin.
	Append(ctx context.Context, key, origin string, at time.Time) error

	// Since returns up to limit changes with seq greater than after, oldest first.
	Since(ctx context.Context, after int64, limit int) ([]models.Change, error)

	// Latest returns the highest seq, or 0 for an empty log.
	Latest(ctx context.Context) (int64, error)

	// DeleteBefore prunes entries older than t and reports how many went.
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}
