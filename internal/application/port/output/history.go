package output

import (
	"context"

	"agent-platform/internal/domain/entity"
)

type HistoryPort interface {
	Record(ctx context.Context, rec entity.TaskRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]entity.TaskRecord, error)
	Count(ctx context.Context) (int, error)
	Close() error
}
