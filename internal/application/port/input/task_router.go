package input

import (
	"context"

	"agent-platform/internal/domain/entity"
)

// TaskRouter is the single entry point of the routing core. It never
// fails: every failure is reported inside the returned result.
type TaskRouter interface {
	RouteAndExecute(ctx context.Context, query, userID string, queryContext map[string]any) entity.ExecutionResult
}
