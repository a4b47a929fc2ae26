package output

import (
	"context"

	"agent-platform/internal/domain/entity"
)

type BrowserPort interface {
	Navigate(ctx context.Context, url string) error
	GetPageContent(ctx context.Context) (*entity.PageContent, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)

	CurrentURL() string
	Close()
}
