package output

import (
	"context"
	"net/url"
)

// WebClientPort is the outbound HTTP surface the agents use for public APIs.
// Non-2xx responses are returned as errors.
type WebClientPort interface {
	Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error)
	PostForm(ctx context.Context, rawURL string, form url.Values) ([]byte, error)
}
