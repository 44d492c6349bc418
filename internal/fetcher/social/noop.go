package social

import (
	"context"
	"errors"
)

// NoopRenderer implements Renderer but always returns an error, for builds
// where headless browsing is disabled.
type NoopRenderer struct{}

// NewNoopRenderer creates a NoopRenderer.
func NewNoopRenderer() *NoopRenderer {
	return &NoopRenderer{}
}

// Render returns an error since this is a stub implementation.
func (NoopRenderer) Render(context.Context, string) ([]byte, error) {
	return nil, errors.New("headless renderer not configured")
}

// Close is a no-op.
func (NoopRenderer) Close() {}
