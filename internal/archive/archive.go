// Package archive persists raw response payloads for later inspection.
// Archival is diagnostic only; a failed write never fails a run.
package archive

import "context"

// Provider writes one payload under a name and returns its URI.
type Provider interface {
	Save(ctx context.Context, name string, payload []byte) (string, error)
}
