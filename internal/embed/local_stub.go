//go:build !(cgo && (darwin || (linux && amd64)))

package embed

import "context"

func newLocal(_ context.Context, _ Config) (Embedder, error) {
	return nil, ErrLocalUnavailable
}
