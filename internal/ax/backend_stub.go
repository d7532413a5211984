//go:build !darwin

package ax

import (
	"context"
	"fmt"

	"github.com/codexwm/codex/internal/state"
)

// NewDarwinBackend is unavailable on non-darwin builds; it exists so
// callers can compile without platform-specific build tags and fail
// clearly at runtime if actually invoked.
func NewDarwinBackend() Backend {
	return stubBackend{}
}

// IsTrusted always reports false off darwin.
func IsTrusted() bool { return false }

// RequestTrust is a no-op off darwin.
func RequestTrust() {}

type stubBackend struct{}

func (stubBackend) OpenApp(ctx context.Context, pid state.PID) (AppSession, error) {
	return nil, fmt.Errorf("ax: accessibility transport is only available on darwin")
}
