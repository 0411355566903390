package observability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultShutdownTimeout bounds Shutdown when no timeout is given.
const DefaultShutdownTimeout = 10 * time.Second

// Shutdown flushes and then stops provider, both within one timeout.
//
// One-shot commands such as `cache clear` exit right after their last span
// ends, so the batcher is flushed explicitly before the exporters close.
// A flush failure does not skip the stop; both errors are returned joined.
// A nil or disabled provider is a no-op.
func Shutdown(provider Provider, timeout time.Duration) error {
	if provider == nil || !provider.Enabled() {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := provider.ForceFlush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("observability flush failed: %w", err))
	}
	if err := provider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("observability shutdown failed: %w", err))
	}
	return errors.Join(errs...)
}
