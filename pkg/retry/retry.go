package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
)

// Connect calls ping until it succeeds, attempts run out or ctx is done.
func Connect(ctx context.Context, l logger.Interface, name string, attempts int, pause time.Duration, ping func(context.Context) error) error {
	var err error

	for left := attempts - 1; left >= 0; left-- {
		if err = ping(ctx); err == nil {
			return nil
		}
		if left == 0 {
			break
		}

		l.Warn("%s is trying to connect, attempts left: %d", name, left)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s - Connect: %w", name, ctx.Err())
		case <-time.After(pause):
		}
	}

	return fmt.Errorf("%s - Connect - attempts exhausted: %w", name, err)
}
