package preset

import (
	"context"
	"time"

	"github.com/Faultbox/lsystree/pkg/lsystem"
)

// Grow replays the expansion one generation at a time, calling fn with
// generations 0..iterations. delay is waited between generations; a
// cancelled ctx or an error from fn stops the growth.
func Grow(ctx context.Context, g *lsystem.Grammar, axiom string, iterations int, delay time.Duration, fn func(gen int, symbols string) error) error {
	current := axiom
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(i, current); err != nil {
			return err
		}
		if i >= iterations {
			return nil
		}
		current = g.Step(current)

		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}
}
