package feed

import "context"

// Drain receives quotes until in is closed or ctx is done, keeping only the
// most recent one in dst.
func Drain(ctx context.Context, in <-chan Quote, dst *Latest) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case q, ok := <-in:
			if !ok {
				return nil
			}
			dst.Store(q)
		}
	}
}
