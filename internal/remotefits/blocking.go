/*****************************************************************************************************************/

package remotefits

/*****************************************************************************************************************/

import (
	"context"

	"golang.org/x/sync/errgroup"
)

/*****************************************************************************************************************/

// RunBlockingIsland offloads fn, which drives this package's handle-table
// hooks, onto its own goroutine and waits for it to finish. This is the
// Go-idiomatic counterpart of the "blocking island" design described in
// spec §5/§9: the library call chain that performs synchronous,
// C-style I/O must not be invoked directly on a caller that is itself
// mid-flight inside the cooperative executor handling a request. In Go,
// the runtime scheduler already multiplexes goroutines onto OS threads,
// so no second event loop needs to be spun up inside the worker; what
// must still be preserved is the boundary itself, so that an error
// returned by the worker is propagated to the caller rather than lost.
// A panic inside fn is not recovered here.
func RunBlockingIsland(ctx context.Context, fn func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return fn(gctx)
	})

	return g.Wait()
}

/*****************************************************************************************************************/
