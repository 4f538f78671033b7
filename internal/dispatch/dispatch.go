/*****************************************************************************************************************/

// Package dispatch routes a single Lambda invocation to one of the
// three science handlers by inspecting the suffix of the invoked
// function's ARN, mirroring the archive's single-binary, three-function
// deployment shape.
package dispatch

/*****************************************************************************************************************/

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid"
)

/*****************************************************************************************************************/

// localTestARNEnv is read when the incoming ARN is the placeholder the
// AWS Lambda Go runtime uses for `cargo lambda watch`-style local
// invokes, letting a developer pick which of the three functions a
// local request should be routed to without standing up three
// separate processes.
const localTestARNEnv = "DASCH_LOCALTEST_ARN"

/*****************************************************************************************************************/

// entropy backs the request correlation IDs logged alongside each
// dispatched invocation.
var entropy = ulid.Monotonic(rand.Reader, 0)

/*****************************************************************************************************************/

// Handler is implemented by each of the three service packages.
type Handler func(ctx context.Context, payload json.RawMessage) (interface{}, error)

/*****************************************************************************************************************/

// Router dispatches by ARN suffix to a fixed set of named handlers.
type Router struct {
	handlers map[string]Handler
}

/*****************************************************************************************************************/

// NewRouter builds a Router from suffix -> handler pairs, e.g.
// "cutout", "queryexps", "querycat".
func NewRouter(handlers map[string]Handler) *Router {
	return &Router{handlers: handlers}
}

/*****************************************************************************************************************/

// Dispatch resolves arn (rewriting it from the local-test environment
// variable when it carries the runtime's local-invoke placeholder
// suffix), logs a one-line banner naming the resolved function, and
// invokes the matching handler.
func (r *Router) Dispatch(ctx context.Context, arn string, payload json.RawMessage) (interface{}, error) {
	if strings.HasSuffix(arn, ":test_function") {
		override := os.Getenv(localTestARNEnv)
		if override == "" {
			return nil, fmt.Errorf("dispatch: local test invocation requires %s to be set", localTestARNEnv)
		}
		arn = override
	}

	for suffix, handler := range r.handlers {
		if strings.HasSuffix(arn, suffix) {
			id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
			if err != nil {
				return nil, fmt.Errorf("dispatch: generating request id: %w", err)
			}
			log.Printf("dispatch: invoking %s (arn=%s, request=%s)", suffix, arn, id)
			return handler(ctx, payload)
		}
	}

	return nil, fmt.Errorf("dispatch: unhandled function: %s", arn)
}
