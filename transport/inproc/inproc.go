// Package inproc is an in-process command transport: it calls a
// [ninelives.Router] directly, with no framing or network hop, for
// same-process callers (e.g. an admin endpoint embedded in the service
// that also owns the policies) and for tests that want the router's
// full auth/authorize/audit pipeline without a network transport.
package inproc

import (
	"context"

	"github.com/flyingrobots/ninelives"
)

// Transport dispatches envelopes directly against a bound router.
type Transport struct {
	Router *ninelives.Router
}

// New returns a Transport bound to router.
func New(router *ninelives.Router) *Transport {
	return &Transport{Router: router}
}

// Dispatch is a direct call-through to Router.Dispatch; no
// encoding/decoding occurs, matching the "framing (bytes ↔ envelope)"
// transport responsibility trivially since there are no bytes.
func (t *Transport) Dispatch(ctx context.Context, env ninelives.CommandEnvelope) ninelives.Result {
	return t.Router.Dispatch(ctx, env)
}
