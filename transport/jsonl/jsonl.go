// Package jsonl is a newline-delimited JSON command transport: one
// encoded envelope per line in, one encoded result per line out. It
// suits a long-lived pipe (a subprocess's stdin/stdout, a Unix socket)
// better than httpcmd's one-request-one-response model.
package jsonl

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/flyingrobots/ninelives"
	"github.com/flyingrobots/ninelives/schema"
)

// Server reads envelopes from r, dispatches each through router, and
// writes the encoded result to w. Serve blocks until r returns EOF or ctx
// is cancelled; a malformed line produces an invalid_args result on that
// line rather than ending the stream.
type Server struct {
	Router *ninelives.Router
}

// NewServer returns a Server bound to router.
func NewServer(router *ninelives.Router) *Server {
	return &Server{Router: router}
}

// Serve runs the read-dispatch-write loop until r is exhausted or ctx is
// done.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var result ninelives.Result

		if err := schema.ValidateEnvelope(line); err != nil {
			result = ninelives.CommandError(ninelives.ErrInvalidArgs, err.Error())
		} else if env, err := ninelives.DecodeEnvelope(line); err != nil {
			result = ninelives.CommandError(ninelives.ErrInvalidArgs, err.Error())
		} else {
			result = s.Router.Dispatch(ctx, env)
		}

		out, encErr := ninelives.EncodeResult(result)
		if encErr != nil {
			return fmt.Errorf("ninelives/jsonl: encode result: %w", encErr)
		}

		if _, err := fmt.Fprintf(w, "%s\n", out); err != nil {
			return fmt.Errorf("ninelives/jsonl: write result: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("ninelives/jsonl: scan: %w", err)
	}

	return nil
}

// Client writes envelopes to w and reads matching results from r, one
// per line, in lock-step — suited to a subprocess pipe where requests
// and responses are strictly ordered.
type Client struct {
	r *bufio.Scanner
	w io.Writer
}

// NewClient returns a Client writing envelopes to w and reading results
// from r.
func NewClient(r io.Reader, w io.Writer) *Client {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Client{r: scanner, w: w}
}

// Dispatch writes env as one line and reads back exactly one line as the
// result.
func (c *Client) Dispatch(_ context.Context, env ninelives.CommandEnvelope) (ninelives.Result, error) {
	out, err := ninelives.EncodeEnvelope(env)
	if err != nil {
		return ninelives.Result{}, err
	}

	if _, err := fmt.Fprintf(c.w, "%s\n", out); err != nil {
		return ninelives.Result{}, fmt.Errorf("ninelives/jsonl: write envelope: %w", err)
	}

	if !c.r.Scan() {
		if err := c.r.Err(); err != nil {
			return ninelives.Result{}, fmt.Errorf("ninelives/jsonl: read result: %w", err)
		}

		return ninelives.Result{}, io.EOF
	}

	if err := schema.ValidateResult(c.r.Bytes()); err != nil {
		return ninelives.Result{}, fmt.Errorf("ninelives/jsonl: %w", err)
	}

	return ninelives.DecodeResult(c.r.Bytes())
}
