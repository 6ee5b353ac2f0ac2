// Package httpcmd is an HTTP transport for the command control plane: a
// [Handler] serves [ninelives.Router.Dispatch] over a single POST
// endpoint, and a [Client] is the matching caller-side adapter. It is
// grounded on the teacher's httpx.Client adapter shape (wrap an
// *http.Client, drain and close the body on every exit path) but carries
// command envelopes rather than arbitrary HTTP requests.
package httpcmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/flyingrobots/ninelives"
	"github.com/flyingrobots/ninelives/schema"
)

// Handler adapts a [ninelives.Router] to net/http: it decodes the
// canonical wire envelope from the request body, dispatches it, and
// encodes the result back. A malformed body is itself reported as an
// invalid_args [ninelives.Result] rather than an HTTP error status — the
// router's error surface is the source of truth, not HTTP status codes.
type Handler struct {
	Router *ninelives.Router
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "ninelives: read body: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := schema.ValidateEnvelope(body); err != nil {
		h.writeResult(w, ninelives.CommandError(ninelives.ErrInvalidArgs, err.Error()))
		return
	}

	env, decErr := ninelives.DecodeEnvelope(body)
	if decErr != nil {
		h.writeResult(w, ninelives.CommandError(ninelives.ErrInvalidArgs, decErr.Error()))
		return
	}

	result := h.Router.Dispatch(r.Context(), env)
	h.writeResult(w, result)
}

func (h *Handler) writeResult(w http.ResponseWriter, result ninelives.Result) {
	out, err := ninelives.EncodeResult(result)
	if err != nil {
		http.Error(w, "ninelives: encode result: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(out)
}

// Client posts command envelopes to a Handler's endpoint.
type Client struct {
	HTTPClient *http.Client
	URL        string
}

// NewClient returns a Client posting to url using hc, or http.DefaultClient
// if hc is nil.
func NewClient(url string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}

	return &Client{HTTPClient: hc, URL: url}
}

// Dispatch encodes env, posts it, and decodes the response into a
// [ninelives.Result].
func (c *Client) Dispatch(ctx context.Context, env ninelives.CommandEnvelope) (ninelives.Result, error) {
	body, err := ninelives.EncodeEnvelope(env)
	if err != nil {
		return ninelives.Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return ninelives.Result{}, fmt.Errorf("ninelives/httpcmd: build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return ninelives.Result{}, fmt.Errorf("ninelives/httpcmd: do request: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return ninelives.Result{}, fmt.Errorf("ninelives/httpcmd: read response: %w", err)
	}

	if err := schema.ValidateResult(respBody); err != nil {
		return ninelives.Result{}, fmt.Errorf("ninelives/httpcmd: %w", err)
	}

	return ninelives.DecodeResult(respBody)
}
