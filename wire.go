package ninelives

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// wireEnvelope is the canonical JSON shape of a [CommandEnvelope] on the
// wire: `{ "id", "cmd", "args", "auth" }`.
type wireEnvelope struct {
	ID   string            `json:"id"`
	Cmd  string            `json:"cmd"`
	Args map[string]string `json:"args,omitempty"`
	Auth json.RawMessage   `json:"auth,omitempty"`
}

// wireResult is the canonical JSON shape of a [Result] on the wire, one
// of the five result shapes documented in the external interfaces
// section: ack, value, list, reset, error.
type wireResult struct {
	Result  string          `json:"result"`
	Value   string          `json:"value,omitempty"`
	Items   []string        `json:"items,omitempty"`
	Message string          `json:"message,omitempty"`
	Kind    *wireResultKind `json:"kind,omitempty"`
}

type wireResultKind struct {
	Kind string `json:"kind"`
	Msg  string `json:"msg"`
}

// EncodeEnvelope renders env as the canonical wire JSON. Auth is
// re-encoded as-is if it is already `json.RawMessage`/`[]byte`; any other
// concrete type is marshaled.
func EncodeEnvelope(env CommandEnvelope) ([]byte, error) {
	var auth json.RawMessage

	switch a := env.Auth.(type) {
	case nil:
		auth = nil
	case json.RawMessage:
		auth = a
	case []byte:
		auth = a
	default:
		b, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("ninelives: encode envelope auth: %w", err)
		}

		auth = b
	}

	out, err := json.Marshal(wireEnvelope{
		ID:   env.ID,
		Cmd:  env.Command,
		Args: env.Args,
		Auth: auth,
	})
	if err != nil {
		return nil, fmt.Errorf("ninelives: encode envelope: %w", err)
	}

	return out, nil
}

// DecodeEnvelope parses the canonical wire JSON into a [CommandEnvelope].
// Metadata fields are not carried on the wire: the correlation ID is left
// empty for the caller to fill in, and the timestamp is set to the time of
// decoding.
func DecodeEnvelope(data []byte) (CommandEnvelope, error) {
	var w wireEnvelope

	if err := json.Unmarshal(data, &w); err != nil {
		return CommandEnvelope{}, fmt.Errorf("ninelives: decode envelope: %w", err)
	}

	var auth any
	if len(w.Auth) > 0 {
		auth = w.Auth
	}

	return CommandEnvelope{
		ID:      w.ID,
		Command: w.Cmd,
		Args:    w.Args,
		Auth:    auth,
		Metadata: CommandMetadata{
			Timestamp: time.Now(),
		},
	}, nil
}

// EncodeResult renders r as the canonical wire JSON.
func EncodeResult(r Result) ([]byte, error) {
	w := wireResult{Items: r.Items}

	switch r.Kind {
	case ResultAck:
		w.Result = "ack"
	case ResultValue:
		w.Result = "value"
		w.Value = r.Value
	case ResultList:
		w.Result = "list"
	case ResultReset:
		w.Result = "reset"
	case ResultError:
		w.Result = "error"
		if r.Error != nil {
			w.Message = r.Error.Message
			w.Kind = &wireResultKind{Kind: r.Error.Kind.String(), Msg: r.Error.Message}
		}
	}

	out, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("ninelives: encode result: %w", err)
	}

	return out, nil
}

// DecodeResult parses the canonical wire JSON into a [Result].
func DecodeResult(data []byte) (Result, error) {
	var w wireResult

	if err := json.Unmarshal(data, &w); err != nil {
		return Result{}, fmt.Errorf("ninelives: decode result: %w", err)
	}

	switch w.Result {
	case "ack":
		return Ack(), nil
	case "value":
		return Value(w.Value), nil
	case "list":
		return List(w.Items), nil
	case "reset":
		return Reset(), nil
	case "error":
		code := ErrInternal
		msg := w.Message

		if w.Kind != nil {
			if msg == "" {
				msg = w.Kind.Msg
			}
			code = parseErrorCode(w.Kind.Kind)
		}

		return CommandError(code, msg), nil
	default:
		return Result{}, fmt.Errorf("ninelives: decode result: unknown result %q", w.Result)
	}
}

func parseErrorCode(s string) ErrorCode {
	switch s {
	case "invalid_args":
		return ErrInvalidArgs
	case "not_found":
		return ErrNotFound
	case "registry_missing":
		return ErrRegistryMissing
	case "unauthorized":
		return ErrUnauthorized
	default:
		return ErrInternal
	}
}
