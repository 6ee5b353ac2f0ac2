package auth

import "github.com/flyingrobots/ninelives"

// LabelAuthorizer authorizes a command if the caller's identity carries a
// required label among its Attributes. Labels map a command name to the
// attribute key/value a caller must present; a command with no entry in
// Required is open to any authenticated caller.
type LabelAuthorizer struct {
	Required map[string]Label
}

// Label is the attribute key/value a caller's [ninelives.Identity] must
// present to invoke the associated command.
type Label struct {
	Key, Value string
}

// NewLabelAuthorizer returns a LabelAuthorizer with the given command ->
// label requirements.
func NewLabelAuthorizer(required map[string]Label) *LabelAuthorizer {
	return &LabelAuthorizer{Required: required}
}

// Authorize reports whether identity may invoke command.
func (a *LabelAuthorizer) Authorize(identity ninelives.Identity, command string) bool {
	label, ok := a.Required[command]
	if !ok {
		return true
	}

	return identity.Attributes[label.Key] == label.Value
}
