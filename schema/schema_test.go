package schema

import "testing"

func TestEnabledDefaultsToTrue(t *testing.T) {
	if !Enabled() {
		t.Fatal("Enabled() should default to true when the env var is unset")
	}
}

func TestEnabledHonorsFalseValues(t *testing.T) {
	for _, v := range []string{"0", "false", "FALSE", " false "} {
		t.Run(v, func(t *testing.T) {
			t.Setenv(EnvToggle, v)
			if Enabled() {
				t.Fatalf("Enabled() should be false for %q", v)
			}
		})
	}
}

func TestEnabledTreatsOtherValuesAsOn(t *testing.T) {
	t.Setenv(EnvToggle, "1")
	if !Enabled() {
		t.Fatal("Enabled() should be true for any value other than 0/false")
	}
}

func TestValidateEnvelopeAcceptsWellFormed(t *testing.T) {
	raw := []byte(`{"id":"r1","cmd":"health","args":{"a":"b"}}`)
	if err := ValidateEnvelope(raw); err != nil {
		t.Fatalf("ValidateEnvelope: %v", err)
	}
}

func TestValidateEnvelopeRejectsMissingCmd(t *testing.T) {
	raw := []byte(`{"id":"r1"}`)
	if err := ValidateEnvelope(raw); err == nil {
		t.Fatal("envelope missing required cmd field should fail validation")
	}
}

func TestValidateEnvelopeRejectsUnknownField(t *testing.T) {
	raw := []byte(`{"id":"r1","cmd":"health","extra":true}`)
	if err := ValidateEnvelope(raw); err == nil {
		t.Fatal("envelope with an unlisted field should fail validation")
	}
}

func TestValidateEnvelopeNoopWhenDisabled(t *testing.T) {
	t.Setenv(EnvToggle, "0")

	raw := []byte(`{"cmd-missing":true}`)
	if err := ValidateEnvelope(raw); err != nil {
		t.Fatalf("ValidateEnvelope should be a no-op when disabled: %v", err)
	}
}

func TestValidateResultAcceptsWellFormed(t *testing.T) {
	raw := []byte(`{"result":"value","value":"42"}`)
	if err := ValidateResult(raw); err != nil {
		t.Fatalf("ValidateResult: %v", err)
	}
}

func TestValidateResultRejectsUnknownResultKind(t *testing.T) {
	raw := []byte(`{"result":"bogus"}`)
	if err := ValidateResult(raw); err == nil {
		t.Fatal("unknown result kind should fail validation")
	}
}

func TestValidateResultNoopWhenDisabled(t *testing.T) {
	t.Setenv(EnvToggle, "false")

	raw := []byte(`{"result":"bogus"}`)
	if err := ValidateResult(raw); err != nil {
		t.Fatalf("ValidateResult should be a no-op when disabled: %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Errors: []string{"a", "b"}}
	if got := err.Error(); got == "" {
		t.Fatal("Error() should not be empty")
	}
}
