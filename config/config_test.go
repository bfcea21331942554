package config

import "testing"

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default() invalid: %v", err)
	}
}

func TestValidateRejectsBadPolicy(t *testing.T) {
	b := Default()
	b.Policy = "NOPE"
	if err := b.Validate(); err == nil {
		t.Error("Validate() should reject an unknown policy")
	}
}

func TestValidateRejectsNonPositiveFields(t *testing.T) {
	cases := []Boot{
		{NProc: 0, NOFile: 16, NCPU: 1, Policy: PolicyRR},
		{NProc: 64, NOFile: 0, NCPU: 1, Policy: PolicyRR},
		{NProc: 64, NOFile: 16, NCPU: 0, Policy: PolicyRR},
	}
	for i, b := range cases {
		if err := b.Validate(); err == nil {
			t.Errorf("case %d: Validate() should reject %+v", i, b)
		}
	}
}
