package validation

import (
	"strings"
	"testing"
)

func TestValidLogin_Valid(t *testing.T) {
	t.Parallel()
	valids := []string{
		"user@example.com",
		"first.last@sub.example.co",
		"user+tag@example.org",
	}
	for _, v := range valids {
		if !ValidLogin(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidLogin_Invalid(t *testing.T) {
	t.Parallel()
	invalids := []string{
		"",
		"no-at-sign",
		"two@@example.com",
		"spaces in@example.com",
		"user@nodot",
		"user@example.com" + strings.Repeat("m", 260), // > 254
	}
	for _, v := range invalids {
		if ValidLogin(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestIsInternalLogin(t *testing.T) {
	t.Parallel()
	if !IsInternalLogin("ops@docuplane.com") {
		t.Fatal("service domain must be internal")
	}
	if !IsInternalLogin("usr-1@" + AnonymizedLoginDomain) {
		t.Fatal("anonymized logins must be internal")
	}
	if IsInternalLogin("user@example.com") {
		t.Fatal("customer logins are not internal")
	}
}
