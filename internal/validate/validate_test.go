package validate

import (
	"errors"
	"strings"
	"testing"
)

func fieldErrors(t *testing.T, err error) FieldErrors {
	t.Helper()
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("error %v is not FieldErrors", err)
	}
	return fe
}

func TestSignUp(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		if err := SignUp("Ada Lovelace", "ada@example.com", "secret1", "secret1"); err != nil {
			t.Errorf("valid sign-up rejected: %v", err)
		}
	})

	t.Run("AllFieldsBad", func(t *testing.T) {
		err := SignUp("A", "not-an-email", "123", "456")
		fe := fieldErrors(t, err)
		for _, field := range []string{"name", "email", "password", "confirmPassword"} {
			if fe[field] == "" {
				t.Errorf("expected message for field %q", field)
			}
		}
	})

	t.Run("PasswordMismatch", func(t *testing.T) {
		fe := fieldErrors(t, SignUp("Ada", "ada@example.com", "secret1", "secret2"))
		if fe["confirmPassword"] != "Passwords don't match" {
			t.Errorf("confirmPassword message = %q", fe["confirmPassword"])
		}
		if len(fe) != 1 {
			t.Errorf("unexpected extra errors: %v", fe)
		}
	})
}

func TestSignIn(t *testing.T) {
	if err := SignIn("ada@example.com", "secret1"); err != nil {
		t.Errorf("valid sign-in rejected: %v", err)
	}
	fe := fieldErrors(t, SignIn("bad", "123"))
	if fe["email"] == "" || fe["password"] == "" {
		t.Errorf("expected email and password errors, got %v", fe)
	}
}

func TestCheckout(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		if err := Checkout("Ada", "1 Analytical Way", "0123456789"); err != nil {
			t.Errorf("valid checkout rejected: %v", err)
		}
	})

	t.Run("ShortFields", func(t *testing.T) {
		fe := fieldErrors(t, Checkout("A", "x", "123"))
		for _, field := range []string{"name", "address", "phoneNumber"} {
			if fe[field] == "" {
				t.Errorf("expected message for field %q", field)
			}
		}
	})

	t.Run("PhoneWithLetters", func(t *testing.T) {
		fe := fieldErrors(t, Checkout("Ada", "1 Analytical Way", "01234abcde"))
		if !strings.Contains(fe["phoneNumber"], "only digits") {
			t.Errorf("phoneNumber message = %q", fe["phoneNumber"])
		}
	})
}

func TestQuantity(t *testing.T) {
	if err := Quantity(1); err != nil {
		t.Errorf("Quantity(1) rejected: %v", err)
	}
	if err := Quantity(0); err == nil {
		t.Error("Quantity(0) should be rejected")
	}
	if err := Quantity(-2); err == nil {
		t.Error("Quantity(-2) should be rejected")
	}
}

func TestFieldErrorsMessage(t *testing.T) {
	err := FieldErrors{"b": "second", "a": "first"}
	msg := err.Error()
	// Stable field order for display.
	if !strings.Contains(msg, "a: first; b: second") {
		t.Errorf("Error() = %q, want sorted fields", msg)
	}
}
