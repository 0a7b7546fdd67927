package phone

import (
	"errors"
	"testing"
)

func TestNormalizeLocalForms(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "local 09", in: "0911111111", want: "+251911111111"},
		{name: "local 07", in: "0712345678", want: "+251712345678"},
		{name: "local with spaces", in: "09 11 11 11 11", want: "+251911111111"},
		{name: "local with dashes", in: "091-111-1111", want: "+251911111111"},
		{name: "international with plus", in: "+251911111111", want: "+251911111111"},
		{name: "international without plus", in: "251911111111", want: "+251911111111"},
		{name: "international 07 family", in: "+251712345678", want: "+251712345678"},
		{name: "foreign number", in: "+14155552671", want: "+14155552671"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first, err := Normalize("0911111111")
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	second, err := Normalize(first)
	if err != nil {
		t.Fatalf("Normalize of canonical form returned error: %v", err)
	}

	if first != second {
		t.Fatalf("Normalize is not idempotent: %q != %q", first, second)
	}
}

func TestNormalizeRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{name: "empty", in: ""},
		{name: "letters only", in: "not-a-phone"},
		{name: "local too short", in: "0911111"},
		{name: "local too long", in: "091111111111"},
		{name: "landline prefix", in: "0111111111"},
		{name: "foreign without plus", in: "14155552671"},
		{name: "too few digits", in: "+1234567"},
		{name: "too many digits", in: "+1234567890123456"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			if !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("Normalize(%q) = (%q, %v), want ErrInvalidFormat", tc.in, got, err)
			}
		})
	}
}

func TestValid(t *testing.T) {
	if !Valid("0911111111") {
		t.Fatalf("expected 0911111111 to be valid")
	}
	if Valid("0911") {
		t.Fatalf("expected 0911 to be invalid")
	}
}

func TestMask(t *testing.T) {
	got := Mask("+251911111111")
	if got == "+251911111111" {
		t.Fatalf("Mask did not hide any digits: %q", got)
	}
	if got[len(got)-4:] != "1111" {
		t.Fatalf("Mask should keep the last four digits, got %q", got)
	}
}
