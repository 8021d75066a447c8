package machineid

import (
	"errors"
	"testing"
)

func TestResolve_Static(t *testing.T) {
	if got := Resolve(Static("abc-123")); got != "abc-123" {
		t.Fatalf("Resolve = %q", got)
	}
}

func TestResolve_Fallback(t *testing.T) {
	if got := Resolve(Static("  ")); got != Fallback {
		t.Fatalf("blank identity: got %q, want fallback", got)
	}
	if got := Resolve(nil); got != Fallback {
		t.Fatalf("nil provider: got %q, want fallback", got)
	}
}

func TestParseIOReg(t *testing.T) {
	out := `+-o Mac  <class IOPlatformExpertDevice, id 0x100000110>
    {
      "IOPlatformSerialNumber" = "C02XXXXX"
      "IOPlatformUUID" = "6A2F1D4E-0000-1111-2222-333344445555"
    }`
	got, err := parseIOReg(out)
	if err != nil {
		t.Fatalf("parseIOReg: %v", err)
	}
	if got != "6A2F1D4E-0000-1111-2222-333344445555" {
		t.Errorf("got %q", got)
	}

	if _, err := parseIOReg("nothing here"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}
