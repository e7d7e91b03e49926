package orchestrator

import "testing"

func TestNormalizeTxHash_AddsPrefix(t *testing.T) {
	hash := "818c265a4fbc77e4dde8462cf3071b3e0ccff21d3e8c386b9ae158797a4bda12"
	got, err := NormalizeTxHash(hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0x818c265a4fbc77e4dde8462cf3071b3e0ccff21d3e8c386b9ae158797a4bda12"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestNormalizeTxHash_AcceptsExistingPrefix(t *testing.T) {
	hash := "0x818c265a4fbc77e4dde8462cf3071b3e0ccff21d3e8c386b9ae158797a4bda12"
	got, err := NormalizeTxHash(hash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != hash {
		t.Fatalf("got %q want %q", got, hash)
	}
}

func TestNormalizeTxHash_RejectsMalformed(t *testing.T) {
	cases := []string{"", "0x1234", "not-a-hash", "0x" + string(make([]byte, 63))}
	for _, c := range cases {
		if _, err := NormalizeTxHash(c); err == nil {
			t.Fatalf("expected error for malformed hash %q", c)
		}
	}
}
