package password

import (
	"context"
	"errors"
	"testing"
)

func TestSerializeDeserialize_BCryptRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	// cost 4 para que el test no queme CPU
	h, err := NewBCrypt(ctx, "s3cret-pass", 4)
	if err != nil {
		t.Fatalf("NewBCrypt err: %v", err)
	}
	payload, err := Serialize(h)
	if err != nil {
		t.Fatalf("Serialize err: %v", err)
	}

	back, err := Deserialize(payload)
	if err != nil {
		t.Fatalf("Deserialize err: %v", err)
	}
	if back.Algorithm() != AlgorithmBCrypt {
		t.Fatalf("algorithm: got %d want %d", back.Algorithm(), AlgorithmBCrypt)
	}
	ok, err := back.Validate(ctx, "s3cret-pass")
	if err != nil || !ok {
		t.Fatalf("Validate: got (%v, %v) want (true, nil)", ok, err)
	}
}

func TestSerializeDeserialize_ClearTextRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	payload, err := Serialize(NewClearText("plaintext"))
	if err != nil {
		t.Fatalf("Serialize err: %v", err)
	}
	back, err := Deserialize(payload)
	if err != nil {
		t.Fatalf("Deserialize err: %v", err)
	}
	if back.Algorithm() != AlgorithmClearText {
		t.Fatalf("algorithm: got %d want %d", back.Algorithm(), AlgorithmClearText)
	}
	ok, _ := back.Validate(ctx, "plaintext")
	if !ok {
		t.Fatal("expected cleartext match")
	}
	ok, _ = back.Validate(ctx, "other")
	if ok {
		t.Fatal("expected cleartext mismatch")
	}
}

func TestDeserialize_UnknownAlgorithmNeverFallsBack(t *testing.T) {
	t.Parallel()

	_, err := Deserialize(`{"algorithm":99,"details":"whatever"}`)
	if err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
	var cde *CannotDeserializeError
	if !errors.As(err, &cde) {
		t.Fatalf("expected CannotDeserializeError, got %T: %v", err, err)
	}
	if cde.Algorithm != 99 {
		t.Fatalf("algorithm in error: got %d want 99", cde.Algorithm)
	}
}

func TestDeserialize_MalformedPayload(t *testing.T) {
	t.Parallel()

	if _, err := Deserialize("not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestBCrypt_WrongPasswordIsNotAnError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h, err := NewBCrypt(ctx, "correct", 4)
	if err != nil {
		t.Fatalf("NewBCrypt err: %v", err)
	}
	ok, err := h.Validate(ctx, "wrong")
	if err != nil {
		t.Fatalf("mismatch must not be an error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch")
	}
}
