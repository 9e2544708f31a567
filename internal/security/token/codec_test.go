package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("unit-test-secret")

func TestInflate_OneTimeLoginRoundTrip(t *testing.T) {
	t.Parallel()
	c := NewCodec(testSecret)

	built, err := c.BuildOneTimeLogin("usr-123", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("BuildOneTimeLogin err: %v", err)
	}

	got, err := c.Inflate(built.Key())
	if err != nil {
		t.Fatalf("Inflate err: %v", err)
	}
	otl, ok := got.(*OneTimeLoginToken)
	if !ok {
		t.Fatalf("expected *OneTimeLoginToken, got %T", got)
	}
	if otl.UserID != "usr-123" {
		t.Fatalf("userID: got %q", otl.UserID)
	}
	if !otl.IsValid() {
		t.Fatal("fresh token must be valid")
	}
}

func TestInflate_TamperedSignature(t *testing.T) {
	t.Parallel()
	c := NewCodec(testSecret)

	built, err := c.BuildOneTimeLogin("usr-123", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("build err: %v", err)
	}
	raw := built.Key()
	tampered := raw[:len(raw)-2] + "xx"

	if _, err := c.Inflate(tampered); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestInflate_WrongSecret(t *testing.T) {
	t.Parallel()

	built, err := NewCodec(testSecret).BuildOneTimeLogin("usr-123", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("build err: %v", err)
	}
	if _, err := NewCodec([]byte("other-secret")).Inflate(built.Key()); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestInflate_ExpiredIsDistinguishable(t *testing.T) {
	t.Parallel()
	c := NewCodec(testSecret)

	built, err := c.BuildOneTimeLogin("usr-123", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("build err: %v", err)
	}
	_, err = c.Inflate(built.Key())
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if errors.Is(err, ErrInvalidToken) {
		t.Fatal("expired must not double as invalid")
	}
}

// El borde es inclusivo: expirationDate == now ya está expirado, un
// milisegundo antes todavía no.
func TestIsExpired_Boundary(t *testing.T) {
	t.Parallel()

	now := time.Now()
	past := meta{expirationDate: now}
	if !past.IsExpired() {
		t.Fatal("exp == now must count as expired")
	}
	future := meta{expirationDate: now.Add(50 * time.Millisecond)}
	if future.IsExpired() {
		t.Fatal("exp in the future must not be expired")
	}
}

func TestConsume_ReturnsCopy(t *testing.T) {
	t.Parallel()
	c := NewCodec(testSecret)

	built, err := c.BuildOneTimeLogin("usr-123", time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("build err: %v", err)
	}

	consumed := built.Consume()
	if consumed.Consumed == nil {
		t.Fatal("consumed copy must carry the timestamp")
	}
	if consumed.IsValid() {
		t.Fatal("consumed token must be invalid")
	}
	// el original no se toca
	if built.Consumed != nil || !built.IsValid() {
		t.Fatal("Consume must not mutate the receiver")
	}
}

func TestVerify(t *testing.T) {
	t.Parallel()
	c := NewCodec(testSecret)

	built, err := c.BuildURL(ACLFromItemIDs("doc-1", "doc-2"), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("build err: %v", err)
	}
	ok, err := c.Verify(built.Key())
	if err != nil || !ok {
		t.Fatalf("Verify: got (%v, %v) want (true, nil)", ok, err)
	}
	ok, err = c.Verify("garbage.token.value")
	if err != nil || ok {
		t.Fatalf("Verify garbage: got (%v, %v) want (false, nil)", ok, err)
	}
}

func TestURLToken_CarriesACL(t *testing.T) {
	t.Parallel()
	c := NewCodec(testSecret)

	built, err := c.BuildURL(ACLFromItemIDs("doc-1", "doc-2"), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("build err: %v", err)
	}
	got, err := c.Inflate(built.Key())
	if err != nil {
		t.Fatalf("Inflate err: %v", err)
	}
	url, ok := got.(*URLToken)
	if !ok {
		t.Fatalf("expected *URLToken, got %T", got)
	}
	if len(url.ACL.Rules) != 1 || len(url.ACL.Rules[0].ResourceIDs) != 2 {
		t.Fatalf("ACL lost in round trip: %+v", url.ACL)
	}
}

func TestUserToken_PerAccountSecret(t *testing.T) {
	t.Parallel()

	issued := time.Now().Add(-time.Minute)
	built, err := BuildUser([]byte("account-secret"), "usr-1", "usr-2", issued, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("BuildUser err: %v", err)
	}

	got, err := InflateUserToken(built.Key(), []byte("account-secret"))
	if err != nil {
		t.Fatalf("InflateUserToken err: %v", err)
	}
	if got.Sub != "usr-1" || got.ImpersonatedUser != "usr-2" {
		t.Fatalf("claims: got sub=%q impersonated=%q", got.Sub, got.ImpersonatedUser)
	}

	// el secreto de otra cuenta no verifica
	if _, err := InflateUserToken(built.Key(), []byte("another-account")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestInflateUserToken_RequiresExp(t *testing.T) {
	t.Parallel()

	// sanity: el bien formado pasa
	built, err := BuildUser([]byte("account-secret"), "usr-1", "", time.Now(), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("BuildUser err: %v", err)
	}
	if _, err := InflateUserToken(built.Key(), []byte("account-secret")); err != nil {
		t.Fatalf("well-formed token rejected: %v", err)
	}

	// firma válida pero sin claim exp: rechazado
	noExp, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"sub": "usr-1",
		"iat": time.Now().Unix(),
	}).SignedString([]byte("account-secret"))
	if err != nil {
		t.Fatalf("sign err: %v", err)
	}
	if _, err := InflateUserToken(noExp, []byte("account-secret")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken without exp, got %v", err)
	}
}

func TestRehydrate_UnknownType(t *testing.T) {
	t.Parallel()

	_, err := Rehydrate("key", Type(2), []byte(`{}`), false, time.Now().Add(time.Hour))
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for reserved type, got %v", err)
	}
	if err != nil && !strings.Contains(err.Error(), "unknown token type") {
		t.Fatalf("unexpected message: %v", err)
	}
}
