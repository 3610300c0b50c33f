package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

// signPayload forges a provider signature header the same way the provider
// computes it: HMAC-SHA256 over "<timestamp>.<payload>" with the shared
// secret.
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	verifier, err := NewVerifier(testSecret)
	require.NoError(t, err)

	payload := []byte(`{"id":"evt_1","type":"some.unknown.type","data":{"object":{}}}`)
	header := signPayload(payload, testSecret, time.Now())

	event, err := verifier.Verify(payload, header)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "some.unknown.type", event.Type)
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	verifier, err := NewVerifier(testSecret)
	require.NoError(t, err)

	payload := []byte(`{"id":"evt_1","type":"x","data":{"object":{}}}`)
	_, err = verifier.Verify(payload, "")
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	verifier, err := NewVerifier(testSecret)
	require.NoError(t, err)

	payload := []byte(`{"id":"evt_1","type":"x","data":{"object":{}}}`)
	header := signPayload(payload, testSecret, time.Now())

	tampered := []byte(`{"id":"evt_2","type":"x","data":{"object":{}}}`)
	_, err = verifier.Verify(tampered, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	verifier, err := NewVerifier(testSecret)
	require.NoError(t, err)

	payload := []byte(`{"id":"evt_1","type":"x","data":{"object":{}}}`)
	header := signPayload(payload, "whsec_other_secret", time.Now())

	_, err = verifier.Verify(payload, header)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestNewVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("")
	assert.Error(t, err)
}
