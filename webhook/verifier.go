package webhook

import (
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
)

// Verification failure reasons. The HTTP layer maps these to distinct
// rejection responses so the provider can tell a misconfigured endpoint from
// a tampered payload.
var (
	ErrMissingSignature = errors.New("missing signature header")
	ErrInvalidSignature = errors.New("signature verification failed")
)

// Verifier authenticates inbound provider events against the shared webhook
// secret. Verification runs over the raw, unparsed request body; parsing and
// re-serializing would break signature matching.
type Verifier struct {
	secret string
}

// NewVerifier returns a Verifier for the given shared secret
func NewVerifier(secret string) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("empty secret is invalid")
	}
	return &Verifier{
		secret: secret,
	}, nil
}

// Verify authenticates the raw payload against the signature header and
// returns the parsed event. It is a pure function of (payload, header,
// secret) with no side effects.
func (v *Verifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	if len(sigHeader) == 0 {
		return stripe.Event{}, ErrMissingSignature
	}
	event, err := webhook.ConstructEvent(payload, sigHeader, v.secret)
	if err != nil {
		return stripe.Event{}, ErrInvalidSignature
	}
	return event, nil
}
