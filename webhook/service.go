package webhook

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	resp "github.com/Shockvaluemedia/directfanz-billing/response"

	"github.com/go-chi/chi"
	"go.uber.org/zap"
)

// SignatureHeader is the provider-defined header carrying the payload signature
const SignatureHeader = "Stripe-Signature"

// maxBodyBytes bounds the inbound payload size; provider events are small
const maxBodyBytes = 64 * 1024

// Options contains the configuration for the Service router
type Options struct {
	Verifier *Verifier
	Engine   *Engine
	Logger   *zap.Logger
}

// Service is the inbound webhook endpoint
type Service struct {
	Options
}

// NewService will create an instance of the webhook endpoint router
func NewService(option Options) (*Service, error) {
	if option.Verifier == nil {
		return nil, fmt.Errorf("nil Verifier is invalid")
	}
	if option.Engine == nil {
		return nil, fmt.Errorf("nil Engine is invalid")
	}
	if option.Logger == nil {
		return nil, fmt.Errorf("nil Logger is invalid")
	}
	return &Service{
		Options: option,
	}, nil
}

type ackResult struct {
	Received bool `json:"received"`
}

func (s *Service) handleEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		resp.WriteError(w, r, resp.ErrBadRequest())
		return
	}

	event, err := s.Verifier.Verify(payload, r.Header.Get(SignatureHeader))
	if err != nil {
		s.Logger.Warn("Rejecting unverifiable event",
			zap.Error(err),
		)
		switch {
		case errors.Is(err, ErrMissingSignature):
			resp.WriteError(w, r, resp.ErrMissingSignature())
		default:
			resp.WriteError(w, r, resp.ErrInvalidSignature())
		}
		return
	}

	if err := s.Engine.Dispatch(r.Context(), event); err != nil {
		// unexpected internal fault: surface a failure so the provider's
		// retry mechanism re-attempts delivery later
		s.Logger.Error("Webhook handler failed",
			zap.String("EventID", event.ID),
			zap.String("EventType", event.Type),
			zap.Error(err),
		)
		resp.WriteError(w, r, resp.ErrUnexpected())
		return
	}

	resp.WriteResponse(w, r, ackResult{Received: true})
}

// Router will return the routes under the webhook endpoint
func (s *Service) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/", s.handleEvent)

	return r
}
