package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T, store *memStore, sender *fakeSender) *Service {
	t.Helper()
	logger := zaptest.NewLogger(t)
	verifier, err := NewVerifier(testSecret)
	require.NoError(t, err)
	engine, err := NewEngine(EngineOptions{
		Store:    store,
		Sender:   sender,
		Logger:   logger,
		SiteName: "DirectFanz",
	})
	require.NoError(t, err)
	service, err := NewService(Options{
		Verifier: verifier,
		Engine:   engine,
		Logger:   logger,
	})
	require.NoError(t, err)
	return service
}

func eventPayload(t *testing.T, id, eventType string, object interface{}) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":   id,
		"type": eventType,
		"data": map[string]interface{}{
			"object": object,
		},
	})
	require.NoError(t, err)
	return payload
}

func postEvent(service *Service, payload []byte, sigHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	if len(sigHeader) > 0 {
		req.Header.Set(SignatureHeader, sigHeader)
	}
	w := httptest.NewRecorder()
	service.Router().ServeHTTP(w, req)
	return w
}

func TestServiceAcknowledgesVerifiedEvent(t *testing.T) {
	store := newMemStore()
	service := newTestService(t, store, &fakeSender{})

	payload := eventPayload(t, "evt_1", EventCheckoutCompleted, map[string]interface{}{
		"id":           "cs_1",
		"subscription": "ext_1",
		"metadata": map[string]string{
			"fanId":    "fan_1",
			"artistId": "artist_1",
			"tierId":   "tier_1",
			"amount":   "10",
		},
	})
	w := postEvent(service, payload, signPayload(payload, testSecret, time.Now()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.NotNil(t, store.subs["ext_1"])
}

func TestServiceAcknowledgesUnknownEventType(t *testing.T) {
	store := newMemStore()
	service := newTestService(t, store, &fakeSender{})

	payload := eventPayload(t, "evt_1", "some.unknown.type", map[string]string{})
	w := postEvent(service, payload, signPayload(payload, testSecret, time.Now()))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Empty(t, store.subs)
}

func TestServiceRejectsMissingSignature(t *testing.T) {
	store := newMemStore()
	service := newTestService(t, store, &fakeSender{})

	payload := eventPayload(t, "evt_1", EventCheckoutCompleted, map[string]string{})
	w := postEvent(service, payload, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing signature header"}`, w.Body.String())
	assert.Empty(t, store.subs)
}

func TestServiceRejectsInvalidSignature(t *testing.T) {
	store := newMemStore()
	service := newTestService(t, store, &fakeSender{})

	payload := eventPayload(t, "evt_1", EventCheckoutCompleted, map[string]string{})
	w := postEvent(service, payload, signPayload(payload, "whsec_wrong", time.Now()))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid signature"}`, w.Body.String())
	assert.Empty(t, store.subs)
}

func TestServiceSurfacesInternalFault(t *testing.T) {
	store := newMemStore()
	store.failNext = fmt.Errorf("connection refused")
	service := newTestService(t, store, &fakeSender{})

	payload := eventPayload(t, "evt_1", EventCheckoutCompleted, map[string]interface{}{
		"id":           "cs_1",
		"subscription": "ext_1",
		"metadata": map[string]string{
			"fanId":    "fan_1",
			"artistId": "artist_1",
			"tierId":   "tier_1",
			"amount":   "10",
		},
	})
	w := postEvent(service, payload, signPayload(payload, testSecret, time.Now()))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Webhook handler failed"}`, w.Body.String())
}
