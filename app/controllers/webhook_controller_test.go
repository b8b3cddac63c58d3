package controllers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/modelboard/modelboard/app/models"
	"github.com/modelboard/modelboard/internal/pkg/payments"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// stubPaymentStore satisfies the dispatcher's persistence interfaces without
// a database; the webhook tests only exercise the HTTP contract.
type stubPaymentStore struct {
	nextEventID uint
	events      map[string]*models.WebhookEvent
}

func newStubPaymentStore() *stubPaymentStore {
	return &stubPaymentStore{events: make(map[string]*models.WebhookEvent)}
}

func (s *stubPaymentStore) UpsertSubscriptionByUser(ctx context.Context, sub *models.Subscription) error {
	return nil
}

func (s *stubPaymentStore) GetSubscriptionByExternalID(ctx context.Context, externalID string) (*models.Subscription, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPaymentStore) UpdateSubscriptionByExternalID(ctx context.Context, externalID string, fromStatuses []string, updates map[string]interface{}) (int64, error) {
	return 0, nil
}

func (s *stubPaymentStore) CreateTransactionIfNew(ctx context.Context, txn *models.Transaction) (bool, error) {
	return true, nil
}

func (s *stubPaymentStore) RecordEventIfNew(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	if stored, ok := s.events[event.DedupeKey]; ok {
		return false, stored, nil
	}
	s.nextEventID++
	event.ID = s.nextEventID
	stored := *event
	s.events[event.DedupeKey] = &stored
	return true, &stored, nil
}

func (s *stubPaymentStore) MarkEventProcessed(ctx context.Context, id uint, processingError string) error {
	for _, event := range s.events {
		if event.ID == id {
			now := time.Now()
			event.ProcessedAt = &now
			event.ProcessingError = processingError
		}
	}
	return nil
}

func (s *stubPaymentStore) ResolveUserByEmail(ctx context.Context, email string) (uint, error) {
	if email == "a@x.com" {
		return 7, nil
	}
	return 0, gorm.ErrRecordNotFound
}

const testWebhookSecret = "shhh"

func newWebhookTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store := newStubPaymentStore()
	d := payments.NewDispatcher(store, store, payments.DefaultCatalog(), testWebhookSecret, nil)
	InitializeWebhookController(d)

	app := fiber.New()
	app.Post("/webhooks/payment", HandlePaymentWebhook)
	app.Get("/webhooks/payment", HandlePaymentWebhookVerify)
	return app
}

// signForm computes the digest the gateway would send: sorted key=value
// pairs joined by "&", secret appended, SHA-256 hex.
func signForm(form url.Values, secret string) string {
	keys := make([]string, 0, len(form))
	for key := range form {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+form.Get(key))
	}
	sum := sha256.Sum256([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func postForm(t *testing.T, app *fiber.App, form url.Values) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/payment", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestWebhookVerifyEndpoint(t *testing.T) {
	app := newWebhookTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/webhooks/payment", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestWebhookAcceptsSignedSale(t *testing.T) {
	app := newWebhookTestApp(t)

	form := url.Values{}
	form.Set("eventType", "NewSaleSuccess")
	form.Set("subscriptionId", "sub_1")
	form.Set("email", "a@x.com")
	form.Set("formName", "model-premium")
	form.Set("transactionId", "tx_1")
	form.Set("initialPrice", "29")
	form.Set("signature", signForm(form, testWebhookSecret))

	status, body := postForm(t, app, form)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"ok":true`)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	app := newWebhookTestApp(t)

	form := url.Values{}
	form.Set("eventType", "NewSaleSuccess")
	form.Set("subscriptionId", "sub_1")
	form.Set("email", "a@x.com")
	form.Set("signature", "deadbeef")

	status, body := postForm(t, app, form)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body, "invalid_signature")
}

func TestWebhookAcknowledgesUnknownEventType(t *testing.T) {
	app := newWebhookTestApp(t)

	form := url.Values{}
	form.Set("eventType", "SomethingElse")
	form.Set("subscriptionId", "sub_1")
	form.Set("signature", signForm(form, testWebhookSecret))

	status, body := postForm(t, app, form)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"ignored":true`)
}

func TestWebhookAcknowledgesDuplicateDelivery(t *testing.T) {
	app := newWebhookTestApp(t)

	form := url.Values{}
	form.Set("eventType", "NewSaleSuccess")
	form.Set("subscriptionId", "sub_1")
	form.Set("email", "a@x.com")
	form.Set("formName", "model-premium")
	form.Set("transactionId", "tx_1")
	form.Set("initialPrice", "29")
	form.Set("signature", signForm(form, testWebhookSecret))

	status, _ := postForm(t, app, form)
	require.Equal(t, fiber.StatusOK, status)

	status, body := postForm(t, app, form)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body, `"duplicate":true`)
}
