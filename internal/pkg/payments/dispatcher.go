package payments

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelboard/modelboard/app/models"
	"gorm.io/gorm"
)

type handlerFunc func(ctx context.Context, fields Fields) (Ack, error)

// Dispatcher verifies, deduplicates and routes inbound gateway events to
// their lifecycle handlers. It is the sole writer of subscription and ledger
// rows; the directory UI only reads them.
//
// Handlers are registered in a map keyed by event type, so supporting a new
// gateway event is an additional entry rather than a change to a central
// switch.
type Dispatcher struct {
	repo     Repository
	users    UserResolver
	catalog  *Catalog
	secret   string
	cache    StatusCache
	handlers map[string]handlerFunc
	now      func() time.Time
}

// NewDispatcher wires a dispatcher from its injected collaborators. cache may
// be nil when no cached views need invalidation (tests, migration tooling).
func NewDispatcher(repo Repository, users UserResolver, catalog *Catalog, secret string, cache StatusCache) *Dispatcher {
	d := &Dispatcher{
		repo:    repo,
		users:   users,
		catalog: catalog,
		secret:  secret,
		cache:   cache,
		now:     time.Now,
	}
	d.handlers = map[string]handlerFunc{
		EventNewSale:      d.handleNewSale,
		EventRenewal:      d.handleRenewal,
		EventCancellation: d.handleCancellation,
		EventExpiration:   d.handleExpiration,
		EventChargeback:   d.handleChargeback,
		EventRefund:       d.handleRefund,
	}
	return d
}

// Handle processes one inbound event to completion. Every return path is
// either a success acknowledgement (possibly a deliberate no-op) or a
// classified error; the gateway is never left retrying an event we have
// decided to ignore.
func (d *Dispatcher) Handle(ctx context.Context, fields Fields) (Ack, error) {
	eventType := fields.String(FieldEventType)
	claimed := fields.String(FieldSignature)

	if !VerifySignature(fields, claimed, d.secret) {
		log.Printf("payments: rejected %q event with bad or missing signature", eventType)
		return Ack{}, ErrSignatureRejected
	}

	event := &models.WebhookEvent{
		DedupeKey: dedupeKey(eventType, fields),
		EventType: eventType,
		Payload:   fields.Encode(),
		// True only when a configured secret actually verified the digest;
		// the empty-secret degraded mode stores false.
		SignatureValid: strings.TrimSpace(d.secret) != "",
	}
	created, stored, err := d.repo.RecordEventIfNew(ctx, event)
	if err != nil {
		return Ack{}, fmt.Errorf("record webhook event: %w", err)
	}
	if !created {
		// Only a completed event is a duplicate. An audit row whose first
		// delivery failed mid-handler answered 500, so the gateway's retry
		// must reprocess; every handler write is idempotent, so re-running
		// one converges instead of double-applying.
		if stored.ProcessedAt != nil && stored.ProcessingError == "" {
			log.Printf("payments: duplicate %q event %s acknowledged without reprocessing", eventType, stored.DedupeKey)
			return Ack{Duplicate: true}, nil
		}
		log.Printf("payments: redelivered %q event %s did not complete, reprocessing", eventType, stored.DedupeKey)
	}

	handler, ok := d.handlers[eventType]
	if !ok {
		log.Printf("payments: ignoring unhandled event type %q", eventType)
		d.markProcessed(stored.ID, nil)
		return Ack{Ignored: true, Note: "unhandled event type"}, nil
	}

	ack, err := d.run(ctx, handler, fields)
	d.markProcessed(stored.ID, err)
	if err != nil {
		log.Printf("payments: %q event failed: %v (subscription=%s transaction=%s)",
			eventType, err, fields.String(FieldSubscriptionID), fields.String(FieldTransactionID))
		return Ack{}, err
	}
	return ack, nil
}

// run isolates a handler so a panic in one event type can never take down the
// dispatcher or leak an unlogged partial write.
func (d *Dispatcher) run(ctx context.Context, handler handlerFunc, fields Fields) (ack Ack, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, fields)
}

func (d *Dispatcher) handleNewSale(ctx context.Context, fields Fields) (Ack, error) {
	cmd, err := newSaleCommand(fields)
	if err != nil {
		log.Printf("payments: sale event rejected by validation: %v", err)
		return Ack{Ignored: true, Note: "invalid sale payload"}, nil
	}

	userID, err := d.users.ResolveUserByEmail(ctx, cmd.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("payments: sale for unknown email %q acknowledged as orphan", cmd.Email)
		return Ack{Ignored: true, Note: "unknown user"}, nil
	}
	if err != nil {
		return Ack{}, fmt.Errorf("resolve user: %w", err)
	}

	price := cmd.InitialPrice
	if price == 0 {
		price = cmd.RecurringPrice
	}
	plan := d.catalog.Resolve(cmd.PlanID, price)
	if price == 0 {
		price = plan.NominalPrice
	}
	currency := cmd.Currency
	if currency == "" {
		currency = "USD"
	}

	now := d.now()
	sub := &models.Subscription{
		UserID:                 userID,
		ExternalSubscriptionID: cmd.SubscriptionID,
		PlanType:               plan.Type,
		PlanName:               plan.DisplayName,
		Status:                 models.SubscriptionStatusActive,
		CurrentPeriodStart:     now,
		CurrentPeriodEnd:       now.AddDate(0, 1, 0),
		Amount:                 price,
		Currency:               currency,
		CancelledAt:            nil,
		CancellationReason:     "",
	}
	if err := d.repo.UpsertSubscriptionByUser(ctx, sub); err != nil {
		return Ack{}, fmt.Errorf("upsert subscription: %w", err)
	}

	if err := d.appendTransaction(ctx, userID, cmd.TransactionID, cmd.SubscriptionID, models.TransactionTypeNewSale, price, currency, plan.Type); err != nil {
		log.Printf("payments: subscription %s stored but sale ledger append failed: %v", cmd.SubscriptionID, err)
		return Ack{}, err
	}

	d.invalidate(userID)
	return Ack{}, nil
}

func (d *Dispatcher) handleRenewal(ctx context.Context, fields Fields) (Ack, error) {
	cmd, err := newRenewalCommand(fields)
	if err != nil {
		log.Printf("payments: renewal event rejected by validation: %v", err)
		return Ack{Ignored: true, Note: "invalid renewal payload"}, nil
	}

	sub, ack, err := d.findSubscription(ctx, cmd.SubscriptionID, EventRenewal)
	if sub == nil {
		return ack, err
	}

	amount := cmd.BilledAmount
	if amount == 0 {
		amount = sub.Amount
	}
	currency := cmd.Currency
	if currency == "" {
		currency = sub.Currency
	}

	now := d.now()
	if _, err := d.repo.UpdateSubscriptionByExternalID(ctx, cmd.SubscriptionID, nil, map[string]interface{}{
		"status":               models.SubscriptionStatusActive,
		"current_period_start": now,
		"current_period_end":   now.AddDate(0, 1, 0),
	}); err != nil {
		return Ack{}, fmt.Errorf("advance subscription period: %w", err)
	}

	if err := d.appendTransaction(ctx, sub.UserID, cmd.TransactionID, cmd.SubscriptionID, models.TransactionTypeRenewal, amount, currency, sub.PlanType); err != nil {
		log.Printf("payments: subscription %s renewed but ledger append failed: %v", cmd.SubscriptionID, err)
		return Ack{}, err
	}

	d.invalidate(sub.UserID)
	return Ack{}, nil
}

func (d *Dispatcher) handleCancellation(ctx context.Context, fields Fields) (Ack, error) {
	cmd, err := newCancellationCommand(fields)
	if err != nil {
		log.Printf("payments: cancellation event rejected by validation: %v", err)
		return Ack{Ignored: true, Note: "invalid cancellation payload"}, nil
	}

	sub, ack, err := d.findSubscription(ctx, cmd.SubscriptionID, EventCancellation)
	if sub == nil {
		return ack, err
	}

	reason := cmd.Reason
	if reason == "" {
		reason = models.CancellationReasonUserRequested
	}

	// Cancellation schedules the end of entitlement, it does not cut it off:
	// current_period_end is deliberately left untouched. Subscriptions a
	// chargeback already suspended (or that have expired) are not cancellable.
	now := d.now()
	rows, err := d.repo.UpdateSubscriptionByExternalID(ctx, cmd.SubscriptionID, []string{
		models.SubscriptionStatusActive,
		models.SubscriptionStatusCancelled,
	}, map[string]interface{}{
		"status":              models.SubscriptionStatusCancelled,
		"cancelled_at":        now,
		"cancellation_reason": reason,
	})
	if err != nil {
		return Ack{}, fmt.Errorf("cancel subscription: %w", err)
	}
	if rows == 0 {
		log.Printf("payments: cancellation of %s skipped, status is %s", cmd.SubscriptionID, sub.Status)
		return Ack{Ignored: true, Note: "subscription not cancellable"}, nil
	}

	d.invalidate(sub.UserID)
	return Ack{}, nil
}

func (d *Dispatcher) handleExpiration(ctx context.Context, fields Fields) (Ack, error) {
	cmd, err := newExpirationCommand(fields)
	if err != nil {
		log.Printf("payments: expiration event rejected by validation: %v", err)
		return Ack{Ignored: true, Note: "invalid expiration payload"}, nil
	}

	sub, ack, err := d.findSubscription(ctx, cmd.SubscriptionID, EventExpiration)
	if sub == nil {
		return ack, err
	}

	if _, err := d.repo.UpdateSubscriptionByExternalID(ctx, cmd.SubscriptionID, nil, map[string]interface{}{
		"status": models.SubscriptionStatusExpired,
	}); err != nil {
		return Ack{}, fmt.Errorf("expire subscription: %w", err)
	}

	d.invalidate(sub.UserID)
	return Ack{}, nil
}

func (d *Dispatcher) handleChargeback(ctx context.Context, fields Fields) (Ack, error) {
	cmd, err := newDisputeCommand(fields)
	if err != nil {
		log.Printf("payments: chargeback event rejected by validation: %v", err)
		return Ack{Ignored: true, Note: "invalid chargeback payload"}, nil
	}

	sub, ack, err := d.findSubscription(ctx, cmd.SubscriptionID, EventChargeback)
	if sub == nil {
		return ack, err
	}

	// Entitlement is revoked immediately, unlike a cancellation.
	if _, err := d.repo.UpdateSubscriptionByExternalID(ctx, cmd.SubscriptionID, nil, map[string]interface{}{
		"status": models.SubscriptionStatusSuspended,
	}); err != nil {
		return Ack{}, fmt.Errorf("suspend subscription: %w", err)
	}

	amount := cmd.DisputedAmount(sub.Amount)
	currency := cmd.Currency
	if currency == "" {
		currency = sub.Currency
	}
	if err := d.appendTransaction(ctx, sub.UserID, cmd.TransactionID, cmd.SubscriptionID, models.TransactionTypeChargeback, -math.Abs(amount), currency, sub.PlanType); err != nil {
		log.Printf("payments: subscription %s suspended but chargeback ledger append failed: %v", cmd.SubscriptionID, err)
		return Ack{}, err
	}

	d.invalidate(sub.UserID)
	return Ack{}, nil
}

func (d *Dispatcher) handleRefund(ctx context.Context, fields Fields) (Ack, error) {
	cmd, err := newDisputeCommand(fields)
	if err != nil {
		log.Printf("payments: refund event rejected by validation: %v", err)
		return Ack{Ignored: true, Note: "invalid refund payload"}, nil
	}

	sub, ack, err := d.findSubscription(ctx, cmd.SubscriptionID, EventRefund)
	if sub == nil {
		return ack, err
	}

	// A refund on its own does not change entitlement; only the ledger moves.
	amount := cmd.DisputedAmount(sub.Amount)
	currency := cmd.Currency
	if currency == "" {
		currency = sub.Currency
	}
	if err := d.appendTransaction(ctx, sub.UserID, cmd.TransactionID, cmd.SubscriptionID, models.TransactionTypeRefund, -math.Abs(amount), currency, sub.PlanType); err != nil {
		return Ack{}, err
	}

	return Ack{}, nil
}

// findSubscription looks up the subscription an event references. A nil
// subscription means the caller should return the accompanying ack/error:
// unknown ids are orphan events that get logged and acknowledged so the
// gateway stops redelivering them.
func (d *Dispatcher) findSubscription(ctx context.Context, externalID, eventType string) (*models.Subscription, Ack, error) {
	sub, err := d.repo.GetSubscriptionByExternalID(ctx, externalID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("payments: %s for unknown subscription %q acknowledged as orphan", eventType, externalID)
		return nil, Ack{Ignored: true, Note: "unknown subscription"}, nil
	}
	if err != nil {
		return nil, Ack{}, fmt.Errorf("load subscription: %w", err)
	}
	return sub, Ack{}, nil
}

func (d *Dispatcher) appendTransaction(ctx context.Context, userID uint, externalTxnID, externalSubID, txnType string, amount float64, currency, planType string) error {
	if externalTxnID == "" {
		// Keep the unique ledger index meaningful when the gateway omits a
		// transaction id.
		externalTxnID = "gen:" + uuid.NewString()
	}

	txn := &models.Transaction{
		ReferenceID:            uuid.NewString(),
		UserID:                 userID,
		ExternalTransactionID:  externalTxnID,
		ExternalSubscriptionID: externalSubID,
		Type:                   txnType,
		Amount:                 amount,
		Currency:               currency,
		Status:                 models.TransactionStatusCompleted,
		PlanType:               planType,
	}
	created, err := d.repo.CreateTransactionIfNew(ctx, txn)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	if !created {
		log.Printf("payments: transaction %s already in ledger, append skipped", externalTxnID)
	}
	return nil
}

func (d *Dispatcher) invalidate(userID uint) {
	if d.cache != nil {
		d.cache.InvalidateUser(userID)
	}
}

func (d *Dispatcher) markProcessed(eventID uint, processingErr error) {
	msg := ""
	if processingErr != nil {
		msg = processingErr.Error()
	}
	// The outcome write must land even when the request context has already
	// expired; a lost error marker would make the next redelivery a false
	// duplicate.
	if err := d.repo.MarkEventProcessed(context.Background(), eventID, msg); err != nil {
		log.Printf("payments: failed to mark webhook event %d processed: %v", eventID, err)
	}
}

// dedupeKey prefers the gateway transaction id; events without one (such as
// cancellations) fall back to a hash of the full payload, so only exact
// redeliveries collapse.
func dedupeKey(eventType string, fields Fields) string {
	if txnID := fields.String(FieldTransactionID); txnID != "" {
		return eventType + ":" + txnID
	}
	sum := sha256.Sum256([]byte(fields.Encode()))
	return eventType + ":hash:" + hex.EncodeToString(sum[:])
}
