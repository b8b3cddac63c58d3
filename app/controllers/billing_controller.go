package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/modelboard/modelboard/app/models"
	"github.com/modelboard/modelboard/app/repository"
	"github.com/modelboard/modelboard/internal/pkg/cache"
	"gorm.io/gorm"
)

const subscriptionCacheTTL = time.Minute

var billingRepos *repository.Repositories

// InitializeBillingController wires the read-side repositories for the
// dashboard endpoints.
func InitializeBillingController(repos *repository.Repositories) {
	billingRepos = repos
}

func subscriptionCacheKey(userID uint) string {
	return fmt.Sprintf("billing:subscription:%d", userID)
}

// subscriptionView is the dashboard's picture of a subscription: plan,
// status, period and whether the user is currently entitled.
type subscriptionView struct {
	PlanType           string     `json:"plan_type"`
	PlanName           string     `json:"plan_name"`
	Status             string     `json:"status"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	Amount             float64    `json:"amount"`
	Currency           string     `json:"currency"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	Entitled           bool       `json:"entitled"`
}

// HandleUserSubscription returns the subscription for one user, cached for a
// minute. Lifecycle writes invalidate the cache, so stale reads are bounded
// to the gap between an event and its acknowledgement.
func HandleUserSubscription(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}

	key := subscriptionCacheKey(uint(userID))
	if cached, err := cache.Get(key); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	sub, err := billingRepos.Subscription.GetByUserID(uint(userID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no_subscription"})
	}
	if err != nil {
		log.Printf("billing: subscription lookup for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_lookup_failed"})
	}

	view := subscriptionView{
		PlanType:           sub.PlanType,
		PlanName:           sub.PlanName,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		Amount:             sub.Amount,
		Currency:           sub.Currency,
		CancelledAt:        sub.CancelledAt,
		CancellationReason: sub.CancellationReason,
		Entitled:           sub.IsEntitled(time.Now()),
	}
	payload, err := json.Marshal(view)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "subscription_encode_failed"})
	}
	if err := cache.Set(key, payload, subscriptionCacheTTL); err != nil {
		log.Printf("billing: caching subscription view for user %d failed: %v", userID, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(payload)
}

// HandleUserTransactions returns the user's billing history, newest first.
func HandleUserTransactions(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil || userID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_user_id"})
	}
	limit := c.QueryInt("limit", 50)

	txns, err := billingRepos.Transaction.ListByUserID(uint(userID), limit)
	if err != nil {
		log.Printf("billing: transaction history for user %d failed: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "transaction_lookup_failed"})
	}
	if txns == nil {
		txns = []models.Transaction{}
	}

	return c.JSON(fiber.Map{"transactions": txns})
}

// BillingStatusCache drops cached subscription views when the payments
// dispatcher writes a lifecycle change. Failures are logged, never fatal.
type BillingStatusCache struct{}

func NewBillingStatusCache() *BillingStatusCache {
	return &BillingStatusCache{}
}

func (BillingStatusCache) InvalidateUser(userID uint) {
	if err := cache.Delete(subscriptionCacheKey(userID)); err != nil {
		log.Printf("billing: cache invalidation for user %d failed: %v", userID, err)
	}
}
