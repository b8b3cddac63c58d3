package payments

import (
	"context"
	"time"

	"github.com/modelboard/modelboard/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations the dispatcher needs. All subscription
// writes are single atomic statements keyed on a unique index; there is no
// read-modify-write gap for concurrent deliveries to fall into.
type Repository interface {
	// UpsertSubscriptionByUser inserts or replaces the one subscription row a
	// user may have. Redelivered sale events converge on the same row.
	UpsertSubscriptionByUser(ctx context.Context, sub *models.Subscription) error
	GetSubscriptionByExternalID(ctx context.Context, externalID string) (*models.Subscription, error)
	// UpdateSubscriptionByExternalID applies updates in one conditional
	// UPDATE. A non-empty fromStatuses restricts which current statuses the
	// transition may overwrite; the returned count is rows matched.
	UpdateSubscriptionByExternalID(ctx context.Context, externalID string, fromStatuses []string, updates map[string]interface{}) (int64, error)
	// CreateTransactionIfNew appends a ledger row unless the gateway
	// transaction id was already recorded. Reports whether a row was written.
	CreateTransactionIfNew(ctx context.Context, txn *models.Transaction) (bool, error)
	// RecordEventIfNew persists an inbound event for auditing, deduplicated
	// by its dedupe key. Returns the stored row either way.
	RecordEventIfNew(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkEventProcessed(ctx context.Context, id uint, processingError string) error
}

// UserResolver maps a gateway-reported email to a directory user. It is the
// single point of integration with the profile store.
type UserResolver interface {
	ResolveUserByEmail(ctx context.Context, email string) (uint, error)
}

// StatusCache invalidates cached subscription views after a lifecycle write.
// Implementations must be best-effort; the dispatcher ignores their failures.
type StatusCache interface {
	InvalidateUser(userID uint)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payments repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) UpsertSubscriptionByUser(ctx context.Context, sub *models.Subscription) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_subscription_id",
			"plan_type",
			"plan_name",
			"status",
			"current_period_start",
			"current_period_end",
			"amount",
			"currency",
			"cancelled_at",
			"cancellation_reason",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.WithContext(ctx).Where("user_id = ?", sub.UserID).First(sub).Error
}

func (r *gormRepository) GetSubscriptionByExternalID(ctx context.Context, externalID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).Where("external_subscription_id = ?", externalID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) UpdateSubscriptionByExternalID(ctx context.Context, externalID string, fromStatuses []string, updates map[string]interface{}) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Subscription{}).Where("external_subscription_id = ?", externalID)
	if len(fromStatuses) > 0 {
		query = query.Where("status IN ?", fromStatuses)
	}
	tx := query.Updates(updates)
	return tx.RowsAffected, tx.Error
}

func (r *gormRepository) CreateTransactionIfNew(ctx context.Context, txn *models.Transaction) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "external_transaction_id"},
		},
		DoNothing: true,
	}).Create(txn)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) RecordEventIfNew(ctx context.Context, event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "dedupe_key"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := r.db.WithContext(ctx).Where("dedupe_key = ?", event.DedupeKey).First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkEventProcessed(ctx context.Context, id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.WithContext(ctx).Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

type gormUserResolver struct {
	db *gorm.DB
}

// NewUserResolver creates a resolver reading the directory's user table.
func NewUserResolver(db *gorm.DB) UserResolver {
	return &gormUserResolver{db: db}
}

func (r *gormUserResolver) ResolveUserByEmail(ctx context.Context, email string) (uint, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("id").Where("email = ?", email).First(&user).Error; err != nil {
		return 0, err
	}
	return user.ID, nil
}
