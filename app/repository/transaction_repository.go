package repository

import (
	"github.com/modelboard/modelboard/app/models"
	"gorm.io/gorm"
)

const defaultTransactionPageSize = 50

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates the dashboard-side ledger reader.
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// ListByUserID returns the user's billing history, newest first.
func (r *transactionRepository) ListByUserID(userID uint, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = defaultTransactionPageSize
	}
	var txns []models.Transaction
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}
