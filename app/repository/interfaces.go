package repository

import (
	"github.com/modelboard/modelboard/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// SubscriptionRepository is the read surface the dashboard uses. All
// subscription writes go through the payments dispatcher.
type SubscriptionRepository interface {
	GetByUserID(userID uint) (*models.Subscription, error)
}

// TransactionRepository exposes the billing history for one user, newest
// first. The ledger is append-only; there is deliberately no update or
// delete here.
type TransactionRepository interface {
	ListByUserID(userID uint, limit int) ([]models.Transaction, error)
}

// Repositories holds all repository instances
type Repositories struct {
	User         UserRepository
	Subscription SubscriptionRepository
	Transaction  TransactionRepository
}
