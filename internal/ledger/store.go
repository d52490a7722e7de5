package ledger

import (
	"context"

	"givehub/internal/domain"

	"github.com/shopspring/decimal"
)

// UserStore defines the interface for managing users.
type UserStore interface {
	// CreateUser persists a new user together with their wallet.
	CreateUser(ctx context.Context, user *domain.User) error

	// FindUserByEmail retrieves a user by email.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindUserWithWallet retrieves a user by id with the wallet preloaded.
	FindUserWithWallet(ctx context.Context, id string) (*domain.User, error)
}

// WalletStore defines the interface for reading and mutating wallets.
// Balance mutations must only happen inside Atomically.
type WalletStore interface {
	// FindWalletByUserID retrieves the wallet owned by a user.
	FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error)

	// LockWallet loads a wallet row under an exclusive row lock. It is only
	// meaningful inside Atomically.
	LockWallet(ctx context.Context, walletID string) (*domain.Wallet, error)

	// IncrementBalance adds amount to a wallet balance.
	IncrementBalance(ctx context.Context, walletID string, amount decimal.Decimal) error

	// DecrementBalance subtracts amount from a wallet balance. It fails with
	// ErrInsufficientFunds when the balance cannot cover the amount.
	DecrementBalance(ctx context.Context, walletID string, amount decimal.Decimal) error
}

// DonationStore defines the interface for donation records.
type DonationStore interface {
	CreateDonation(ctx context.Context, donation *domain.Donation) error
	FindDonationByID(ctx context.Context, id string) (*domain.Donation, error)

	// CountDonations returns how many donations a donor has made to one beneficiary.
	CountDonations(ctx context.Context, donorID, beneficiaryID string) (int64, error)

	// ListDonationsByDonor returns a page of a donor's donations plus the total count.
	ListDonationsByDonor(ctx context.Context, donorID string, offset, limit int) ([]domain.Donation, int64, error)
}

// TransactionStore defines the interface for ledger entries.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	FindTransactionByReference(ctx context.Context, reference string) (*domain.Transaction, error)

	// MarkTransactionSuccess flips a transaction to SUCCESS.
	MarkTransactionSuccess(ctx context.Context, id string) error

	// ListTransactionsByWallet returns a page of a wallet's ledger entries plus the total count.
	ListTransactionsByWallet(ctx context.Context, walletID string, offset, limit int) ([]domain.Transaction, int64, error)
}

// BeneficiaryStore defines the interface for saved beneficiaries.
type BeneficiaryStore interface {
	CreateBeneficiary(ctx context.Context, b *domain.Beneficiary) error
	FindBeneficiaryByID(ctx context.Context, userID, id string) (*domain.Beneficiary, error)
	ListBeneficiaries(ctx context.Context, userID string) ([]domain.Beneficiary, error)
	UpdateBeneficiary(ctx context.Context, b *domain.Beneficiary) error
	DeleteBeneficiary(ctx context.Context, userID, id string) error
}

// TokenStore defines the interface for refresh tokens.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, token *domain.RefreshToken) error
	FindRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

// Store composes the full data layer and is the single source of truth.
// Atomically runs fn inside one database transaction; the Store handed to fn
// is scoped to that transaction, and every write in fn commits or aborts as
// one unit.
type Store interface {
	UserStore
	WalletStore
	DonationStore
	TransactionStore
	BeneficiaryStore
	TokenStore

	Atomically(ctx context.Context, fn func(Store) error) error
}
