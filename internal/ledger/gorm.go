package ledger

import (
	"context"
	"errors"
	"fmt"

	"givehub/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// gormStore implements Store on top of a relational database via GORM.
type gormStore struct {
	db *gorm.DB
}

// New creates a Store backed by the given database handle.
func New(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Make sure we conform to the interface
var _ Store = (*gormStore)(nil)

// Atomically runs fn inside one database transaction. The Store passed to fn
// is bound to that transaction, so any error from fn rolls back every write.
func (s *gormStore) Atomically(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// --- users ---

func (s *gormStore) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *gormStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateNotFound(err, "user")
	}
	return &user, nil
}

func (s *gormStore) FindUserWithWallet(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Preload("Wallet").Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateNotFound(err, "user")
	}
	if user.Wallet.ID == "" {
		return nil, fmt.Errorf("wallet for user %s: %w", id, ErrNotFound)
	}
	return &user, nil
}

// --- wallets ---

func (s *gormStore) FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		return nil, translateNotFound(err, "wallet")
	}
	return &wallet, nil
}

func (s *gormStore) LockWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	var wallet domain.Wallet
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", walletID).
		First(&wallet).Error
	if err != nil {
		return nil, translateNotFound(err, "wallet")
	}
	return &wallet, nil
}

func (s *gormStore) IncrementBalance(ctx context.Context, walletID string, amount decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&domain.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("increment balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("wallet %s: %w", walletID, ErrNotFound)
	}
	return nil
}

// DecrementBalance guards the subtraction in the WHERE clause so the
// balance check and the write happen on the same locked row.
func (s *gormStore) DecrementBalance(ctx context.Context, walletID string, amount decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&domain.Wallet{}).
		Where("id = ? AND balance >= ?", walletID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("decrement balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// --- donations ---

func (s *gormStore) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	if err := s.db.WithContext(ctx).Create(donation).Error; err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

func (s *gormStore) FindDonationByID(ctx context.Context, id string) (*domain.Donation, error) {
	var donation domain.Donation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&donation).Error; err != nil {
		return nil, translateNotFound(err, "donation")
	}
	return &donation, nil
}

func (s *gormStore) CountDonations(ctx context.Context, donorID, beneficiaryID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&domain.Donation{}).
		Where("donor_id = ? AND beneficiary_id = ?", donorID, beneficiaryID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count donations: %w", err)
	}
	return count, nil
}

func (s *gormStore) ListDonationsByDonor(ctx context.Context, donorID string, offset, limit int) ([]domain.Donation, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.Donation{}).
		Where("donor_id = ?", donorID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count donor donations: %w", err)
	}
	var donations []domain.Donation
	err := s.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&donations).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list donor donations: %w", err)
	}
	return donations, total, nil
}

// --- transactions ---

func (s *gormStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("reference %s: %w", tx.Reference, ErrDuplicateReference)
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *gormStore) FindTransactionByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	var tx domain.Transaction
	if err := s.db.WithContext(ctx).Where("reference = ?", reference).First(&tx).Error; err != nil {
		return nil, translateNotFound(err, "transaction")
	}
	return &tx, nil
}

func (s *gormStore) MarkTransactionSuccess(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("id = ?", id).
		Update("status", domain.TransactionSuccess)
	if res.Error != nil {
		return fmt.Errorf("mark transaction success: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *gormStore) ListTransactionsByWallet(ctx context.Context, walletID string, offset, limit int) ([]domain.Transaction, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&domain.Transaction{}).
		Where("wallet_id = ?", walletID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}
	var txs []domain.Transaction
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	return txs, total, nil
}

// --- beneficiaries ---

func (s *gormStore) CreateBeneficiary(ctx context.Context, b *domain.Beneficiary) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("create beneficiary: %w", err)
	}
	return nil
}

func (s *gormStore) FindBeneficiaryByID(ctx context.Context, userID, id string) (*domain.Beneficiary, error) {
	var b domain.Beneficiary
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&b).Error; err != nil {
		return nil, translateNotFound(err, "beneficiary")
	}
	return &b, nil
}

func (s *gormStore) ListBeneficiaries(ctx context.Context, userID string) ([]domain.Beneficiary, error) {
	var bs []domain.Beneficiary
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&bs).Error; err != nil {
		return nil, fmt.Errorf("list beneficiaries: %w", err)
	}
	return bs, nil
}

func (s *gormStore) UpdateBeneficiary(ctx context.Context, b *domain.Beneficiary) error {
	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("update beneficiary: %w", err)
	}
	return nil
}

func (s *gormStore) DeleteBeneficiary(ctx context.Context, userID, id string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&domain.Beneficiary{})
	if res.Error != nil {
		return fmt.Errorf("delete beneficiary: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("beneficiary %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- refresh tokens ---

func (s *gormStore) SaveRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (s *gormStore) FindRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	var rt domain.RefreshToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, translateNotFound(err, "refresh token")
	}
	return &rt, nil
}

func (s *gormStore) RevokeRefreshToken(ctx context.Context, token string) error {
	res := s.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("token = ?", token).
		Update("revoked", true)
	if res.Error != nil {
		return fmt.Errorf("revoke refresh token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("refresh token: %w", ErrNotFound)
	}
	return nil
}

// translateNotFound maps gorm's record-not-found to the package sentinel.
func translateNotFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("find %s: %w", what, err)
}
