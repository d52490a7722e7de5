// Package ledgertest provides an in-memory ledger.Store for tests.
package ledgertest

import (
	"context"
	"fmt"

	"givehub/internal/domain"
	"givehub/internal/ledger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FakeStore implements ledger.Store in memory. Atomically snapshots all
// state and restores it when the closure fails, mirroring a database
// rollback. Not safe for concurrent use; tests drive it from one goroutine.
type FakeStore struct {
	Users         map[string]*domain.User
	Wallets       map[string]*domain.Wallet // keyed by wallet id
	Donations     []*domain.Donation
	Transactions  []*domain.Transaction
	Beneficiaries map[string]*domain.Beneficiary
	Tokens        map[string]*domain.RefreshToken

	// FailOn injects an error for a method name, e.g. "CreateTransaction".
	FailOn map[string]error
}

// New creates an empty FakeStore.
func New() *FakeStore {
	return &FakeStore{
		Users:         map[string]*domain.User{},
		Wallets:       map[string]*domain.Wallet{},
		Beneficiaries: map[string]*domain.Beneficiary{},
		Tokens:        map[string]*domain.RefreshToken{},
		FailOn:        map[string]error{},
	}
}

// Make sure we conform to the interface
var _ ledger.Store = (*FakeStore)(nil)

// AddUserWithWallet seeds a user plus wallet and returns the user.
func (f *FakeStore) AddUserWithWallet(id, email, firstName, lastName string, balance decimal.Decimal) *domain.User {
	wallet := &domain.Wallet{ID: "wallet-" + id, UserID: id, Balance: balance}
	user := &domain.User{
		ID:        id,
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
	}
	f.Users[id] = user
	f.Wallets[wallet.ID] = wallet
	return user
}

// WalletOf returns the seeded wallet of a user.
func (f *FakeStore) WalletOf(userID string) *domain.Wallet {
	for _, w := range f.Wallets {
		if w.UserID == userID {
			return w
		}
	}
	return nil
}

// TotalBalance sums every wallet balance, for conservation checks.
func (f *FakeStore) TotalBalance() decimal.Decimal {
	total := decimal.Zero
	for _, w := range f.Wallets {
		total = total.Add(w.Balance)
	}
	return total
}

func (f *FakeStore) fail(method string) error {
	return f.FailOn[method]
}

// Atomically snapshots state, runs fn, and restores the snapshot when fn fails.
func (f *FakeStore) Atomically(ctx context.Context, fn func(ledger.Store) error) error {
	if err := f.fail("Atomically"); err != nil {
		return err
	}
	wallets := make(map[string]*domain.Wallet, len(f.Wallets))
	for id, w := range f.Wallets {
		cp := *w
		wallets[id] = &cp
	}
	donations := append([]*domain.Donation(nil), f.Donations...)
	transactions := make([]*domain.Transaction, len(f.Transactions))
	for i, tx := range f.Transactions {
		cp := *tx
		transactions[i] = &cp
	}

	if err := fn(f); err != nil {
		f.Wallets = wallets
		f.Donations = donations
		f.Transactions = transactions
		return err
	}
	return nil
}

// --- users ---

func (f *FakeStore) CreateUser(ctx context.Context, user *domain.User) error {
	if err := f.fail("CreateUser"); err != nil {
		return err
	}
	for _, u := range f.Users {
		if u.Email == user.Email {
			return ledger.ErrAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Wallet.ID == "" {
		user.Wallet.ID = "wallet-" + user.ID
	}
	user.Wallet.UserID = user.ID
	wallet := user.Wallet
	f.Users[user.ID] = user
	f.Wallets[wallet.ID] = &wallet
	return nil
}

func (f *FakeStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range f.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user: %w", ledger.ErrNotFound)
}

func (f *FakeStore) FindUserWithWallet(ctx context.Context, id string) (*domain.User, error) {
	if err := f.fail("FindUserWithWallet"); err != nil {
		return nil, err
	}
	u, ok := f.Users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", ledger.ErrNotFound)
	}
	w := f.WalletOf(id)
	if w == nil {
		return nil, fmt.Errorf("wallet: %w", ledger.ErrNotFound)
	}
	cp := *u
	cp.Wallet = *w
	return &cp, nil
}

// --- wallets ---

func (f *FakeStore) FindWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	if w := f.WalletOf(userID); w != nil {
		cp := *w
		return &cp, nil
	}
	return nil, fmt.Errorf("wallet: %w", ledger.ErrNotFound)
}

func (f *FakeStore) LockWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	if err := f.fail("LockWallet"); err != nil {
		return nil, err
	}
	if w, ok := f.Wallets[walletID]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, fmt.Errorf("wallet: %w", ledger.ErrNotFound)
}

func (f *FakeStore) IncrementBalance(ctx context.Context, walletID string, amount decimal.Decimal) error {
	if err := f.fail("IncrementBalance"); err != nil {
		return err
	}
	w, ok := f.Wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet: %w", ledger.ErrNotFound)
	}
	w.Balance = w.Balance.Add(amount)
	return nil
}

func (f *FakeStore) DecrementBalance(ctx context.Context, walletID string, amount decimal.Decimal) error {
	if err := f.fail("DecrementBalance"); err != nil {
		return err
	}
	w, ok := f.Wallets[walletID]
	if !ok {
		return fmt.Errorf("wallet: %w", ledger.ErrNotFound)
	}
	if w.Balance.LessThan(amount) {
		return ledger.ErrInsufficientFunds
	}
	w.Balance = w.Balance.Sub(amount)
	return nil
}

// --- donations ---

func (f *FakeStore) CreateDonation(ctx context.Context, donation *domain.Donation) error {
	if err := f.fail("CreateDonation"); err != nil {
		return err
	}
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	cp := *donation
	f.Donations = append(f.Donations, &cp)
	return nil
}

func (f *FakeStore) FindDonationByID(ctx context.Context, id string) (*domain.Donation, error) {
	for _, d := range f.Donations {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("donation: %w", ledger.ErrNotFound)
}

func (f *FakeStore) CountDonations(ctx context.Context, donorID, beneficiaryID string) (int64, error) {
	if err := f.fail("CountDonations"); err != nil {
		return 0, err
	}
	var count int64
	for _, d := range f.Donations {
		if d.DonorID == donorID && d.BeneficiaryID == beneficiaryID {
			count++
		}
	}
	return count, nil
}

func (f *FakeStore) ListDonationsByDonor(ctx context.Context, donorID string, offset, limit int) ([]domain.Donation, int64, error) {
	var all []domain.Donation
	for _, d := range f.Donations {
		if d.DonorID == donorID {
			all = append(all, *d)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// --- transactions ---

func (f *FakeStore) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := f.fail("CreateTransaction"); err != nil {
		return err
	}
	for _, existing := range f.Transactions {
		if existing.Reference == tx.Reference {
			return fmt.Errorf("reference %s: %w", tx.Reference, ledger.ErrDuplicateReference)
		}
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	cp := *tx
	f.Transactions = append(f.Transactions, &cp)
	return nil
}

func (f *FakeStore) FindTransactionByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	if err := f.fail("FindTransactionByReference"); err != nil {
		return nil, err
	}
	for _, tx := range f.Transactions {
		if tx.Reference == reference {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("transaction: %w", ledger.ErrNotFound)
}

func (f *FakeStore) MarkTransactionSuccess(ctx context.Context, id string) error {
	if err := f.fail("MarkTransactionSuccess"); err != nil {
		return err
	}
	for _, tx := range f.Transactions {
		if tx.ID == id {
			tx.Status = domain.TransactionSuccess
			return nil
		}
	}
	return fmt.Errorf("transaction: %w", ledger.ErrNotFound)
}

func (f *FakeStore) ListTransactionsByWallet(ctx context.Context, walletID string, offset, limit int) ([]domain.Transaction, int64, error) {
	var all []domain.Transaction
	for _, tx := range f.Transactions {
		if tx.WalletID == walletID {
			all = append(all, *tx)
		}
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// TransactionsForDonation returns the ledger entries referencing a donation.
func (f *FakeStore) TransactionsForDonation(donationID string) []*domain.Transaction {
	var out []*domain.Transaction
	for _, tx := range f.Transactions {
		if tx.DonationID != nil && *tx.DonationID == donationID {
			out = append(out, tx)
		}
	}
	return out
}

// --- beneficiaries ---

func (f *FakeStore) CreateBeneficiary(ctx context.Context, b *domain.Beneficiary) error {
	for _, existing := range f.Beneficiaries {
		if existing.UserID == b.UserID && existing.Nickname != nil && b.Nickname != nil && *existing.Nickname == *b.Nickname {
			return ledger.ErrAlreadyExists
		}
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	cp := *b
	f.Beneficiaries[b.ID] = &cp
	return nil
}

func (f *FakeStore) FindBeneficiaryByID(ctx context.Context, userID, id string) (*domain.Beneficiary, error) {
	if b, ok := f.Beneficiaries[id]; ok && b.UserID == userID {
		cp := *b
		return &cp, nil
	}
	return nil, fmt.Errorf("beneficiary: %w", ledger.ErrNotFound)
}

func (f *FakeStore) ListBeneficiaries(ctx context.Context, userID string) ([]domain.Beneficiary, error) {
	var out []domain.Beneficiary
	for _, b := range f.Beneficiaries {
		if b.UserID == userID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *FakeStore) UpdateBeneficiary(ctx context.Context, b *domain.Beneficiary) error {
	if _, ok := f.Beneficiaries[b.ID]; !ok {
		return fmt.Errorf("beneficiary: %w", ledger.ErrNotFound)
	}
	cp := *b
	f.Beneficiaries[b.ID] = &cp
	return nil
}

func (f *FakeStore) DeleteBeneficiary(ctx context.Context, userID, id string) error {
	if b, ok := f.Beneficiaries[id]; ok && b.UserID == userID {
		delete(f.Beneficiaries, id)
		return nil
	}
	return fmt.Errorf("beneficiary: %w", ledger.ErrNotFound)
}

// --- refresh tokens ---

func (f *FakeStore) SaveRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	cp := *token
	f.Tokens[token.Token] = &cp
	return nil
}

func (f *FakeStore) FindRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	if rt, ok := f.Tokens[token]; ok {
		cp := *rt
		return &cp, nil
	}
	return nil, fmt.Errorf("refresh token: %w", ledger.ErrNotFound)
}

func (f *FakeStore) RevokeRefreshToken(ctx context.Context, token string) error {
	if rt, ok := f.Tokens[token]; ok {
		rt.Revoked = true
		return nil
	}
	return fmt.Errorf("refresh token: %w", ledger.ErrNotFound)
}
