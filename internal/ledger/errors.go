package ledger

import "errors"

// ErrNotFound is returned when a user, wallet, donation or transaction does not exist.
var ErrNotFound = errors.New("record not found")

// ErrInsufficientFunds is returned when a wallet balance cannot cover a debit.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrDuplicateReference is returned when a transaction reference already exists.
// Generated references are unique, so this guards against a programming error
// rather than an expected condition.
var ErrDuplicateReference = errors.New("duplicate transaction reference")

// ErrAlreadyExists is returned when a uniqueness constraint other than a
// transaction reference is violated, e.g. a taken email or nickname.
var ErrAlreadyExists = errors.New("record already exists")
