package transfer

import "errors"

// ErrSelfTransfer is returned when a donor targets their own wallet.
var ErrSelfTransfer = errors.New("cannot donate to yourself")

// ErrAmountOutOfRange is returned when the amount is outside the configured
// minimum/maximum donation bounds.
var ErrAmountOutOfRange = errors.New("donation amount out of range")
