package leave

import "errors"

var (
	ErrRequestNotFound     = errors.New("leave request not found")
	ErrInvalidState        = errors.New("leave request is not pending")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
)
