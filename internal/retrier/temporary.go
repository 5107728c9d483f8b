package retrier

import (
	"context"
	"errors"
)

// Temporary 由可重試的錯誤實作
type Temporary interface {
	Temporary() bool
}

// IsTemporary reports whether err asks for another attempt. A canceled or
// expired context is never temporary, even when the wrapping error claims to be.
func IsTemporary(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var temp Temporary
	return errors.As(err, &temp) && temp.Temporary()
}
