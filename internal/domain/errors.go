package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrNoIdentity indicates a cart mutation was attempted without a logged-in user
	ErrNoIdentity = errors.New("no user identity available")

	// ErrRemote matches every failure reported by the remote cart API
	ErrRemote = errors.New("remote cart api failure")

	// ErrServerOffline indicates the shop API is unreachable
	ErrServerOffline = errors.New("shop server is unreachable")

	// ErrAuthFailed indicates the bearer token was rejected
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrNotFound indicates the requested cart item or product does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrOutOfStock indicates a product cannot be added because stock is zero
	ErrOutOfStock = errors.New("product is out of stock")
)

// RemoteError wraps a failed call to the remote API.
// errors.Is(err, ErrRemote) is true for every RemoteError.
type RemoteError struct {
	Op     string // e.g. "fetch cart", "update quantity"
	Status int    // HTTP status, 0 for transport failures
	Err    error
}

func (e *RemoteError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is makes every RemoteError match ErrRemote
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}
