package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart     = errors.New("cart empty")
	ErrOrderNotFound = errors.New("order not found")
	ErrBadSignature  = errors.New("signature verification failed")
)

// StockError rejects a whole intent-creation request, naming the offending
// product and what is actually available. No partial orders.
type StockError struct {
	ProductID string
	Name      string
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("not enough stock for %s, available %d", e.Name, e.Available)
}

// UnknownProductError surfaces a cart line whose product no longer exists.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("unknown product %s", e.ProductID)
}
