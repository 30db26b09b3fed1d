package repairs

import (
	"errors"
	"fmt"
)

var (
	ErrNoAvailableOrders = errors.New("no pending repair orders available to optimize")
	ErrInvalidOrderData  = errors.New("invalid repair order data")
	ErrOrderNotFound     = errors.New("repair order not found")
	ErrPartNotFound      = errors.New("part not found")
	ErrInvalidStatus     = errors.New("invalid repair order status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const (
	ReasonNegativeLaborCost = "labor cost negative"
	ReasonNoParts           = "no associated parts"
)

// InvalidOrderDataError aborts a whole optimization pass.
type InvalidOrderDataError struct {
	OrderID string
	Reason  string
}

func (e *InvalidOrderDataError) Error() string {
	return fmt.Sprintf("repair order %s: %s", e.OrderID, e.Reason)
}

func (e *InvalidOrderDataError) Is(target error) bool { return target == ErrInvalidOrderData }

// MissingPartError reports a line item whose part is absent from the loaded
// part set.
type MissingPartError struct {
	OrderID string
	PartID  string
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("repair order %s references unknown part %s", e.OrderID, e.PartID)
}

func (e *MissingPartError) Is(target error) bool { return target == ErrPartNotFound }
