package domain

import (
	"errors"
	"fmt"
)

// MutateOrder re-reads the order and applies mutate until the conditional
// version write succeeds, up to attempts tries. Lost races surface as
// ErrVersionConflict from UpdateOrder; any other error aborts immediately.
func MutateOrder(repo OrderRepository, orderID string, attempts int, mutate func(order *Order) error) (*Order, error) {
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		order, err := repo.GetOrderByID(orderID)
		if err != nil {
			return nil, err
		}

		if err := mutate(order); err != nil {
			return nil, err
		}

		if err := repo.UpdateOrder(order); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return order, nil
	}
	return nil, fmt.Errorf("order %s: update not applied after %d attempts: %w", orderID, attempts, lastErr)
}
