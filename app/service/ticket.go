package service

import (
	"context"
	"fmt"

	"github.com/vibast-solutions/ms-go-reservations/app/lock"
	"github.com/vibast-solutions/ms-go-reservations/app/repository"
)

type TicketService struct {
	locker  *lock.Locker
	tickets *repository.TicketRepository
}

// NewTicketService builds the ticket service with dependencies.
func NewTicketService(locker *lock.Locker, tickets *repository.TicketRepository) *TicketService {
	return &TicketService{locker: locker, tickets: tickets}
}

// SetQuantity resets the tickets on sale for an event.
func (s *TicketService) SetQuantity(ctx context.Context, event string, quantity int64) error {
	_, err := lock.WithLock(ctx, s.locker, ticketLockKey(event), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.tickets.SetQuantity(ctx, event, quantity)
	})
	return mapLockError(err)
}

// Remaining returns the tickets left for an event.
func (s *TicketService) Remaining(ctx context.Context, event string) (int64, error) {
	return s.tickets.Quantity(ctx, event)
}

// Grab takes one ticket for the user and returns how many are left.
func (s *TicketService) Grab(ctx context.Context, event string, userID string) (int64, error) {
	remaining, err := lock.WithLock(ctx, s.locker, ticketLockKey(event), func(ctx context.Context) (int64, error) {
		holder, err := s.tickets.IsHolder(ctx, event, userID)
		if err != nil {
			return 0, fmt.Errorf("check holder: %w", err)
		}
		if holder {
			return 0, ErrAlreadyHolding
		}

		quantity, err := s.tickets.Quantity(ctx, event)
		if err != nil {
			return 0, fmt.Errorf("load quantity: %w", err)
		}
		if quantity <= 0 {
			return 0, ErrSoldOut
		}

		remaining, err := s.tickets.Take(ctx, event, userID)
		if err != nil {
			return 0, fmt.Errorf("take ticket: %w", err)
		}
		return remaining, nil
	})
	if err != nil {
		return 0, mapLockError(err)
	}

	logEntry(ctx).WithField("event", event).
		WithField("user_id", userID).
		WithField("remaining", remaining).
		Info("ticket grabbed")
	return remaining, nil
}

func ticketLockKey(event string) string {
	return fmt.Sprintf("tickets:%s", event)
}
