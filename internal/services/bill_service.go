package services

import (
	"context"
	"fmt"
	"time"

	"aura/internal/bills"
	"aura/internal/cache"
	"aura/internal/core"
	"aura/internal/ports"
)

// BillService tracks recurring bills on the calendar.
type BillService struct {
	store ports.BillStore
	gens  *cache.Generations
	now   func() time.Time
}

func NewBillService(store ports.BillStore, gens *cache.Generations) *BillService {
	if gens == nil {
		gens = cache.NewGenerations()
	}
	return &BillService{store: store, gens: gens, now: time.Now}
}

// List returns the user's bills, each with the status of its next unpaid
// occurrence.
func (s *BillService) List(ctx context.Context, userID string) ([]bills.Listing, error) {
	list, err := s.store.ListBills(ctx, userID)
	if err != nil {
		return nil, err
	}
	return bills.List(list, s.now())
}

func (s *BillService) Get(ctx context.Context, userID, id string) (core.Bill, error) {
	return s.store.GetBill(ctx, userID, id)
}

func (s *BillService) Create(ctx context.Context, userID string, b core.Bill) (core.Bill, error) {
	b.UserID = userID
	if b.Currency == "" {
		b.Currency = core.DefaultCurrency
	}
	saved, err := s.store.CreateBill(ctx, b)
	if err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	s.gens.Bump(userID)
	return saved, nil
}

func (s *BillService) Update(ctx context.Context, userID string, b core.Bill) (core.Bill, error) {
	b.UserID = userID
	if b.Currency == "" {
		b.Currency = core.DefaultCurrency
	}
	saved, err := s.store.UpdateBill(ctx, b)
	if err != nil {
		return core.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	s.gens.Bump(userID)
	return saved, nil
}

func (s *BillService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteBill(ctx, userID, id); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	s.gens.Bump(userID)
	return nil
}

// Pay marks the bill's next unpaid occurrence as paid.
func (s *BillService) Pay(ctx context.Context, userID, id string) (core.Bill, error) {
	b, err := s.store.GetBill(ctx, userID, id)
	if err != nil {
		return core.Bill{}, err
	}
	paid, err := bills.Pay(b, s.now())
	if err != nil {
		return core.Bill{}, err
	}
	saved, err := s.store.UpdateBill(ctx, paid)
	if err != nil {
		return core.Bill{}, fmt.Errorf("pay bill: %w", err)
	}
	s.gens.Bump(userID)
	return saved, nil
}

// Calendar returns every occurrence of the user's bills in one month.
func (s *BillService) Calendar(ctx context.Context, userID string, year int, month time.Month) (bills.Month, error) {
	list, err := s.store.ListBills(ctx, userID)
	if err != nil {
		return bills.Month{}, fmt.Errorf("list bills: %w", err)
	}
	return bills.Calendar(list, year, month, s.now())
}

// Upcoming lists overdue occurrences and those due in the next days days.
func (s *BillService) Upcoming(ctx context.Context, userID string, days int) ([]bills.Entry, error) {
	list, err := s.store.ListBills(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills.Upcoming(list, s.now(), days)
}
