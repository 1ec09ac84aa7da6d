package schedule

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"dispatchboard/internal/domain"
)

// Store is the slice of the work-order service the schedule needs.
type Store interface {
	ListWorkOrders(ctx context.Context) ([]domain.WorkOrder, error)
	ListTechnicians(ctx context.Context) ([]domain.Technician, error)
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	UpdateWorkOrder(ctx context.Context, id string, patch domain.WorkOrderPatch) (domain.WorkOrder, error)
	DeleteWorkOrder(ctx context.Context, id string) error
	CreateWorkOrder(ctx context.Context, wo domain.WorkOrder) (domain.WorkOrder, error)
}

// NoticeKind tells a Notifier how to present a message.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notifier receives user feedback for every finished store call.
type Notifier interface {
	Notify(message string, kind NoticeKind)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string, kind NoticeKind)

func (f NotifierFunc) Notify(message string, kind NoticeKind) { f(message, kind) }

// Downloader accepts an exported payload under a suggested file name.
type Downloader interface {
	Download(filename string, payload []byte) error
}

// Feeds is a snapshot of the read-only collections.
type Feeds struct {
	WorkOrders  []domain.WorkOrder
	Technicians []domain.Technician
	Customers   []domain.Customer
}

// LoadFeeds fetches all three feeds concurrently and fails on the first error.
func LoadFeeds(ctx context.Context, s Store) (Feeds, error) {
	var f Feeds
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.ListWorkOrders(gctx)
		if err != nil {
			return fmt.Errorf("list work orders: %w", err)
		}
		f.WorkOrders = items
		return nil
	})
	g.Go(func() error {
		items, err := s.ListTechnicians(gctx)
		if err != nil {
			return fmt.Errorf("list technicians: %w", err)
		}
		f.Technicians = items
		return nil
	})
	g.Go(func() error {
		items, err := s.ListCustomers(gctx)
		if err != nil {
			return fmt.Errorf("list customers: %w", err)
		}
		f.Customers = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return Feeds{}, err
	}
	return f, nil
}
