package schedule

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"dispatchboard/internal/domain"
)

var errRejected = errors.New("rejected by store")

type fakeStore struct {
	mu          sync.Mutex
	orders      map[string]domain.WorkOrder
	technicians []domain.Technician
	customers   []domain.Customer

	failUpdate map[string]bool
	failDelete map[string]bool
	failCreate bool
	failList   bool

	updates []string
	deletes []string
	creates []domain.WorkOrder
	seq     int
}

func newFakeStore(orders ...domain.WorkOrder) *fakeStore {
	s := &fakeStore{
		orders:     map[string]domain.WorkOrder{},
		failUpdate: map[string]bool{},
		failDelete: map[string]bool{},
		technicians: []domain.Technician{
			{ID: "T1", Name: "Ana"},
			{ID: "T2", Name: "Bo"},
			{ID: "T3", Name: "Cy"},
		},
		customers: []domain.Customer{{ID: "C1", Name: "Acme"}},
	}
	for _, wo := range orders {
		s.orders[wo.ID] = wo
	}
	return s
}

func (s *fakeStore) ListWorkOrders(context.Context) ([]domain.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList {
		return nil, errRejected
	}
	ids := make([]string, 0, len(s.orders))
	for id := range s.orders {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]domain.WorkOrder, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.orders[id].Clone())
	}
	return out, nil
}

func (s *fakeStore) ListTechnicians(context.Context) ([]domain.Technician, error) {
	return append([]domain.Technician(nil), s.technicians...), nil
}

func (s *fakeStore) ListCustomers(context.Context) ([]domain.Customer, error) {
	return append([]domain.Customer(nil), s.customers...), nil
}

func (s *fakeStore) UpdateWorkOrder(_ context.Context, id string, patch domain.WorkOrderPatch) (domain.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, id)
	if s.failUpdate[id] {
		return domain.WorkOrder{}, errRejected
	}
	wo, ok := s.orders[id]
	if !ok {
		return domain.WorkOrder{}, fmt.Errorf("work order %s not found", id)
	}
	wo = patch.Apply(wo)
	wo.UpdatedAt = "2024-01-10T12:00:00Z"
	s.orders[id] = wo
	return wo.Clone(), nil
}

func (s *fakeStore) DeleteWorkOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	if s.failDelete[id] {
		return errRejected
	}
	delete(s.orders, id)
	return nil
}

func (s *fakeStore) CreateWorkOrder(_ context.Context, wo domain.WorkOrder) (domain.WorkOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates = append(s.creates, wo)
	if s.failCreate {
		return domain.WorkOrder{}, errRejected
	}
	s.seq++
	wo.ID = fmt.Sprintf("new-%d", s.seq)
	s.orders[wo.ID] = wo
	return wo.Clone(), nil
}

type notice struct {
	Message string
	Kind    NoticeKind
}

type recorder struct{ notices []notice }

func (r *recorder) Notify(message string, kind NoticeKind) {
	r.notices = append(r.notices, notice{message, kind})
}

func (r *recorder) count(kind NoticeKind) int {
	n := 0
	for _, x := range r.notices {
		if x.Kind == kind {
			n++
		}
	}
	return n
}

var fixedNow = time.Date(2024, 1, 10, 15, 4, 5, 0, time.UTC)

func order(id, tech string, start time.Time, minutes int) domain.WorkOrder {
	return domain.WorkOrder{
		ID:             id,
		Title:          "Job " + id,
		TechnicianIDs:  []string{tech},
		ScheduledStart: start,
		ScheduledEnd:   start.Add(time.Duration(minutes) * time.Minute),
		Priority:       domain.PriorityMedium,
		Status:         domain.StatusAssigned,
	}
}

func at(h, m int) time.Time { return time.Date(2024, 1, 10, h, m, 0, 0, time.UTC) }

var dispatcher = domain.User{ID: "U1", Name: "Dee", Role: domain.RoleDispatcher}
