package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatchboard/internal/db"
	"dispatchboard/internal/domain"
	"dispatchboard/internal/migrate"
)

func setupRepo(t *testing.T) Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return Repo{DB: conn}
}

func TestWorkOrderRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := setupRepo(t)
	if err := r.InsertCustomer(ctx, nil, domain.Customer{ID: "C1", Name: "Acme", CreatedAt: "2024-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	wo := domain.WorkOrder{
		ID:                "W1",
		Title:             "Boiler",
		CustomerID:        "C1",
		TechnicianIDs:     []string{"T2", "T1"},
		ScheduledStart:    start,
		ScheduledEnd:      start.Add(90 * time.Minute),
		Priority:          domain.PriorityHigh,
		Status:            domain.StatusAssigned,
		EstimatedDuration: 90,
		Location:          domain.Location{Address: "1 Main St", Lat: 1.5},
		Price:             99.5,
		CreatedAt:         "2024-01-01T00:00:00Z",
		UpdatedAt:         "2024-01-01T00:00:00Z",
	}
	if err := r.InsertWorkOrder(ctx, nil, wo); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := r.GetWorkOrder(ctx, nil, "W1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.ScheduledStart.Equal(wo.ScheduledStart) || !got.ScheduledEnd.Equal(wo.ScheduledEnd) {
		t.Fatalf("window mismatch: %v %v", got.ScheduledStart, got.ScheduledEnd)
	}
	if len(got.TechnicianIDs) != 2 || got.TechnicianIDs[0] != "T2" {
		t.Fatalf("technician order not kept: %v", got.TechnicianIDs)
	}
	if got.Location.Address != "1 Main St" || got.Price != 99.5 || got.CustomerID != "C1" {
		t.Fatalf("unexpected work order %+v", got)
	}

	got.TechnicianIDs = []string{"T3"}
	got.Status = domain.StatusCompleted
	if err := r.UpdateWorkOrder(ctx, nil, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := r.ListWorkOrders(ctx, WorkOrderFilters{TechnicianID: "T3"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Status != domain.StatusCompleted {
		t.Fatalf("expected updated work order, got %+v", list)
	}
	if list, _ := r.ListWorkOrders(ctx, WorkOrderFilters{TechnicianID: "T1"}); len(list) != 0 {
		t.Fatalf("old assignment still listed: %+v", list)
	}

	if err := r.DeleteWorkOrder(ctx, nil, "W1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.GetWorkOrder(ctx, nil, "W1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := r.DeleteWorkOrder(ctx, nil, "W1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListWorkOrdersWindow(t *testing.T) {
	ctx := context.Background()
	r := setupRepo(t)
	for i, day := range []int{8, 10, 12} {
		start := time.Date(2024, 1, day, 9, 0, 0, 0, time.UTC)
		wo := domain.WorkOrder{
			ID: string(rune('A' + i)), Title: "job", TechnicianIDs: []string{"T1"},
			ScheduledStart: start, ScheduledEnd: start.Add(time.Hour),
			Priority: domain.PriorityLow, Status: domain.StatusNew,
			CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-01-01T00:00:00Z",
		}
		if err := r.InsertWorkOrder(ctx, nil, wo); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	list, err := r.ListWorkOrders(ctx, WorkOrderFilters{From: "2024-01-09T00:00:00Z", To: "2024-01-11T00:00:00Z"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "B" {
		t.Fatalf("expected only B, got %+v", list)
	}
}

func TestTechnicianSkillsAndAPIKeys(t *testing.T) {
	ctx := context.Background()
	r := setupRepo(t)
	tech := domain.Technician{ID: "T1", Name: "Ana", Skills: []string{"HVAC", "Electrical"}, Status: domain.TechnicianBusy}
	if err := r.InsertTechnician(ctx, nil, tech, "2024-01-01T00:00:00Z"); err != nil {
		t.Fatalf("insert technician: %v", err)
	}
	got, err := r.GetTechnician(ctx, "T1")
	if err != nil {
		t.Fatalf("get technician: %v", err)
	}
	if len(got.Skills) != 2 || got.Skills[1] != "Electrical" || got.Status != domain.TechnicianBusy {
		t.Fatalf("unexpected technician %+v", got)
	}

	user := domain.User{ID: "U1", Name: "Dee", Role: domain.RoleDispatcher, CreatedAt: "2024-01-01T00:00:00Z"}
	if err := r.InsertUser(ctx, nil, user); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	hash := HashAPIKey("  secret  ")
	if err := r.InsertAPIKey(ctx, nil, domain.APIKey{ID: "K1", UserID: "U1", KeyHash: hash}); err != nil {
		t.Fatalf("insert key: %v", err)
	}
	key, err := r.GetAPIKeyByHash(ctx, HashAPIKey("secret"))
	if err != nil || key.UserID != "U1" {
		t.Fatalf("lookup key: %+v %v", key, err)
	}
	if _, err := r.GetAPIKeyByHash(ctx, HashAPIKey("other")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
