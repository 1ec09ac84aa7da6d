package schedule

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchboard/internal/domain"
	"dispatchboard/internal/timegrid"
)

func newView(t *testing.T, store *fakeStore, user domain.User) (*View, *recorder) {
	t.Helper()
	rec := &recorder{}
	v := New(store, rec, user, Options{Now: func() time.Time { return fixedNow }})
	require.NoError(t, v.Refresh(context.Background()))
	return v, rec
}

func TestNewViewDefaults(t *testing.T) {
	v, _ := newView(t, newFakeStore(), dispatcher)
	st := v.State()
	assert.Equal(t, timegrid.ViewWeek, st.ViewMode)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), st.CurrentDate)
	assert.False(t, st.Overlay.Open())
	assert.Empty(t, st.Selection.IDs)
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	store := newFakeStore(order("W1", "T1", at(9, 0), 60))
	v, rec := newView(t, store, dispatcher)
	store.failList = true

	err := v.Refresh(context.Background())
	require.ErrorIs(t, err, errRejected)
	assert.Len(t, v.WorkOrders(), 1)
	assert.Equal(t, 1, rec.count(NoticeError))
}

func TestNavigation(t *testing.T) {
	v, _ := newView(t, newFakeStore(), dispatcher)
	v.Advance(1)
	assert.Equal(t, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), v.State().CurrentDate)
	v.SetViewMode(timegrid.ViewMonth)
	v.Advance(-1)
	assert.Equal(t, time.Date(2023, 12, 17, 0, 0, 0, 0, time.UTC), v.State().CurrentDate)
	v.GoToday()
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), v.State().CurrentDate)
	assert.Len(t, v.Days(), 31)
}

func TestFilteredIsRecomputed(t *testing.T) {
	a := order("W1", "T1", at(9, 0), 60)
	a.Priority = domain.PriorityCritical
	b := order("W2", "T1", at(11, 0), 60)
	v, _ := newView(t, newFakeStore(a, b), dispatcher)

	v.SetPriorityFilter([]domain.Priority{domain.PriorityCritical})
	assert.Len(t, v.Filtered(), 1)
	v.SetSearch("w2")
	assert.Empty(t, v.Filtered())
	v.ClearFilters()
	assert.Len(t, v.Filtered(), 2)
}

func TestTechnicianFilterOnlyAffectsRows(t *testing.T) {
	v, _ := newView(t, newFakeStore(order("W1", "T1", at(9, 0), 60)), dispatcher)
	v.SetTechnicianFilter([]string{"T2"})
	assert.Len(t, v.Filtered(), 1)
	rows := v.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "T2", rows[0].Technician.ID)
}

func TestDropPreservesDuration(t *testing.T) {
	wo := order("W1", "T1", at(9, 0), 90)
	wo.TechnicianIDs = []string{"T1", "T3"}
	store := newFakeStore(wo)
	v, rec := newView(t, store, dispatcher)

	require.NoError(t, v.BeginDrag("W1"))
	require.NoError(t, v.DragOver(&Target{TechnicianID: "T2", Hour: 14, Minute: 30}))
	outcome, err := v.Drop(context.Background(), &Target{TechnicianID: "T2", Hour: 14, Minute: 30})
	require.NoError(t, err)
	assert.Equal(t, DroppedValid, outcome)

	got, ok := v.WorkOrder("W1")
	require.True(t, ok)
	assert.Equal(t, at(14, 30), got.ScheduledStart)
	assert.Equal(t, at(16, 0), got.ScheduledEnd)
	assert.Equal(t, []string{"T2"}, got.TechnicianIDs)
	assert.Equal(t, 90*time.Minute, got.Duration())
	assert.False(t, v.Dragging())
	assert.Nil(t, v.State().Interaction.DragOver)
	assert.Equal(t, 1, rec.count(NoticeSuccess))
}

func TestDropRollsBackOnFailure(t *testing.T) {
	store := newFakeStore(order("W1", "T1", at(9, 0), 90))
	store.failUpdate["W1"] = true
	v, rec := newView(t, store, dispatcher)

	require.NoError(t, v.BeginDrag("W1"))
	outcome, err := v.Drop(context.Background(), &Target{TechnicianID: "T2", Hour: 14})
	require.ErrorIs(t, err, errRejected)
	assert.Equal(t, DroppedValid, outcome)

	got, _ := v.WorkOrder("W1")
	assert.Equal(t, at(9, 0), got.ScheduledStart)
	assert.Equal(t, []string{"T1"}, got.TechnicianIDs)
	assert.Equal(t, 1, rec.count(NoticeError))
	assert.False(t, v.Dragging())
}

func TestDropInvalidTargetsMakeNoStoreCall(t *testing.T) {
	store := newFakeStore(order("W1", "T1", at(9, 0), 60))
	v, _ := newView(t, store, dispatcher)

	for _, target := range []*Target{
		nil,
		{TechnicianID: "ghost", Hour: 10},
		{TechnicianID: "T2", Hour: 24},
		{TechnicianID: "T2", Hour: 10, Minute: 60},
	} {
		require.NoError(t, v.BeginDrag("W1"))
		outcome, err := v.Drop(context.Background(), target)
		require.NoError(t, err)
		assert.Equal(t, DroppedInvalid, outcome)
	}
	require.NoError(t, v.BeginDrag("W1"))
	assert.Equal(t, Cancelled, v.CancelDrag())
	assert.Empty(t, store.updates)
}

func TestSingleDragAtATime(t *testing.T) {
	v, _ := newView(t, newFakeStore(order("W1", "T1", at(9, 0), 60), order("W2", "T1", at(11, 0), 60)), dispatcher)
	require.NoError(t, v.BeginDrag("W1"))
	assert.ErrorIs(t, v.BeginDrag("W2"), ErrDragInProgress)
	v.CancelDrag()
	_, err := v.Drop(context.Background(), &Target{TechnicianID: "T1"})
	assert.ErrorIs(t, err, ErrNotDragging)
	assert.ErrorIs(t, v.DragOver(nil), ErrNotDragging)
}

func TestDropUsesTargetDate(t *testing.T) {
	v, _ := newView(t, newFakeStore(order("W1", "T1", at(9, 0), 45)), dispatcher)
	require.NoError(t, v.BeginDrag("W1"))
	day := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	_, err := v.Drop(context.Background(), &Target{TechnicianID: "T1", Hour: 8, Date: day})
	require.NoError(t, err)
	got, _ := v.WorkOrder("W1")
	assert.Equal(t, time.Date(2024, 1, 12, 8, 0, 0, 0, time.UTC), got.ScheduledStart)
	assert.Equal(t, time.Date(2024, 1, 12, 8, 45, 0, 0, time.UTC), got.ScheduledEnd)
}

func TestOpenCreateAtPrefillsCell(t *testing.T) {
	v, _ := newView(t, newFakeStore(), dispatcher)
	require.NoError(t, v.OpenCreateAt("T2", time.Time{}, 13, 15))
	o := v.State().Overlay
	require.Equal(t, OverlayCreate, o.Kind)
	assert.Equal(t, "T2", o.Draft.TechnicianID)
	assert.Equal(t, at(13, 15), o.Draft.ScheduledStart)
	assert.Equal(t, at(14, 15), o.Draft.ScheduledEnd)
	assert.Equal(t, 60, o.Draft.EstimatedDuration)
}

func TestDropAndCreateSnapToSlotGrid(t *testing.T) {
	v, _ := newView(t, newFakeStore(order("W1", "T1", at(9, 0), 60)), dispatcher)
	require.NoError(t, v.BeginDrag("W1"))
	_, err := v.Drop(context.Background(), &Target{TechnicianID: "T2", Hour: 14, Minute: 7})
	require.NoError(t, err)
	got, _ := v.WorkOrder("W1")
	assert.Equal(t, at(14, 0), got.ScheduledStart)
	assert.Equal(t, at(15, 0), got.ScheduledEnd)

	require.NoError(t, v.OpenCreateAt("T2", time.Time{}, 10, 44))
	d := v.State().Overlay.Draft
	assert.Equal(t, at(10, 30), d.ScheduledStart)
	assert.Equal(t, at(11, 30), d.ScheduledEnd)

	coarse := New(newFakeStore(), nil, dispatcher, Options{SlotMinutes: 60, Now: func() time.Time { return fixedNow }})
	require.NoError(t, coarse.OpenCreateAt("T1", time.Time{}, 10, 44))
	assert.Equal(t, at(10, 0), coarse.State().Overlay.Draft.ScheduledStart)
}

func TestBulkStatusContinuesPastFailure(t *testing.T) {
	store := newFakeStore(
		order("W1", "T1", at(9, 0), 60),
		order("W2", "T1", at(10, 0), 60),
		order("W3", "T2", at(11, 0), 60),
	)
	store.failUpdate["W2"] = true
	v, rec := newView(t, store, dispatcher)

	v.ToggleBulkMode()
	for _, id := range []string{"W1", "W2", "W3"} {
		require.NoError(t, v.ClickCard(id, false))
	}
	assert.False(t, v.State().Overlay.Open())

	res, err := v.ApplyBulkStatus(context.Background(), domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Attempts())
	assert.Equal(t, []string{"W1", "W2", "W3"}, store.updates)
	assert.Equal(t, []string{"W1", "W3"}, res.Succeeded)
	assert.Contains(t, res.Failed, "W2")
	assert.Equal(t, 1, rec.count(NoticeError))
	assert.Equal(t, 2, rec.count(NoticeSuccess))

	st := v.State()
	assert.Empty(t, st.Selection.IDs)
	assert.False(t, st.Selection.BulkMode)
	w2, _ := v.WorkOrder("W2")
	assert.Equal(t, domain.StatusAssigned, w2.Status)
}

func TestBulkStatusRejectsUnknownStatus(t *testing.T) {
	store := newFakeStore(order("W1", "T1", at(9, 0), 60))
	v, _ := newView(t, store, dispatcher)
	require.NoError(t, v.ClickCard("W1", true))

	_, err := v.ApplyBulkStatus(context.Background(), domain.Status("Paused"))
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"W1"}, v.State().Selection.IDs)
	assert.Empty(t, store.updates)
}

func TestBulkDeleteRequiresConfirmation(t *testing.T) {
	store := newFakeStore(order("W1", "T1", at(9, 0), 60), order("W2", "T1", at(10, 0), 60))
	store.failDelete["W2"] = true
	v, rec := newView(t, store, dispatcher)
	require.NoError(t, v.ClickCard("W1", true))
	require.NoError(t, v.ClickCard("W2", true))

	_, err := v.ApplyBulkDelete(context.Background())
	require.ErrorIs(t, err, ErrConfirmationRequired)
	assert.Empty(t, store.deletes)

	require.NoError(t, v.RequestBulkDelete())
	assert.Equal(t, "Delete 2 work orders?", v.State().Overlay.Prompt())
	require.NoError(t, v.ConfirmDelete(context.Background()))

	assert.Equal(t, []string{"W1", "W2"}, store.deletes)
	_, ok := v.WorkOrder("W1")
	assert.False(t, ok)
	_, ok = v.WorkOrder("W2")
	assert.True(t, ok)
	assert.Equal(t, 1, rec.count(NoticeError))
	st := v.State()
	assert.Empty(t, st.Selection.IDs)
	assert.False(t, st.Selection.BulkMode)
	assert.False(t, st.Overlay.Open())
}

func TestBulkPrunesStaleIDs(t *testing.T) {
	store := newFakeStore(order("W1", "T1", at(9, 0), 60), order("W2", "T1", at(10, 0), 60))
	v, _ := newView(t, store, dispatcher)
	require.NoError(t, v.ClickCard("W1", true))
	require.NoError(t, v.ClickCard("W2", true))

	delete(store.orders, "W2")
	require.NoError(t, v.Refresh(context.Background()))
	assert.Equal(t, []string{"W1"}, v.State().Selection.IDs)

	res, err := v.ApplyBulkStatus(context.Background(), domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, []string{"W1"}, store.updates)
	assert.Equal(t, 1, res.Attempts())
}

func TestBulkOnEmptySelectionNotifies(t *testing.T) {
	store := newFakeStore(order("W1", "T1", at(9, 0), 60), order("W2", "T1", at(10, 0), 60))
	v, rec := newView(t, store, dispatcher)

	require.NoError(t, v.ClickCard("W1", true))
	delete(store.orders, "W1")
	require.NoError(t, v.Refresh(context.Background()))
	_, err := v.ApplyBulkStatus(context.Background(), domain.StatusCompleted)
	require.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, 1, rec.count(NoticeError))
	assert.Empty(t, store.updates)

	require.NoError(t, v.ClickCard("W2", true))
	require.NoError(t, v.RequestBulkDelete())
	delete(store.orders, "W2")
	require.NoError(t, v.Refresh(context.Background()))
	_, err = v.ApplyBulkDelete(context.Background())
	require.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, 2, rec.count(NoticeError))
	assert.Empty(t, store.deletes)
	assert.False(t, v.State().Selection.BulkMode)
}

func TestModifierClickTogglesSelection(t *testing.T) {
	v, _ := newView(t, newFakeStore(order("W1", "T1", at(9, 0), 60)), dispatcher)
	require.NoError(t, v.ClickCard("W1", true))
	assert.Equal(t, []string{"W1"}, v.State().Selection.IDs)
	require.NoError(t, v.ClickCard("W1", true))
	assert.Empty(t, v.State().Selection.IDs)

	require.NoError(t, v.ClickCard("W1", false))
	o := v.State().Overlay
	assert.Equal(t, OverlayDetail, o.Kind)
	assert.Equal(t, "W1", o.WorkOrderID)
}

func TestSingleOverlayInvariant(t *testing.T) {
	v, _ := newView(t, newFakeStore(order("W1", "T1", at(9, 0), 60)), dispatcher)

	steps := []func() error{
		v.OpenCreate,
		func() error { return v.OpenEdit("W1") },
		func() error { return v.OpenDetail("W1") },
		func() error { v.OpenHelp(); return nil },
		func() error { return v.OpenContextMenu("W1", 10, 20) },
		func() error { return v.OpenDeleteConfirm("W1") },
		func() error { return v.OpenEdit("W1") },
	}
	for _, step := range steps {
		require.NoError(t, step())
		st := v.State()
		open := 0
		if st.Overlay.Open() {
			open++
		}
		if st.Interaction.ContextMenu != nil {
			open++
		}
		assert.Equal(t, 1, open)
	}
}

func TestEscapePriority(t *testing.T) {
	v, _ := newView(t, newFakeStore(order("W1", "T1", at(9, 0), 60)), dispatcher)

	require.NoError(t, v.OpenContextMenu("W1", 1, 1))
	assert.True(t, v.HandleKey(KeyEvent{Key: KeyEscape}))
	assert.Nil(t, v.State().Interaction.ContextMenu)

	require.NoError(t, v.OpenDeleteConfirm("W1"))
	assert.True(t, v.Escape())
	assert.False(t, v.State().Overlay.Open())

	v.OpenHelp()
	assert.True(t, v.Escape())
	assert.False(t, v.State().Overlay.Open())

	require.NoError(t, v.OpenEdit("W1"))
	assert.False(t, v.Escape())
	assert.Equal(t, OverlayEdit, v.State().Overlay.Kind)

	v.CloseOverlay()
	assert.False(t, v.HandleKey(KeyEvent{Key: KeyEscape}))
}

func TestKeyboardShortcuts(t *testing.T) {
	v, _ := newView(t, newFakeStore(), dispatcher)

	assert.True(t, v.HandleKey(KeyEvent{Key: KeyRight, Alt: true}))
	assert.Equal(t, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), v.State().CurrentDate)
	assert.True(t, v.HandleKey(KeyEvent{Key: KeyLeft, Alt: true}))
	assert.True(t, v.HandleKey(KeyEvent{Key: KeyLeft, Alt: true}))
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), v.State().CurrentDate)
	assert.True(t, v.HandleKey(KeyEvent{Key: KeyHome, Alt: true}))
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), v.State().CurrentDate)

	assert.False(t, v.HandleKey(KeyEvent{Key: "n", Ctrl: true, InTextField: true}))
	assert.False(t, v.State().Overlay.Open())

	assert.True(t, v.HandleKey(KeyEvent{Key: "n", Meta: true}))
	o := v.State().Overlay
	require.Equal(t, OverlayCreate, o.Kind)
	assert.Equal(t, at(9, 0), o.Draft.ScheduledStart)
	assert.Equal(t, at(10, 0), o.Draft.ScheduledEnd)
	assert.Empty(t, o.Draft.TechnicianID)

	v.CloseOverlay()
	assert.True(t, v.HandleKey(KeyEvent{Key: KeyHelp}))
	assert.Equal(t, OverlayHelp, v.State().Overlay.Kind)
	assert.True(t, v.HandleKey(KeyEvent{Key: KeyHelp}))
	assert.False(t, v.State().Overlay.Open())
}

func TestTechnicianRestrictions(t *testing.T) {
	tech := domain.User{ID: "T1", Name: "Ana", Role: domain.RoleTechnician}
	store := newFakeStore(order("W1", "T1", at(9, 0), 60))
	v, _ := newView(t, store, tech)

	assert.False(t, v.HandleKey(KeyEvent{Key: "n", Ctrl: true}))
	assert.ErrorIs(t, v.OpenCreate(), ErrNotPermitted)
	assert.ErrorIs(t, v.OpenCreateAt("T1", time.Time{}, 9, 0), ErrNotPermitted)

	require.NoError(t, v.OpenContextMenu("W1", 5, 5))
	menu := v.State().Interaction.ContextMenu
	require.NotNil(t, menu)
	assert.Equal(t, []MenuAction{ActionEdit}, menu.Actions)
	assert.ErrorIs(t, v.SelectMenuAction(context.Background(), ActionDelete), ErrNotPermitted)

	_, err := v.Duplicate(context.Background(), "W1")
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.Empty(t, store.creates)

	rows := v.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "T1", rows[0].Technician.ID)
}

func TestDuplicateFromMenu(t *testing.T) {
	src := order("W1", "T1", at(9, 0), 60)
	src.Status = domain.StatusCompleted
	src.Price = 80
	store := newFakeStore(src)
	v, rec := newView(t, store, dispatcher)

	require.NoError(t, v.OpenContextMenu("W1", 0, 0))
	require.NoError(t, v.SelectMenuAction(context.Background(), ActionDuplicate))
	require.Len(t, store.creates, 1)
	sent := store.creates[0]
	assert.Empty(t, sent.ID)
	assert.Equal(t, "Job W1 (Copy)", sent.Title)
	assert.Equal(t, domain.StatusNew, sent.Status)
	assert.Equal(t, 80.0, sent.Price)
	assert.Len(t, v.WorkOrders(), 2)
	assert.Nil(t, v.State().Interaction.ContextMenu)
	assert.Equal(t, 1, rec.count(NoticeSuccess))
}

func TestSubmitCreateValidation(t *testing.T) {
	store := newFakeStore()
	v, _ := newView(t, store, dispatcher)
	require.NoError(t, v.OpenCreate())

	_, err := v.SubmitCreate(context.Background())
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)

	require.NoError(t, v.UpdateDraft(func(d *Draft) { d.Title = "Boiler check" }))
	_, err = v.SubmitCreate(context.Background())
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "technician_id", verr.Field)
	assert.Empty(t, store.creates)
	assert.Equal(t, OverlayCreate, v.State().Overlay.Kind)

	require.NoError(t, v.UpdateDraft(func(d *Draft) { d.TechnicianID = "T1" }))
	created, err := v.SubmitCreate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"T1"}, created.TechnicianIDs)
	assert.Equal(t, 60, created.EstimatedDuration)
	assert.False(t, v.State().Overlay.Open())
}

func TestChangeStatusRollsBack(t *testing.T) {
	store := newFakeStore(order("W1", "T1", at(9, 0), 60))
	store.failUpdate["W1"] = true
	v, rec := newView(t, store, dispatcher)

	_, err := v.ChangeStatus(context.Background(), "W1", domain.StatusCompleted)
	require.ErrorIs(t, err, errRejected)
	got, _ := v.WorkOrder("W1")
	assert.Equal(t, domain.StatusAssigned, got.Status)
	assert.Equal(t, 1, rec.count(NoticeError))
}

func TestSingleDeleteWaitsForStore(t *testing.T) {
	store := newFakeStore(order("W1", "T1", at(9, 0), 60))
	store.failDelete["W1"] = true
	v, _ := newView(t, store, dispatcher)

	assert.ErrorIs(t, v.ConfirmDelete(context.Background()), ErrConfirmationRequired)
	require.NoError(t, v.OpenDeleteConfirm("W1"))
	require.ErrorIs(t, v.ConfirmDelete(context.Background()), errRejected)
	_, ok := v.WorkOrder("W1")
	assert.True(t, ok)

	store.failDelete["W1"] = false
	require.NoError(t, v.OpenDeleteConfirm("W1"))
	require.NoError(t, v.ConfirmDelete(context.Background()))
	_, ok = v.WorkOrder("W1")
	assert.False(t, ok)
}

func TestPointerDownClosesMenuAndDropdown(t *testing.T) {
	v, _ := newView(t, newFakeStore(order("W1", "T1", at(9, 0), 60)), dispatcher)
	require.NoError(t, v.OpenContextMenu("W1", 0, 0))
	v.PointerDown(PointerContextMenu)
	assert.NotNil(t, v.State().Interaction.ContextMenu)
	v.PointerDown(PointerElsewhere)
	assert.Nil(t, v.State().Interaction.ContextMenu)

	v.ToggleDropdown(DropdownStatuses)
	v.PointerDown(PointerDropdown)
	assert.Equal(t, DropdownStatuses, v.State().Interaction.OpenDropdown)
	v.PointerDown(PointerElsewhere)
	assert.Equal(t, DropdownNone, v.State().Interaction.OpenDropdown)
}

func TestMobileRowCollapse(t *testing.T) {
	v, _ := newView(t, newFakeStore(), dispatcher)
	assert.False(t, v.ToggleRow("T1"))

	v.SetViewportWidth(500)
	require.True(t, v.Mobile())
	assert.False(t, v.RowCollapsed("T1"))
	assert.True(t, v.ToggleRow("T1"))
	assert.True(t, v.RowCollapsed("T1"))

	v.SetViewMode(timegrid.ViewMonth)
	v.SetSearch("x")
	assert.True(t, v.RowCollapsed("T1"))

	v.SetViewportWidth(1024)
	assert.False(t, v.RowCollapsed("T1"))
	v.SetViewportWidth(700)
	assert.True(t, v.RowCollapsed("T1"))
}

type memSink struct {
	name    string
	payload bytes.Buffer
}

func (m *memSink) Download(name string, payload []byte) error {
	m.name = name
	m.payload.Write(payload)
	return nil
}

func TestExportUsesFilteredOrders(t *testing.T) {
	a := order("W1", "T1", at(9, 0), 60)
	b := order("W2", "T2", at(9, 0), 60)
	b.Priority = domain.PriorityHigh
	v, _ := newView(t, newFakeStore(a, b), dispatcher)
	v.SetPriorityFilter([]domain.Priority{domain.PriorityHigh})
	v.SetTechnicianFilter([]string{"T1"})

	sink := &memSink{}
	require.NoError(t, v.ExportCSV(sink))
	assert.Equal(t, "work-orders-2024-01-10.csv", sink.name)
	assert.Contains(t, sink.payload.String(), `"Job W2"`)
	assert.NotContains(t, sink.payload.String(), `"Job W1"`)
}
