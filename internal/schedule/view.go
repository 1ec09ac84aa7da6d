// Package schedule is the interaction core of the technician calendar. A View
// owns the ephemeral state of one schedule screen and talks to the work-order
// store through the Store interface. A View is not safe for concurrent use.
package schedule

import (
	"bytes"
	"context"
	"time"

	"dispatchboard/internal/config"
	"dispatchboard/internal/domain"
	"dispatchboard/internal/export"
	"dispatchboard/internal/timegrid"
)

// Options tune grid geometry and layout.
type Options struct {
	WeekStart        time.Weekday
	MonthCellLimit   int
	MobileBreakpoint int
	DayStartHour     int
	DayEndHour       int
	SlotMinutes      int
	Now              func() time.Time
}

// OptionsFromConfig maps the schedule section of dispatch.yml.
func OptionsFromConfig(cfg config.ScheduleConfig) Options {
	return Options{
		WeekStart:        cfg.WeekStartDay(),
		MonthCellLimit:   cfg.MonthCellLimit,
		MobileBreakpoint: cfg.MobileBreakpoint,
		DayStartHour:     cfg.DayStartHour,
		DayEndHour:       cfg.DayEndHour,
		SlotMinutes:      cfg.SlotMinutes,
	}
}

func (o Options) withDefaults() Options {
	if o.MonthCellLimit <= 0 {
		o.MonthCellLimit = timegrid.DefaultMonthCellLimit
	}
	if o.MobileBreakpoint <= 0 {
		o.MobileBreakpoint = 768
	}
	if o.DayEndHour <= o.DayStartHour {
		o.DayStartHour, o.DayEndHour = 8, 20
	}
	if o.SlotMinutes <= 0 {
		o.SlotMinutes = 15
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// View is the schedule board state machine. It holds the loaded feeds and
// the view state, and applies every change through its Store.
type View struct {
	store  Store
	notify Notifier
	user   domain.User
	opts   Options
	state  ViewState

	orders      []domain.WorkOrder
	technicians []domain.Technician
	customers   []domain.Customer
}

// New mounts a view in week mode on today with empty filters and selection.
func New(store Store, notifier Notifier, user domain.User, opts Options) *View {
	opts = opts.withDefaults()
	if notifier == nil {
		notifier = NotifierFunc(func(string, NoticeKind) {})
	}
	return &View{
		store:  store,
		notify: notifier,
		user:   user,
		opts:   opts,
		state: ViewState{
			CurrentDate:            timegrid.Today(opts.Now()),
			ViewMode:               timegrid.ViewWeek,
			CollapsedTechnicianIDs: map[string]bool{},
		},
	}
}

// State returns a copy of the current view state.
func (v *View) State() ViewState { return v.state.clone() }

// User is the acting user.
func (v *View) User() domain.User { return v.user }

// Refresh reloads all feeds. On failure the previous snapshot is kept.
func (v *View) Refresh(ctx context.Context) error {
	feeds, err := LoadFeeds(ctx, v.store)
	if err != nil {
		v.notify.Notify("Failed to load schedule: "+err.Error(), NoticeError)
		return err
	}
	v.orders = feeds.WorkOrders
	v.technicians = feeds.Technicians
	v.customers = feeds.Customers
	v.dropStaleReferences()
	return nil
}

// dropStaleReferences clears selection, drag and overlays that point at
// work orders no longer present.
func (v *View) dropStaleReferences() {
	v.pruneSelection()
	if id := v.state.Interaction.DraggedID; id != "" && v.indexOf(id) < 0 {
		v.endDrag()
	}
	if m := v.state.Interaction.ContextMenu; m != nil && v.indexOf(m.WorkOrderID) < 0 {
		v.state.Interaction.ContextMenu = nil
	}
	if id := v.state.Overlay.WorkOrderID; id != "" && v.indexOf(id) < 0 {
		v.state.Overlay = Overlay{}
	}
}

// WorkOrders returns every known work order.
func (v *View) WorkOrders() []domain.WorkOrder {
	out := make([]domain.WorkOrder, len(v.orders))
	for i, wo := range v.orders {
		out[i] = wo.Clone()
	}
	return out
}

// WorkOrder looks up a known work order.
func (v *View) WorkOrder(id string) (domain.WorkOrder, bool) {
	i := v.indexOf(id)
	if i < 0 {
		return domain.WorkOrder{}, false
	}
	return v.orders[i].Clone(), true
}

// Technicians returns a copy of the technician roster.
func (v *View) Technicians() []domain.Technician {
	return append([]domain.Technician(nil), v.technicians...)
}

// Customers returns a copy of the customer list.
func (v *View) Customers() []domain.Customer { return append([]domain.Customer(nil), v.customers...) }

// Filtered returns the work orders passing the current filters, recomputed
// from the full collection on every call.
func (v *View) Filtered() []domain.WorkOrder {
	return v.state.Filters.Criteria().Apply(v.orders)
}

// Rows returns the visible technician rows.
func (v *View) Rows() []timegrid.Row {
	return timegrid.VisibleTechnicianRows(v.technicians, v.user, v.state.Filters.TechnicianIDs)
}

// Days returns the dates of the current period.
func (v *View) Days() []time.Time {
	return timegrid.PeriodDays(v.state.CurrentDate, v.state.ViewMode, v.opts.WeekStart)
}

// Grid places the filtered work orders into the visible rows.
func (v *View) Grid() timegrid.Grid {
	return timegrid.Build(v.state.CurrentDate, v.state.ViewMode, v.Rows(), v.Filtered(), timegrid.GridOptions{
		WeekStart:      v.opts.WeekStart,
		MonthCellLimit: v.opts.MonthCellLimit,
	})
}

// TimeSlots returns the day-view slot grid.
func (v *View) TimeSlots() []timegrid.Slot {
	return timegrid.TimeSlots(v.opts.DayStartHour, v.opts.DayEndHour, v.opts.SlotMinutes)
}

// SetViewMode switches between day, week and month.
func (v *View) SetViewMode(mode timegrid.ViewMode) {
	v.state.ViewMode = mode
}

// SetDate moves the anchor date.
func (v *View) SetDate(d time.Time) {
	v.state.CurrentDate = timegrid.Midnight(d)
}

// Advance moves one period backwards (-1) or forwards (+1).
func (v *View) Advance(dir int) {
	v.state.CurrentDate = timegrid.AdvancePeriod(v.state.CurrentDate, v.state.ViewMode, dir)
}

// GoToday jumps to the current system date.
func (v *View) GoToday() {
	v.state.CurrentDate = timegrid.Today(v.opts.Now())
}

// SetSearch sets the free-text filter on title and site address.
func (v *View) SetSearch(term string) { v.state.Filters.SearchTerm = term }

// SetTechnicianFilter limits the visible rows; it does not filter work orders.
func (v *View) SetTechnicianFilter(ids []string) {
	v.state.Filters.TechnicianIDs = append([]string(nil), ids...)
}

// SetPriorityFilter keeps work orders with one of ps. Empty means any.
func (v *View) SetPriorityFilter(ps []domain.Priority) {
	v.state.Filters.Priorities = append([]domain.Priority(nil), ps...)
}

// SetStatusFilter keeps work orders with one of ss. Empty means any.
func (v *View) SetStatusFilter(ss []domain.Status) {
	v.state.Filters.Statuses = append([]domain.Status(nil), ss...)
}

// ClearFilters resets every filter dimension.
func (v *View) ClearFilters() { v.state.Filters = Filters{} }

// ToggleDropdown opens d, or closes it when already open.
func (v *View) ToggleDropdown(d Dropdown) {
	if v.state.Interaction.OpenDropdown == d {
		v.state.Interaction.OpenDropdown = DropdownNone
		return
	}
	v.state.Interaction.OpenDropdown = d
}

// ExportCSV hands the filtered work orders to sink as a dated CSV file.
func (v *View) ExportCSV(sink Downloader) error {
	var buf bytes.Buffer
	lookup := export.NewLookup(v.technicians, v.customers)
	if err := export.WriteCSV(&buf, v.Filtered(), lookup); err != nil {
		return err
	}
	name := export.Filename(v.opts.Now())
	if err := sink.Download(name, buf.Bytes()); err != nil {
		v.notify.Notify("Export failed: "+err.Error(), NoticeError)
		return err
	}
	v.notify.Notify("Exported "+name, NoticeSuccess)
	return nil
}

func (v *View) isTechnician() bool { return v.user.Role == domain.RoleTechnician }

func (v *View) indexOf(id string) int {
	for i, wo := range v.orders {
		if wo.ID == id {
			return i
		}
	}
	return -1
}

// put replaces the local copy of wo, appending it when new.
func (v *View) put(wo domain.WorkOrder) {
	if i := v.indexOf(wo.ID); i >= 0 {
		v.orders[i] = wo
		return
	}
	v.orders = append(v.orders, wo)
}

func (v *View) remove(id string) {
	i := v.indexOf(id)
	if i < 0 {
		return
	}
	v.orders = append(v.orders[:i], v.orders[i+1:]...)
}

func label(wo domain.WorkOrder) string {
	if wo.Title != "" {
		return `"` + wo.Title + `"`
	}
	return wo.ID
}
