package timegrid

import (
	"time"

	"dispatchboard/internal/domain"
)

// Row is one technician lane of the grid.
type Row struct {
	Technician domain.Technician `json:"technician"`
	// Synthetic is set when the row was built from the user's profile
	// because the roster has no matching technician.
	Synthetic bool `json:"synthetic,omitempty"`
}

// VisibleTechnicianRows returns the rows the acting user may see. Technician
// users only see their own row; the selected filter then intersects.
func VisibleTechnicianRows(techs []domain.Technician, user domain.User, selectedIDs []string) []Row {
	var rows []Row
	if user.Role == domain.RoleTechnician {
		found := false
		for _, t := range techs {
			if t.ID == user.ID {
				rows = append(rows, Row{Technician: t})
				found = true
				break
			}
		}
		if !found {
			rows = append(rows, Row{
				Technician: domain.Technician{
					ID:     user.ID,
					Name:   user.Name,
					Email:  user.Email,
					Skills: []string{},
					Status: domain.TechnicianAvailable,
				},
				Synthetic: true,
			})
		}
	} else {
		rows = make([]Row, 0, len(techs))
		for _, t := range techs {
			rows = append(rows, Row{Technician: t})
		}
	}
	if len(selectedIDs) == 0 {
		return rows
	}
	selected := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = struct{}{}
	}
	out := rows[:0]
	for _, r := range rows {
		if _, ok := selected[r.Technician.ID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// GridRow is a technician row with one cell per rendered day.
type GridRow struct {
	Row
	Cells []Cell `json:"cells"`
}

// Grid is the full placement of work orders for a period.
type Grid struct {
	Mode ViewMode    `json:"mode"`
	Days []time.Time `json:"days"`
	Rows []GridRow   `json:"rows"`
}

// GridOptions tune Build.
type GridOptions struct {
	WeekStart      time.Weekday
	MonthCellLimit int
}

// Build places orders into a grid of rows × days. Only month cells are
// truncated; every row gets a cell for every day, even if empty.
func Build(anchor time.Time, mode ViewMode, rows []Row, orders []domain.WorkOrder, opts GridOptions) Grid {
	days := PeriodDays(anchor, mode, opts.WeekStart)
	limit := 0
	if mode == ViewMonth {
		limit = opts.MonthCellLimit
		if limit <= 0 {
			limit = DefaultMonthCellLimit
		}
	}
	g := Grid{Mode: mode, Days: days, Rows: make([]GridRow, 0, len(rows))}
	for _, r := range rows {
		gr := GridRow{Row: r, Cells: make([]Cell, 0, len(days))}
		for _, d := range days {
			gr.Cells = append(gr.Cells, DayCell(orders, r.Technician.ID, d, limit))
		}
		g.Rows = append(g.Rows, gr)
	}
	return g
}
