package timegrid

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchboard/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekDays_MidWeekAnchor(t *testing.T) {
	anchor := time.Date(2024, 1, 10, 15, 42, 0, 0, time.UTC)
	days := WeekDays(anchor, time.Sunday)

	assert.Equal(t, date(2024, 1, 7), days[0])
	assert.Equal(t, date(2024, 1, 13), days[6])
}

func TestWeekDays_SevenConsecutiveDaysAcrossBoundaries(t *testing.T) {
	anchors := []time.Time{
		date(2024, 12, 31),
		date(2025, 1, 1),
		date(2024, 2, 29),
		date(2023, 3, 1),
		time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC),
	}
	for _, start := range []time.Weekday{time.Sunday, time.Monday} {
		for _, anchor := range anchors {
			days := WeekDays(anchor, start)
			assert.Equal(t, start, days[0].Weekday(), "anchor %s", anchor)
			for i := 1; i < 7; i++ {
				assert.Equal(t, days[i-1].AddDate(0, 0, 1), days[i])
			}
			assert.False(t, anchor.Before(days[0]))
			assert.True(t, anchor.Before(days[6].AddDate(0, 0, 1)))
		}
	}
}

func TestWeekDays_IgnoresTimeOfDay(t *testing.T) {
	morning := WeekDays(time.Date(2024, 1, 10, 0, 0, 1, 0, time.UTC), time.Sunday)
	night := WeekDays(time.Date(2024, 1, 10, 23, 0, 0, 0, time.UTC), time.Sunday)
	assert.Equal(t, morning, night)
}

func TestMonthDays(t *testing.T) {
	assert.Len(t, MonthDays(date(2024, 2, 10)), 29)
	assert.Len(t, MonthDays(date(2023, 2, 10)), 28)
	days := MonthDays(date(2024, 1, 31))
	require.Len(t, days, 31)
	assert.Equal(t, 1, days[0])
	assert.Equal(t, 31, days[30])
}

func TestAdvancePeriod(t *testing.T) {
	assert.Equal(t, date(2024, 1, 17), AdvancePeriod(date(2024, 1, 10), ViewWeek, 1))
	assert.Equal(t, date(2024, 1, 3), AdvancePeriod(date(2024, 1, 10), ViewWeek, -1))
	assert.Equal(t, date(2025, 1, 15), AdvancePeriod(date(2024, 12, 15), ViewMonth, 1))
	assert.Equal(t, date(2023, 12, 15), AdvancePeriod(date(2024, 1, 15), ViewMonth, -1))
	assert.Equal(t, date(2024, 2, 29), AdvancePeriod(date(2024, 1, 31), ViewMonth, 1))
	assert.Equal(t, date(2024, 1, 11), AdvancePeriod(date(2024, 1, 10), ViewDay, 1))
}

func TestJobsForDayAndOverflow(t *testing.T) {
	mk := func(id, tech string, day, hour int) domain.WorkOrder {
		start := time.Date(2024, 1, day, hour, 0, 0, 0, time.UTC)
		return domain.WorkOrder{ID: id, TechnicianIDs: []string{tech}, ScheduledStart: start, ScheduledEnd: start.Add(time.Hour)}
	}
	orders := []domain.WorkOrder{
		mk("a", "T1", 10, 8),
		mk("b", "T1", 10, 10),
		mk("c", "T1", 10, 12),
		mk("d", "T1", 10, 14),
		mk("e", "T2", 10, 9),
		mk("f", "T1", 11, 9),
	}
	jobs := JobsForDay(orders, "T1", time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC))
	assert.Len(t, jobs, 4)

	cell := DayCell(orders, "T1", date(2024, 1, 10), 2)
	assert.Len(t, cell.Jobs, 2)
	assert.Equal(t, 2, cell.Overflow)

	empty := DayCell(orders, "T3", date(2024, 1, 10), 2)
	assert.NotNil(t, empty.Jobs)
	assert.Empty(t, empty.Jobs)
	assert.Zero(t, empty.Overflow)
}

func TestBuildKeepsEmptyRows(t *testing.T) {
	techs := []domain.Technician{{ID: "T1", Name: "Ana"}, {ID: "T2", Name: "Bo"}}
	rows := VisibleTechnicianRows(techs, domain.User{ID: "m", Role: domain.RoleManager}, nil)
	g := Build(date(2024, 1, 10), ViewMonth, rows, nil, GridOptions{})
	require.Len(t, g.Rows, 2)
	assert.Len(t, g.Days, 31)
	for _, r := range g.Rows {
		assert.Len(t, r.Cells, 31)
	}
}

func TestVisibleTechnicianRows(t *testing.T) {
	techs := []domain.Technician{{ID: "T1", Name: "Ana"}, {ID: "T2", Name: "Bo"}, {ID: "T3", Name: "Cy"}}

	manager := domain.User{ID: "m1", Role: domain.RoleManager}
	assert.Len(t, VisibleTechnicianRows(techs, manager, nil), 3)
	filtered := VisibleTechnicianRows(techs, manager, []string{"T3", "T1"})
	require.Len(t, filtered, 2)
	assert.Equal(t, "T1", filtered[0].Technician.ID)
	assert.Equal(t, "T3", filtered[1].Technician.ID)

	tech := domain.User{ID: "T1", Name: "Ana", Role: domain.RoleTechnician}
	for _, selected := range [][]string{nil, {"T2"}, {"T1", "T2"}} {
		for _, r := range VisibleTechnicianRows(techs, tech, selected) {
			assert.Equal(t, "T1", r.Technician.ID)
		}
	}

	ghost := domain.User{ID: "T9", Name: "New Hire", Role: domain.RoleTechnician}
	rows := VisibleTechnicianRows(techs, ghost, nil)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].Synthetic)
	assert.Equal(t, "New Hire", rows[0].Technician.Name)
}

func TestParseViewMode(t *testing.T) {
	m, err := ParseViewMode("Month")
	require.NoError(t, err)
	assert.Equal(t, ViewMonth, m)
	m, err = ParseViewMode("")
	require.NoError(t, err)
	assert.Equal(t, ViewWeek, m)
	_, err = ParseViewMode("year")
	assert.Error(t, err)
}
