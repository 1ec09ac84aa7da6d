package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchboard/internal/domain"
)

func useLocalZone(t *testing.T, loc *time.Location) {
	t.Helper()
	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })
}

func render(t *testing.T, orders []domain.WorkOrder, l Lookup) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, orders, l))
	return buf.String()
}

func TestCSVQuotesEveryField(t *testing.T) {
	useLocalZone(t, time.UTC)
	start := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	orders := []domain.WorkOrder{
		{
			Title:          `Replace "main" valve`,
			Description:    "line one, line two",
			ServiceType:    "Plumbing",
			Status:         domain.StatusAssigned,
			Priority:       domain.PriorityHigh,
			TechnicianIDs:  []string{"T1", "T2"},
			CustomerID:     "C1",
			ScheduledStart: start,
			ScheduledEnd:   start.Add(90 * time.Minute),
			Location:       domain.Location{Address: "1 Main St"},
			Price:          125.5,
		},
		{Title: "Orphan", Status: domain.StatusNew, Priority: domain.PriorityLow, CustomerID: "missing"},
	}
	lookup := NewLookup(
		[]domain.Technician{{ID: "T1", Name: "Ana"}, {ID: "T2", Name: "Bo"}},
		[]domain.Customer{{ID: "C1", Name: "Acme"}},
	)
	payload := render(t, orders, lookup)

	lines := strings.Split(strings.TrimRight(payload, "\r\n"), "\r\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Title","Description","Service Type","Status","Priority","Technician","Customer","Scheduled Start","Scheduled End","Location","Price"`, lines[0])
	assert.True(t, strings.HasPrefix(lines[2], `"Orphan","","","New","Low","Unassigned","Unknown","",""`))

	records, err := csv.NewReader(strings.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		`Replace "main" valve`, "line one, line two", "Plumbing", "Assigned", "High",
		"Ana", "Acme", "2024-01-10 09:00", "2024-01-10 10:30", "1 Main St", "125.50",
	}, records[1])
}

func TestCSVTimesUseLocalZone(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	useLocalZone(t, est)
	start := time.Date(2024, 1, 11, 4, 30, 0, 0, time.UTC)
	orders := []domain.WorkOrder{{
		Title:          "Late call",
		Status:         domain.StatusNew,
		Priority:       domain.PriorityLow,
		ScheduledStart: start,
		ScheduledEnd:   start.Add(30 * time.Minute),
	}}

	records, err := csv.NewReader(strings.NewReader(render(t, orders, NewLookup(nil, nil)))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2024-01-10 23:30", records[1][7])
	assert.Equal(t, "2024-01-11 00:00", records[1][8])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "work-orders-2024-03-05.csv", Filename(time.Date(2024, 3, 5, 22, 0, 0, 0, time.UTC)))
}
