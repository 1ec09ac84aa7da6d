package filter

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatchboard/internal/domain"
)

func orders(counts map[domain.Priority]int) []domain.WorkOrder {
	var out []domain.WorkOrder
	i := 0
	for _, p := range []domain.Priority{domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityCritical} {
		for n := 0; n < counts[p]; n++ {
			i++
			out = append(out, domain.WorkOrder{
				ID:       fmt.Sprintf("wo-%d", i),
				Title:    fmt.Sprintf("Job %d", i),
				Priority: p,
				Status:   domain.StatusNew,
			})
		}
	}
	return out
}

func TestPriorityFilterScenario(t *testing.T) {
	all := orders(map[domain.Priority]int{domain.PriorityCritical: 3, domain.PriorityHigh: 2, domain.PriorityMedium: 5})
	c := Criteria{Priorities: []domain.Priority{domain.PriorityCritical, domain.PriorityHigh}}
	assert.Len(t, c.Apply(all), 5)
}

func TestEmptySetsDoNotRestrict(t *testing.T) {
	all := orders(map[domain.Priority]int{domain.PriorityLow: 2, domain.PriorityHigh: 1})
	c := Criteria{Priorities: []domain.Priority{}, Statuses: nil}
	assert.True(t, c.Empty())
	assert.Len(t, c.Apply(all), 3)
}

func TestSearchMatchesTitleOrAddress(t *testing.T) {
	all := []domain.WorkOrder{
		{ID: "1", Title: "Boiler repair"},
		{ID: "2", Title: "Install", Location: domain.Location{Address: "12 BOILER Lane"}},
		{ID: "3", Title: "Inspect", Location: domain.Location{Address: "4 Elm St"}},
	}
	got := Criteria{SearchTerm: "  boiler "}.Apply(all)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "2", got[1].ID)
}

func TestMonotonicity(t *testing.T) {
	all := []domain.WorkOrder{
		{ID: "1", Title: "Fix pump", Priority: domain.PriorityHigh, Status: domain.StatusNew},
		{ID: "2", Title: "Fix valve", Priority: domain.PriorityLow, Status: domain.StatusCompleted},
		{ID: "3", Title: "Survey", Priority: domain.PriorityHigh, Status: domain.StatusAssigned},
		{ID: "4", Title: "Fix roof", Priority: domain.PriorityCritical, Status: domain.StatusInProgress},
	}
	base := Criteria{}
	full := len(base.Apply(all))
	assert.Equal(t, len(all), full)

	steps := []Criteria{
		{SearchTerm: "fix"},
		{SearchTerm: "fix", Priorities: []domain.Priority{domain.PriorityHigh, domain.PriorityCritical}},
		{SearchTerm: "fix", Priorities: []domain.Priority{domain.PriorityHigh, domain.PriorityCritical}, Statuses: []domain.Status{domain.StatusNew}},
	}
	prev := full
	for _, c := range steps {
		n := len(c.Apply(all))
		assert.LessOrEqual(t, n, prev)
		prev = n
	}
	assert.Equal(t, 1, prev)
	assert.Len(t, Criteria{}.Apply(all), full)
}

func TestParse(t *testing.T) {
	ps, err := ParsePriorities([]string{"High", " ", "Critical"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Priority{domain.PriorityHigh, domain.PriorityCritical}, ps)
	_, err = ParsePriorities([]string{"Urgent"})
	var ive *InvalidValueError
	assert.ErrorAs(t, err, &ive)

	ss, err := ParseStatuses([]string{"In Progress"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Status{domain.StatusInProgress}, ss)
}
