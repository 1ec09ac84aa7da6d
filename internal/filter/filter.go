// Package filter derives the visible subset of work orders from search text,
// priorities and statuses. Each dimension is optional; set dimensions combine
// with AND.
package filter

import (
	"slices"
	"strings"

	"dispatchboard/internal/domain"
)

// Criteria is the work-order predicate. Technician selection is deliberately
// absent: it controls row visibility, not which orders exist.
type Criteria struct {
	SearchTerm string            `json:"search_term,omitempty"`
	Priorities []domain.Priority `json:"priorities,omitempty"`
	Statuses   []domain.Status   `json:"statuses,omitempty"`
}

// Empty reports whether the criteria restrict nothing.
func (c Criteria) Empty() bool {
	return strings.TrimSpace(c.SearchTerm) == "" && len(c.Priorities) == 0 && len(c.Statuses) == 0
}

// Match reports whether wo passes every set dimension.
func (c Criteria) Match(wo domain.WorkOrder) bool {
	if term := strings.ToLower(strings.TrimSpace(c.SearchTerm)); term != "" {
		if !strings.Contains(strings.ToLower(wo.Title), term) &&
			!strings.Contains(strings.ToLower(wo.Location.Address), term) {
			return false
		}
	}
	if len(c.Priorities) > 0 && !slices.Contains(c.Priorities, wo.Priority) {
		return false
	}
	if len(c.Statuses) > 0 && !slices.Contains(c.Statuses, wo.Status) {
		return false
	}
	return true
}

// Apply returns the matching orders in input order. It never mutates orders.
func (c Criteria) Apply(orders []domain.WorkOrder) []domain.WorkOrder {
	out := make([]domain.WorkOrder, 0, len(orders))
	for _, wo := range orders {
		if c.Match(wo) {
			out = append(out, wo)
		}
	}
	return out
}

// ParsePriorities converts raw values, rejecting unknown ones.
func ParsePriorities(raw []string) ([]domain.Priority, error) {
	var out []domain.Priority
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		p := domain.Priority(r)
		if !p.Valid() {
			return nil, &InvalidValueError{Dimension: "priority", Value: r}
		}
		out = append(out, p)
	}
	return out, nil
}

// ParseStatuses converts raw values, rejecting unknown ones.
func ParseStatuses(raw []string) ([]domain.Status, error) {
	var out []domain.Status
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		s := domain.Status(r)
		if !s.Valid() {
			return nil, &InvalidValueError{Dimension: "status", Value: r}
		}
		out = append(out, s)
	}
	return out, nil
}

// InvalidValueError reports an unknown filter value.
type InvalidValueError struct {
	Dimension string
	Value     string
}

func (e *InvalidValueError) Error() string {
	return "invalid " + e.Dimension + " filter value " + e.Value
}
