package timegrid

import (
	"fmt"
	"time"

	"dispatchboard/internal/domain"
)

// Slot is a quantized time-of-day interval of the day view.
type Slot struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Length int `json:"length_minutes"`
}

// Label renders the slot start as HH:MM.
func (s Slot) Label() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// Bounds returns the slot's interval on date.
func (s Slot) Bounds(date time.Time) (time.Time, time.Time) {
	start := Combine(date, s.Hour, s.Minute)
	return start, start.Add(time.Duration(s.Length) * time.Minute)
}

// TimeSlots generates slots from startHour (inclusive) to endHour (exclusive)
// in stepMinutes increments.
func TimeSlots(startHour, endHour, stepMinutes int) []Slot {
	if stepMinutes <= 0 || endHour <= startHour {
		return nil
	}
	var out []Slot
	for m := startHour * 60; m < endHour*60; m += stepMinutes {
		out = append(out, Slot{Hour: m / 60, Minute: m % 60, Length: stepMinutes})
	}
	return out
}

// Quantize rounds t down to the slot grid of stepMinutes.
func Quantize(t time.Time, stepMinutes int) time.Time {
	if stepMinutes <= 0 {
		return t
	}
	mins := t.Hour()*60 + t.Minute()
	mins -= mins % stepMinutes
	return Combine(t, mins/60, mins%60)
}

// JobsInSlot returns orders for technicianID whose window overlaps slot on date.
func JobsInSlot(orders []domain.WorkOrder, technicianID string, date time.Time, slot Slot) []domain.WorkOrder {
	start, end := slot.Bounds(date)
	var out []domain.WorkOrder
	for _, wo := range orders {
		if !wo.AssignedTo(technicianID) {
			continue
		}
		if wo.ScheduledStart.Before(end) && wo.ScheduledEnd.After(start) {
			out = append(out, wo)
		}
	}
	return out
}

// SlotSpan reports how many slots of stepMinutes the order covers, at least one.
func SlotSpan(wo domain.WorkOrder, stepMinutes int) int {
	if stepMinutes <= 0 {
		return 1
	}
	mins := int(wo.Duration() / time.Minute)
	n := (mins + stepMinutes - 1) / stepMinutes
	if n < 1 {
		return 1
	}
	return n
}
