package server

import (
	"encoding/json"
	"time"

	"dispatchboard/internal/domain"
	"dispatchboard/internal/engine"
	"dispatchboard/internal/timegrid"
)

// Request payloads

type CreateWorkOrderRequest struct {
	Title             string           `json:"title"`
	Description       string           `json:"description,omitempty"`
	ServiceType       string           `json:"service_type,omitempty"`
	CustomerID        string           `json:"customer_id,omitempty"`
	TechnicianIDs     []string         `json:"technician_ids,omitempty"`
	ScheduledStart    time.Time        `json:"scheduled_start" format:"date-time"`
	ScheduledEnd      time.Time        `json:"scheduled_end" format:"date-time"`
	Priority          domain.Priority  `json:"priority,omitempty" enum:"Low,Medium,High,Critical"`
	Status            domain.Status    `json:"status,omitempty" enum:"New,Assigned,In Progress,Completed"`
	EstimatedDuration int              `json:"estimated_duration,omitempty"`
	Location          *domain.Location `json:"location,omitempty"`
	Price             float64          `json:"price,omitempty"`
}

func (r CreateWorkOrderRequest) workOrder() domain.WorkOrder {
	wo := domain.WorkOrder{
		Title:             r.Title,
		Description:       r.Description,
		ServiceType:       r.ServiceType,
		CustomerID:        r.CustomerID,
		TechnicianIDs:     r.TechnicianIDs,
		ScheduledStart:    r.ScheduledStart,
		ScheduledEnd:      r.ScheduledEnd,
		Priority:          r.Priority,
		Status:            r.Status,
		EstimatedDuration: r.EstimatedDuration,
		Price:             r.Price,
	}
	if r.Location != nil {
		wo.Location = *r.Location
	}
	return wo
}

type CreateTechnicianRequest struct {
	ID       string                  `json:"id,omitempty"`
	Name     string                  `json:"name"`
	Email    string                  `json:"email,omitempty"`
	Phone    string                  `json:"phone,omitempty"`
	Skills   []string                `json:"skills,omitempty"`
	Status   domain.TechnicianStatus `json:"status,omitempty" enum:"Available,Busy,Offline"`
	Location *domain.Location        `json:"location,omitempty"`
}

func (r CreateTechnicianRequest) options() engine.TechnicianCreateOptions {
	opts := engine.TechnicianCreateOptions{
		ID:     r.ID,
		Name:   r.Name,
		Email:  r.Email,
		Phone:  r.Phone,
		Skills: r.Skills,
		Status: r.Status,
	}
	if r.Location != nil {
		opts.Location = *r.Location
	}
	return opts
}

type CreateCustomerRequest struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type CreateUserRequest struct {
	ID    string      `json:"id,omitempty"`
	Name  string      `json:"name"`
	Email string      `json:"email,omitempty"`
	Role  domain.Role `json:"role" enum:"Admin,Manager,Dispatcher,Technician"`
}

type CreateAPIKeyRequest struct {
	Name string `json:"name,omitempty"`
}

// Response payloads

type MeResponse struct {
	User        domain.User `json:"user"`
	Permissions []string    `json:"permissions"`
	Source      string      `json:"source"`
}

type APIKeyResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	Key       string `json:"key" doc:"Raw key. Only returned once."`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type SlotResponse struct {
	Label  string `json:"label"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Length int    `json:"length_minutes"`
}

type ScheduleResponse struct {
	Mode      timegrid.ViewMode  `json:"mode" enum:"day,week,month"`
	Date      string             `json:"date" format:"date"`
	Days      []string           `json:"days"`
	Rows      []timegrid.GridRow `json:"rows"`
	TimeSlots []SlotResponse     `json:"time_slots,omitempty"`
	Total     int                `json:"total" doc:"Work orders passing the filters"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// Conversion helpers

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

func decodeJSONMap(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return map[string]any{"raw": raw}
	}
	return out
}

func slotResponses(slots []timegrid.Slot) []SlotResponse {
	out := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotResponse{Label: s.Label(), Hour: s.Hour, Minute: s.Minute, Length: s.Length})
	}
	return out
}

func nonNilSlice[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
