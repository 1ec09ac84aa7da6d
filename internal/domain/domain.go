package domain

import "time"

type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

type Status string

const (
	StatusNew        Status = "New"
	StatusAssigned   Status = "Assigned"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Valid reports whether s is one of the known work-order statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusAssigned, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TechnicianStatus string

const (
	TechnicianAvailable TechnicianStatus = "Available"
	TechnicianBusy      TechnicianStatus = "Busy"
	TechnicianOffline   TechnicianStatus = "Offline"
)

type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleManager    Role = "Manager"
	RoleDispatcher Role = "Dispatcher"
	RoleTechnician Role = "Technician"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleDispatcher, RoleTechnician:
		return true
	}
	return false
}

type Location struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

type WorkOrder struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description,omitempty"`
	ServiceType       string    `json:"service_type,omitempty"`
	CustomerID        string    `json:"customer_id,omitempty"`
	TechnicianIDs     []string  `json:"technician_ids"`
	ScheduledStart    time.Time `json:"scheduled_start" format:"date-time"`
	ScheduledEnd      time.Time `json:"scheduled_end" format:"date-time"`
	Priority          Priority  `json:"priority" enum:"Low,Medium,High,Critical"`
	Status            Status    `json:"status" enum:"New,Assigned,In Progress,Completed"`
	EstimatedDuration int       `json:"estimated_duration"`
	Location          Location  `json:"location"`
	Price             float64   `json:"price"`
	CreatedAt         string    `json:"created_at,omitempty" format:"date-time"`
	UpdatedAt         string    `json:"updated_at,omitempty" format:"date-time"`
}

// Duration is the scheduled window length.
func (w WorkOrder) Duration() time.Duration {
	return w.ScheduledEnd.Sub(w.ScheduledStart)
}

// AssignedTo reports whether technicianID is among the assigned technicians.
func (w WorkOrder) AssignedTo(technicianID string) bool {
	for _, id := range w.TechnicianIDs {
		if id == technicianID {
			return true
		}
	}
	return false
}

// Clone returns a copy that does not share the technician slice.
func (w WorkOrder) Clone() WorkOrder {
	c := w
	if w.TechnicianIDs != nil {
		c.TechnicianIDs = append([]string(nil), w.TechnicianIDs...)
	}
	return c
}

// Duplicate returns a copy ready to be created as a new work order: no id,
// status New, title suffixed with " (Copy)".
func (w WorkOrder) Duplicate() WorkOrder {
	c := w.Clone()
	c.ID = ""
	c.Title = w.Title + " (Copy)"
	c.Status = StatusNew
	c.CreatedAt = ""
	c.UpdatedAt = ""
	return c
}

// WorkOrderPatch carries the fields of a partial update; nil means unchanged.
type WorkOrderPatch struct {
	Title             *string    `json:"title,omitempty"`
	Description       *string    `json:"description,omitempty"`
	ServiceType       *string    `json:"service_type,omitempty"`
	CustomerID        *string    `json:"customer_id,omitempty"`
	TechnicianIDs     []string   `json:"technician_ids,omitempty"`
	ScheduledStart    *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd      *time.Time `json:"scheduled_end,omitempty"`
	Priority          *Priority  `json:"priority,omitempty"`
	Status            *Status    `json:"status,omitempty"`
	EstimatedDuration *int       `json:"estimated_duration,omitempty"`
	Location          *Location  `json:"location,omitempty"`
	Price             *float64   `json:"price,omitempty"`
}

// Apply returns w with the non-nil patch fields applied.
func (p WorkOrderPatch) Apply(w WorkOrder) WorkOrder {
	out := w.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.ServiceType != nil {
		out.ServiceType = *p.ServiceType
	}
	if p.CustomerID != nil {
		out.CustomerID = *p.CustomerID
	}
	if p.TechnicianIDs != nil {
		out.TechnicianIDs = append([]string(nil), p.TechnicianIDs...)
	}
	if p.ScheduledStart != nil {
		out.ScheduledStart = *p.ScheduledStart
	}
	if p.ScheduledEnd != nil {
		out.ScheduledEnd = *p.ScheduledEnd
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.EstimatedDuration != nil {
		out.EstimatedDuration = *p.EstimatedDuration
	}
	if p.Location != nil {
		out.Location = *p.Location
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	return out
}

type Technician struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Email    string           `json:"email,omitempty"`
	Phone    string           `json:"phone,omitempty"`
	Skills   []string         `json:"skills"`
	Status   TechnicianStatus `json:"status" enum:"Available,Busy,Offline"`
	Location Location         `json:"location"`
}

type Customer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at,omitempty" format:"date-time"`
}

type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role" enum:"Admin,Manager,Dispatcher,Technician"`
	CreatedAt string `json:"created_at,omitempty" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
