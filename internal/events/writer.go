package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Event types written by the engine.
const (
	WorkOrderCreated    = "work_order.created"
	WorkOrderUpdated    = "work_order.updated"
	WorkOrderDeleted    = "work_order.deleted"
	WorkOrderDuplicated = "work_order.duplicated"
	TechnicianCreated   = "technician.created"
	CustomerCreated     = "customer.created"
	UserCreated         = "user.created"
	APIKeyCreated       = "api_key.created"
)

type Writer struct {
	Now func() time.Time
}

type EventPayload map[string]any

// Append records one event inside tx.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, entityKind, entityID, actorID string, payload EventPayload) error {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		now().UTC().Format(time.RFC3339), evtType, entityKind, nullable(entityID), actorID, string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
