package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dispatchboard/internal/domain"
)

const workOrderColumns = `id,title,COALESCE(description,''),COALESCE(service_type,''),COALESCE(customer_id,''),
scheduled_start,scheduled_end,priority,status,estimated_duration,COALESCE(address,''),lat,lng,price,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkOrder(row rowScanner) (domain.WorkOrder, error) {
	var (
		wo         domain.WorkOrder
		start, end string
	)
	err := row.Scan(&wo.ID, &wo.Title, &wo.Description, &wo.ServiceType, &wo.CustomerID,
		&start, &end, &wo.Priority, &wo.Status, &wo.EstimatedDuration,
		&wo.Location.Address, &wo.Location.Lat, &wo.Location.Lng, &wo.Price, &wo.CreatedAt, &wo.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return wo, ErrNotFound
	}
	if err != nil {
		return wo, err
	}
	if wo.ScheduledStart, err = parseTime(start); err != nil {
		return wo, fmt.Errorf("work order %s start: %w", wo.ID, err)
	}
	if wo.ScheduledEnd, err = parseTime(end); err != nil {
		return wo, fmt.Errorf("work order %s end: %w", wo.ID, err)
	}
	wo.TechnicianIDs = []string{}
	return wo, nil
}

// InsertWorkOrder stores wo and its technician assignment.
func (r Repo) InsertWorkOrder(ctx context.Context, tx *sql.Tx, wo domain.WorkOrder) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO work_orders(id,title,description,service_type,customer_id,
scheduled_start,scheduled_end,priority,status,estimated_duration,address,lat,lng,price,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		wo.ID, wo.Title, nullable(wo.Description), nullable(wo.ServiceType), nullable(wo.CustomerID),
		formatTime(wo.ScheduledStart), formatTime(wo.ScheduledEnd), wo.Priority, wo.Status, wo.EstimatedDuration,
		nullable(wo.Location.Address), wo.Location.Lat, wo.Location.Lng, wo.Price, wo.CreatedAt, wo.UpdatedAt)
	if err != nil {
		return err
	}
	return r.setTechnicians(ctx, tx, wo.ID, wo.TechnicianIDs)
}

// UpdateWorkOrder overwrites every column of wo and replaces its assignment.
func (r Repo) UpdateWorkOrder(ctx context.Context, tx *sql.Tx, wo domain.WorkOrder) error {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE work_orders SET title=?,description=?,service_type=?,customer_id=?,
scheduled_start=?,scheduled_end=?,priority=?,status=?,estimated_duration=?,address=?,lat=?,lng=?,price=?,updated_at=?
WHERE id=?`,
		wo.Title, nullable(wo.Description), nullable(wo.ServiceType), nullable(wo.CustomerID),
		formatTime(wo.ScheduledStart), formatTime(wo.ScheduledEnd), wo.Priority, wo.Status, wo.EstimatedDuration,
		nullable(wo.Location.Address), wo.Location.Lat, wo.Location.Lng, wo.Price, wo.UpdatedAt, wo.ID)
	if err != nil {
		return err
	}
	if err := affectedOrNotFound(res); err != nil {
		return err
	}
	return r.setTechnicians(ctx, tx, wo.ID, wo.TechnicianIDs)
}

func (r Repo) setTechnicians(ctx context.Context, tx *sql.Tx, workOrderID string, ids []string) error {
	q := r.q(tx)
	if _, err := q.ExecContext(ctx, `DELETE FROM work_order_technicians WHERE work_order_id=?`, workOrderID); err != nil {
		return err
	}
	for i, id := range ids {
		if _, err := q.ExecContext(ctx, `INSERT OR IGNORE INTO work_order_technicians(work_order_id,technician_id,position) VALUES (?,?,?)`,
			workOrderID, id, i); err != nil {
			return err
		}
	}
	return nil
}

// DeleteWorkOrder removes a work order; assignments cascade.
func (r Repo) DeleteWorkOrder(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := r.q(tx).ExecContext(ctx, `DELETE FROM work_orders WHERE id=?`, id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r Repo) GetWorkOrder(ctx context.Context, tx *sql.Tx, id string) (domain.WorkOrder, error) {
	q := r.q(tx)
	wo, err := scanWorkOrder(q.QueryRowContext(ctx, `SELECT `+workOrderColumns+` FROM work_orders WHERE id=?`, id))
	if err != nil {
		return wo, err
	}
	techs, err := r.technicianIDs(ctx, q, []string{id})
	if err != nil {
		return wo, err
	}
	if ids, ok := techs[id]; ok {
		wo.TechnicianIDs = ids
	}
	return wo, nil
}

// WorkOrderFilters narrows ListWorkOrders. Zero values do not restrict.
type WorkOrderFilters struct {
	TechnicianID string
	CustomerID   string
	Status       string
	From         string
	To           string
	Limit        int
}

// ListWorkOrders returns work orders ordered by scheduled start.
func (r Repo) ListWorkOrders(ctx context.Context, f WorkOrderFilters) ([]domain.WorkOrder, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.TechnicianID != "" {
		clauses = append(clauses, "id IN (SELECT work_order_id FROM work_order_technicians WHERE technician_id=?)")
		args = append(args, f.TechnicianID)
	}
	if f.CustomerID != "" {
		clauses = append(clauses, "customer_id=?")
		args = append(args, f.CustomerID)
	}
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if f.From != "" {
		clauses = append(clauses, "scheduled_end>?")
		args = append(args, f.From)
	}
	if f.To != "" {
		clauses = append(clauses, "scheduled_start<?")
		args = append(args, f.To)
	}
	query := `SELECT ` + workOrderColumns + ` FROM work_orders WHERE ` + strings.Join(clauses, " AND ") +
		` ORDER BY scheduled_start ASC, id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var (
		res []domain.WorkOrder
		ids []string
	)
	for rows.Next() {
		wo, err := scanWorkOrder(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, wo)
		ids = append(ids, wo.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.WorkOrder{}, nil
	}
	techs, err := r.technicianIDs(ctx, r.DB, ids)
	if err != nil {
		return nil, err
	}
	for i := range res {
		if t, ok := techs[res[i].ID]; ok {
			res[i].TechnicianIDs = t
		}
	}
	return res, nil
}

func (r Repo) technicianIDs(ctx context.Context, q execer, workOrderIDs []string) (map[string][]string, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(workOrderIDs)), ",")
	args := make([]any, len(workOrderIDs))
	for i, id := range workOrderIDs {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, `SELECT work_order_id,technician_id FROM work_order_technicians
WHERE work_order_id IN (`+placeholders+`) ORDER BY work_order_id, position`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]string{}
	for rows.Next() {
		var woID, techID string
		if err := rows.Scan(&woID, &techID); err != nil {
			return nil, err
		}
		out[woID] = append(out[woID], techID)
	}
	return out, rows.Err()
}
