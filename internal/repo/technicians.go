package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"dispatchboard/internal/domain"
)

const technicianColumns = `id,name,COALESCE(email,''),COALESCE(phone,''),skills_json,status,COALESCE(address,''),lat,lng`

func scanTechnician(row rowScanner) (domain.Technician, error) {
	var (
		t      domain.Technician
		skills string
	)
	err := row.Scan(&t.ID, &t.Name, &t.Email, &t.Phone, &skills, &t.Status, &t.Location.Address, &t.Location.Lat, &t.Location.Lng)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	if err != nil {
		return t, err
	}
	t.Skills = []string{}
	if skills != "" {
		if err := json.Unmarshal([]byte(skills), &t.Skills); err != nil {
			return t, fmt.Errorf("technician %s skills: %w", t.ID, err)
		}
	}
	return t, nil
}

func (r Repo) InsertTechnician(ctx context.Context, tx *sql.Tx, t domain.Technician, createdAt string) error {
	skills := t.Skills
	if skills == nil {
		skills = []string{}
	}
	payload, err := json.Marshal(skills)
	if err != nil {
		return err
	}
	_, err = r.q(tx).ExecContext(ctx, `INSERT INTO technicians(id,name,email,phone,skills_json,status,address,lat,lng,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Name, nullable(t.Email), nullable(t.Phone), string(payload), t.Status,
		nullable(t.Location.Address), t.Location.Lat, t.Location.Lng, createdAt)
	return err
}

func (r Repo) GetTechnician(ctx context.Context, id string) (domain.Technician, error) {
	return scanTechnician(r.DB.QueryRowContext(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE id=?`, id))
}

// ListTechnicians returns the roster ordered by name.
func (r Repo) ListTechnicians(ctx context.Context) ([]domain.Technician, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+technicianColumns+` FROM technicians ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Technician{}
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (r Repo) InsertCustomer(ctx context.Context, tx *sql.Tx, c domain.Customer) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO customers(id,name,email,phone,address,created_at) VALUES (?,?,?,?,?,?)`,
		c.ID, c.Name, nullable(c.Email), nullable(c.Phone), nullable(c.Address), c.CreatedAt)
	return err
}

const customerColumns = `id,name,COALESCE(email,''),COALESCE(phone,''),COALESCE(address,''),created_at`

func (r Repo) GetCustomer(ctx context.Context, id string) (domain.Customer, error) {
	var c domain.Customer
	err := r.DB.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id=?`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (r Repo) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Customer{}
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
