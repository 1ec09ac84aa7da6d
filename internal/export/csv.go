// Package export serializes work orders for download.
package export

import (
	"io"
	"strconv"
	"strings"
	"time"

	"dispatchboard/internal/domain"
)

// Columns is the fixed CSV header.
var Columns = []string{
	"Title",
	"Description",
	"Service Type",
	"Status",
	"Priority",
	"Technician",
	"Customer",
	"Scheduled Start",
	"Scheduled End",
	"Location",
	"Price",
}

const timeLayout = "2006-01-02 15:04"

// Filename returns the download name for an export taken on day.
func Filename(day time.Time) string {
	return "work-orders-" + day.Format("2006-01-02") + ".csv"
}

// Lookup resolves display names for ids referenced by work orders.
type Lookup struct {
	technicians map[string]string
	customers   map[string]string
}

// NewLookup indexes technicians and customers by id.
func NewLookup(techs []domain.Technician, customers []domain.Customer) Lookup {
	l := Lookup{
		technicians: make(map[string]string, len(techs)),
		customers:   make(map[string]string, len(customers)),
	}
	for _, t := range techs {
		l.technicians[t.ID] = t.Name
	}
	for _, c := range customers {
		l.customers[c.ID] = c.Name
	}
	return l
}

// Technician names the first assigned technician or "Unassigned".
func (l Lookup) Technician(wo domain.WorkOrder) string {
	if len(wo.TechnicianIDs) == 0 {
		return "Unassigned"
	}
	if name, ok := l.technicians[wo.TechnicianIDs[0]]; ok && name != "" {
		return name
	}
	return "Unassigned"
}

// Customer names the work order's customer or "Unknown".
func (l Lookup) Customer(wo domain.WorkOrder) string {
	if name, ok := l.customers[wo.CustomerID]; ok && name != "" {
		return name
	}
	return "Unknown"
}

// Record returns the CSV fields of wo in Columns order.
func (l Lookup) Record(wo domain.WorkOrder) []string {
	return []string{
		wo.Title,
		wo.Description,
		wo.ServiceType,
		string(wo.Status),
		string(wo.Priority),
		l.Technician(wo),
		l.Customer(wo),
		formatTime(wo.ScheduledStart),
		formatTime(wo.ScheduledEnd),
		wo.Location.Address,
		strconv.FormatFloat(wo.Price, 'f', 2, 64),
	}
}

// WriteCSV writes the header and one quoted row per order.
func WriteCSV(w io.Writer, orders []domain.WorkOrder, l Lookup) error {
	if err := writeRow(w, Columns); err != nil {
		return err
	}
	for _, wo := range orders {
		if err := writeRow(w, l.Record(wo)); err != nil {
			return err
		}
	}
	return nil
}

// writeRow quotes every field; encoding/csv only quotes when needed.
func writeRow(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(time.Local).Format(timeLayout)
}
