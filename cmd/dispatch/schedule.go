package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dispatchboard/internal/domain"
	"dispatchboard/internal/schedule"
	"dispatchboard/internal/timegrid"
)

func scheduleCmd() *cobra.Command {
	var f viewFilters
	var date string
	cmd := &cobra.Command{
		Use:       "schedule [day|week|month]",
		Short:     "Show the technician schedule grid",
		Long:      "Rows are technicians, columns are days (week, month) or time slots (day). Technicians only see their own row.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"day", "week", "month"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := timegrid.ViewWeek
			if len(args) == 1 {
				m, err := timegrid.ParseViewMode(args[0])
				if err != nil {
					return err
				}
				mode = m
			}
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openScheduleView(ctx, b, f, mode, date)
				if err != nil {
					return err
				}
				grid := v.Grid()
				if viper.GetBool("json") {
					return printJSON(grid)
				}
				if mode == timegrid.ViewDay {
					renderDay(v, grid)
				} else {
					renderPeriod(grid)
				}
				fmt.Println(matchSummary(v))
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&date, "date", "", "any day of the period, YYYY-MM-DD (defaults to today)")
	return cmd
}

func openScheduleView(ctx context.Context, b backend, f viewFilters, mode timegrid.ViewMode, date string) (*schedule.View, error) {
	v, err := openView(ctx, b)
	if err != nil {
		return nil, err
	}
	if err := f.apply(v); err != nil {
		return nil, err
	}
	v.SetViewMode(mode)
	if date != "" {
		d, err := time.ParseInLocation(time.DateOnly, date, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid --date %q", date)
		}
		v.SetDate(d)
	}
	return v, nil
}

func renderPeriod(grid timegrid.Grid) {
	header := table.Row{"Technician"}
	for _, d := range grid.Days {
		if grid.Mode == timegrid.ViewMonth {
			header = append(header, d.Format("2"))
		} else {
			header = append(header, d.Format("Mon 01/02"))
		}
	}
	tw := newTable(header...)
	for _, row := range grid.Rows {
		r := table.Row{row.Technician.Name}
		for _, cell := range row.Cells {
			lines := make([]string, 0, len(cell.Jobs)+1)
			for _, wo := range cell.Jobs {
				if grid.Mode == timegrid.ViewMonth {
					lines = append(lines, wo.Title)
				} else {
					lines = append(lines, cardLine(wo))
				}
			}
			if cell.Overflow > 0 {
				lines = append(lines, fmt.Sprintf("+%d more", cell.Overflow))
			}
			r = append(r, strings.Join(lines, "\n"))
		}
		tw.AppendRow(r)
		tw.AppendSeparator()
	}
	tw.Render()
}

func renderDay(v *schedule.View, grid timegrid.Grid) {
	if len(grid.Days) == 0 {
		return
	}
	day := grid.Days[0]
	slots := v.TimeSlots()
	header := table.Row{"Technician"}
	for _, s := range slots {
		header = append(header, s.Label())
	}
	orders := v.Filtered()
	tw := newTable(header...)
	tw.SetTitle(day.Format("Monday, January 2 2006"))
	for _, row := range grid.Rows {
		r := table.Row{row.Technician.Name}
		for _, cell := range daySlotCells(orders, row.Technician.ID, day, slots) {
			r = append(r, cell)
		}
		tw.AppendRow(r)
	}
	tw.Render()
}

// daySlotCells labels a job in the first slot it occupies with the number of
// slots it spans and marks the slots it continues into.
func daySlotCells(orders []domain.WorkOrder, technicianID string, day time.Time, slots []timegrid.Slot) []string {
	cells := make([]string, len(slots))
	seen := map[string]bool{}
	for i, s := range slots {
		var lines []string
		for _, wo := range timegrid.JobsInSlot(orders, technicianID, day, s) {
			if seen[wo.ID] {
				lines = append(lines, "· "+wo.Title)
				continue
			}
			seen[wo.ID] = true
			if n := timegrid.SlotSpan(wo, s.Length); n > 1 {
				lines = append(lines, fmt.Sprintf("%s (%d slots)", wo.Title, n))
			} else {
				lines = append(lines, wo.Title)
			}
		}
		cells[i] = strings.Join(lines, "\n")
	}
	return cells
}

func matchSummary(v *schedule.View) string {
	n := len(v.Filtered())
	if v.State().Filters.Criteria().Empty() {
		return fmt.Sprintf("%d work orders", n)
	}
	return fmt.Sprintf("%d of %d work orders match", n, len(v.WorkOrders()))
}

func cardLine(wo domain.WorkOrder) string {
	return fmt.Sprintf("%s %s [%s]", wo.ScheduledStart.Local().Format("15:04"), wo.Title, wo.Priority)
}

func exportCmd() *cobra.Command {
	exp := &cobra.Command{Use: "export", Short: "Export work orders"}
	exp.AddCommand(exportCSVCmd())
	return exp
}

func exportCSVCmd() *cobra.Command {
	var f viewFilters
	var out string
	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Export the filtered work orders as CSV",
		Long:  "Writes work-orders-YYYY-MM-DD.csv into --out (a directory, default the current one) or to the exact file given.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				if err := f.apply(v); err != nil {
					return err
				}
				sink := &fileDownloader{target: out}
				if err := v.ExportCSV(sink); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"path": sink.written, "rows": len(v.Filtered())})
				}
				fmt.Println(sink.written)
				return nil
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output directory or file")
	return cmd
}

// fileDownloader saves an export under its suggested name inside a
// directory, or at target itself when target is not a directory.
type fileDownloader struct {
	target  string
	written string
}

func (d *fileDownloader) Download(filename string, payload []byte) error {
	path := d.target
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, filename)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return err
	}
	d.written = path
	return nil
}
