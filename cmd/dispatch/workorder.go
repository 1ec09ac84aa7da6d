package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"dispatchboard/internal/domain"
	"dispatchboard/internal/filter"
	"dispatchboard/internal/schedule"
	"dispatchboard/internal/timegrid"
)

func workOrderCmd() *cobra.Command {
	wo := &cobra.Command{
		Use:     "workorder",
		Aliases: []string{"wo"},
		Short:   "Manage work orders",
		Long:    "Work order commands run through the schedule board, so role limits and notices match the UI.",
	}
	wo.AddCommand(workOrderListCmd())
	wo.AddCommand(workOrderShowCmd())
	wo.AddCommand(workOrderCreateCmd())
	wo.AddCommand(workOrderUpdateCmd())
	wo.AddCommand(workOrderStatusCmd())
	wo.AddCommand(workOrderMoveCmd())
	wo.AddCommand(workOrderDuplicateCmd())
	wo.AddCommand(workOrderDeleteCmd())
	wo.AddCommand(workOrderBulkStatusCmd())
	wo.AddCommand(workOrderBulkDeleteCmd())
	return wo
}

// viewFilters are the board filters shared by list, schedule and export.
type viewFilters struct {
	technicians []string
	priorities  []string
	statuses    []string
	search      string
}

func (f *viewFilters) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.technicians, "technician", nil, "technician id (repeatable)")
	cmd.Flags().StringSliceVar(&f.priorities, "priority", nil, "Low, Medium, High or Critical (repeatable)")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "New, Assigned, In Progress or Completed (repeatable)")
	cmd.Flags().StringVar(&f.search, "search", "", "case-insensitive text in title or site address")
}

func (f viewFilters) apply(v *schedule.View) error {
	priorities, err := filter.ParsePriorities(f.priorities)
	if err != nil {
		return err
	}
	statuses, err := filter.ParseStatuses(f.statuses)
	if err != nil {
		return err
	}
	v.SetTechnicianFilter(f.technicians)
	v.SetPriorityFilter(priorities)
	v.SetStatusFilter(statuses)
	v.SetSearch(f.search)
	return nil
}

func workOrderListCmd() *cobra.Command {
	var f viewFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				if err := f.apply(v); err != nil {
					return err
				}
				items := v.Filtered()
				sort.SliceStable(items, func(i, j int) bool { return items[i].ScheduledStart.Before(items[j].ScheduledStart) })
				if viper.GetBool("json") {
					return printJSON(items)
				}
				printWorkOrders(items)
				return nil
			})
		},
	}
	f.register(cmd)
	return cmd
}

func printWorkOrders(items []domain.WorkOrder) {
	tw := newTable("ID", "Title", "Technicians", "Start", "End", "Priority", "Status")
	for _, wo := range items {
		tw.AppendRow(table.Row{
			wo.ID,
			wo.Title,
			strings.Join(wo.TechnicianIDs, ", "),
			wo.ScheduledStart.Format("2006-01-02 15:04"),
			wo.ScheduledEnd.Format("15:04"),
			wo.Priority,
			wo.Status,
		})
	}
	tw.Render()
}

func workOrderShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				wo, ok := v.WorkOrder(args[0])
				if !ok {
					return fmt.Errorf("%s: %w", args[0], schedule.ErrUnknownWorkOrder)
				}
				return printJSONOrTable(wo)
			})
		},
	}
}

func workOrderCreateCmd() *cobra.Command {
	var d schedule.Draft
	var start, end, priority, status string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a work order",
		Long:  "Defaults match the board's create dialog: today 09:00 to 10:00, Medium priority, status New.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				if err := v.OpenCreate(); err != nil {
					return err
				}
				var parseErr error
				if err := v.UpdateDraft(func(form *schedule.Draft) {
					form.Title = d.Title
					form.Description = d.Description
					form.ServiceType = d.ServiceType
					form.CustomerID = d.CustomerID
					form.TechnicianID = d.TechnicianID
					form.Location = d.Location
					form.Price = d.Price
					if d.EstimatedDuration > 0 {
						form.EstimatedDuration = d.EstimatedDuration
					}
					if priority != "" {
						form.Priority = domain.Priority(priority)
					}
					if status != "" {
						form.Status = domain.Status(status)
					}
					if start != "" {
						s, err := parseTime(start)
						if err != nil {
							parseErr = err
							return
						}
						span := form.ScheduledEnd.Sub(form.ScheduledStart)
						form.ScheduledStart = s
						form.ScheduledEnd = s.Add(span)
					}
					if end != "" {
						e, err := parseTime(end)
						if err != nil {
							parseErr = err
							return
						}
						form.ScheduledEnd = e
					}
				}); err != nil {
					return err
				}
				if parseErr != nil {
					return parseErr
				}
				created, err := v.SubmitCreate(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&d.Title, "title", "", "title")
	cmd.Flags().StringVar(&d.Description, "description", "", "description")
	cmd.Flags().StringVar(&d.ServiceType, "service-type", "", "service type")
	cmd.Flags().StringVar(&d.CustomerID, "customer", "", "customer id")
	cmd.Flags().StringVar(&d.TechnicianID, "technician", "", "technician id")
	cmd.Flags().StringVar(&start, "start", "", "start, RFC3339 or \"YYYY-MM-DD HH:MM\"")
	cmd.Flags().StringVar(&end, "end", "", "end (defaults to one hour after start)")
	cmd.Flags().StringVar(&priority, "priority", "", "Low, Medium, High or Critical")
	cmd.Flags().StringVar(&status, "status", "", "New, Assigned, In Progress or Completed")
	cmd.Flags().IntVar(&d.EstimatedDuration, "duration", 0, "estimated duration in minutes")
	cmd.Flags().StringVar(&d.Location.Address, "address", "", "site address")
	cmd.Flags().Float64Var(&d.Price, "price", 0, "price")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("technician")
	return cmd
}

func workOrderUpdateCmd() *cobra.Command {
	var title, description, serviceType, customer, start, end, priority, status, address string
	var technicians []string
	var duration int
	var price float64
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a work order; only flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var patch domain.WorkOrderPatch
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("service-type") {
				patch.ServiceType = &serviceType
			}
			if flags.Changed("customer") {
				patch.CustomerID = &customer
			}
			if flags.Changed("technician") {
				patch.TechnicianIDs = technicians
			}
			if flags.Changed("start") {
				t, err := parseTime(start)
				if err != nil {
					return err
				}
				patch.ScheduledStart = &t
			}
			if flags.Changed("end") {
				t, err := parseTime(end)
				if err != nil {
					return err
				}
				patch.ScheduledEnd = &t
			}
			if flags.Changed("priority") {
				p := domain.Priority(priority)
				patch.Priority = &p
			}
			if flags.Changed("status") {
				s := domain.Status(status)
				patch.Status = &s
			}
			if flags.Changed("duration") {
				patch.EstimatedDuration = &duration
			}
			if flags.Changed("address") {
				patch.Location = &domain.Location{Address: address}
			}
			if flags.Changed("price") {
				patch.Price = &price
			}
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				if err := v.OpenEdit(args[0]); err != nil {
					return err
				}
				updated, err := v.SubmitEdit(ctx, patch)
				if err != nil {
					return err
				}
				return printJSONOrTable(updated)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&serviceType, "service-type", "", "service type")
	cmd.Flags().StringVar(&customer, "customer", "", "customer id")
	cmd.Flags().StringSliceVar(&technicians, "technician", nil, "technician id (repeatable, replaces the assignment)")
	cmd.Flags().StringVar(&start, "start", "", "start, RFC3339 or \"YYYY-MM-DD HH:MM\"")
	cmd.Flags().StringVar(&end, "end", "", "end")
	cmd.Flags().StringVar(&priority, "priority", "", "Low, Medium, High or Critical")
	cmd.Flags().StringVar(&status, "status", "", "New, Assigned, In Progress or Completed")
	cmd.Flags().IntVar(&duration, "duration", 0, "estimated duration in minutes")
	cmd.Flags().StringVar(&address, "address", "", "site address")
	cmd.Flags().Float64Var(&price, "price", 0, "price")
	return cmd
}

func workOrderStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change the status of a work order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				updated, err := v.ChangeStatus(ctx, args[0], domain.Status(args[1]))
				if err != nil {
					return err
				}
				return printJSONOrTable(updated)
			})
		},
	}
}

// workOrderMoveCmd is a drag and drop onto a grid cell: the order keeps its
// duration and is reassigned to the target technician alone.
func workOrderMoveCmd() *cobra.Command {
	var technician, date, at string
	cmd := &cobra.Command{
		Use:   "move <id>",
		Short: "Reschedule a work order to a technician and time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hour, minute, err := parseClock(at)
			if err != nil {
				return err
			}
			target := &schedule.Target{TechnicianID: technician, Hour: hour, Minute: minute}
			if date != "" {
				d, err := time.ParseInLocation(time.DateOnly, date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date %q", date)
				}
				target.Date = d
			}
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				wo, ok := v.WorkOrder(args[0])
				if !ok {
					return fmt.Errorf("%s: %w", args[0], schedule.ErrUnknownWorkOrder)
				}
				if target.TechnicianID == "" && len(wo.TechnicianIDs) > 0 {
					target.TechnicianID = wo.TechnicianIDs[0]
				}
				if target.Date.IsZero() {
					target.Date = timegrid.Midnight(wo.ScheduledStart.In(time.Local))
				}
				if err := v.BeginDrag(wo.ID); err != nil {
					return err
				}
				outcome, err := v.Drop(ctx, target)
				if err != nil {
					return err
				}
				if outcome != schedule.DroppedValid {
					return fmt.Errorf("technician %q is not on your schedule", target.TechnicianID)
				}
				moved, _ := v.WorkOrder(wo.ID)
				return printJSONOrTable(moved)
			})
		},
	}
	cmd.Flags().StringVar(&technician, "technician", "", "target technician (defaults to the first assignee)")
	cmd.Flags().StringVar(&date, "date", "", "target day YYYY-MM-DD (defaults to the current day of the order)")
	cmd.Flags().StringVar(&at, "at", "", "target start time HH:MM")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func workOrderDuplicateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a work order as a new, unstarted order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				created, err := v.Duplicate(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
}

func workOrderDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				if err := v.OpenDeleteConfirm(args[0]); err != nil {
					return err
				}
				if !yes {
					return fmt.Errorf("%s rerun with --yes", v.State().Overlay.Prompt())
				}
				return v.ConfirmDelete(ctx)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

func selectAll(v *schedule.View, ids []string) error {
	v.SetBulkMode(true)
	for _, id := range ids {
		if v.State().Selection.Contains(id) {
			continue
		}
		if err := v.ClickCard(id, false); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
	}
	return nil
}

func printBulkResult(res schedule.BulkResult) error {
	if viper.GetBool("json") {
		failed := make(map[string]string, len(res.Failed))
		for id, err := range res.Failed {
			failed[id] = err.Error()
		}
		return printJSON(map[string]any{"succeeded": res.Succeeded, "failed": failed})
	}
	fmt.Printf("%d of %d succeeded\n", len(res.Succeeded), res.Attempts())
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d work orders failed", len(res.Failed))
	}
	return nil
}

func workOrderBulkStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bulk-status <status> <id>...",
		Short: "Set the status of several work orders",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				if err := selectAll(v, args[1:]); err != nil {
					return err
				}
				res, err := v.ApplyBulkStatus(ctx, domain.Status(args[0]))
				if err != nil {
					return err
				}
				return printBulkResult(res)
			})
		},
	}
}

func workOrderBulkDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "bulk-delete <id>...",
		Short: "Delete several work orders",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd.Context(), func(ctx context.Context, b backend) error {
				v, err := openView(ctx, b)
				if err != nil {
					return err
				}
				if err := selectAll(v, args); err != nil {
					return err
				}
				if err := v.RequestBulkDelete(); err != nil {
					return err
				}
				if !yes {
					return fmt.Errorf("%s rerun with --yes", v.State().Overlay.Prompt())
				}
				res, err := v.ApplyBulkDelete(ctx)
				if err != nil {
					return err
				}
				return printBulkResult(res)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

// parseTime accepts RFC3339 or a local "YYYY-MM-DD HH:MM".
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC3339 or \"YYYY-MM-DD HH:MM\"", s)
	}
	return t, nil
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: use HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
