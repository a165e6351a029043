package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fines/internal/catalog"
	"fines/internal/core"
	"fines/internal/ledger"
)

// Ctl holds what finesctl commands act on.
type Ctl struct {
	Store   ledger.Store
	Catalog *catalog.Catalog
	Clock   core.Clock
}

// NewRootCommand builds the finesctl command tree.
func NewRootCommand(c *Ctl) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "finesctl",
		Short:         "Inspect the fines ledger and manage administrators",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(c.adminsCommand())
	rootCmd.AddCommand(c.monthsCommand())
	rootCmd.AddCommand(c.reportCommand())
	rootCmd.AddCommand(c.finesCommand())
	return rootCmd
}

func (c *Ctl) adminsCommand() *cobra.Command {
	adminsCmd := &cobra.Command{
		Use:   "admins",
		Short: "Manage administrators stored in the ledger",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List administrators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admins, err := c.Store.ListAdmins(cmd.Context())
			if err != nil {
				return fmt.Errorf("list admins: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(admins) == 0 {
				fmt.Fprintln(out, "No administrators in the ledger.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "USER ID\tUSERNAME\tADDED")
			for _, a := range admins {
				fmt.Fprintf(w, "%d\t%s\t%s\n", a.UserID, a.Username, a.AddedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}

	addCmd := &cobra.Command{
		Use:   "add [user-id] [username]",
		Short: "Grant administrator rights",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			a := core.Admin{UserID: id, AddedAt: c.Clock.Now()}
			if len(args) == 2 {
				a.Username = args[1]
			}
			if err := c.Store.AddAdmin(cmd.Context(), a); err != nil {
				return fmt.Errorf("add admin: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Administrator %d added.\n", id)
			return nil
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove [user-id]",
		Short: "Revoke administrator rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			removed, err := c.Store.RemoveAdmin(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("remove admin: %w", err)
			}
			if !removed {
				return fmt.Errorf("administrator %d not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Administrator %d removed.\n", id)
			return nil
		},
	}

	adminsCmd.AddCommand(listCmd, addCmd, removeCmd)
	return adminsCmd
}

func (c *Ctl) monthsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "months",
		Short: "List months that have fines, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			months, err := c.Store.MonthsWithData(cmd.Context())
			if err != nil {
				return fmt.Errorf("months with data: %w", err)
			}
			current := core.CurrentMonth(c.Clock)
			for _, m := range months {
				if m == current {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (current)\n", m)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func (c *Ctl) reportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report [month]",
		Short: "Show totals per employee for a month (default: current)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := c.month(args)
			if err != nil {
				return err
			}
			totals, err := c.Store.TotalsByEmployee(cmd.Context(), month)
			if err != nil {
				return fmt.Errorf("totals for %s: %w", month, err)
			}
			return writeReport(cmd.OutOrStdout(), month, totals)
		},
	}
}

func (c *Ctl) finesCommand() *cobra.Command {
	var monthFlag string
	finesCmd := &cobra.Command{
		Use:   "fines [employee]",
		Short: "List one employee's fines for a month",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return c.Catalog.Employees(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var monthArgs []string
			if monthFlag != "" {
				monthArgs = []string{monthFlag}
			}
			month, err := c.month(monthArgs)
			if err != nil {
				return err
			}
			employee := args[0]
			fines, err := c.Store.ListFor(cmd.Context(), employee, month)
			if err != nil {
				return fmt.Errorf("list fines for %s: %w", employee, err)
			}
			summary, err := c.Store.SummaryFor(cmd.Context(), employee, month)
			if err != nil {
				return fmt.Errorf("summary for %s: %w", employee, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, %s: %d points in %d fines\n", employee, month, summary.Total, len(fines))
			if len(fines) == 0 {
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tPOINTS\tREASON")
			for _, f := range fines {
				fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", f.ID, f.DateLabel(), f.Amount, f.Reason)
			}
			return w.Flush()
		},
	}
	finesCmd.Flags().StringVarP(&monthFlag, "month", "m", "", "month as YYYY-MM (default: current)")
	return finesCmd
}

func (c *Ctl) month(args []string) (core.Month, error) {
	if len(args) == 0 {
		return core.CurrentMonth(c.Clock), nil
	}
	return core.ParseMonth(args[0])
}

func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q: must be a positive integer", s)
	}
	return id, nil
}

// writeReport prints totals by total descending, then name.
func writeReport(out io.Writer, month core.Month, totals map[string]int) error {
	if len(totals) == 0 {
		_, err := fmt.Fprintf(out, "No fines in %s.\n", month)
		return err
	}
	rows := make([]core.EmployeeTotal, 0, len(totals))
	sum := 0
	for name, total := range totals {
		rows = append(rows, core.EmployeeTotal{Employee: name, Total: total})
		sum += total
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].Employee < rows[j].Employee
	})

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Fines for %s\n", month)
	fmt.Fprintln(w, "EMPLOYEE\tPOINTS")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\n", r.Employee, r.Total)
	}
	fmt.Fprintf(w, "TOTAL\t%d\n", sum)
	return w.Flush()
}
