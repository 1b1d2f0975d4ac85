package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/kozaktomas/attendanced/internal/config"
	"github.com/spf13/cobra"
)

var employeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Manage employees",
}

var employeesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees",
	Long: `List employees with their enrollment state.

Examples:
  attendanced employees list
  attendanced employees list --search jose`,
	RunE: runEmployeesList,
}

func init() {
	rootCmd.AddCommand(employeesCmd)
	employeesCmd.AddCommand(employeesListCmd)

	employeesListCmd.Flags().String("search", "", "Filter by name or email")
}

func runEmployeesList(cmd *cobra.Command, args []string) error {
	search := mustGetString(cmd, "search")

	cfg := config.Load()
	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	stores := buildStores(pool)
	employees, err := stores.Employees.List(context.Background(), search)
	if err != nil {
		return fmt.Errorf("listing employees: %w", err)
	}

	if len(employees) == 0 {
		fmt.Println("No employees found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPOSITION\tACTIVE\tENROLLED")
	for _, emp := range employees {
		active, enrolled := "no", "no"
		if emp.Active {
			active = "yes"
		}
		if emp.HasEncoding {
			enrolled = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			emp.ID, emp.Name, emp.Email, emp.Position, active, enrolled)
	}
	return w.Flush()
}
