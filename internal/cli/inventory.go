package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/threadress/internal/domain/catalog"
	healthuc "github.com/kailas-cloud/threadress/internal/usecase/health"
)

var (
	listLimit  int
	listOffset int
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Inspect indexed items",
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "Page through indexed items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if listLimit <= 0 || listOffset < 0 {
			return errors.New("limit must be positive and offset non-negative")
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		items, total, err := a.Inventory.Scroll(cmd.Context(), listOffset, listLimit)
		if err != nil {
			return err
		}
		printItems(cmd.OutOrStdout(), items, a.Stores)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d-%d of %d\n", listOffset+min(1, len(items)), listOffset+len(items), total)
		return nil
	},
}

var inventoryGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print one item as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := catalog.ParseID(args[0])
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		it, err := a.Inventory.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(it)
	},
}

var inventorySetCmd = &cobra.Command{
	Use:     "set <id> field=value...",
	Short:   "Overwrite payload fields of an indexed item",
	Example: "  threadctl inventory set 42 price=59 season=summer",
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := catalog.ParseID(args[0])
		if err != nil {
			return err
		}
		fields, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Inventory.SetPayload(cmd.Context(), id, fields); err != nil {
			return fmt.Errorf("set %s: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s: %s\n", id, strings.Join(slices.Sorted(maps.Keys(fields)), ", "))
		return nil
	},
}

// parseAssignments reads field=value pairs. The last assignment of a field wins.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		out[name] = value
	}
	return out, nil
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the database and embedding backends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		r := a.Health.Check(cmd.Context())
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Status: %s\n", r.Status)
		for _, name := range slices.Sorted(maps.Keys(r.Checks)) {
			fmt.Fprintf(out, "  %-16s %s\n", name, r.Checks[name])
		}
		if r.Status == healthuc.Unhealthy {
			return errors.New("threadress is unhealthy")
		}
		return nil
	},
}

func init() {
	inventoryListCmd.Flags().IntVar(&listLimit, "limit", 20, "items per page")
	inventoryListCmd.Flags().IntVar(&listOffset, "offset", 0, "items to skip")
	inventoryCmd.AddCommand(inventoryListCmd, inventoryGetCmd, inventorySetCmd)
	rootCmd.AddCommand(inventoryCmd, healthCmd)
}

func printItems(w io.Writer, items []catalog.Item, stores *catalog.StoreTable) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTORE\tPRICE")
	for i := range items {
		it := &items[i]
		price := "n/a"
		if it.Price > 0 {
			price = fmt.Sprintf("%.2f %s", it.Price, it.Currency)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.ID, it.Title, stores.Canonical(it.DisplayStore()), price)
	}
	_ = tw.Flush()
}
