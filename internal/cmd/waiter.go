package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"kitchen-relay/internal/common/logger"
	"kitchen-relay/internal/domain"
	"kitchen-relay/internal/microservices/waiter"
)

var (
	orderTable string
	orderItems []string
)

var waiterCmd = &cobra.Command{
	Use:   "waiter",
	Short: "Waiter side: submit orders and listen for readiness",
}

var waiterOrderCmd = &cobra.Command{
	Use:     "order",
	Short:   "Submit an order for a table",
	Example: `  kitchen-relay waiter order --table "Table 3" --item Pizza=2 --item "Fish Soup=1"`,
	RunE:    runWaiterOrder,
}

var waiterListenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print dish and order readiness notifications",
	RunE:  runWaiterListen,
}

func init() {
	waiterOrderCmd.Flags().StringVar(&orderTable, "table", "", "table name")
	waiterOrderCmd.Flags().StringArrayVar(&orderItems, "item", nil, "menu item as name=quantity (repeatable)")
	_ = waiterOrderCmd.MarkFlagRequired("table")
	_ = waiterOrderCmd.MarkFlagRequired("item")

	waiterCmd.AddCommand(waiterOrderCmd, waiterListenCmd)
	rootCmd.AddCommand(waiterCmd)
}

func runWaiterOrder(cmd *cobra.Command, args []string) error {
	items, err := parseItems(orderItems)
	if err != nil {
		return err
	}
	cfg, ctx, stop, err := setup()
	if err != nil {
		return err
	}
	defer stop()

	res, err := waiter.RunOrder(ctx, cfg, orderTable, items)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "order %s confirmed for %s (%s)\n", res.Order.OrderID, orderTable, res.Order.Total().StringFixed(2))
	if res.Warning != "" {
		fmt.Fprintf(out, "warning: %s\n", res.Warning)
	}
	for _, se := range res.StockErrors {
		fmt.Fprintf(out, "stock not updated for %s (status %d): %v\n", se.Item, se.Status, se.Err)
	}
	return nil
}

func runWaiterListen(cmd *cobra.Command, args []string) error {
	cfg, ctx, stop, err := setup()
	if err != nil {
		return err
	}
	defer stop()

	out := cmd.OutOrStdout()
	err = waiter.RunListener(ctx, cfg, func(ev domain.NotificationEvent) {
		fmt.Fprintln(out, ev.Message)
	})
	if err != nil {
		logger.For("bootstrap").Error("fatal", err, nil)
	}
	return err
}

// parseItems turns name=qty flags into a selection map. Repeated names add up.
func parseItems(raw []string) (map[string]int, error) {
	items := make(map[string]int, len(raw))
	for _, r := range raw {
		name, q, ok := strings.Cut(r, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --item %q: want name=quantity", r)
		}
		n, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid quantity in --item %q", r)
		}
		items[name] += n
	}
	return items, nil
}
