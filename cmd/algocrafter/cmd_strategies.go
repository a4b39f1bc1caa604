package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"algocrafter/internal/app"
	"algocrafter/internal/domain/model"
)

var activeOnly bool

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List and manage strategies",
}

var strategiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List strategies, most recently modified first",
	Args:  cobra.NoArgs,
	RunE:  withContainer(listStrategies),
}

var strategiesToggleCmd = &cobra.Command{
	Use:   "toggle [strategy-id]",
	Short: "Activate an inactive strategy or deactivate an active one",
	Args:  cobra.ExactArgs(1),
	RunE:  withContainer(toggleStrategy),
}

var strategiesDeleteCmd = &cobra.Command{
	Use:   "delete [strategy-id]",
	Short: "Delete a strategy",
	Args:  cobra.ExactArgs(1),
	RunE:  withContainer(deleteStrategy),
}

func init() {
	strategiesListCmd.Flags().BoolVar(&activeOnly, "active", false, "Only list active strategies")

	strategiesCmd.AddCommand(strategiesListCmd)
	strategiesCmd.AddCommand(strategiesToggleCmd)
	strategiesCmd.AddCommand(strategiesDeleteCmd)
}

// withContainer runs fn against a freshly built container and closes it
// afterwards.
func withContainer(fn func(ctx context.Context, c *app.Container, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := bootstrap(ctx, false)
		if err != nil {
			return err
		}
		defer c.Close()
		return fn(ctx, c, args)
	}
}

func listStrategies(_ context.Context, c *app.Container, _ []string) error {
	list := c.GetStrategies.SortedByRecentlyModified().Value()

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "TYPE", "ACTIVE", "UPDATED")
	for _, s := range list {
		if activeOnly && !s.IsActive {
			continue
		}
		t.Row(s.ID, s.Name, s.Type.String(), strconv.FormatBool(s.IsActive), s.UpdatedAt.Format(time.RFC3339))
	}
	fmt.Println(t.Render())
	return nil
}

func toggleStrategy(ctx context.Context, c *app.Container, args []string) error {
	s, err := c.GetStrategyByID.GetOrError(ctx, args[0])
	if err != nil {
		return err
	}
	var updated model.Strategy
	if s.IsActive {
		updated = s.Deactivate(time.Now())
	} else {
		updated = s.Activate(time.Now())
	}
	saved, err := c.SaveStrategy.Update(ctx, updated)
	if err != nil {
		return err
	}
	state := "inactive"
	if saved.IsActive {
		state = "active"
	}
	fmt.Printf("%s is now %s\n", saved.Name, state)
	return nil
}

func deleteStrategy(ctx context.Context, c *app.Container, args []string) error {
	ok, err := c.DeleteStrategy.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("strategy with id '%s' not found", args[0])
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
