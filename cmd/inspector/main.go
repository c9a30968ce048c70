package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/GoPolymarket/vaultscope/internal/app"
	"github.com/GoPolymarket/vaultscope/internal/config"
	"github.com/GoPolymarket/vaultscope/internal/model"
	"github.com/GoPolymarket/vaultscope/internal/pkg/logger"
	"github.com/GoPolymarket/vaultscope/internal/service"
	"github.com/spf13/cobra"
)

var (
	outputJSON bool
	pageSize   int
)

func main() {
	root := &cobra.Command{
		Use:           "inspector",
		Short:         "One-shot vault data inspection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&outputJSON, "json", false, "print JSON instead of a table")

	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load every eligible vault page by page and print a summary",
		RunE:  runLoad,
	}
	loadCmd.Flags().IntVar(&pageSize, "page-size", 0, "page size (defaults to vaults.page_size)")

	vaultCmd := &cobra.Command{
		Use:   "vault <address>",
		Short: "Print one vault with its strategies and check results",
		Args:  cobra.ExactArgs(1),
		RunE:  runVault,
	}

	riskCmd := &cobra.Command{
		Use:   "risk <items.json>",
		Short: "Bucket risk items from a JSON file into the 5x5 grid",
		Args:  cobra.ExactArgs(1),
		RunE:  runRisk,
	}

	root.AddCommand(loadCmd, vaultCmd, riskCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setup() (*config.Config, *app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger.Init(cfg.Log.Level)
	return cfg, app.New(cfg), nil
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	size := pageSize
	if size <= 0 {
		size = cfg.Vaults.PageSize
	}
	vaults, err := a.Aggregator.FetchAll(cmd.Context(), size)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(vaults)
	}

	versions := map[string]int{}
	warned := 0
	for _, v := range vaults {
		versions[v.APIVersion]++
		if len(v.Warnings) > 0 {
			warned++
		}
	}
	keys := make([]string, 0, len(versions))
	for k := range versions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Printf("vaults: %d (with warnings: %d)\n", len(vaults), warned)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tCOUNT")
	for _, k := range keys {
		fmt.Fprintf(w, "%s\t%d\n", k, versions[k])
	}
	return w.Flush()
}

func runVault(cmd *cobra.Command, args []string) error {
	_, a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.Vaults.GetVault(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(v)
	}

	fmt.Printf("%s (%s) %s\n", v.Name, v.Address, v.APIVersion)
	fmt.Printf("fees: management=%s performance=%s\n", v.Fees.Management, v.Fees.Performance)
	fmt.Printf("total assets: %s %s\n", v.TVL.TotalAssets, v.Token.Symbol)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tADDRESS\tQUEUE\tDEBT RATIO")
	for _, s := range v.Strategies {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", s.Name, s.Address, s.QueueIndex, s.DebtRatio)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, warning := range v.Warnings {
		fmt.Println("warning:", warning)
	}
	return nil
}

func runRisk(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var items []model.RiskItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}
	views, err := service.ClassifyJoined(items)
	if err != nil {
		return err
	}
	if outputJSON {
		return printJSON(views)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	header := "IMPACT"
	for _, l := range model.LikelihoodLabels {
		header += "\t" + l
	}
	fmt.Fprintln(w, header)
	for _, b := range views {
		row := b.Label
		for _, s := range b.Slots {
			row += "\t" + s.IDs
		}
		fmt.Fprintln(w, row)
	}
	return w.Flush()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
