package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"genesim/internal/storage"
	api "genesim/pkg/genesim"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to JSON run config")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "genesim.db", "sqlite database path")
	runID := fs.String("run-id", "", "override run id from config")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return usageError("run requires -config")
	}

	req, err := loadRunRequestFromConfig(*configPath)
	if err != nil {
		return err
	}
	if *runID != "" {
		req.RunID = *runID
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "genesim.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id to inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("fitness requires -run-id")
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, ok, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no fitness history for run %s", *runID)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GENERATION\tMEAN FITNESS")
	for i, mean := range history {
		fmt.Fprintf(w, "%d\t%.6f\n", i+1, mean)
	}
	return w.Flush()
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "genesim.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id to inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("diagnostics requires -run-id")
	}

	client, err := api.New(api.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, ok, err := client.Diagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no diagnostics for run %s", *runID)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GENERATION\tBEST\tMEAN\tMIN\tSTDDEV\tMEAN EXPR")
	for _, d := range diagnostics {
		fmt.Fprintf(w, "%d\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\n",
			d.Generation, d.BestFitness, d.MeanFitness, d.MinFitness, d.FitnessStdDev, d.MeanExpression)
	}
	return w.Flush()
}

func printSummary(summary api.RunSummary) {
	fmt.Printf("run %s finished after %d generations\n", summary.RunID, summary.Generations)
	fmt.Printf("final mean fitness: %.6f\n", summary.FinalMeanFitness)
	fmt.Printf("best fitness seen: %.6f\n", summary.FinalBestFitness)
	if summary.Acyclic {
		fmt.Println("regulatory graph: acyclic")
		return
	}
	fmt.Printf("regulatory circuits: %d\n", len(summary.Circuits))
	for _, circuit := range summary.Circuits {
		fmt.Printf("  %s\n", strings.Join(circuit, " -> "))
	}
}

func usageError(message string) error {
	return fmt.Errorf("%s\nusage: genesimctl <run|fitness|diagnostics> [flags]", message)
}
