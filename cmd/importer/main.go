// Package main provides the command line importer for cadastral workbooks.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cadastre/internal/admin"
	"github.com/JonMunkholm/cadastre/internal/config"
	"github.com/JonMunkholm/cadastre/internal/core"
	_ "github.com/JonMunkholm/cadastre/internal/core/tables" // Register all descriptors
	"github.com/JonMunkholm/cadastre/internal/logging"
	"github.com/JonMunkholm/cadastre/internal/service"
	"github.com/JonMunkholm/cadastre/internal/store"
	"github.com/JonMunkholm/cadastre/internal/workbook"
)

var (
	outputPath string
	pretty     bool
	dryRun     bool
	driver     string
	confirm    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "importer",
		Short: "Import cadastral workbooks into the database",
		Long: `importer loads a multi-sheet .xlsx workbook (regions, parcels, buildings
and their relations) into the configured database in dependency order and
prints the import report as JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	importCmd := &cobra.Command{
		Use:   "import [input.xlsx]",
		Short: "Import a workbook and print the report",
		Args:  cobra.ExactArgs(1),
		RunE:  runImport,
	}
	importCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Report file path (default: stdout)")
	importCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Roll back after importing (uses the memory driver unless --driver is set)")
	importCmd.Flags().StringVar(&driver, "driver", "", "Database driver: postgres, sqlite, memory (default: DB_DRIVER)")

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the descriptor dependency order",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}

	templateCmd := &cobra.Command{
		Use:   "template [output.xlsx]",
		Short: "Write an empty import workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runTemplate,
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all imported rows from the database",
		Args:  cobra.NoArgs,
		RunE:  runReset,
	}
	resetCmd.Flags().BoolVar(&confirm, "yes", false, "Confirm the reset")
	resetCmd.Flags().StringVar(&driver, "driver", "", "Database driver: postgres, sqlite (default: DB_DRIVER)")

	rootCmd.AddCommand(importCmd, checkCmd, templateCmd, resetCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// exitError carries a process exit code. The report has already been
// printed, so main prints nothing more.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func runImport(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	db, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	svc, err := service.New(db.Backend, cfg.Import, service.Options{DryRun: dryRun})
	if err != nil {
		return err
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	out, err := svc.Import(ctx, f)
	if err != nil {
		if core.IsUserFacing(err) {
			return fmt.Errorf("import failed: %s", core.FormatUserError(err))
		}
		return fmt.Errorf("import failed: %w", err)
	}

	if err := writeReport(out); err != nil {
		return err
	}
	if !out.Success {
		return exitError{code: 2}
	}
	return nil
}

// loadConfig reads .env and the environment, applying the --driver and
// --dry-run overrides, and sets up logging on stderr.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()
	switch {
	case driver != "":
		os.Setenv("DB_DRIVER", driver)
	case dryRun:
		os.Setenv("DB_DRIVER", "memory")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}

func writeReport(out *service.Outcome) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	fmt.Println(string(data))
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	descs := core.All()
	if err := core.ValidateOrder(descs); err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, d := range descs {
		deps := d.DependsOn()
		if len(deps) == 0 {
			fmt.Fprintf(w, "%3d  %-24s %s\n", d.Order, d.Sheet, d.Entity)
			continue
		}
		fmt.Fprintf(w, "%3d  %-24s %s -> %v\n", d.Order, d.Sheet, d.Entity, deps)
	}
	fmt.Fprintf(w, "%d descriptors, dependency order ok\n", len(descs))
	return nil
}

func runTemplate(cmd *cobra.Command, args []string) error {
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := workbook.WriteTemplate(f, core.All()); err != nil {
		f.Close()
		return fmt.Errorf("failed to write template: %w", err)
	}
	return f.Close()
}

func runReset(cmd *cobra.Command, args []string) error {
	if !confirm {
		return errors.New("refusing to reset without --yes")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := store.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	t, ok := db.Backend.(admin.Truncater)
	if !ok {
		return fmt.Errorf("driver %s does not support reset", cfg.Database.Driver)
	}

	cleared, err := admin.ResetAll(cmd.Context(), t, core.All())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "reset %d tables on %s\n", len(cleared), db.Name)
	return nil
}
