package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/chrissnell/cornealfit/internal/reftable"
	"github.com/chrissnell/cornealfit/internal/types"
	"github.com/chrissnell/cornealfit/pkg/config"
)

func main() {
	var (
		yamlFile      = flag.String("yaml", "", "Path to YAML configuration file (required)")
		sqliteFile    = flag.String("sqlite", "", "Path to SQLite database file (required)")
		referenceFile = flag.String("reference", "", "Reference table YAML to import (default: the built-in table)")
		withReference = flag.Bool("with-reference", false, "Also import the reference table and point the configuration at it")
		force         = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun        = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *yamlFile == "" || *sqliteFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -yaml <config.yaml> -sqlite <config.db>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Check if YAML file exists
	if _, err := os.Stat(*yamlFile); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: YAML file does not exist: %s\n", *yamlFile)
		os.Exit(1)
	}

	// Check if SQLite file already exists
	if _, err := os.Stat(*sqliteFile); err == nil && !*force {
		fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
		fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
		os.Exit(1)
	}

	fmt.Printf("Converting YAML configuration to SQLite...\n")
	fmt.Printf("  Source: %s\n", *yamlFile)
	fmt.Printf("  Target: %s\n", *sqliteFile)

	if *dryRun {
		fmt.Println("DRY RUN - No changes will be made")
	}

	// Load YAML configuration
	fmt.Printf("Loading YAML configuration...\n")
	configData, err := config.NewYAMLProvider(*yamlFile).LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading YAML configuration: %v\n", err)
		os.Exit(1)
	}

	var entries []types.ReferenceEntry
	if *withReference {
		entries, err = loadReference(*referenceFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading reference table: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  Loaded %d reference entries\n", len(entries))

		abs, _ := filepath.Abs(*sqliteFile)
		configData.ReferenceTable = config.ReferenceTableData{Source: config.ReferenceSQLite, Path: abs}
	}

	if *dryRun {
		printConfigSummary(configData)
		fmt.Println("DRY RUN complete - no database created")
		return
	}

	// Remove existing SQLite file if force is specified
	if *force {
		if err := os.Remove(*sqliteFile); err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error removing existing SQLite file: %v\n", err)
			os.Exit(1)
		}
	}

	if err := os.MkdirAll(filepath.Dir(*sqliteFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	// Load configuration into SQLite database
	fmt.Printf("Loading configuration into SQLite database...\n")
	if err := saveConfig(*sqliteFile, configData); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration into SQLite: %v\n", err)
		os.Exit(1)
	}

	if *withReference {
		fmt.Printf("Loading reference table into SQLite database...\n")
		if err := saveReference(*sqliteFile, entries); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading reference table into SQLite: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Printf("Conversion completed successfully!\n")
	fmt.Printf("You can now use the SQLite backend with: -config-backend sqlite -config %s\n", *sqliteFile)
}

func loadReference(path string) ([]types.ReferenceEntry, error) {
	if path == "" {
		return reftable.NewEmbeddedProvider().LoadEntries()
	}
	return reftable.NewYAMLProvider(path).LoadEntries()
}

func saveConfig(dbPath string, configData *config.ConfigData) error {
	// Create SQLite provider (which will open the database and its schema)
	provider, err := config.NewSQLiteProvider(dbPath)
	if err != nil {
		return fmt.Errorf("failed to create SQLite provider: %w", err)
	}
	defer provider.Close()

	if err := provider.SaveConfig(configData); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	fmt.Printf("  Configuration successfully inserted into database\n")
	return nil
}

func saveReference(dbPath string, entries []types.ReferenceEntry) error {
	provider, err := reftable.NewSQLiteProvider(dbPath)
	if err != nil {
		return err
	}
	defer provider.Close()

	if err := provider.Replace(context.Background(), entries); err != nil {
		return err
	}
	n, err := provider.Count()
	if err != nil {
		return err
	}
	fmt.Printf("  %d reference entries stored\n", n)
	return nil
}

func printConfigSummary(configData *config.ConfigData) {
	fmt.Println("\nConfiguration Summary:")
	fmt.Printf("Fitting:\n")
	fmt.Printf("  - workers: %d\n", configData.Fitting.Workers)
	fmt.Printf("  - side arc position: %.2f\n", configData.Fitting.SideArcPosition)
	fmt.Printf("  - presentation: %t, special: %t\n", configData.Fitting.Presentation, configData.Fitting.Special)

	fmt.Printf("\nReference Table:\n")
	fmt.Printf("  - %s %s\n", configData.ReferenceTable.Source, configData.ReferenceTable.Path)

	if configData.Logging.File != "" {
		fmt.Printf("\nLogging:\n  - file: %s\n", configData.Logging.File)
	}
}
