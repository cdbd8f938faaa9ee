package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chrissnell/cornealfit/internal/app"
	"github.com/chrissnell/cornealfit/internal/constants"
	"github.com/chrissnell/cornealfit/internal/log"
	"github.com/chrissnell/cornealfit/pkg/config"
	"github.com/chrissnell/cornealfit/pkg/responseformat"
)

func main() {
	cfgFile := flag.String("config", "", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db\n\t\t\t  Empty uses built-in defaults. Use 'config-convert' to convert YAML→SQLite")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	jobsFile := flag.String("jobs", "", "Path to the YAML job file (required)")
	format := flag.String("format", "json", "Output format: 'json' or 'msgpack'")
	outFile := flag.String("out", "", "Write results to this file instead of stdout")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("cornealfit %s\n", constants.Version)
		os.Exit(0)
	}

	if *jobsFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -jobs <jobs.yaml> [-config config.yaml]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	outFormat, err := responseformat.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Load configuration
	cfgData, err := loadConfig(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if cfgData.Logging.File != "" || cfgData.Logging.Debug {
		if err := log.InitWithFile(*debug || cfgData.Logging.Debug, cfgData.Logging.File); err != nil {
			log.Errorf("Failed to open log file %s: %v", cfgData.Logging.File, err)
			os.Exit(1)
		}
	}

	specs, err := app.LoadJobs(*jobsFile)
	if err != nil {
		log.Errorf("Failed to load jobs: %v", err)
		os.Exit(1)
	}

	// Create and run the application
	application := app.New(cfgData, log.GetSugaredLogger())
	results, err := application.Run(context.Background(), specs)
	if err != nil {
		log.Errorf("Application error: %v", err)
		os.Exit(1)
	}

	if err := writeResults(*outFile, outFormat, results); err != nil {
		log.Errorf("Failed to write results: %v", err)
		os.Exit(1)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		log.Warnf("%d of %d jobs failed", failed, len(results))
		os.Exit(2)
	}
}

func loadConfig(cfgFile, cfgBackend string) (*config.ConfigData, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	filename, _ := filepath.Abs(cfgFile)

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}

func writeResults(path string, format responseformat.Format, results []app.Result) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return responseformat.NewFormatter(format, true).Write(w, results)
}
