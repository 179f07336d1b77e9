package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dshills/QuantaPlan/internal/catalog"
	"github.com/dshills/QuantaPlan/internal/config"
	"github.com/dshills/QuantaPlan/internal/log"
	"github.com/dshills/QuantaPlan/internal/sql/enumerator"
	"github.com/dshills/QuantaPlan/internal/sql/expr"
	"github.com/dshills/QuantaPlan/internal/sql/planner"
	"github.com/dshills/QuantaPlan/internal/sql/relevance"
)

var (
	version = "0.1.0"
	commit  = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		catalogFile = flag.String("catalog", "", "Path to a JSON index catalog")
		pgDSN       = flag.String("pg", "", "Postgres DSN to load the catalog from")
		pgTable     = flag.String("table", "", "Table whose indexes to load (with -pg)")
		filterArg   = flag.String("filter", "", "JSON filter document, or @file to read one")
		verbose     = flag.Bool("verbose", false, "Trace enumeration at debug level")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("planexplain v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	// Load configuration
	var cfg *config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.LoadFromFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config file: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg = config.DefaultConfig()
	}
	if *verbose {
		cfg.LogLevel = "debug"
		cfg.Planner.TraceEnumeration = true
	}
	if cfg.Planner.TraceEnumeration {
		cfg.LogLevel = "debug"
	}

	log.Configure(log.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger := log.Default().With(log.String("component", "planexplain"))
	logger.Debug("effective configuration", "config", cfg.String())

	cat, err := loadCatalog(cfg, *catalogFile, *pgDSN, *pgTable)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}

	filter, err := loadFilter(*filterArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse filter: %v\n", err)
		os.Exit(1)
	}

	root, err := expr.ParseFilter(filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse filter: %v\n", err)
		os.Exit(1)
	}

	relevance.RateIndices(root, cat)

	e := enumerator.New(root, cat)
	if cfg.Planner.TraceEnumeration {
		e.SetLogger(logger)
	}
	if err := e.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Enumeration failed: %v\n", err)
		os.Exit(1)
	}

	plan, ok := e.GetNext()
	if !ok {
		fmt.Println("no indexed plan: every access falls back to a collection scan")
		os.Exit(1)
	}

	fmt.Println("Tagged predicate tree:")
	fmt.Print(plan.String())
	fmt.Println()
	fmt.Println("Access path:")
	fmt.Print(planner.Explain(planner.Build(plan, cat)))
}

// loadCatalog builds the index catalog from whichever source was
// requested, enforcing the configured size cap.
func loadCatalog(cfg *config.Config, catalogFile, pgDSN, pgTable string) (*catalog.Catalog, error) {
	var cat *catalog.Catalog
	var err error
	switch {
	case catalogFile != "" && pgDSN != "":
		return nil, fmt.Errorf("-catalog and -pg are mutually exclusive")
	case catalogFile != "":
		cat, err = catalog.LoadFromJSON(catalogFile)
	case pgDSN != "":
		if pgTable == "" {
			return nil, fmt.Errorf("-pg requires -table")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		cat, err = catalog.LoadFromPostgres(ctx, pgDSN, pgTable)
	default:
		return nil, fmt.Errorf("one of -catalog or -pg is required")
	}
	if err != nil {
		return nil, err
	}
	if limit := cfg.Planner.MaxIndexesPerCatalog; limit > 0 && cat.Len() > limit {
		return nil, fmt.Errorf("catalog has %d indexes, configured cap is %d", cat.Len(), limit)
	}
	return cat, nil
}

// loadFilter returns the filter document bytes, reading from a file
// when the argument uses the @file form.
func loadFilter(arg string) ([]byte, error) {
	if arg == "" {
		return nil, fmt.Errorf("-filter is required")
	}
	if strings.HasPrefix(arg, "@") {
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, err
		}
		return data, nil
	}
	return []byte(arg), nil
}
