// Package main provides the timepath command line tool: it resolves and
// validates time-partitioned data sources against local or S3 storage.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/txn2/timepath/pkg/audit"
	auditpg "github.com/txn2/timepath/pkg/audit/postgres"
	"github.com/txn2/timepath/pkg/catalog"
	"github.com/txn2/timepath/pkg/database/migrate"
	"github.com/txn2/timepath/pkg/partition"
	"github.com/txn2/timepath/pkg/source"
	"github.com/txn2/timepath/pkg/storage"
	"github.com/txn2/timepath/pkg/storage/local"
	"github.com/txn2/timepath/pkg/storage/s3"
	"github.com/txn2/timepath/pkg/tap"
)

// Version is the tool version.
const Version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type toolOptions struct {
	catalogPath string
	sourceName  string

	template string
	timezone string
	policy   string
	marker   string

	start string
	end   string

	mode     string
	backend  string
	root     string
	identity string

	s3Bucket   string
	s3Region   string
	s3Endpoint string

	auditDSN string

	verbose     bool
	showVersion bool
}

func parseFlags() toolOptions {
	opts := toolOptions{}
	flag.StringVar(&opts.catalogPath, "catalog", "", "Path to a source catalog file")
	flag.StringVar(&opts.sourceName, "source", "", "Named source from the catalog")
	flag.StringVar(&opts.template, "template", "", "Path template, e.g. /logs/%Y/%m/%d/*")
	flag.StringVar(&opts.timezone, "tz", "", "Time zone for calendar arithmetic, e.g. UTC")
	flag.StringVar(&opts.policy, "policy", "strict_all", "Source policy: strict_all, lenient_any, most_recent_good")
	flag.StringVar(&opts.marker, "marker", "", "Completion-marker filename; empty validates existence only")
	flag.StringVar(&opts.start, "start", "", "Range start (RFC3339 or YYYY-MM-DD)")
	flag.StringVar(&opts.end, "end", "", "Range end (RFC3339 or YYYY-MM-DD)")
	flag.StringVar(&opts.mode, "mode", "resolve", "Operation: resolve, validate, write-path")
	flag.StringVar(&opts.backend, "backend", "local", "Storage backend: local, s3")
	flag.StringVar(&opts.root, "root", "", "Root directory for the local backend")
	flag.StringVar(&opts.identity, "identity", "random", "Composite tap identity: random, deterministic")
	flag.StringVar(&opts.s3Bucket, "s3-bucket", "", "S3 bucket for the s3 backend")
	flag.StringVar(&opts.s3Region, "s3-region", "us-east-1", "S3 region")
	flag.StringVar(&opts.s3Endpoint, "s3-endpoint", "", "S3 endpoint override")
	flag.StringVar(&opts.auditDSN, "audit-dsn", "", "PostgreSQL DSN for the resolution audit trail")
	flag.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("timepath version %s\n", Version)
		return nil
	}

	setupLogging(opts.verbose)

	def, err := resolveDefinition(opts)
	if err != nil {
		return err
	}

	loc, err := def.Location()
	if err != nil {
		return err
	}
	policy, err := def.SourcePolicy()
	if err != nil {
		return err
	}
	rng, err := parseRange(opts.start, opts.end, loc)
	if err != nil {
		return err
	}

	lister, err := newLister(opts)
	if err != nil {
		return err
	}
	defer func() { _ = lister.Close() }()

	resolverOpts, closeAudit, err := buildResolverOptions(opts, def, lister)
	if err != nil {
		return err
	}
	defer closeAudit()

	resolver := source.New(lister, resolverOpts...)
	return execute(context.Background(), resolver, partition.Template(def.Template), rng, loc, policy, opts.mode)
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// resolveDefinition materializes a source definition from the catalog or
// directly from flags.
func resolveDefinition(opts toolOptions) (catalog.Definition, error) {
	if opts.catalogPath != "" {
		if opts.sourceName == "" {
			return catalog.Definition{}, fmt.Errorf("-source is required with -catalog")
		}
		cat, err := catalog.Load(opts.catalogPath)
		if err != nil {
			return catalog.Definition{}, err
		}
		return cat.Get(opts.sourceName)
	}

	if opts.template == "" {
		return catalog.Definition{}, fmt.Errorf("either -catalog/-source or -template is required")
	}
	if opts.timezone == "" {
		return catalog.Definition{}, fmt.Errorf("-tz is required: the time zone must be explicit for reproducible resolution")
	}
	return catalog.Definition{
		Template: opts.template,
		Timezone: opts.timezone,
		Policy:   opts.policy,
		Marker:   opts.marker,
	}, nil
}

func parseRange(start, end string, loc *time.Location) (partition.Range, error) {
	if start == "" || end == "" {
		return partition.Range{}, fmt.Errorf("-start and -end are required")
	}
	s, err := parseTime(start, loc)
	if err != nil {
		return partition.Range{}, fmt.Errorf("parsing -start: %w", err)
	}
	e, err := parseTime(end, loc)
	if err != nil {
		return partition.Range{}, fmt.Errorf("parsing -end: %w", err)
	}
	return partition.NewRange(s, e)
}

func parseTime(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

func newLister(opts toolOptions) (storage.Lister, error) {
	switch opts.backend {
	case "local":
		return local.New(opts.root), nil
	case "s3":
		return s3.NewFromConfig(s3.Config{
			Region:      opts.s3Region,
			Endpoint:    opts.s3Endpoint,
			AccessKeyID: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Bucket:      opts.s3Bucket,
		})
	default:
		return nil, fmt.Errorf("unknown backend: %s", opts.backend)
	}
}

func buildResolverOptions(opts toolOptions, def catalog.Definition, lister storage.Lister) ([]source.Option, func(), error) {
	var resolverOpts []source.Option
	closeAudit := func() {}

	if def.Marker != "" {
		resolverOpts = append(resolverOpts, source.WithValidator(source.MarkerValidator{
			Lister: lister,
			Marker: def.Marker,
		}))
	}

	switch opts.identity {
	case "random":
	case "deterministic":
		resolverOpts = append(resolverOpts, source.WithIdentityMode(tap.DeterministicIdentity))
	default:
		return nil, nil, fmt.Errorf("unknown identity mode: %s", opts.identity)
	}

	switch def.Scheme {
	case "", "textline":
	case "tsv":
		resolverOpts = append(resolverOpts, source.WithScheme(tap.TSV))
	case "csv":
		resolverOpts = append(resolverOpts, source.WithScheme(tap.CSV))
	default:
		return nil, nil, fmt.Errorf("unknown scheme: %s", def.Scheme)
	}

	if opts.auditDSN != "" {
		store, closer, err := openAuditStore(opts.auditDSN)
		if err != nil {
			return nil, nil, err
		}
		resolverOpts = append(resolverOpts, source.WithAuditLogger(store))
		closeAudit = closer
	}

	return resolverOpts, closeAudit, nil
}

func openAuditStore(dsn string) (audit.Logger, func(), error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("opening audit database: %w", err)
	}
	if err := migrate.Run(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	store := auditpg.New(db, auditpg.Config{})
	return store, func() {
		_ = store.Close()
		_ = db.Close()
	}, nil
}

func execute(ctx context.Context, resolver *source.Resolver, tmpl partition.Template, rng partition.Range, loc *time.Location, policy source.Policy, mode string) error {
	switch mode {
	case "resolve":
		tp, err := resolver.ResolveRead(ctx, tmpl, rng, loc, policy)
		if err != nil {
			return err
		}
		fmt.Printf("identity: %s\n", tp.Identifier())
		fmt.Printf("paths:\n  %s\n", strings.Join(tp.Paths(), "\n  "))
		return nil
	case "validate":
		if err := resolver.Validate(ctx, tmpl, rng, loc, policy); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	case "write-path":
		path, err := resolver.ResolveWrite(ctx, tmpl, rng, loc)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
}
