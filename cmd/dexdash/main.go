package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"dexdash/config"
	loggeradapter "dexdash/internal/adapters/logger"
	"dexdash/internal/adapters/refdata"
	"dexdash/internal/adapters/snapshot"
	"dexdash/internal/adapters/store"
	"dexdash/internal/application/amount"
	"dexdash/internal/application/ratelimiter"
	"dexdash/internal/application/reference"
	"dexdash/internal/domain/currency"
)

const usage = `Usage: dexdash [flags] <command> [args]

Commands:
  import                        validate the reference file and store it as a snapshot
  watch                         refresh reference data every interval until interrupted
  assets [query...]             list or search assets
  chains [query...]             list or search chains
  usd <dollars>                 format a dollar value
  amount <balance> <asset>      value a balance of an asset id or symbol
  convert <balance> <from> <to> convert a balance between assets

With --chain, assets are resolved by contract address or symbol on that chain.

Flags:
`

type options struct {
	dataPath   string
	dbPath     string
	logLevel   string
	noDB       bool
	chain      string
	limit      int
	price      float64
	raw        bool
	decimals   int
	abbreviate bool
	debt       bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	opts := options{}
	fs := flag.NewFlagSet("dexdash", flag.ContinueOnError)
	fs.StringVar(&opts.dataPath, "data", cfg.Snapshot.Path, "reference data JSON file")
	fs.StringVar(&opts.dbPath, "db", cfg.Database.Path, "snapshot database path")
	fs.StringVar(&opts.logLevel, "log-level", cfg.App.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolVar(&opts.noDB, "no-db", false, "do not read or write snapshots")
	fs.StringVarP(&opts.chain, "chain", "c", "", "resolve assets by address or symbol on this chain")
	fs.IntVarP(&opts.limit, "limit", "n", 20, "maximum rows to list, 0 for all")
	fs.Float64VarP(&opts.price, "price", "p", -1, "USD price override for amount (defaults to the asset price)")
	fs.BoolVar(&opts.raw, "raw", false, "treat balances as raw smallest-unit integers")
	fs.IntVarP(&opts.decimals, "decimals", "d", 2, "fraction digits to display")
	fs.BoolVarP(&opts.abbreviate, "abbreviate", "a", false, "abbreviate large values (1.2k, 3.4m)")
	fs.BoolVar(&opts.debt, "debt", false, "mark the amount as a debt position")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	cfg.Snapshot.Path = opts.dataPath
	cfg.Database.Path = opts.dbPath
	cfg.App.LogLevel = opts.logLevel

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	logger, err := loggeradapter.NewLogger(cfg.App.Development(), loggeradapter.WithLevel(cfg.App.LogLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		// Ignore sync errors on exit
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{cfg: cfg, opts: opts, logger: logger}
	if err := app.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		logger.WithError(err).Fatal("Command failed", zap.String("command", args[0]))
	}
}

type app struct {
	cfg    *config.Config
	opts   options
	logger *loggeradapter.Logger
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "import":
		return a.importSnapshot(ctx)
	case "watch":
		return a.watch(ctx)
	case "assets":
		return a.listAssets(ctx, args)
	case "chains":
		return a.listChains(ctx, args)
	case "usd":
		return a.formatUsd(args)
	case "amount":
		return a.valueAmount(ctx, args)
	case "convert":
		return a.convert(ctx, args)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) importSnapshot(ctx context.Context) error {
	payload, err := refdata.LoadFile(a.cfg.Snapshot.Path)
	if err != nil {
		return err
	}

	snap, err := refdata.Build(payload)
	if err != nil {
		return err
	}

	repo, err := a.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	id, err := repo.Save(ctx, payload)
	if err != nil {
		return err
	}

	removed, err := repo.Prune(ctx, a.cfg.Snapshot.Keep)
	if err != nil {
		a.logger.Warn("Failed to prune snapshots", zap.Error(err))
	}

	a.logger.Info("Snapshot imported",
		zap.String("version", id),
		zap.Int("assets", len(snap.Assets)),
		zap.Int("chains", len(snap.Chains)),
		zap.Int64("pruned", removed),
	)
	fmt.Println(id)

	return nil
}

func (a *app) watch(ctx context.Context) error {
	provider, closeFn, err := a.newProvider()
	if err != nil {
		return err
	}
	defer closeFn()

	if err := provider.Start(ctx, a.cfg.Snapshot.RefreshInterval); err != nil {
		return err
	}
	defer provider.Stop()

	a.logger.Info("Watching reference data",
		zap.String("path", a.cfg.Snapshot.Path),
		zap.Duration("interval", a.cfg.Snapshot.RefreshInterval),
	)

	<-ctx.Done()
	a.logger.Info("Shutting down")

	return nil
}

func (a *app) listAssets(ctx context.Context, queries []string) error {
	bundle, err := a.load(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tCHAIN\tDECIMALS\tPRICE\tID")
	assets := bundle.Assets.GetAll()
	if len(queries) > 0 {
		assets = merge(queries, bundle.Assets.SearchMany(queries), func(a *currency.Asset) string { return a.ID })
	}

	for _, asset := range limit(assets, a.opts.limit) {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			asset.Symbol,
			asset.ChainName(),
			asset.Decimals,
			asset.Price().ToDisplayString(a.displayOptions()...),
			asset.ID,
		)
	}
	return w.Flush()
}

func (a *app) listChains(ctx context.Context, queries []string) error {
	bundle, err := a.load(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDISPLAY NAME\tCHAIN ID\tNATIVE")
	chains := bundle.Chains.GetAll()
	if len(queries) > 0 {
		chains = merge(queries, bundle.Chains.SearchMany(queries), func(c *currency.Chain) string { return c.ID })
	}

	for _, chain := range limit(chains, a.opts.limit) {
		native := "-"
		if chain.NativeToken != nil {
			native = chain.NativeToken.Symbol
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", chain.Name, chain.DisplayName, chain.ChainID, native)
	}
	return w.Flush()
}

func (a *app) formatUsd(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: usd <dollars>")
	}

	value, err := a.parseBalance(args[0])
	if err != nil {
		return err
	}

	// Formatting needs no reference data.
	usd := amount.NewService(store.NewAssetStore(nil), a.logger).CreateUsdAmount(value)
	if usd == nil {
		return fmt.Errorf("invalid dollar value %q", args[0])
	}

	fmt.Println(usd.ToDisplayString(a.displayOptions()...))
	return nil
}

func (a *app) valueAmount(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: amount <balance> <asset>")
	}

	bundle, err := a.load(ctx)
	if err != nil {
		return err
	}

	holding, err := a.createAmount(bundle, args[0], args[1])
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "asset\t%s on %s\n", holding.Asset().ID, holding.Asset().ChainName())
	fmt.Fprintf(w, "exact\t%s\n", holding.ToExactString())
	fmt.Fprintf(w, "display\t%s\n", holding.ToDisplayString(a.displayOptions()...))
	fmt.Fprintf(w, "usd\t%s\n", holding.ToUsd().ToDisplayString(a.displayOptions()...))
	if holding.IsDebt() {
		fmt.Fprintln(w, "position\tdebt")
	}
	return w.Flush()
}

func (a *app) convert(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errors.New("usage: convert <balance> <from> <to>")
	}

	bundle, err := a.load(ctx)
	if err != nil {
		return err
	}

	holding, err := a.createAmount(bundle, args[0], args[1])
	if err != nil {
		return err
	}

	target, err := a.resolveAsset(bundle, args[2])
	if err != nil {
		return err
	}

	converted, err := holding.ToAsset(target)
	if err != nil {
		return err
	}

	fmt.Printf("%s = %s\n",
		holding.ToDisplayString(a.displayOptions()...),
		converted.ToDisplayString(a.displayOptions()...),
	)
	return nil
}

func (a *app) createAmount(bundle *reference.Bundle, balance, assetIDOrSymbol string) (*currency.AssetAmount, error) {
	value, err := a.parseBalance(balance)
	if err != nil {
		return nil, err
	}

	asset, err := a.resolveAsset(bundle, assetIDOrSymbol)
	if err != nil {
		return nil, err
	}

	var price any = asset.Price()
	if a.opts.price >= 0 {
		price = a.opts.price
	}

	holding, err := bundle.Amounts.CreateAssetAmount(value, asset.ID, price)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, fmt.Errorf("invalid balance %q", balance)
	}
	return holding.WithDebt(a.opts.debt), nil
}

// resolveAsset finds an asset by id or symbol, or, with --chain, by contract
// address or symbol on that chain.
func (a *app) resolveAsset(bundle *reference.Bundle, ref string) (*currency.Asset, error) {
	if a.opts.chain != "" {
		if asset, ok := bundle.Assets.GetByAddress(ref, a.opts.chain); ok {
			return asset, nil
		}
		if asset, ok := bundle.Assets.GetBySymbol(ref, a.opts.chain); ok {
			return asset, nil
		}
		return nil, fmt.Errorf("unknown asset %q on chain %q", ref, a.opts.chain)
	}

	if asset, ok := bundle.Assets.GetByID(ref); ok {
		return asset, nil
	}
	if asset, ok := bundle.Assets.FindBySymbol(ref); ok {
		return asset, nil
	}
	return nil, fmt.Errorf("unknown asset %q", ref)
}

// parseBalance keeps raw balances as integer strings and reads everything
// else as a whole-unit float.
func (a *app) parseBalance(s string) (any, error) {
	if a.opts.raw {
		return s, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}

func (a *app) displayOptions() []currency.DisplayOption {
	opts := []currency.DisplayOption{currency.WithDecimals(a.opts.decimals)}
	if a.opts.abbreviate {
		opts = append(opts, currency.WithAbbreviation())
	}
	return opts
}

func (a *app) load(ctx context.Context) (*reference.Bundle, error) {
	provider, closeFn, err := a.newProvider()
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return provider.Refresh(ctx)
}

func (a *app) newProvider() (*reference.Provider, func(), error) {
	popts := []reference.Option{
		reference.WithLogger(a.logger),
		reference.WithRateLimit(ratelimiter.NewRateLimiter(a.cfg.Snapshot.MaxLoadsPerMinute, time.Minute, nil)),
	}
	closeFn := func() {}

	if !a.opts.noDB {
		repo, err := a.openRepository()
		if err != nil {
			return nil, nil, err
		}
		popts = append(popts, reference.WithSnapshots(repo, a.cfg.Snapshot.Keep))
		closeFn = func() {
			if err := repo.Close(); err != nil {
				a.logger.Warn("Failed to close snapshot database", zap.Error(err))
			}
		}
	}

	return reference.NewProvider(refdata.NewFileSource(a.cfg.Snapshot.Path), popts...), closeFn, nil
}

func (a *app) openRepository() (*snapshot.SQLiteRepository, error) {
	if dir := filepath.Dir(a.cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return snapshot.NewSQLiteRepository(a.cfg.Database.Path)
}

// merge flattens per-query results in query order, dropping repeats.
func merge[T any](queries []string, results map[string][]T, id func(T) string) []T {
	seen := make(map[string]bool)
	var out []T
	for _, q := range queries {
		for _, item := range results[q] {
			if seen[id(item)] {
				continue
			}
			seen[id(item)] = true
			out = append(out, item)
		}
	}
	return out
}

func limit[T any](items []T, n int) []T {
	if n <= 0 || len(items) <= n {
		return items
	}
	return items[:n]
}
