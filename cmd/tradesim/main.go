// Command tradesim runs the negotiating trade agent through a simulated
// one-shot commodity market and reports what it secured.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/haggle/internal/api"
	"github.com/talgya/haggle/internal/exchange"
	"github.com/talgya/haggle/internal/persistence"
	"github.com/talgya/haggle/internal/reputation"
	"github.com/talgya/haggle/internal/trader"
)

func main() {
	var (
		periods   = flag.Int("periods", 50, "number of simulated periods")
		rounds    = flag.Int("rounds", 20, "round budget per negotiation")
		suppliers = flag.Int("suppliers", 4, "number of supplier counterparts")
		consumers = flag.Int("consumers", 4, "number of consumer counterparts")
		seed      = flag.Int64("seed", 42, "simulation seed")
		exponent  = flag.Float64("exponent", 0.2, "concession curve exponent")
		dbPath    = flag.String("db", "data/haggle.db", "ledger path (empty disables persistence)")
		port      = flag.Int("port", 0, "API port (0 disables; keeps serving after the run)")
		ownType   = flag.String("own-type", "", "restrict to same-type partners when any exist")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// ── Ledger ────────────────────────────────────────────────────────
	var db *persistence.DB
	if *dbPath != "" {
		var err error
		db, err = openLedger(*dbPath)
		if err != nil {
			slog.Error("failed to open ledger", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("ledger opened", "path", *dbPath)
	}

	// ── Agent and market ──────────────────────────────────────────────
	tcfg := trader.DefaultConfig()
	tcfg.ConcessionExponent = *exponent
	agent := trader.New(tcfg)

	pol := &reputation.Policy{Lookback: reputation.DefaultLookback}
	if db != nil {
		pol.Ledger = db
	}

	cfg := exchange.DefaultConfig()
	cfg.Seed = *seed
	cfg.Periods = *periods
	cfg.Rounds = *rounds
	cfg.Suppliers = *suppliers
	cfg.Consumers = *consumers

	world := exchange.NewWorld(cfg, agent, pol, db)
	if *ownType != "" {
		pol.OwnType = *ownType
		pol.TypeOf = world.TypeOf
	}

	if *port > 0 {
		apiServer := &api.Server{Trader: agent, World: world, DB: db, Port: *port}
		apiServer.Start()
	}

	slog.Info("market ready",
		"periods", cfg.Periods,
		"suppliers", cfg.Suppliers,
		"consumers", cfg.Consumers,
		"rounds", cfg.Rounds,
		"seed", cfg.Seed,
	)

	// ── Run ───────────────────────────────────────────────────────────
	if err := world.Run(); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}

	shortBuy, shortSell := world.Shortfalls()
	fmt.Printf("\nRan %s periods against %d partners.\n",
		humanize.Comma(int64(cfg.Periods)), cfg.Suppliers+cfg.Consumers)

	if db != nil {
		totals, err := db.LedgerTotals()
		if err != nil {
			slog.Error("ledger totals failed", "error", err)
		} else {
			fmt.Printf("Contracts: %s  bought %s units for %s, sold %s units for %s\n",
				humanize.Comma(int64(totals.Contracts)),
				humanize.Comma(int64(totals.Bought)),
				humanize.CommafWithDigits(totals.Spent, 2),
				humanize.Comma(int64(totals.Sold)),
				humanize.CommafWithDigits(totals.Earned, 2),
			)
		}
	}
	fmt.Printf("Unmet requirement: %s buy, %s sell\n",
		humanize.Comma(int64(shortBuy)), humanize.Comma(int64(shortSell)))

	for _, pc := range world.PartnerContracts() {
		fmt.Printf("  %s: %d contracts\n", pc.Partner, pc.Contracts)
	}

	if *port > 0 {
		fmt.Printf("\nAPI: http://localhost:%d/api/v1/status (Ctrl+C to exit)\n", *port)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
	}
}

// openLedger opens the ledger at path, creating its parent directory first.
func openLedger(path string) (*persistence.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create ledger dir: %w", err)
			}
		}
	}
	return persistence.Open(path)
}
