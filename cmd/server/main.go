package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gridarena.ai/internal/agents"
	"gridarena.ai/internal/agents/wanderer"
	"gridarena.ai/internal/metrics"
	"gridarena.ai/internal/persistence/indexdb"
	persistlog "gridarena.ai/internal/persistence/log"
	"gridarena.ai/internal/sim/tuning"
	"gridarena.ai/internal/sim/world"
	"gridarena.ai/internal/transport/httpapi"
	"gridarena.ai/internal/transport/ws"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	var (
		addr       = flag.String("addr", envString("GRIDARENA_ADDR", ":8080"), "http listen address")
		configDir  = flag.String("configs", envString("GRIDARENA_CONFIGS", "./configs"), "config directory")
		tuningPath = flag.String("tuning", envString("GRIDARENA_TUNING", ""), "path to tuning.yaml (default: <configs>/tuning.yaml)")
		mapName    = flag.String("map", envString("GRIDARENA_MAP", "arena"), "map name under <configs>/maps or a yaml path")
		mode       = flag.String("mode", envString("GRIDARENA_MODE", ""), "override tuning mode: tank|eaters|taxi")
		seed       = flag.Int64("seed", envInt64("GRIDARENA_SEED", 0), "override tuning seed (0 keeps the configured seed)")
		maxTicks   = flag.Int("max_ticks", envInt("GRIDARENA_MAX_TICKS", -1), "override max ticks (-1 keeps the configured value)")
		dataDir    = flag.String("data", envString("GRIDARENA_DATA", "./data"), "runtime data directory")
		runID      = flag.String("run", envString("GRIDARENA_RUN_ID", ""), "run id (default: time based)")
		disableDB  = flag.Bool("disable_db", envBool("GRIDARENA_DISABLE_DB", false), "disable the sqlite run index")
		bots       = flag.String("bots", envString("GRIDARENA_BOTS", ""), "comma separated agents driven by the built-in wanderer, or \"all\"")
		seatWait   = flag.Duration("seat_wait", 2*time.Minute, "how long to wait for remote agents to connect")
		cmdTimeout = flag.Duration("command_timeout", 5*time.Second, "per-tick command timeout for remote agents")
		linger     = flag.Duration("linger", 10*time.Second, "keep serving /v1/summary this long after the run ends")
		httpLog    = flag.Bool("http_log", envBool("GRIDARENA_HTTP_LOG", false), "log every http request")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)
	simLog := log.New(os.Stdout, "[sim] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}
	mapDef, err := resolveMap(*configDir, *mapName)
	if err != nil {
		logger.Fatalf("load map: %v", err)
	}
	switch {
	case *mode != "":
		tune.Mode = strings.ToLower(*mode)
	case mapDef.Mode != "":
		tune.Mode = mapDef.Mode
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	if *maxTicks >= 0 {
		tune.MaxTicks = *maxTicks
	}
	if err := tune.Validate(); err != nil {
		logger.Fatalf("tuning: %v", err)
	}
	cat, err := loadCatalog(*configDir)
	if err != nil {
		logger.Fatalf("load templates: %v", err)
	}

	id := strings.TrimSpace(*runID)
	if id == "" {
		id = "run_" + time.Now().UTC().Format("20060102T150405")
	}
	wcfg := world.WorldConfig{RunID: id, Sim: tune, Map: mapDef, Catalog: cat}
	header := world.HeaderFor(wcfg)

	runDir := filepath.Join(*dataDir, "runs")
	tickLog, err := persistlog.NewTickLogger(runDir, header)
	if err != nil {
		logger.Fatalf("open tick log: %v", err)
	}
	defer tickLog.Close()
	eventLog := persistlog.NewEventLogger(runDir, id)
	defer eventLog.Close()

	sim := metrics.New()
	opts := []world.Option{
		world.WithLogger(simLog),
		world.WithTickLogger(tickLog),
		world.WithEventSink(eventLog),
		world.WithObserver(sim),
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index", "runs.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.BeginRun(header); err != nil {
			logger.Fatalf("index run: %v", err)
		}
		opts = append(opts, world.WithTickLogger(idx))
		sim.GaugeFunc("gridarena_index_queue_depth", "Pending sqlite index writes.", func() float64 {
			return float64(idx.Stats().QueueDepth)
		})
		sim.GaugeFunc("gridarena_index_dropped", "Index writes dropped because the queue was full.", func() float64 {
			st := idx.Stats()
			return float64(st.DropTickTotal + st.DropResultTotal)
		})
	}

	w, err := world.New(wcfg, opts...)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	local, err := splitBots(*bots, header.Agents)
	if err != nil {
		logger.Fatalf("bots: %v", err)
	}
	var seats []ws.Seat
	for _, a := range w.Agents() {
		if !local[a.Name] {
			seats = append(seats, ws.Seat{Agent: a.Name, Color: a.Color, Kind: string(a.Kind)})
		}
	}
	wsSrv := ws.NewServer(ws.Config{
		Mode:           tune.Mode,
		World:          worldParams(w, cat),
		Seats:          seats,
		CommandTimeout: *cmdTimeout,
		Logger:         log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds),
		Metrics:        sim,
	})
	provider := agents.NewTable(wsSrv)
	bot := wanderer.New(wanderer.DefaultConfig())
	for name := range local {
		provider.Set(name, bot)
	}

	router := httpapi.NewRouter(httpapi.Config{
		State:          w,
		WS:             wsSrv.Handler(),
		Metrics:        sim.Handler(),
		Index:          indexOrNil(idx),
		DisableLogging: !*httpLog,
	})
	srv := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("ListenAndServe: %v", err)
		}
	}()

	if len(seats) > 0 {
		logger.Printf("run %s: waiting for %d remote agent(s) on /v1/ws", id, len(seats))
		waitCtx, waitCancel := context.WithTimeout(ctx, *seatWait)
		err := wsSrv.WaitForSeats(waitCtx)
		waitCancel()
		if err != nil {
			logger.Fatalf("waiting for agents: %v (connected: %v)", err, wsSrv.Connected())
		}
	}

	logger.Printf("run %s: mode=%s map=%s seed=%d agents=%d", id, tune.Mode, mapDef.Name, tune.Seed, len(header.Agents))
	sum, err := w.Run(ctx, provider)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Printf("run %s interrupted at tick %d", id, w.Tick())
	case err != nil:
		logger.Printf("run %s failed at tick %d: %v", id, w.Tick(), err)
	default:
		logger.Printf("run %s: %s", id, describe(sum))
	}
	if idx != nil {
		syncCtx, syncCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := idx.Sync(syncCtx); err != nil {
			logger.Printf("index sync: %v", err)
		}
		syncCancel()
	}
	logger.Printf("tick log: %s", tickLog.Path())

	if err == nil && *linger > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(*linger):
		}
	}
	shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutCancel()
	_ = srv.Shutdown(shutCtx)
	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}

// indexOrNil keeps a nil *SQLiteIndex from becoming a non-nil interface.
func indexOrNil(idx *indexdb.SQLiteIndex) httpapi.RunIndex {
	if idx == nil {
		return nil
	}
	return idx
}

func describe(s world.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ended at tick %d (%s)", s.Tick, s.Reason)
	for _, st := range s.Standings {
		fmt.Fprintf(&b, " %d.%s=%d[%s]", st.Rank, st.Agent, st.Score, st.Outcome)
	}
	return b.String()
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
