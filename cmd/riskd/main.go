package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"main/internal/band"
	"main/internal/bus"
	"main/internal/exposure"
	"main/internal/gate"
	"main/internal/journal"
	"main/internal/obs"
	"main/internal/og"
	"main/internal/ops"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/state"
	"main/internal/storm"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/pkg/sys"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	configReload := flag.Duration("config-reload-interval", 2*time.Second, "Config reload interval (0=disable)")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disabled)")
	statsInterval := flag.Duration("stats-interval", 15*time.Second, "Metrics log interval")
	supervisorTick := flag.Duration("supervisor-interval", time.Second, "Storm guard evaluation interval")
	intentBuffer := flag.Int("intent-buffer", 4096, "Intent queue capacity")
	commandBuffer := flag.Int("command-buffer", 1024, "Command queue capacity")
	demoOrders := flag.Int("demo-orders", 0, "Publish N synthetic intents through the pipeline, then exit")
	demoInterval := flag.Duration("demo-interval", 0, "Delay between synthetic intents")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "riskd",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() { _ = profiler.Stop() }()
	}

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	metrics := obs.NewMetrics()
	guard := storm.NewGuard(loaded.Storm, metrics)
	store := exposure.NewStore(loaded.Exposure)
	books := band.NewMidCache()
	validator := band.NewValidator(books, loaded.Defaults.Band(), loaded.BandOverrides())
	positions := state.NewPositionReducer()

	fastGate, err := openGate(loaded)
	if err != nil {
		log.Fatalf("kill switch segment open failed: %v", err)
	}
	defer func() {
		// The creating process owns the segment name; attach-only
		// processes just unmap.
		if loaded.KillSwitch.Create {
			_ = fastGate.Unlink()
		}
		_ = fastGate.Close()
	}()

	var decisions *journal.Journal
	if loaded.Journal.DSN != "" {
		decisions, err = journal.Open(loaded.Journal.DSN, loaded.Journal.Buffer)
		if err != nil {
			log.Fatalf("journal open failed: %v", err)
		}
		defer func() { _ = decisions.Close() }()
		go decisions.Run(ctx)
	}

	intents := bus.NewQueue[schema.OrderIntent](*intentBuffer)
	commands := bus.NewQueue[schema.OrderCommand](*commandBuffer)

	engine := risk.NewEngine(loaded.Engine, fastGate, validator, store, guard, metrics, commands,
		func(d schema.RiskDecision) { decisions.Offer(d) })
	adapter := og.NewAdapter(loaded.Dispatch, og.NewPaperBroker(), store, positions, metrics)

	engineDone := make(chan struct{})
	adapterDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		engine.Run(ctx, intents)
	}()
	go func() {
		defer close(adapterDone)
		adapter.Run(ctx, commands)
	}()

	if *configPath != "" && *configReload > 0 {
		go watchConfig(ctx, *configPath, *configReload, store, guard)
	}

	if *demoOrders > 0 {
		go publishDemoOrders(ctx, intents, books, loaded.Defaults, *demoOrders, *demoInterval, stop)
	}

	supervise(ctx, guard, metrics, store, adapter, engineDone, adapterDone, *supervisorTick, *statsInterval)

	intents.Close()
	<-engineDone
	commands.Close()
	<-adapterDone

	snapshot := metrics.Snapshot()
	log.Printf("final metrics: reasons=%v severity=%s drops=%d throttle_warns=%d dispatch_failures=%d gate_eval=%+v dispatch=%+v",
		snapshot.ReasonCounts, snapshot.StormSeverity, snapshot.QueueDrops,
		snapshot.ThrottleWarns, snapshot.DispatchFailures, snapshot.GateEvalLatency, snapshot.DispatchLatency)
	log.Printf("final state: global_exposure=%d entries=%d live_orders=%d positions=%d",
		store.GlobalExposure(), store.Entries(), adapter.LiveOrders(), positions.Count())
}

// supervise runs the periodic health loop: it feeds the storm guard, logs
// metric snapshots and forces a halt when a pipeline consumer dies while
// the process is still supposed to be running.
func supervise(
	ctx context.Context,
	guard *storm.Guard,
	metrics *obs.Metrics,
	store *exposure.Store,
	adapter *og.Adapter,
	engineDone, adapterDone <-chan struct{},
	tick, statsInterval time.Duration,
) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	stats := time.NewTicker(statsInterval)
	defer stats.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sys.Shutdown():
			return
		case <-engineDone:
			guard.TriggerHalt("admission consumer stopped")
			return
		case <-adapterDone:
			guard.TriggerHalt("dispatch consumer stopped")
			return
		case <-ticker.C:
			gateEval := metrics.Snapshot().GateEvalLatency
			guard.Update(0, gateEval.Max.Microseconds(), 0)
		case <-stats.C:
			snapshot := metrics.Snapshot()
			log.Printf("metrics: reasons=%v severity=%s drops=%d throttle_warns=%d dispatch_failures=%d global_exposure=%d live_orders=%d",
				snapshot.ReasonCounts, snapshot.StormSeverity, snapshot.QueueDrops,
				snapshot.ThrottleWarns, snapshot.DispatchFailures, store.GlobalExposure(), adapter.LiveOrders())
		}
	}
}

func openGate(loaded ops.Loaded) (*gate.FastGate, error) {
	if loaded.KillSwitch.Segment == "" {
		return gate.New(loaded.Defaults.PriceCap, loaded.Defaults.MaxOrderQty), nil
	}
	return gate.Open(loaded.KillSwitch.Segment, loaded.KillSwitch.Create,
		loaded.Defaults.PriceCap, loaded.Defaults.MaxOrderQty)
}

func loadConfig(path string) (ops.Loaded, error) {
	if path == "" {
		return defaultLoaded(), nil
	}
	return ops.Load(path)
}

// defaultLoaded is the zero-config profile used for local paper trading.
func defaultLoaded() ops.Loaded {
	return ops.Loaded{
		Defaults: ops.StrategyLimits{
			MaxNotional:   schema.Notional(1_000_000_00000000),
			PriceCap:      schema.Price(1_000_000_00000000),
			MaxOrderQty:   schema.Quantity(1_000_00000000),
			BandHalfWidth: 0,
		},
		Exposure: exposure.Limits{
			GlobalMaxNotional: schema.Notional(10_000_000_00000000),
			MaxEntries:        1 << 16,
		},
		Storm: storm.Thresholds{
			WarmDrawdownPct:  -2,
			StormDrawdownPct: -5,
			HaltDrawdownPct:  -10,
		},
		Dispatch: og.DefaultConfig(),
		Engine: risk.Config{
			IntentTTL:   time.Second,
			DispatchTTL: time.Second,
		},
	}
}

// watchConfig polls the config file and applies the hot-tunable sections.
// Gate caps and band limits are wired at startup and need a restart.
func watchConfig(ctx context.Context, path string, interval time.Duration, store *exposure.Store, guard *storm.Guard) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastMod time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				log.Printf("config stat failed: %v", err)
				continue
			}
			if !info.ModTime().After(lastMod) {
				continue
			}
			loaded, err := ops.Load(path)
			if err != nil {
				log.Printf("config reload failed: %v", err)
				continue
			}
			store.SetLimits(loaded.Exposure)
			guard.SetThresholds(loaded.Storm)
			lastMod = info.ModTime()
			log.Printf("config reloaded: %s (exposure and storm thresholds applied)", path)
		}
	}
}

// publishDemoOrders drives synthetic intents through the pipeline, then
// shuts the process down. Used for smoke-testing a deployment.
func publishDemoOrders(
	ctx context.Context,
	intents *bus.Queue[schema.OrderIntent],
	books *band.MidCache,
	limits ops.StrategyLimits,
	count int,
	interval time.Duration,
	stop context.CancelFunc,
) {
	defer stop()

	const (
		strategyID = 1
		accountID  = 1
		symbolID   = 1
	)
	price := limits.PriceCap / 2
	if price <= 0 {
		price = 1
	}
	qty := limits.MaxOrderQty / 10
	if qty <= 0 {
		qty = 1
	}
	books.SetMid(symbolID, price)

	traceGen := obs.NewTraceGenerator(0)
	side := schema.OrderSideBuy
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			return
		}
		intent := schema.OrderIntent{
			IntentID:    uint64(i + 1),
			StrategyID:  strategyID,
			AccountID:   accountID,
			SymbolID:    symbolID,
			Kind:        schema.IntentNew,
			Side:        side,
			Type:        schema.OrderTypeLimit,
			TimeInForce: schema.TimeInForceGTC,
			Price:       price,
			Qty:         qty,
			TsCreated:   time.Now().UTC().UnixNano(),
			TraceID:     traceGen.Next(),
		}
		if err := intents.TryPublish(intent); err != nil {
			log.Printf("demo intent %d dropped: %v", intent.IntentID, err)
		}
		if side == schema.OrderSideBuy {
			side = schema.OrderSideSell
		} else {
			side = schema.OrderSideBuy
		}
		if interval > 0 && i < count-1 {
			time.Sleep(interval)
		}
	}
	// Let the queues drain before the deferred stop tears everything down.
	time.Sleep(200 * time.Millisecond)
}
