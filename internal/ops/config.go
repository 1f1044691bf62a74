// Package ops loads the risk configuration document and resolves it into
// flat per-strategy effective limits, so no override merging happens on the
// admission path.
package ops

import (
	"os"
	"strconv"
	"time"

	"main/internal/band"
	"main/internal/exposure"
	"main/internal/og"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/storm"
	"main/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
)

// Environment tunables for the exposure store.
const (
	EnvGlobalMaxNotional  = "RISKD_GLOBAL_MAX_NOTIONAL"
	EnvExposureMaxEntries = "RISKD_EXPOSURE_MAX_ENTRIES"
)

// FileConfig mirrors the JSON config layout. Decimal-looking fields
// (prices, tick sizes) are decimal strings fixed to scaled integers at load.
type FileConfig struct {
	PriceScale     int                     `json:"price_scale"`
	GlobalDefaults LimitsConfig            `json:"global_defaults"`
	Strategies     map[string]LimitsConfig `json:"strategies"`
	Exposure       ExposureConfig          `json:"exposure"`
	Storm          StormConfig             `json:"storm"`
	Dispatch       DispatchConfig          `json:"dispatch"`
	KillSwitch     KillSwitchConfig        `json:"killswitch"`
	Engine         EngineConfig            `json:"engine"`
	Journal        JournalConfig           `json:"journal"`
}

// LimitsConfig holds the per-strategy limit fields. Nil means "inherit the
// global default".
type LimitsConfig struct {
	MaxNotional    *int64           `json:"max_notional"`
	MaxPriceCap    *decimal.Decimal `json:"max_price_cap"`
	PriceBandTicks *int64           `json:"price_band_ticks"`
	TickSize       *decimal.Decimal `json:"tick_size"`
	MaxOrderQty    *int64           `json:"max_order_qty"`
}

// ExposureConfig tunes the exposure store.
type ExposureConfig struct {
	GlobalMaxNotional int64 `json:"global_max_notional"`
	MaxEntries        int   `json:"max_entries"`
}

// StormConfig holds the storm guard thresholds. Drawdown thresholds are
// negative percentages; zero disables a trigger.
type StormConfig struct {
	WarmDrawdownPct  float64 `json:"warm_drawdown_pct"`
	StormDrawdownPct float64 `json:"storm_drawdown_pct"`
	HaltDrawdownPct  float64 `json:"halt_drawdown_pct"`
	WarmLatencyUs    int64   `json:"warm_latency_us"`
	StormLatencyUs   int64   `json:"storm_latency_us"`
	HaltLatencyUs    int64   `json:"halt_latency_us"`
	StormFeedGapSec  float64 `json:"storm_feed_gap_s"`
}

// DispatchConfig tunes the order adapter protections.
type DispatchConfig struct {
	WindowMs         int64 `json:"window_ms"`
	SoftCap          int   `json:"soft_cap"`
	HardCap          int   `json:"hard_cap"`
	BreakerThreshold int   `json:"breaker_threshold"`
	CooldownMs       int64 `json:"cooldown_ms"`
}

// KillSwitchConfig names the shared-memory kill switch segment.
type KillSwitchConfig struct {
	Segment string `json:"segment"`
	Create  bool   `json:"create"`
}

// EngineConfig tunes the risk engine deadlines.
type EngineConfig struct {
	IntentTTLMs   int64 `json:"intent_ttl_ms"`
	DispatchTTLMs int64 `json:"dispatch_ttl_ms"`
}

// JournalConfig configures the optional Postgres decision journal.
type JournalConfig struct {
	DSN    string `json:"dsn"`
	Buffer int    `json:"buffer"`
}

// StrategyLimits are the effective limits for one strategy after override
// resolution and decimal fixing.
type StrategyLimits struct {
	MaxNotional   schema.Notional
	PriceCap      schema.Price
	MaxOrderQty   schema.Quantity
	BandHalfWidth schema.Price
}

// Band converts the limits into the band validator's form.
func (l StrategyLimits) Band() band.StrategyBand {
	return band.StrategyBand{PriceCap: l.PriceCap, HalfWidth: l.BandHalfWidth}
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Defaults   StrategyLimits
	Strategies map[uint32]StrategyLimits
	Exposure   exposure.Limits
	Storm      storm.Thresholds
	Dispatch   og.Config
	KillSwitch KillSwitchConfig
	Engine     risk.Config
	Journal    JournalConfig
}

// BandOverrides builds the per-strategy band table for the validator.
func (l Loaded) BandOverrides() map[uint32]band.StrategyBand {
	out := make(map[uint32]band.StrategyBand, len(l.Strategies))
	for id, limits := range l.Strategies {
		out[id] = limits.Band()
	}
	return out
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "read config")
	}
	var cfg FileConfig
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, errors.Wrap(err, "decode config")
	}
	return Resolve(cfg)
}

// Resolve flattens the config into effective limits.
func Resolve(cfg FileConfig) (Loaded, error) {
	if cfg.PriceScale < 0 {
		return Loaded{}, exception.ErrConfigInvalidScale
	}

	defaults, err := resolveLimits(cfg.GlobalDefaults, LimitsConfig{}, cfg.PriceScale)
	if err != nil {
		return Loaded{}, errors.Wrap(err, "resolve global defaults")
	}

	strategies := make(map[uint32]StrategyLimits, len(cfg.Strategies))
	strategyCaps := make(map[uint32]schema.Notional, len(cfg.Strategies))
	for id, override := range cfg.Strategies {
		sid, err := strconv.ParseUint(id, 10, 32)
		if err != nil {
			return Loaded{}, errors.Wrapf(exception.ErrConfigInvalidStrategy, "id: %s", id)
		}
		limits, err := resolveLimits(override, cfg.GlobalDefaults, cfg.PriceScale)
		if err != nil {
			return Loaded{}, errors.Wrapf(err, "resolve strategy %s", id)
		}
		strategies[uint32(sid)] = limits
		strategyCaps[uint32(sid)] = limits.MaxNotional
	}

	loaded := Loaded{
		Defaults:   defaults,
		Strategies: strategies,
		Exposure: exposure.Limits{
			GlobalMaxNotional: schema.Notional(cfg.Exposure.GlobalMaxNotional),
			MaxEntries:        cfg.Exposure.MaxEntries,
			Strategy:          strategyCaps,
		},
		Storm: storm.Thresholds{
			WarmDrawdownPct:  cfg.Storm.WarmDrawdownPct,
			StormDrawdownPct: cfg.Storm.StormDrawdownPct,
			HaltDrawdownPct:  cfg.Storm.HaltDrawdownPct,
			WarmLatencyUs:    cfg.Storm.WarmLatencyUs,
			StormLatencyUs:   cfg.Storm.StormLatencyUs,
			HaltLatencyUs:    cfg.Storm.HaltLatencyUs,
			StormFeedGapSec:  cfg.Storm.StormFeedGapSec,
		},
		Dispatch: og.Config{
			Window:           time.Duration(cfg.Dispatch.WindowMs) * time.Millisecond,
			SoftCap:          cfg.Dispatch.SoftCap,
			HardCap:          cfg.Dispatch.HardCap,
			BreakerThreshold: cfg.Dispatch.BreakerThreshold,
			Cooldown:         time.Duration(cfg.Dispatch.CooldownMs) * time.Millisecond,
		},
		KillSwitch: cfg.KillSwitch,
		Engine: risk.Config{
			IntentTTL:   time.Duration(cfg.Engine.IntentTTLMs) * time.Millisecond,
			DispatchTTL: time.Duration(cfg.Engine.DispatchTTLMs) * time.Millisecond,
		},
		Journal: cfg.Journal,
	}
	applyEnv(&loaded)
	return loaded, nil
}

func applyEnv(loaded *Loaded) {
	if v := os.Getenv(EnvGlobalMaxNotional); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			loaded.Exposure.GlobalMaxNotional = schema.Notional(n)
		}
	}
	if v := os.Getenv(EnvExposureMaxEntries); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			loaded.Exposure.MaxEntries = n
		}
	}
}

func resolveLimits(override, defaults LimitsConfig, scale int) (StrategyLimits, error) {
	maxNotional := pickInt(override.MaxNotional, defaults.MaxNotional)
	bandTicks := pickInt(override.PriceBandTicks, defaults.PriceBandTicks)
	maxQty := pickInt(override.MaxOrderQty, defaults.MaxOrderQty)

	priceCap, err := scaledPrice(pickDecimal(override.MaxPriceCap, defaults.MaxPriceCap), scale)
	if err != nil {
		return StrategyLimits{}, errors.Wrap(err, "max_price_cap")
	}
	tickSize, err := scaledPrice(pickDecimal(override.TickSize, defaults.TickSize), scale)
	if err != nil {
		return StrategyLimits{}, errors.Wrap(err, "tick_size")
	}

	return StrategyLimits{
		MaxNotional:   schema.Notional(maxNotional),
		PriceCap:      priceCap,
		MaxOrderQty:   schema.Quantity(maxQty),
		BandHalfWidth: schema.Price(bandTicks * int64(tickSize)),
	}, nil
}

func pickInt(override, fallback *int64) int64 {
	if override != nil {
		return *override
	}
	if fallback != nil {
		return *fallback
	}
	return 0
}

func pickDecimal(override, fallback *decimal.Decimal) *decimal.Decimal {
	if override != nil {
		return override
	}
	return fallback
}

func scaledPrice(d *decimal.Decimal, scale int) (schema.Price, error) {
	if d == nil {
		return 0, nil
	}
	v, err := ParseScaled(d.String(), scale)
	if err != nil {
		return 0, err
	}
	return schema.Price(v), nil
}
