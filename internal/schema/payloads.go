package schema

// OrderIntent is a strategy's request to place, amend or cancel an order.
// It is immutable after creation; the gate chain consumes it exactly once.
type OrderIntent struct {
	IntentID    uint64
	StrategyID  uint32
	AccountID   uint32
	SymbolID    uint32
	Kind        IntentKind
	Side        OrderSide
	Type        OrderType
	TimeInForce TimeInForce
	Price       Price
	Qty         Quantity
	TargetID    uint64
	TsCreated   int64
	TraceID     uint64
}

// RiskAction is the outcome of an admission decision.
type RiskAction uint16

const (
	RiskActionUnknown RiskAction = iota
	RiskActionAllow
	RiskActionDeny
)

// RiskReason is a stable reason code attached to every admission decision.
// Codes 1-5 keep the fast gate's wire values and must not be renumbered.
type RiskReason uint16

const (
	RiskReasonNone                  RiskReason = 0
	RiskReasonKillSwitch            RiskReason = 1
	RiskReasonPriceZeroOrNeg        RiskReason = 2
	RiskReasonPriceExceedsCap       RiskReason = 3
	RiskReasonQtyExceedsMax         RiskReason = 4
	RiskReasonQtyZeroOrNeg          RiskReason = 5
	RiskReasonPriceOutsideBand      RiskReason = 6
	RiskReasonGlobalExposureLimit   RiskReason = 7
	RiskReasonStrategyExposureLimit RiskReason = 8
	RiskReasonExposureCardinality   RiskReason = 9
	RiskReasonStormHalt             RiskReason = 10
	RiskReasonDeadlineExpired       RiskReason = 11
	RiskReasonRateLimit             RiskReason = 12
	RiskReasonCircuitOpen           RiskReason = 13
	RiskReasonThrottleWarn          RiskReason = 14
	RiskReasonBrokerError           RiskReason = 15
)

// RiskReasonCount is the number of defined reason codes, for counter sizing.
const RiskReasonCount = int(RiskReasonBrokerError) + 1

func (r RiskReason) String() string {
	switch r {
	case RiskReasonNone:
		return "OK"
	case RiskReasonKillSwitch:
		return "KILL_SWITCH"
	case RiskReasonPriceZeroOrNeg:
		return "PRICE_ZERO_OR_NEG"
	case RiskReasonPriceExceedsCap:
		return "PRICE_EXCEEDS_CAP"
	case RiskReasonQtyExceedsMax:
		return "QTY_EXCEEDS_MAX"
	case RiskReasonQtyZeroOrNeg:
		return "QTY_ZERO_OR_NEG"
	case RiskReasonPriceOutsideBand:
		return "PRICE_OUTSIDE_BAND"
	case RiskReasonGlobalExposureLimit:
		return "GLOBAL_EXPOSURE_LIMIT"
	case RiskReasonStrategyExposureLimit:
		return "STRATEGY_EXPOSURE_LIMIT"
	case RiskReasonExposureCardinality:
		return "EXPOSURE_CARDINALITY"
	case RiskReasonStormHalt:
		return "STORM_HALT"
	case RiskReasonDeadlineExpired:
		return "DEADLINE_EXPIRED"
	case RiskReasonRateLimit:
		return "RATE_LIMIT"
	case RiskReasonCircuitOpen:
		return "CIRCUIT_OPEN"
	case RiskReasonThrottleWarn:
		return "THROTTLE_WARN"
	case RiskReasonBrokerError:
		return "BROKER_ERROR"
	default:
		return "UNKNOWN"
	}
}

// RiskDecision records the outcome of running one intent through the gate chain.
type RiskDecision struct {
	IntentID   uint64
	StrategyID uint32
	AccountID  uint32
	SymbolID   uint32
	Action     RiskAction
	Reason     RiskReason
	Price      Price
	Qty        Quantity
	Notional   Notional
	TsDecided  int64
	TraceID    uint64
}

// OrderCommand is an approved intent handed to the dispatch layer.
type OrderCommand struct {
	Intent           OrderIntent
	DispatchDeadline int64
	Severity         StormSeverity
}

// OrderAckStatus describes the outcome reported by the broker for an order.
type OrderAckStatus uint16

const (
	OrderAckStatusUnknown OrderAckStatus = iota
	OrderAckStatusAcked
	OrderAckStatusRejected
	OrderAckStatusCanceled
	OrderAckStatusExpired
	OrderAckStatusPartFilled
	OrderAckStatusFilled
)

// OrderAck is a broker acknowledgment correlated back to an intent.
type OrderAck struct {
	IntentID   uint64
	StrategyID uint32
	SymbolID   uint32
	Status     OrderAckStatus
	Price      Price
	Qty        Quantity
	LeavesQty  Quantity
	TsExchange int64
}

// Fill is a broker execution report correlated back to an intent.
type Fill struct {
	IntentID   uint64
	StrategyID uint32
	AccountID  uint32
	SymbolID   uint32
	Side       OrderSide
	Price      Price
	Qty        Quantity
	Fee        Fee
	TsExchange int64
}
