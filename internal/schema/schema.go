package schema

// SchemaVersion is the current payload schema version.
const SchemaVersion uint16 = 1

// Price is a scaled integer. The scale is defined by configuration.
type Price int64

// Quantity is a scaled integer. The scale is defined by configuration.
type Quantity int64

// Notional is a scaled integer. The scale is defined by configuration.
type Notional int64

// Fee is a scaled integer. The scale is defined by configuration.
type Fee int64

// IntentKind describes what a strategy wants done with an order.
type IntentKind uint16

const (
	IntentUnknown IntentKind = iota
	IntentNew
	IntentAmend
	IntentCancel
)

func (k IntentKind) String() string {
	switch k {
	case IntentNew:
		return "NEW"
	case IntentAmend:
		return "AMEND"
	case IntentCancel:
		return "CANCEL"
	default:
		return "UNKNOWN"
	}
}

// OrderSide describes order direction.
type OrderSide uint16

const (
	OrderSideUnknown OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

// OrderType describes order type.
type OrderType uint16

const (
	OrderTypeUnknown OrderType = iota
	OrderTypeLimit
	OrderTypeMarket
)

// TimeInForce describes order time-in-force.
type TimeInForce uint16

const (
	TimeInForceUnknown TimeInForce = iota
	TimeInForceGTC
	TimeInForceIOC
	TimeInForceFOK
)

// StormSeverity is the market-health severity reported by the storm guard.
// Ordering is significant: higher values are strictly worse.
type StormSeverity uint16

const (
	StormNormal StormSeverity = iota
	StormWarm
	StormStorm
	StormHalt
)

func (s StormSeverity) String() string {
	switch s {
	case StormNormal:
		return "NORMAL"
	case StormWarm:
		return "WARM"
	case StormStorm:
		return "STORM"
	case StormHalt:
		return "HALT"
	default:
		return "UNKNOWN"
	}
}
