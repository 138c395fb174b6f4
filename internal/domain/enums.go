package domain

// Enumerations read from the store are closed sets. Values the backend adds
// later parse to the Unknown variant of their type instead of failing.

// Side is the direction of a trade
type Side string

const (
	SideBuy     Side = "buy"
	SideSell    Side = "sell"
	SideUnknown Side = "unknown"
)

// ParseSide maps a raw value to a Side
func ParseSide(s string) Side {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s)
	}
	return SideUnknown
}

// SignalStatus is the lifecycle state of a trade signal
type SignalStatus string

const (
	SignalPending       SignalStatus = "pending"
	SignalActive        SignalStatus = "active"
	SignalCompleted     SignalStatus = "completed"
	SignalCancelled     SignalStatus = "cancelled"
	SignalStatusUnknown SignalStatus = "unknown"
)

// SignalStatuses lists the known signal statuses
var SignalStatuses = []SignalStatus{SignalPending, SignalActive, SignalCompleted, SignalCancelled}

// ParseSignalStatus maps a raw value to a SignalStatus
func ParseSignalStatus(s string) SignalStatus {
	for _, known := range SignalStatuses {
		if SignalStatus(s) == known {
			return known
		}
	}
	return SignalStatusUnknown
}

// Known reports whether the status is one of the known values
func (s SignalStatus) Known() bool {
	return s != SignalStatusUnknown && ParseSignalStatus(string(s)) == s
}

// ConfidenceLabel is the coarse quality tier assigned by the analysis service.
// The zero value means no label was assigned.
type ConfidenceLabel string

const (
	ConfidenceNone    ConfidenceLabel = ""
	ConfidenceHigh    ConfidenceLabel = "high"
	ConfidenceMedium  ConfidenceLabel = "medium"
	ConfidenceLow     ConfidenceLabel = "low"
	ConfidenceUnknown ConfidenceLabel = "unknown"
)

// ParseConfidenceLabel maps a raw value to a ConfidenceLabel
func ParseConfidenceLabel(s string) ConfidenceLabel {
	switch ConfidenceLabel(s) {
	case ConfidenceNone, ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return ConfidenceLabel(s)
	}
	return ConfidenceUnknown
}

// Outcome is the result of a journaled trade. The zero value means not recorded.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakeven Outcome = "breakeven"
	OutcomePending   Outcome = "pending"
	OutcomeUnknown   Outcome = "unknown"
)

// ParseOutcome maps a raw value to an Outcome
func ParseOutcome(s string) Outcome {
	switch Outcome(s) {
	case OutcomeNone, OutcomeWin, OutcomeLoss, OutcomeBreakeven, OutcomePending:
		return Outcome(s)
	}
	return OutcomeUnknown
}

// Recommendation is the ML prediction verdict for a pair
type Recommendation string

const (
	RecommendationStrongBuy  Recommendation = "strong_buy"
	RecommendationBuy        Recommendation = "buy"
	RecommendationNeutral    Recommendation = "neutral"
	RecommendationSell       Recommendation = "sell"
	RecommendationStrongSell Recommendation = "strong_sell"
	RecommendationUnknown    Recommendation = "unknown"
)

// ParseRecommendation maps a raw value to a Recommendation
func ParseRecommendation(s string) Recommendation {
	switch Recommendation(s) {
	case RecommendationStrongBuy, RecommendationBuy, RecommendationNeutral,
		RecommendationSell, RecommendationStrongSell:
		return Recommendation(s)
	}
	return RecommendationUnknown
}

// GapType is the direction of a fair value gap
type GapType string

const (
	GapBullish GapType = "bullish"
	GapBearish GapType = "bearish"
	GapUnknown GapType = "unknown"
)

// ParseGapType maps a raw value to a GapType
func ParseGapType(s string) GapType {
	switch GapType(s) {
	case GapBullish, GapBearish:
		return GapType(s)
	}
	return GapUnknown
}

// ZoneType is the side of a liquidity zone
type ZoneType string

const (
	ZoneBuySide  ZoneType = "buy_side"
	ZoneSellSide ZoneType = "sell_side"
	ZoneUnknown  ZoneType = "unknown"
)

// ParseZoneType maps a raw value to a ZoneType
func ParseZoneType(s string) ZoneType {
	switch ZoneType(s) {
	case ZoneBuySide, ZoneSellSide:
		return ZoneType(s)
	}
	return ZoneUnknown
}

// UnmarshalText implementations normalize decoded payloads the same way the
// store rows are normalized.

func (s *Side) UnmarshalText(b []byte) error {
	*s = ParseSide(string(b))
	return nil
}

func (s *SignalStatus) UnmarshalText(b []byte) error {
	*s = ParseSignalStatus(string(b))
	return nil
}

func (c *ConfidenceLabel) UnmarshalText(b []byte) error {
	*c = ParseConfidenceLabel(string(b))
	return nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	*o = ParseOutcome(string(b))
	return nil
}

func (r *Recommendation) UnmarshalText(b []byte) error {
	*r = ParseRecommendation(string(b))
	return nil
}

func (g *GapType) UnmarshalText(b []byte) error {
	*g = ParseGapType(string(b))
	return nil
}

func (z *ZoneType) UnmarshalText(b []byte) error {
	*z = ParseZoneType(string(b))
	return nil
}
