// Package market defines the market-psychology parameter bundles that drive
// weight derivation and price deltas, plus the scenario templates they are
// seeded from.
//
// Parameters arrive in two representations: the typed bundle used inside the
// engine and a generic map form accepted on the admin surface. Both implement
// the Source capability, so weight and delta logic is written once against
// named accessors with declared normalization instead of branching on shape.
package market

import "math"

// Source is the parameter-access capability. Signed returns a value in
// [-1, 1] (0 when absent); Unit returns a value normalized to [0, 1]
// (midpoint 0.5 when absent). Implementations own the signed-to-unit
// mapping for fields whose stored range differs between representations.
type Source interface {
	Signed(name string) float64
	Unit(name string) float64
}

// Accessor names understood by both representations.
const (
	FieldRiskAppetite    = "risk_appetite"
	FieldNewsSensitivity = "news_sensitivity"
	FieldCompanyTrait    = "company_trait"
	FieldRnDRatio        = "rnd_ratio"
	FieldVolatility      = "volatility"
	FieldPolicyDirection = "policy_direction"
	FieldTaxPolicy       = "tax_policy"
	FieldMediaBias       = "media_bias"
	FieldMediaTrust      = "media_trust"
)

// Clamp01 clips a value into [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampSigned clips a value into [-1, 1]. NaN maps to 0.
func ClampSigned(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

// UnitFromSigned linearly maps [-1, 1] onto [0, 1].
func UnitFromSigned(v float64) float64 {
	return Clamp01((ClampSigned(v) + 1.0) / 2.0)
}

// Public holds crowd-psychology parameters.
type Public struct {
	RiskAppetite    float64 `json:"risk_appetite" mapstructure:"risk_appetite"`       // signed
	NewsSensitivity float64 `json:"news_sensitivity" mapstructure:"news_sensitivity"` // unit
	ConsumerIndex   float64 `json:"consumer_index" mapstructure:"consumer_index"`
}

// Company holds corporate-posture parameters.
type Company struct {
	Orientation float64 `json:"orientation" mapstructure:"orientation"` // signed; aggressive > 0
	RnDRatio    float64 `json:"rnd_ratio" mapstructure:"rnd_ratio"`     // unit
	Volatility  float64 `json:"volatility" mapstructure:"volatility"`   // unit
}

// Government holds policy parameters.
type Government struct {
	PolicyDirection float64            `json:"policy_direction" mapstructure:"policy_direction"` // signed; market-friendly > 0
	InterestRate    float64            `json:"interest_rate" mapstructure:"interest_rate"`
	TaxPolicy       float64            `json:"tax_policy" mapstructure:"tax_policy"` // signed; tightening > 0
	IndustrySupport map[string]float64 `json:"industry_support,omitempty" mapstructure:"industry_support"`
}

// Media holds press-environment parameters.
type Media struct {
	Bias  float64 `json:"bias" mapstructure:"bias"`   // signed
	Trust float64 `json:"trust" mapstructure:"trust"` // unit
}

// Params is the typed market-parameter bundle. Created once per run and
// read-only during the run except through an explicit engine update.
type Params struct {
	Public     Public     `json:"public" mapstructure:"public"`
	Company    Company    `json:"company" mapstructure:"company"`
	Government Government `json:"government" mapstructure:"government"`
	Media      Media      `json:"media" mapstructure:"media"`
}

// Signed implements Source for the typed bundle.
func (p Params) Signed(name string) float64 {
	switch name {
	case FieldRiskAppetite:
		return ClampSigned(p.Public.RiskAppetite)
	case FieldPolicyDirection:
		return ClampSigned(p.Government.PolicyDirection)
	case FieldTaxPolicy:
		return ClampSigned(p.Government.TaxPolicy)
	case FieldMediaBias:
		return ClampSigned(p.Media.Bias)
	case FieldCompanyTrait:
		return ClampSigned(p.Company.Orientation)
	default:
		return 0
	}
}

// Unit implements Source for the typed bundle. Signed-range fields are
// mapped via (x+1)/2.
func (p Params) Unit(name string) float64 {
	switch name {
	case FieldRiskAppetite:
		return UnitFromSigned(p.Public.RiskAppetite)
	case FieldNewsSensitivity:
		return Clamp01(p.Public.NewsSensitivity)
	case FieldCompanyTrait:
		return UnitFromSigned(p.Company.Orientation)
	case FieldRnDRatio:
		return Clamp01(p.Company.RnDRatio)
	case FieldVolatility:
		return Clamp01(p.Company.Volatility)
	case FieldPolicyDirection:
		return UnitFromSigned(p.Government.PolicyDirection)
	case FieldMediaTrust:
		return Clamp01(p.Media.Trust)
	case FieldMediaBias:
		return UnitFromSigned(p.Media.Bias)
	default:
		return 0.5
	}
}

// MapParams is the generic key-value representation accepted from admin
// payloads: section name -> field name -> raw value. Field conventions match
// the persisted schema: "trait" and "policy_direction" are stored already
// normalized to [0, 1]; "orientation" and "risk_appetite" are signed.
type MapParams map[string]map[string]float64

func (m MapParams) lookup(section, key string) (float64, bool) {
	fields, ok := m[section]
	if !ok {
		return 0, false
	}
	v, ok := fields[key]
	return v, ok
}

// Signed implements Source for the map representation.
func (m MapParams) Signed(name string) float64 {
	switch name {
	case FieldRiskAppetite:
		if v, ok := m.lookup("public", "risk_appetite"); ok {
			return ClampSigned(v)
		}
	case FieldPolicyDirection:
		if v, ok := m.lookup("government", "policy_direction"); ok {
			return ClampSigned(v)
		}
	case FieldTaxPolicy:
		if v, ok := m.lookup("government", "tax_policy"); ok {
			return ClampSigned(v)
		}
	case FieldMediaBias:
		if v, ok := m.lookup("media", "bias"); ok {
			return ClampSigned(v)
		}
	case FieldCompanyTrait:
		if v, ok := m.lookup("company", "orientation"); ok {
			return ClampSigned(v)
		}
	}
	return 0
}

// Unit implements Source for the map representation. "orientation" takes
// precedence over "trait" when both are present, mirroring the admin schema.
func (m MapParams) Unit(name string) float64 {
	switch name {
	case FieldRiskAppetite:
		if v, ok := m.lookup("public", "risk_appetite"); ok {
			return UnitFromSigned(v)
		}
	case FieldNewsSensitivity:
		if v, ok := m.lookup("public", "news_sensitivity"); ok {
			return Clamp01(v)
		}
	case FieldCompanyTrait:
		if v, ok := m.lookup("company", "orientation"); ok {
			return UnitFromSigned(v)
		}
		if v, ok := m.lookup("company", "trait"); ok {
			return Clamp01(v)
		}
	case FieldRnDRatio:
		if v, ok := m.lookup("company", "rnd_ratio"); ok {
			return Clamp01(v)
		}
		if v, ok := m.lookup("company", "rnd_focus"); ok {
			return Clamp01(v)
		}
	case FieldVolatility:
		if v, ok := m.lookup("company", "volatility"); ok {
			return Clamp01(v)
		}
	case FieldPolicyDirection:
		// Stored pre-normalized in the map schema.
		if v, ok := m.lookup("government", "policy_direction"); ok {
			return Clamp01(v)
		}
	case FieldMediaTrust:
		if v, ok := m.lookup("media", "trust"); ok {
			return Clamp01(v)
		}
	case FieldMediaBias:
		if v, ok := m.lookup("media", "bias"); ok {
			return UnitFromSigned(v)
		}
	}
	return 0.5
}
