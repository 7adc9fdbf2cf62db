package market

import (
	"math/rand"
	"testing"
)

func TestTypedParamsAccessors(t *testing.T) {
	p := Params{
		Public:     Public{RiskAppetite: 0.3, NewsSensitivity: 0.7},
		Company:    Company{Orientation: 0.1, RnDRatio: 0.4},
		Government: Government{PolicyDirection: 0.2, TaxPolicy: -0.5},
		Media:      Media{Bias: -0.2, Trust: 0.8},
	}

	tests := []struct {
		field string
		unit  float64
	}{
		{FieldRiskAppetite, 0.65}, // signed 0.3 mapped to (0.3+1)/2
		{FieldNewsSensitivity, 0.7},
		{FieldCompanyTrait, 0.55},
		{FieldRnDRatio, 0.4},
		{FieldPolicyDirection, 0.6},
		{FieldMediaTrust, 0.8},
	}
	for _, tt := range tests {
		if got := p.Unit(tt.field); !almostEqual(got, tt.unit) {
			t.Errorf("Unit(%s) = %v, want %v", tt.field, got, tt.unit)
		}
	}

	if got := p.Signed(FieldTaxPolicy); got != -0.5 {
		t.Errorf("Signed(tax_policy) = %v, want -0.5", got)
	}
	if got := p.Unit("unknown_field"); got != 0.5 {
		t.Errorf("unknown field Unit = %v, want midpoint 0.5", got)
	}
	if got := p.Signed("unknown_field"); got != 0 {
		t.Errorf("unknown field Signed = %v, want 0", got)
	}
}

func TestTypedParamsClamping(t *testing.T) {
	p := Params{Public: Public{RiskAppetite: 5.0}}
	if got := p.Signed(FieldRiskAppetite); got != 1.0 {
		t.Errorf("Signed clamped = %v, want 1.0", got)
	}
	if got := p.Unit(FieldRiskAppetite); got != 1.0 {
		t.Errorf("Unit clamped = %v, want 1.0", got)
	}
}

func TestMapParamsAccessors(t *testing.T) {
	m := MapParams{
		"public":     {"risk_appetite": 0.3},
		"company":    {"trait": 0.9},
		"government": {"policy_direction": 0.2},
	}

	// risk_appetite is stored signed in the map schema.
	if got := m.Unit(FieldRiskAppetite); !almostEqual(got, 0.65) {
		t.Errorf("Unit(risk_appetite) = %v, want 0.65", got)
	}
	// "trait" is stored pre-normalized.
	if got := m.Unit(FieldCompanyTrait); got != 0.9 {
		t.Errorf("Unit(company_trait) = %v, want 0.9", got)
	}
	// policy_direction is stored pre-normalized in the map schema.
	if got := m.Unit(FieldPolicyDirection); !almostEqual(got, 0.2) {
		t.Errorf("Unit(policy_direction) = %v, want 0.2", got)
	}
	// Missing sections fall back to midpoint.
	if got := m.Unit(FieldMediaTrust); got != 0.5 {
		t.Errorf("missing media trust = %v, want 0.5", got)
	}
}

func TestMapParamsOrientationPrecedence(t *testing.T) {
	m := MapParams{"company": {"orientation": 0.4, "trait": 0.9}}
	// Signed orientation wins and gets mapped.
	if got := m.Unit(FieldCompanyTrait); !almostEqual(got, 0.7) {
		t.Errorf("Unit(company_trait) = %v, want 0.7 from orientation", got)
	}
}

func TestFromScenarioKnownAndUnknown(t *testing.T) {
	def := FromScenario("default", 0, nil)
	if def.Media.Trust != 0.7 {
		t.Errorf("default media trust = %v, want 0.7", def.Media.Trust)
	}

	unknown := FromScenario("nonsense", 0, nil)
	if unknown.Media.Trust != def.Media.Trust {
		t.Error("unknown scenario should fall back to default")
	}

	crisis := FromScenario("crisis", 0, nil)
	if crisis.Public.RiskAppetite >= def.Public.RiskAppetite {
		t.Error("crisis risk appetite should be below default")
	}
}

func TestFromScenarioPerturbationStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		p := FromScenario("boom", 0.3, rng)
		for name, v := range map[string]float64{
			"risk_appetite":    p.Public.RiskAppetite,
			"orientation":      p.Company.Orientation,
			"policy_direction": p.Government.PolicyDirection,
			"media_bias":       p.Media.Bias,
		} {
			if v < -1 || v > 1 {
				t.Fatalf("%s = %v outside [-1, 1]", name, v)
			}
		}
		for name, v := range map[string]float64{
			"news_sensitivity": p.Public.NewsSensitivity,
			"rnd_ratio":        p.Company.RnDRatio,
			"media_trust":      p.Media.Trust,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("%s = %v outside [0, 1]", name, v)
			}
		}
	}
}

func TestFromScenarioDoesNotShareState(t *testing.T) {
	a := FromScenario("default", 0, nil)
	b := FromScenario("default", 0, nil)
	a.Government.IndustrySupport["AI"] = 0.0
	if b.Government.IndustrySupport["AI"] == 0.0 {
		t.Error("scenario params share the industry-support map")
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
