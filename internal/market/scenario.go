package market

import "math/rand"

// Scenario templates hold the baseline parameter bundle a run starts from.
// FromScenario perturbs the baseline slightly so two runs of the same
// scenario do not move in lockstep.

var scenarios = map[string]Params{
	"default": {
		Public: Public{
			RiskAppetite:    -0.1,
			NewsSensitivity: 0.5,
			ConsumerIndex:   0.5,
		},
		Company: Company{
			Orientation: 0.1,
			RnDRatio:    0.3,
			Volatility:  0.5,
		},
		Government: Government{
			PolicyDirection: 0.5,
			InterestRate:    0.03,
			TaxPolicy:       -0.2,
			IndustrySupport: map[string]float64{
				"AI":    0.6,
				"Green": 0.3,
			},
		},
		Media: Media{
			Bias:  0.2,
			Trust: 0.7,
		},
	},
	"crisis": {
		Public: Public{
			RiskAppetite:    -0.6,
			NewsSensitivity: 0.9,
			ConsumerIndex:   0.3,
		},
		Company: Company{
			Orientation: -0.3,
			RnDRatio:    0.15,
			Volatility:  0.8,
		},
		Government: Government{
			PolicyDirection: -0.2,
			InterestRate:    0.055,
			TaxPolicy:       0.3,
			IndustrySupport: map[string]float64{
				"AI":    0.4,
				"Green": 0.2,
			},
		},
		Media: Media{
			Bias:  -0.3,
			Trust: 0.55,
		},
	},
	"boom": {
		Public: Public{
			RiskAppetite:    0.5,
			NewsSensitivity: 0.6,
			ConsumerIndex:   0.8,
		},
		Company: Company{
			Orientation: 0.5,
			RnDRatio:    0.45,
			Volatility:  0.6,
		},
		Government: Government{
			PolicyDirection: 0.6,
			InterestRate:    0.02,
			TaxPolicy:       -0.4,
			IndustrySupport: map[string]float64{
				"AI":    0.8,
				"Green": 0.5,
			},
		},
		Media: Media{
			Bias:  0.4,
			Trust: 0.75,
		},
	},
}

// ScenarioNames returns the known scenario keys.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	return names
}

// FromScenario returns the named scenario's parameters with uniform
// perturbation of magnitude scale applied to every field (half scale for
// nested industry-support entries). Unknown scenario names fall back to
// "default". Perturbed values stay within their declared ranges.
func FromScenario(name string, scale float64, rng *rand.Rand) Params {
	base, ok := scenarios[name]
	if !ok {
		base = scenarios["default"]
	}
	if rng == nil || scale <= 0 {
		return cloneParams(base)
	}

	perturb := func(v float64) float64 {
		return v + (rng.Float64()*2-1)*scale
	}

	out := cloneParams(base)
	out.Public.RiskAppetite = ClampSigned(perturb(base.Public.RiskAppetite))
	out.Public.NewsSensitivity = Clamp01(perturb(base.Public.NewsSensitivity))
	out.Public.ConsumerIndex = Clamp01(perturb(base.Public.ConsumerIndex))
	out.Company.Orientation = ClampSigned(perturb(base.Company.Orientation))
	out.Company.RnDRatio = Clamp01(perturb(base.Company.RnDRatio))
	out.Company.Volatility = Clamp01(perturb(base.Company.Volatility))
	out.Government.PolicyDirection = ClampSigned(perturb(base.Government.PolicyDirection))
	out.Government.InterestRate = perturb(base.Government.InterestRate)
	out.Government.TaxPolicy = ClampSigned(perturb(base.Government.TaxPolicy))
	for k, v := range base.Government.IndustrySupport {
		out.Government.IndustrySupport[k] = Clamp01(v + (rng.Float64()*2-1)*scale/2)
	}
	out.Media.Bias = ClampSigned(perturb(base.Media.Bias))
	out.Media.Trust = Clamp01(perturb(base.Media.Trust))
	return out
}

func cloneParams(p Params) Params {
	out := p
	out.Government.IndustrySupport = make(map[string]float64, len(p.Government.IndustrySupport))
	for k, v := range p.Government.IndustrySupport {
		out.Government.IndustrySupport[k] = v
	}
	return out
}
