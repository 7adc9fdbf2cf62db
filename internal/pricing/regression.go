package pricing

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sams-market/simengine/internal/market"
)

// Regression is a fitted linear model over the normalized factor set,
// loaded from the JSON artifact the offline trainer produces.
type Regression struct {
	Intercept    float64            `json:"intercept"`
	Coefficients map[string]float64 `json:"coefficients"`
}

// LoadRegression reads a fitted model from a JSON file.
func LoadRegression(path string) (*Regression, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	var m Regression
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	if len(m.Coefficients) == 0 {
		return nil, errors.New("model has no coefficients")
	}
	return &m, nil
}

// Predict evaluates the model on a factor map. Coefficients for factors
// missing from the map contribute nothing.
func (m *Regression) Predict(factors map[string]float64) (float64, error) {
	if m == nil || len(m.Coefficients) == 0 {
		return 0, errors.New("model not fitted")
	}
	delta := m.Intercept
	for name, coef := range m.Coefficients {
		delta += coef * factors[name]
	}
	return delta, nil
}

// extractFactors builds the factor map the trainer used, on the same [0, 1]
// scale as the rule-based model, including the two interaction terms.
func extractFactors(src market.Source, ev EventContext) map[string]float64 {
	riskAppetite := src.Unit(market.FieldRiskAppetite)
	companyTrait := src.Unit(market.FieldCompanyTrait)
	policyDirection := src.Unit(market.FieldPolicyDirection)
	newsImpact := market.Clamp01(ev.NewsImpact)
	mediaCred := market.Clamp01(ev.MediaCredibility)

	return map[string]float64{
		"risk_appetite_01":    riskAppetite,
		"comp_trait_01":       companyTrait,
		"policy_direction_01": policyDirection,
		"news_impact_01":      newsImpact,
		"media_cred_01":       mediaCred,
		"news_x_media":        newsImpact * mediaCred,
		"risk_x_policy":       riskAppetite * policyDirection,
	}
}
