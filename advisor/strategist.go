package advisor

import (
	"context"

	"github.com/casualjim/pitwall/pkg/slogx"
	"github.com/casualjim/pitwall/race"
)

// connectionProbe is sent as the whole prompt, without the task template.
const connectionProbe = "Test"

// AnalyzeTireStrategy reviews a planned tyre strategy against the race state.
func (a *Advisor) AnalyzeTireStrategy(ctx context.Context, raceContext, strategyPlan any) (string, error) {
	return a.Ask(ctx, "Analyze Tire Strategy", raceContext, NewFields("plan", strategyPlan),
		"Assess stint lengths vs. expected degradation and undercut/overcut windows",
		"Consider safety car/VSC likelihood and optimal pit windows",
		"Quantify pit loss, warmup characteristics, and traffic risk",
		"Provide 2-3 actionable recommendations with rationale",
	)
}

// PredictRaceOutcome estimates the finishing order against the given competitors.
func (a *Advisor) PredictRaceOutcome(ctx context.Context, raceContext, competitors any) (string, error) {
	return a.Ask(ctx, "Predict Race Outcome", raceContext, NewFields("competitors", competitors),
		"Provide finishing position range for top 5 targets",
		"Call out decisive moments: pit windows, tire offset, safety car",
		"Include probability-style language (e.g., likely/unlikely, 60-70%)",
	)
}

// ExplainStrategyDecision justifies a decision from the evidence behind it.
func (a *Advisor) ExplainStrategyDecision(ctx context.Context, decision, evidence any) (string, error) {
	return a.Ask(ctx, "Explain Strategy Decision", NewFields("decision", decision), NewFields("evidence", evidence),
		"Bullet points with clear rationale",
		"List trade-offs and risks",
		"Add a brief counterfactual: what if we did not make this choice?",
	)
}

// ExplainInsight narrates a computed insight for the race engineer.
func (a *Advisor) ExplainInsight(ctx context.Context, tel race.TelemetrySample, wx race.WeatherSample, insight race.StrategyInsight) (string, error) {
	return a.Ask(ctx, "Explain Strategy Insight",
		NewFields("telemetry", tel, "weather", wx),
		NewFields("insight", insight),
		"At most three bullet points",
		"Address the race engineer directly",
	)
}

// TestConnection reports whether the provider answers a bare ping. Any
// answer counts, even one without text.
func (a *Advisor) TestConnection(ctx context.Context) bool {
	if a.provider == nil {
		return false
	}
	resp, err := a.provider.Generate(ctx, a.request(connectionProbe))
	if err != nil {
		a.log.Warn("connection test failed", slogx.Error(err))
		return false
	}
	return resp != nil && (Normalize(resp) != "" || len(resp.Candidates) > 0)
}
