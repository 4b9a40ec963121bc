// Package fusion turns a collected evidence bundle into a single verdict.
//
// The rules form a decision table evaluated in order; the first rule that
// matches decides the verdict. There is no scoring across rules.
package fusion

import (
	"fmt"
	"math"

	"pratyaksh/internal/domain"
)

const (
	// AuthenticMinConfidence is the model confidence a "real" label needs
	// before satellite corroboration can confirm it.
	AuthenticMinConfidence = 0.80
	// FakeAIMinConfidence is exclusive: confidence must exceed it.
	FakeAIMinConfidence = 0.40
)

const (
	reasonManipulated = "Digital tampering detected in image pixels."
	reasonMisleading  = "Satellite data does not confirm disaster activity at these coordinates."
	reasonAuthentic   = "Confirmed: Image origin verified and Ground Truth matched by satellite."
	reasonFakeAI      = "AI-generated patterns detected in media."
	reasonUncertain   = "Insufficient verification data (%d%% AI confidence). Verify manually."
)

type rule struct {
	name    string
	matches func(domain.EvidenceBundle) bool
	verdict func(domain.EvidenceBundle) domain.Verdict
}

func fixed(label domain.VerdictLabel, color domain.SeverityColor, reason string) func(domain.EvidenceBundle) domain.Verdict {
	v := domain.Verdict{Label: label, Color: color, Reason: reason}
	return func(domain.EvidenceBundle) domain.Verdict { return v }
}

var rules = []rule{
	{
		name:    "tampered",
		matches: func(b domain.EvidenceBundle) bool { return b.Tamper().Suspicious },
		verdict: fixed(domain.VerdictManipulated, domain.ColorRed, reasonManipulated),
	},
	{
		name:    "satellite_mismatch",
		matches: func(b domain.EvidenceBundle) bool { return b.Satellite().Status == domain.SatelliteMismatch },
		verdict: fixed(domain.VerdictMisleading, domain.ColorRed, reasonMisleading),
	},
	{
		name: "corroborated_real",
		matches: func(b domain.EvidenceBundle) bool {
			a := b.Authenticity()
			return a.Label == domain.AuthenticityReal &&
				a.Confidence >= AuthenticMinConfidence &&
				b.Satellite().Status == domain.SatelliteMatch
		},
		verdict: fixed(domain.VerdictAuthentic, domain.ColorGreen, reasonAuthentic),
	},
	{
		name: "ai_generated",
		matches: func(b domain.EvidenceBundle) bool {
			a := b.Authenticity()
			return a.Label == domain.AuthenticityAIGenerated && a.Confidence > FakeAIMinConfidence
		},
		verdict: fixed(domain.VerdictFakeAI, domain.ColorRed, reasonFakeAI),
	},
}

// Fuse applies the rule table to b. It is pure and total.
func Fuse(b domain.EvidenceBundle) domain.Verdict {
	v, _ := Explain(b)
	return v
}

// Explain is Fuse plus the name of the rule that decided the verdict
// ("fallback" when none matched).
func Explain(b domain.EvidenceBundle) (domain.Verdict, string) {
	for _, r := range rules {
		if r.matches(b) {
			return r.verdict(b), r.name
		}
	}
	return domain.Verdict{
		Label:  domain.VerdictUncertain,
		Color:  domain.ColorYellow,
		Reason: fmt.Sprintf(reasonUncertain, Percent(b.Authenticity().Confidence)),
	}, "fallback"
}

// Percent truncates a [0,1] confidence to an integer percentage with plain
// float truncation, so 0.29 reports as 28.
func Percent(confidence float64) int {
	if math.IsNaN(confidence) || confidence <= 0 {
		return 0
	}
	if confidence >= 1 {
		return 100
	}
	return int(confidence * 100)
}
