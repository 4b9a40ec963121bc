package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pratyaksh/internal/domain"
)

func bundle(a domain.AuthenticityEvidence, t domain.TamperEvidence, s domain.SatelliteEvidence) domain.EvidenceBundle {
	return domain.NewEvidenceBundle(a, t, s, domain.HistoryEvidence{})
}

func TestFuse_RuleTable(t *testing.T) {
	real90 := domain.AuthenticityEvidence{Label: domain.AuthenticityReal, Confidence: 0.9}
	clean := domain.TamperEvidence{}
	match := domain.SatelliteEvidence{Status: domain.SatelliteMatch}
	skipped := domain.SatelliteEvidence{Status: domain.SatelliteSkipped}

	tests := []struct {
		name      string
		bundle    domain.EvidenceBundle
		wantLabel domain.VerdictLabel
		wantColor domain.SeverityColor
		wantRule  string
	}{
		{
			name:      "tamper beats corroborated real",
			bundle:    bundle(real90, domain.TamperEvidence{Suspicious: true, Score: 7.2}, match),
			wantLabel: domain.VerdictManipulated, wantColor: domain.ColorRed, wantRule: "tampered",
		},
		{
			name: "mismatch beats ai label",
			bundle: bundle(domain.AuthenticityEvidence{Label: domain.AuthenticityAIGenerated, Confidence: 0.99},
				clean, domain.SatelliteEvidence{Status: domain.SatelliteMismatch}),
			wantLabel: domain.VerdictMisleading, wantColor: domain.ColorRed, wantRule: "satellite_mismatch",
		},
		{
			name:      "real with satellite match",
			bundle:    bundle(real90, clean, match),
			wantLabel: domain.VerdictAuthentic, wantColor: domain.ColorGreen, wantRule: "corroborated_real",
		},
		{
			name:      "real at exactly 0.80 counts",
			bundle:    bundle(domain.AuthenticityEvidence{Label: domain.AuthenticityReal, Confidence: 0.80}, clean, match),
			wantLabel: domain.VerdictAuthentic, wantColor: domain.ColorGreen, wantRule: "corroborated_real",
		},
		{
			name:      "real without satellite is not enough",
			bundle:    bundle(real90, clean, skipped),
			wantLabel: domain.VerdictUncertain, wantColor: domain.ColorYellow, wantRule: "fallback",
		},
		{
			name:      "real with satellite error is not enough",
			bundle:    bundle(real90, clean, domain.SatelliteEvidence{Status: domain.SatelliteError}),
			wantLabel: domain.VerdictUncertain, wantColor: domain.ColorYellow, wantRule: "fallback",
		},
		{
			name:      "real below 0.80 with match",
			bundle:    bundle(domain.AuthenticityEvidence{Label: domain.AuthenticityReal, Confidence: 0.79}, clean, match),
			wantLabel: domain.VerdictUncertain, wantColor: domain.ColorYellow, wantRule: "fallback",
		},
		{
			name:      "ai generated 0.41 with skipped satellite",
			bundle:    bundle(domain.AuthenticityEvidence{Label: domain.AuthenticityAIGenerated, Confidence: 0.41}, clean, skipped),
			wantLabel: domain.VerdictFakeAI, wantColor: domain.ColorRed, wantRule: "ai_generated",
		},
		{
			name:      "ai generated at exactly 0.40 is not fake",
			bundle:    bundle(domain.AuthenticityEvidence{Label: domain.AuthenticityAIGenerated, Confidence: 0.40}, clean, skipped),
			wantLabel: domain.VerdictUncertain, wantColor: domain.ColorYellow, wantRule: "fallback",
		},
		{
			name:      "ai generated with match still fake",
			bundle:    bundle(domain.AuthenticityEvidence{Label: domain.AuthenticityAIGenerated, Confidence: 0.7}, clean, match),
			wantLabel: domain.VerdictFakeAI, wantColor: domain.ColorRed, wantRule: "ai_generated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, rule := Explain(tt.bundle)
			assert.Equal(t, tt.wantLabel, v.Label)
			assert.Equal(t, tt.wantColor, v.Color)
			assert.Equal(t, tt.wantRule, rule)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestFuse_AllUnavailable(t *testing.T) {
	b := domain.NewEvidenceBundle(
		domain.AuthenticityEvidence{Label: domain.AuthenticityUncertain, Confidence: 0},
		domain.TamperEvidence{Suspicious: false, Score: 0},
		domain.SatelliteEvidence{Status: domain.SatelliteSkipped},
		domain.HistoryEvidence{SeenBefore: false},
	)

	v := Fuse(b)

	assert.Equal(t, domain.VerdictUncertain, v.Label)
	assert.Equal(t, domain.ColorYellow, v.Color)
	assert.Contains(t, v.Reason, "0% AI confidence")
}

func TestFuse_UncertainReasonCarriesPercent(t *testing.T) {
	b := bundle(domain.AuthenticityEvidence{Label: domain.AuthenticityUncertain, Confidence: 0.29},
		domain.TamperEvidence{}, domain.SatelliteEvidence{Status: domain.SatelliteSkipped})

	assert.Equal(t, "Insufficient verification data (28% AI confidence). Verify manually.", Fuse(b).Reason)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(0))
	assert.Equal(t, 0, Percent(-0.5))
	assert.Equal(t, 28, Percent(0.29))
	assert.Equal(t, 50, Percent(0.5))
	assert.Equal(t, 57, Percent(0.577))
	assert.Equal(t, 100, Percent(1))
	assert.Equal(t, 100, Percent(1.2))
}

func TestFuse_HistoryDoesNotAffectVerdict(t *testing.T) {
	a := domain.AuthenticityEvidence{Label: domain.AuthenticityReal, Confidence: 0.95}
	s := domain.SatelliteEvidence{Status: domain.SatelliteMatch}

	seen := domain.NewEvidenceBundle(a, domain.TamperEvidence{}, s, domain.HistoryEvidence{SeenBefore: true, Matches: 3})
	unseen := domain.NewEvidenceBundle(a, domain.TamperEvidence{}, s, domain.HistoryEvidence{})

	assert.Equal(t, Fuse(unseen), Fuse(seen))
}
