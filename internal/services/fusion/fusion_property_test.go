package fusion

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"pratyaksh/internal/domain"
)

var (
	authLabels = []domain.AuthenticityLabel{
		domain.AuthenticityAIGenerated, domain.AuthenticityReal, domain.AuthenticityUncertain,
	}
	satStatuses = []domain.SatelliteStatus{
		domain.SatelliteMatch, domain.SatelliteMismatch, domain.SatelliteSkipped, domain.SatelliteError,
	}
)

type evidenceCase struct {
	label      int
	confidence float64
	suspicious bool
	score      float64
	status     int
	seen       bool
}

func (c evidenceCase) bundle() domain.EvidenceBundle {
	return domain.NewEvidenceBundle(
		domain.AuthenticityEvidence{Label: authLabels[c.label], Confidence: c.confidence},
		domain.TamperEvidence{Suspicious: c.suspicious, Score: c.score},
		domain.SatelliteEvidence{Status: satStatuses[c.status]},
		domain.HistoryEvidence{SeenBefore: c.seen},
	)
}

func genEvidence() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, len(authLabels)-1),
		gen.Float64Range(0, 1),
		gen.Bool(),
		gen.Float64Range(0, 255),
		gen.IntRange(0, len(satStatuses)-1),
		gen.Bool(),
	).Map(func(v []interface{}) evidenceCase {
		return evidenceCase{
			label:      v[0].(int),
			confidence: v[1].(float64),
			suspicious: v[2].(bool),
			score:      v[3].(float64),
			status:     v[4].(int),
			seen:       v[5].(bool),
		}
	})
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	return gopter.NewProperties(parameters)
}

func TestFuseProperties(t *testing.T) {
	properties := newProperties()

	properties.Property("suspicious tamper always yields Manipulated", prop.ForAll(
		func(c evidenceCase) bool {
			c.suspicious = true
			return Fuse(c.bundle()).Label == domain.VerdictManipulated
		},
		genEvidence(),
	))

	properties.Property("clean tamper with satellite mismatch yields Misleading", prop.ForAll(
		func(c evidenceCase) bool {
			c.suspicious = false
			c.status = 1
			return Fuse(c.bundle()).Label == domain.VerdictMisleading
		},
		genEvidence(),
	))

	properties.Property("Authentic iff every corroboration condition holds", prop.ForAll(
		func(c evidenceCase) bool {
			b := c.bundle()
			want := !b.Tamper().Suspicious &&
				b.Satellite().Status != domain.SatelliteMismatch &&
				b.Authenticity().Label == domain.AuthenticityReal &&
				b.Authenticity().Confidence >= AuthenticMinConfidence &&
				b.Satellite().Status == domain.SatelliteMatch
			return (Fuse(b).Label == domain.VerdictAuthentic) == want
		},
		genEvidence(),
	))

	properties.Property("fuse is idempotent", prop.ForAll(
		func(c evidenceCase) bool {
			b := c.bundle()
			return Fuse(b) == Fuse(b)
		},
		genEvidence(),
	))

	properties.Property("colors follow labels", prop.ForAll(
		func(c evidenceCase) bool {
			v := Fuse(c.bundle())
			switch v.Label {
			case domain.VerdictAuthentic:
				return v.Color == domain.ColorGreen
			case domain.VerdictUncertain:
				return v.Color == domain.ColorYellow
			default:
				return v.Color == domain.ColorRed
			}
		},
		genEvidence(),
	))

	properties.TestingRun(t)
}
