package domain

// Core evidence and verdict models. HTTP and queue payloads reuse these through
// their json tags; keep field names stable.

// MediaReference is a handle to one submitted image for the duration of a request.
type MediaReference struct {
	ID       string
	Filename string
	Path     string
	Size     int64
}

// Coordinates is a validated (latitude, longitude) pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type AuthenticityLabel string

const (
	AuthenticityAIGenerated AuthenticityLabel = "ai_generated"
	AuthenticityReal        AuthenticityLabel = "real"
	AuthenticityUncertain   AuthenticityLabel = "uncertain"
)

type AuthenticityEvidence struct {
	Label      AuthenticityLabel `json:"label"`
	Confidence float64           `json:"confidence"`
	Error      string            `json:"error,omitempty"`
}

type TamperEvidence struct {
	Suspicious bool    `json:"suspicious"`
	Score      float64 `json:"score"`
	Method     string  `json:"method,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// SatelliteStatus is a closed set; only Match and Mismatch carry lookup results.
type SatelliteStatus string

const (
	SatelliteMatch    SatelliteStatus = "match"
	SatelliteMismatch SatelliteStatus = "mismatch"
	SatelliteSkipped  SatelliteStatus = "skipped"
	SatelliteError    SatelliteStatus = "error"
)

// Valid reports whether s is one of the four known states.
func (s SatelliteStatus) Valid() bool {
	switch s {
	case SatelliteMatch, SatelliteMismatch, SatelliteSkipped, SatelliteError:
		return true
	}
	return false
}

type SatelliteEvidence struct {
	Status        SatelliteStatus `json:"status"`
	WaterDetected bool            `json:"water_detected"`
	NDWIScore     float64         `json:"ndwi_score"`
	SceneID       string          `json:"scene_id,omitempty"`
	Reason        string          `json:"reason,omitempty"`
}

type HistoryEvidence struct {
	SeenBefore  bool     `json:"seen_before"`
	Matches     int      `json:"matches"`
	FirstSeenAt string   `json:"first_seen_at,omitempty"`
	Sources     []string `json:"sources,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// EvidenceBundle is built once per request by the collector and never mutated.
// Accessors return copies so consumers cannot alter the collected values.
type EvidenceBundle struct {
	authenticity AuthenticityEvidence
	tamper       TamperEvidence
	satellite    SatelliteEvidence
	history      HistoryEvidence
}

func NewEvidenceBundle(a AuthenticityEvidence, t TamperEvidence, s SatelliteEvidence, h HistoryEvidence) EvidenceBundle {
	if h.Sources != nil {
		h.Sources = append([]string(nil), h.Sources...)
	}
	return EvidenceBundle{authenticity: a, tamper: t, satellite: s, history: h}
}

func (b EvidenceBundle) Authenticity() AuthenticityEvidence { return b.authenticity }
func (b EvidenceBundle) Tamper() TamperEvidence             { return b.tamper }
func (b EvidenceBundle) Satellite() SatelliteEvidence       { return b.satellite }

func (b EvidenceBundle) History() HistoryEvidence {
	h := b.history
	if h.Sources != nil {
		h.Sources = append([]string(nil), h.Sources...)
	}
	return h
}

// Details is the wire shape of a bundle.
type Details struct {
	AICheck   AuthenticityEvidence `json:"ai_check"`
	Tamper    TamperEvidence       `json:"tamper"`
	Satellite SatelliteEvidence    `json:"satellite"`
	History   HistoryEvidence      `json:"history"`
}

func (b EvidenceBundle) Details() Details {
	return Details{
		AICheck:   b.Authenticity(),
		Tamper:    b.Tamper(),
		Satellite: b.Satellite(),
		History:   b.History(),
	}
}

type VerdictLabel string

const (
	VerdictAuthentic   VerdictLabel = "Authentic"
	VerdictManipulated VerdictLabel = "Manipulated"
	VerdictMisleading  VerdictLabel = "Misleading"
	VerdictFakeAI      VerdictLabel = "Fake_AI"
	VerdictUncertain   VerdictLabel = "Uncertain"
)

type SeverityColor string

const (
	ColorGreen  SeverityColor = "green"
	ColorYellow SeverityColor = "yellow"
	ColorRed    SeverityColor = "red"
)

type Verdict struct {
	Label  VerdictLabel  `json:"label"`
	Color  SeverityColor `json:"color"`
	Reason string        `json:"reason"`
}

// Response is the result payload for one verification, shared by HTTP and queue.
type Response struct {
	Status  string   `json:"status"`
	Verdict *Verdict `json:"verdict,omitempty"`
	Details *Details `json:"details,omitempty"`
	Message string   `json:"message,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)
