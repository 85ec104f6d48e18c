package model

// MetricsLayout identifies which column layout the weekly metrics relation
// exposes. The legacy layout predates per-metric study counts and reports
// meeting time as admin_hours.
type MetricsLayout int

const (
	MetricsLayoutNone MetricsLayout = iota
	MetricsLayoutModern
	MetricsLayoutLegacy
)

// String returns the string representation
func (l MetricsLayout) String() string {
	switch l {
	case MetricsLayoutModern:
		return "modern"
	case MetricsLayoutLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// SchemaStatus records which optional relations exist in the backing
// schema. It is probed once when the repository is constructed; absence of
// a relation degrades reads to empty defaults instead of erroring.
type SchemaStatus struct {
	Weights        bool
	ScoresNow      bool
	ScoresActuals  bool
	ScoresForecast bool
	Assignments    bool
	Metrics        MetricsLayout
}

// FullSchema returns a status with every optional relation present, using
// the modern metrics layout
func FullSchema() SchemaStatus {
	return SchemaStatus{
		Weights:        true,
		ScoresNow:      true,
		ScoresActuals:  true,
		ScoresForecast: true,
		Assignments:    true,
		Metrics:        MetricsLayoutModern,
	}
}
