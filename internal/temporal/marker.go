package temporal

import (
	"math"
	"time"
)

type Scope string

const (
	ScopeDaily     Scope = "daily"
	ScopeWeekly    Scope = "weekly"
	ScopeMonthly   Scope = "monthly"
	ScopeQuarterly Scope = "quarterly"
	ScopeAnnual    Scope = "annual"
)

// Marker is one date or period mention found in text. Date is the zero
// time when the mention could not be resolved, which counts as
// infinitely old.
type Marker struct {
	Text       string
	Date       time.Time
	Scope      Scope
	Confidence float64
	Position   int
}

func (m Marker) AgeDays(now time.Time) float64 {
	if m.Date.IsZero() {
		return math.Inf(1)
	}
	return now.Sub(m.Date).Hours() / 24
}

type Grade string

const (
	GradeFresh    Grade = "fresh"
	GradeRecent   Grade = "recent"
	GradeCurrent  Grade = "current"
	GradeAging    Grade = "aging"
	GradeStale    Grade = "stale"
	GradeOutdated Grade = "outdated"
)

type Report struct {
	Grade          Grade
	Score          float64
	DataAgeDays    float64
	Markers        []Marker
	NeedsUpdate    bool
	Recommendation string
}
