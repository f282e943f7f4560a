package temporal

import (
	"fmt"
	"time"
)

type gradeThreshold struct {
	grade Grade
	days  float64
}

var gradeThresholds = []gradeThreshold{
	{GradeFresh, 1},
	{GradeRecent, 7},
	{GradeCurrent, 30},
	{GradeAging, 90},
	{GradeStale, 365},
}

// Scorer grades data freshness from extracted markers or a raw age.
type Scorer struct {
	extractor *Extractor
	decay     *Decay
}

func NewScorer(extractor *Extractor, decay *Decay) *Scorer {
	if extractor == nil {
		extractor = NewExtractor()
	}
	if decay == nil {
		decay = NewDecay()
	}
	return &Scorer{extractor: extractor, decay: decay}
}

// ScoreText grades a text by its most recent marker. Text with no
// dates gets a neutral "current" grade, since undated content cannot
// be penalized for age.
func (s *Scorer) ScoreText(text string) Report {
	markers := s.extractor.Extract(text)
	if len(markers) == 0 {
		return Report{
			Grade:          GradeCurrent,
			Score:          0.5,
			Recommendation: "no dates found in content",
		}
	}

	newest, ok := s.extractor.NewestDate(markers)
	if !ok {
		return Report{Grade: GradeCurrent, Score: 0.5, Markers: markers}
	}

	ageDays := s.extractor.now().Sub(newest).Hours() / 24
	return s.buildReport(ageDays, markers)
}

func (s *Scorer) ScoreAge(ageDays float64) Report {
	return s.buildReport(ageDays, nil)
}

func (s *Scorer) buildReport(ageDays float64, markers []Marker) Report {
	grade := ageToGrade(ageDays)
	return Report{
		Grade:          grade,
		Score:          s.decay.Exponential(ageDays),
		DataAgeDays:    ageDays,
		Markers:        markers,
		NeedsUpdate:    grade == GradeStale || grade == GradeOutdated,
		Recommendation: recommendation(grade, ageDays),
	}
}

func ageToGrade(ageDays float64) Grade {
	for _, t := range gradeThresholds {
		if ageDays <= t.days {
			return t.grade
		}
	}
	return GradeOutdated
}

func recommendation(grade Grade, ageDays float64) string {
	switch grade {
	case GradeFresh, GradeRecent:
		return "data is up to date"
	case GradeCurrent:
		return "data is usable, consider checking for updates"
	case GradeAging:
		return fmt.Sprintf("data is aging (%.0f days), refresh recommended", ageDays)
	case GradeStale:
		return fmt.Sprintf("data is stale (%.0f days), verification needed", ageDays)
	default:
		return fmt.Sprintf("data is outdated (%.0f days), update required", ageDays)
	}
}

// AgeOf is a convenience for callers holding a creation timestamp.
func AgeOf(created, now time.Time) float64 {
	return now.Sub(created).Hours() / 24
}
