package refine

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type GapType string

const (
	GapMissingData GapType = "missing_data"
	GapIncomplete  GapType = "incomplete"
	GapNoNumbers   GapType = "no_numbers"
	GapNoSource    GapType = "no_source"
	GapVague       GapType = "vague"
	GapOutdated    GapType = "outdated"
)

// Gap is one detected deficiency in an answer relative to its query.
type Gap struct {
	Type           GapType
	Description    string
	SuggestedQuery string
	Priority       float64
}

var (
	numericQueryPattern = regexp.MustCompile(
		`сколько|цена|стоимость|курс|rate|price|cost|количество|how much|how many|percentage|процент|прибыль|расход`)
	digitPattern = regexp.MustCompile(`\d`)
)

var vagueMarkers = []string{
	"возможно", "вероятно", "может быть", "трудно сказать",
	"зависит от", "по-разному", "maybe", "perhaps",
}

// GapAnalyzer inspects answers for missing data, absent numbers,
// missing sources, vagueness, and incompleteness. Results come back
// sorted by priority descending and are never persisted.
type GapAnalyzer struct{}

func NewGapAnalyzer() *GapAnalyzer {
	return &GapAnalyzer{}
}

func (a *GapAnalyzer) Analyze(query, answer string, sourceCount int, confidence float64) []Gap {
	var gaps []Gap

	// An empty or near-empty answer means everything else is moot.
	if len(strings.TrimSpace(answer)) < 20 {
		return []Gap{{
			Type:           GapMissingData,
			Description:    "answer is empty or too short",
			SuggestedQuery: query,
			Priority:       1.0,
		}}
	}

	lowerQuery := strings.ToLower(query)
	lowerAnswer := strings.ToLower(answer)

	if numericQueryPattern.MatchString(lowerQuery) && !digitPattern.MatchString(answer) {
		gaps = append(gaps, Gap{
			Type:           GapNoNumbers,
			Description:    "query implies a quantity but the answer has no numbers",
			SuggestedQuery: query + " точные цифры данные",
			Priority:       0.8,
		})
	}

	if sourceCount == 0 {
		gaps = append(gaps, Gap{
			Type:           GapNoSource,
			Description:    "no supporting sources",
			SuggestedQuery: query,
			Priority:       0.7,
		})
	}

	if len(answer) < 100 && len(strings.Fields(query)) > 5 {
		gaps = append(gaps, Gap{
			Type:           GapIncomplete,
			Description:    "answer may be incomplete for a complex question",
			SuggestedQuery: query + " подробно детально",
			Priority:       0.6,
		})
	}

	var vagueCount int
	for _, m := range vagueMarkers {
		if strings.Contains(lowerAnswer, m) {
			vagueCount++
		}
	}
	if vagueCount >= 2 {
		gaps = append(gaps, Gap{
			Type:           GapVague,
			Description:    "answer is dominated by hedging language",
			SuggestedQuery: query + " конкретно точно",
			Priority:       0.5,
		})
	}

	if confidence < 0.5 {
		gaps = append(gaps, Gap{
			Type:           GapIncomplete,
			Description:    fmt.Sprintf("low confidence (%.0f%%)", confidence*100),
			SuggestedQuery: query + " verified reliable",
			Priority:       0.65,
		})
	}

	sort.SliceStable(gaps, func(i, j int) bool {
		return gaps[i].Priority > gaps[j].Priority
	})
	return gaps
}
