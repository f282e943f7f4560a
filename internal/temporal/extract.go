package temporal

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	yearPattern    = regexp.MustCompile(`\b(20[12]\d)\b`)
	datePattern    = regexp.MustCompile(`\b(\d{1,2})[./](\d{1,2})[./](20[12]\d)\b`)
	isoPattern     = regexp.MustCompile(`\b(20[12]\d)-(\d{2})-(\d{2})\b`)
	quarterPattern = regexp.MustCompile(`\b[QqКк]([1-4])\s*(20[12]\d)\b`)
)

// Month name stems, Russian and English. Matching is prefix-based so
// declined forms ("января", "январе") resolve too.
var monthStems = map[string]time.Month{
	"январ": time.January, "феврал": time.February, "март": time.March,
	"апрел": time.April, "мая": time.May, "май": time.May,
	"июн": time.June, "июл": time.July, "август": time.August,
	"сентябр": time.September, "октябр": time.October,
	"ноябр": time.November, "декабр": time.December,
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September,
	"october": time.October, "november": time.November,
	"december": time.December,
}

type monthPattern struct {
	re    *regexp.Regexp
	month time.Month
}

// Compiled once at startup; Extract runs on every scored text.
var monthPatterns = func() []monthPattern {
	patterns := make([]monthPattern, 0, len(monthStems))
	for stem, month := range monthStems {
		patterns = append(patterns, monthPattern{
			re:    regexp.MustCompile(stem + `\S*\s*(20[12]\d)`),
			month: month,
		})
	}
	return patterns
}()

var relativeDays = map[string]int{
	"сегодня": 0, "вчера": 1, "позавчера": 2,
	"today": 0, "yesterday": 1,
}

var relativePeriods = map[string]int{
	"на прошлой неделе": 7, "last week": 7,
	"в прошлом месяце": 30, "last month": 30,
	"в прошлом году": 365, "last year": 365,
}

// Extractor finds temporal markers in free text. The zero value is
// ready to use; Now is overridable for tests.
type Extractor struct {
	Now func() time.Time
}

func NewExtractor() *Extractor {
	return &Extractor{Now: time.Now}
}

func (e *Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Extractor) Extract(text string) []Marker {
	var markers []Marker
	lower := strings.ToLower(text)

	for _, m := range isoPattern.FindAllStringSubmatchIndex(text, -1) {
		year, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])
		day, _ := strconv.Atoi(text[m[6]:m[7]])
		date, ok := makeDate(year, month, day)
		if !ok {
			continue
		}
		markers = append(markers, Marker{
			Text: text[m[0]:m[1]], Date: date,
			Scope: ScopeDaily, Confidence: 0.95, Position: m[0],
		})
	}

	for _, m := range datePattern.FindAllStringSubmatchIndex(text, -1) {
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])
		year, _ := strconv.Atoi(text[m[6]:m[7]])
		date, ok := makeDate(year, month, day)
		if !ok {
			continue
		}
		markers = append(markers, Marker{
			Text: text[m[0]:m[1]], Date: date,
			Scope: ScopeDaily, Confidence: 0.9, Position: m[0],
		})
	}

	for _, m := range quarterPattern.FindAllStringSubmatchIndex(text, -1) {
		quarter, _ := strconv.Atoi(text[m[2]:m[3]])
		year, _ := strconv.Atoi(text[m[4]:m[5]])
		month := (quarter-1)*3 + 1
		date, _ := makeDate(year, month, 1)
		markers = append(markers, Marker{
			Text: text[m[0]:m[1]], Date: date,
			Scope: ScopeQuarterly, Confidence: 0.85, Position: m[0],
		})
	}

	for _, mp := range monthPatterns {
		for _, m := range mp.re.FindAllStringSubmatchIndex(lower, -1) {
			year, _ := strconv.Atoi(lower[m[2]:m[3]])
			date, _ := makeDate(year, int(mp.month), 1)
			markers = append(markers, Marker{
				Text: lower[m[0]:m[1]], Date: date,
				Scope: ScopeMonthly, Confidence: 0.8, Position: m[0],
			})
		}
	}

	// Bare years only add information when no marker already pinned
	// that year to something more specific.
	seenYears := map[int]bool{}
	for _, mk := range markers {
		if !mk.Date.IsZero() {
			seenYears[mk.Date.Year()] = true
		}
	}
	for _, m := range yearPattern.FindAllStringSubmatchIndex(text, -1) {
		year, _ := strconv.Atoi(text[m[2]:m[3]])
		if seenYears[year] {
			continue
		}
		date, _ := makeDate(year, 1, 1)
		markers = append(markers, Marker{
			Text: text[m[0]:m[1]], Date: date,
			Scope: ScopeAnnual, Confidence: 0.6, Position: m[0],
		})
	}

	now := e.now()
	for phrase, daysAgo := range relativeDays {
		if idx := strings.Index(lower, phrase); idx >= 0 {
			markers = append(markers, Marker{
				Text: phrase, Date: now.AddDate(0, 0, -daysAgo),
				Scope: ScopeDaily, Confidence: 0.7, Position: idx,
			})
		}
	}
	for phrase, daysAgo := range relativePeriods {
		if idx := strings.Index(lower, phrase); idx >= 0 {
			scope := ScopeWeekly
			if daysAgo > 7 {
				scope = ScopeMonthly
			}
			markers = append(markers, Marker{
				Text: phrase, Date: now.AddDate(0, 0, -daysAgo),
				Scope: scope, Confidence: 0.6, Position: idx,
			})
		}
	}

	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Position < markers[j].Position
	})
	return markers
}

func (e *Extractor) NewestDate(markers []Marker) (time.Time, bool) {
	var newest time.Time
	for _, m := range markers {
		if !m.Date.IsZero() && m.Date.After(newest) {
			newest = m.Date
		}
	}
	return newest, !newest.IsZero()
}

func (e *Extractor) OldestDate(markers []Marker) (time.Time, bool) {
	var oldest time.Time
	for _, m := range markers {
		if m.Date.IsZero() {
			continue
		}
		if oldest.IsZero() || m.Date.Before(oldest) {
			oldest = m.Date
		}
	}
	return oldest, !oldest.IsZero()
}

func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes out-of-range days (Feb 30 becomes Mar 1),
	// which would silently accept garbage.
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}
