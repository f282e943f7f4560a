package refine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Strategy string

const (
	StrategySynonym    Strategy = "synonym"
	StrategyRelated    Strategy = "related"
	StrategySpecific   Strategy = "specific"
	StrategyBroad      Strategy = "broad"
	StrategyTemporal   Strategy = "temporal"
	StrategyContextual Strategy = "contextual"
)

type ExpandedQuery struct {
	Original     string
	Expanded     string
	Strategy     Strategy
	AddedTerms   []string
	RemovedTerms []string
	Confidence   float64
}

// Business-domain synonym table, Russian and English.
var synonyms = map[string][]string{
	"цена":      {"стоимость", "прайс", "расценка"},
	"доставка":  {"логистика", "транспортировка", "отгрузка"},
	"поставщик": {"продавец", "supplier", "вендор"},
	"заказ":     {"ордер", "order", "закупка"},
	"оплата":    {"платёж", "перевод", "payment"},
	"товар":     {"продукт", "изделие", "product"},
	"клиент":    {"заказчик", "покупатель", "customer"},
	"прибыль":   {"профит", "доход", "revenue", "profit"},
	"расход":    {"затраты", "expense", "cost"},
	"курс":      {"rate", "обменный курс", "exchange rate"},
	"склад":     {"warehouse", "хранилище"},
	"контракт":  {"договор", "соглашение", "contract"},
	"price":     {"cost", "pricing", "rate"},
	"delivery":  {"shipping", "logistics", "transport"},
	"supplier":  {"vendor", "provider", "seller"},
	"order":     {"purchase", "procurement"},
	"payment":   {"transaction", "transfer"},
}

// Sorted so expansion output does not depend on map iteration order.
var synonymKeys = func() []string {
	keys := make([]string, 0, len(synonyms))
	for key := range synonyms {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}()

var contextualExpansions = map[string][]string{
	"туркменистан": {"TMT", "манат", "Ашхабад"},
	"китай":        {"CNY", "юань", "КНР", "China"},
	"импорт":       {"таможня", "пошлина", "сертификат"},
	"экспорт":      {"таможня", "лицензия", "сертификат"},
}

// Expander rewrites queries to widen or narrow a search. The zero
// value is usable; Now exists so tests can pin the temporal strategy.
type Expander struct {
	Now func() time.Time
}

func NewExpander() *Expander {
	return &Expander{Now: time.Now}
}

func (e *Expander) Expand(query string, strategy Strategy, context string) ExpandedQuery {
	switch strategy {
	case StrategyContextual:
		return e.expandContextual(query, context)
	case StrategyTemporal:
		return e.expandTemporal(query)
	case StrategySpecific:
		return e.expandSpecific(query, context)
	case StrategyBroad:
		return e.expandBroad(query)
	case StrategyRelated:
		return e.expandRelated(query)
	default:
		return e.expandSynonyms(query, 3)
	}
}

// ExpandMulti runs several strategies and returns every expansion that
// actually changed the query, for the caller to rank.
func (e *Expander) ExpandMulti(query, context string, strategies ...Strategy) []ExpandedQuery {
	if len(strategies) == 0 {
		strategies = []Strategy{StrategySynonym, StrategyContextual, StrategyTemporal}
	}
	var results []ExpandedQuery
	for _, s := range strategies {
		eq := e.Expand(query, s, context)
		if eq.Expanded != query {
			results = append(results, eq)
		}
	}
	return results
}

func (e *Expander) expandSynonyms(query string, maxTerms int) ExpandedQuery {
	lowerQuery := strings.ToLower(query)
	var added []string
	for _, word := range strings.Fields(lowerQuery) {
		for _, syn := range synonyms[word] {
			if !strings.Contains(lowerQuery, strings.ToLower(syn)) {
				added = append(added, syn)
				if len(added) >= maxTerms {
					break
				}
			}
		}
		if len(added) >= maxTerms {
			break
		}
	}
	return ExpandedQuery{
		Original:   query,
		Expanded:   appendTerms(query, added),
		Strategy:   StrategySynonym,
		AddedTerms: added,
		Confidence: confidenceFor(added, 0.7),
	}
}

func (e *Expander) expandContextual(query, context string) ExpandedQuery {
	combined := strings.ToLower(query + " " + context)
	var added []string
	for trigger, expansions := range contextualExpansions {
		if !strings.Contains(combined, trigger) {
			continue
		}
		for _, term := range expansions {
			if !strings.Contains(combined, strings.ToLower(term)) {
				added = append(added, term)
			}
		}
	}
	if len(added) > 3 {
		added = added[:3]
	}
	return ExpandedQuery{
		Original:   query,
		Expanded:   appendTerms(query, added),
		Strategy:   StrategyContextual,
		AddedTerms: added,
		Confidence: confidenceFor(added, 0.8),
	}
}

// expandTemporal appends the current year unless the query already
// names a recent one, which makes it idempotent.
func (e *Expander) expandTemporal(query string) ExpandedQuery {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	year := now().Year()
	for y := 2020; y <= year+1; y++ {
		if strings.Contains(query, strconv.Itoa(y)) {
			return ExpandedQuery{
				Original:   query,
				Expanded:   query,
				Strategy:   StrategyTemporal,
				Confidence: 0.5,
			}
		}
	}
	added := []string{strconv.Itoa(year), "актуально"}
	return ExpandedQuery{
		Original:   query,
		Expanded:   fmt.Sprintf("%s %d актуально", query, year),
		Strategy:   StrategyTemporal,
		AddedTerms: added,
		Confidence: 0.75,
	}
}

func (e *Expander) expandSpecific(query, context string) ExpandedQuery {
	var specifics []string
	if context != "" {
		lowerQuery := strings.ToLower(query)
		seen := make(map[string]bool)
		for _, term := range ExtractKeyTerms(context) {
			if len(specifics) >= 3 {
				break
			}
			if !seen[term] && !strings.Contains(lowerQuery, term) {
				seen[term] = true
				specifics = append(specifics, term)
			}
		}
	}
	return ExpandedQuery{
		Original:   query,
		Expanded:   appendTerms(query, specifics),
		Strategy:   StrategySpecific,
		AddedTerms: specifics,
		Confidence: confidenceFor(specifics, 0.6),
	}
}

func (e *Expander) expandBroad(query string) ExpandedQuery {
	words := strings.Fields(query)
	expanded := query
	var removed []string
	if len(words) > 4 {
		removed = words[len(words)-2:]
		expanded = strings.Join(words[:len(words)-2], " ")
	}
	return ExpandedQuery{
		Original:     query,
		Expanded:     expanded,
		Strategy:     StrategyBroad,
		RemovedTerms: removed,
		Confidence:   0.5,
	}
}

func (e *Expander) expandRelated(query string) ExpandedQuery {
	lowerQuery := strings.ToLower(query)
	var added []string
	for _, word := range strings.Fields(lowerQuery) {
		for _, key := range synonymKeys {
			if contains(synonyms[key], word) && !strings.Contains(lowerQuery, key) {
				added = append(added, key)
				break
			}
		}
		if len(added) >= 2 {
			break
		}
	}
	return ExpandedQuery{
		Original:   query,
		Expanded:   appendTerms(query, added),
		Strategy:   StrategyRelated,
		AddedTerms: added,
		Confidence: confidenceFor(added, 0.6),
	}
}

func appendTerms(query string, terms []string) string {
	if len(terms) == 0 {
		return query
	}
	return strings.TrimSpace(query + " " + strings.Join(terms, " "))
}

func confidenceFor(added []string, withTerms float64) float64 {
	if len(added) == 0 {
		return 0.3
	}
	return withTerms
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
