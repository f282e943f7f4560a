package refine

import (
	"sort"
	"strings"

	"github.com/pds-agent/core/internal/knowledge"
)

var noiseWords = map[string]bool{
	"пожалуйста": true, "скажи": true, "подскажи": true, "расскажи": true,
	"мне": true, "нужно": true, "хочу": true, "узнать": true, "найти": true,
	"please": true, "tell": true, "find": true, "show": true, "need": true,
	"want": true, "знаешь": true, "можешь": true, "помоги": true, "help": true,
}

// Optimizer strips filler from queries before they hit the index.
type Optimizer struct {
	expander *Expander
}

func NewOptimizer() *Optimizer {
	return &Optimizer{expander: NewExpander()}
}

// Optimize removes noise words. A non-empty query never optimizes to
// empty; when every word is noise the original comes back unchanged.
func (o *Optimizer) Optimize(query string) string {
	var kept []string
	for _, word := range strings.Fields(query) {
		if !noiseWords[strings.ToLower(word)] {
			kept = append(kept, word)
		}
	}
	if len(kept) == 0 {
		return query
	}
	return strings.Join(kept, " ")
}

// ExtractKeyTerms returns up to ten content-bearing terms ordered by
// frequency.
func ExtractKeyTerms(text string) []string {
	counts := make(map[string]int)
	var order []string
	for _, term := range knowledge.Tokenize(text) {
		if noiseWords[term] {
			continue
		}
		if counts[term] == 0 {
			order = append(order, term)
		}
		counts[term]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 10 {
		order = order[:10]
	}
	return order
}

func (o *Optimizer) ExtractKeyTerms(query string) []string {
	return ExtractKeyTerms(query)
}

// SuggestAlternatives offers reformulations from the expansion
// strategies that actually change the query.
func (o *Optimizer) SuggestAlternatives(query string) []string {
	var alternatives []string
	for _, strategy := range []Strategy{StrategySynonym, StrategySpecific, StrategyBroad} {
		eq := o.expander.Expand(query, strategy, "")
		if eq.Expanded != query {
			alternatives = append(alternatives, eq.Expanded)
		}
	}
	return alternatives
}
