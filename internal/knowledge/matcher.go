package knowledge

import (
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/jdkato/prose/v2"
)

var stopWords = map[string]bool{
	// English
	"a": true, "the": true, "is": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "and": true,
	"or": true, "but": true, "it": true, "this": true, "that": true,
	"with": true, "from": true, "by": true, "be": true, "are": true,
	"was": true, "were": true, "been": true, "will": true, "would": true,
	"can": true, "could": true, "an": true, "as": true, "if": true,
	"so": true, "no": true, "not": true, "do": true, "does": true,
	"did": true, "has": true, "have": true, "had": true, "its": true,
	"he": true, "she": true, "they": true, "we": true, "you": true,
	"i": true, "me": true, "my": true,
	// Russian
	"и": true, "в": true, "на": true, "с": true, "по": true,
	"для": true, "из": true, "что": true, "это": true, "как": true,
	"не": true, "но": true, "от": true, "к": true, "за": true,
	"то": true, "он": true, "она": true, "мы": true, "вы": true,
	"я": true, "ты": true, "его": true, "её": true, "их": true,
	"мой": true, "свой": true, "все": true, "так": true, "да": true,
	"нет": true, "уже": true, "ещё": true, "бы": true, "ли": true,
	"же": true, "если": true, "когда": true, "этот": true, "тот": true,
	"при": true, "до": true, "после": true, "между": true,
	"через": true, "без": true, "под": true, "над": true,
	"перед": true, "у": true, "о": true, "об": true, "про": true,
}

// Tokenize splits text into lowercase terms with stop words removed.
func Tokenize(text string) []string {
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return nil
	}

	var terms []string
	for _, tok := range doc.Tokens() {
		term := strings.ToLower(tok.Text)
		if len([]rune(term)) < 2 || stopWords[term] {
			continue
		}
		if !hasLetterOrDigit(term) {
			continue
		}
		terms = append(terms, term)
	}
	return terms
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'а' && r <= 'я' || r == 'ё' {
			return true
		}
	}
	return false
}

// Match is one scored result from a Matcher.
type Match struct {
	ID    string
	Score float64
}

// Matcher scores stored texts against a query. The default
// implementation is lexical; an embedding-based one can be swapped in
// without touching call sites.
type Matcher interface {
	Index(id, text string, tags []string)
	Remove(id string) bool
	Match(query string, topK int, minScore float64) []Match
	Size() int
	Clear()
}

type sparseVector struct {
	weights map[string]float64
	norm    float64
}

// LexicalMatcher ranks by cosine similarity over TF-IDF weighted word,
// word-bigram, and character-trigram features. Trigrams give partial
// credit for morphological variants, which matters for inflected
// languages.
type LexicalMatcher struct {
	mu       sync.RWMutex
	vectors  map[string]*sparseVector
	docFreq  map[string]int
	inverted map[string]map[string]bool
}

const (
	wordWeight    = 1.0
	bigramWeight  = 0.7
	trigramWeight = 0.3
	tagWeight     = 2.0
)

func NewLexicalMatcher() *LexicalMatcher {
	return &LexicalMatcher{
		vectors:  make(map[string]*sparseVector),
		docFreq:  make(map[string]int),
		inverted: make(map[string]map[string]bool),
	}
}

func (m *LexicalMatcher) Index(id, text string, tags []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.vectors[id]; ok {
		m.removeLocked(id)
	}

	vec := m.embed(text, tags)
	m.vectors[id] = vec
	for feature := range vec.weights {
		m.docFreq[feature]++
		docs := m.inverted[feature]
		if docs == nil {
			docs = make(map[string]bool)
			m.inverted[feature] = docs
		}
		docs[id] = true
	}
}

func (m *LexicalMatcher) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.removeLocked(id)
}

func (m *LexicalMatcher) removeLocked(id string) bool {
	vec, ok := m.vectors[id]
	if !ok {
		return false
	}
	delete(m.vectors, id)
	for feature := range vec.weights {
		if m.docFreq[feature] > 1 {
			m.docFreq[feature]--
		} else {
			delete(m.docFreq, feature)
		}
		if docs := m.inverted[feature]; docs != nil {
			delete(docs, id)
			if len(docs) == 0 {
				delete(m.inverted, feature)
			}
		}
	}
	return true
}

func (m *LexicalMatcher) Match(query string, topK int, minScore float64) []Match {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.vectors) == 0 || topK <= 0 {
		return nil
	}

	// Query terms double as tag features so tagged documents get the
	// tag boost when a query word hits one of their tags.
	queryVec := m.embed(query, Tokenize(query))

	// Candidate selection through the inverted index keeps scoring
	// proportional to overlap, not store size.
	overlap := make(map[string]int)
	for feature := range queryVec.weights {
		for id := range m.inverted[feature] {
			overlap[id]++
		}
	}
	if len(overlap) == 0 {
		return nil
	}

	var matches []Match
	for id := range overlap {
		score := cosine(queryVec, m.vectors[id])
		if score >= minScore {
			matches = append(matches, Match{ID: id, Score: score})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func (m *LexicalMatcher) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

func (m *LexicalMatcher) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors = make(map[string]*sparseVector)
	m.docFreq = make(map[string]int)
	m.inverted = make(map[string]map[string]bool)
}

func (m *LexicalMatcher) embed(text string, tags []string) *sparseVector {
	terms := Tokenize(text)
	weights := make(map[string]float64)

	counts := make(map[string]int)
	for _, t := range terms {
		counts[t]++
	}
	docLen := math.Max(1, float64(len(terms)))
	for term, count := range counts {
		tf := float64(count) / docLen
		weights["w:"+term] = tf * m.idf("w:"+term) * wordWeight
	}

	for i := 0; i+1 < len(terms); i++ {
		feature := "b:" + terms[i] + "_" + terms[i+1]
		tf := 1 / math.Max(1, float64(len(terms)-1))
		weights[feature] += tf * m.idf(feature) * bigramWeight
	}

	for term := range counts {
		for _, tg := range charTrigrams(term) {
			feature := "c:" + tg
			weights[feature] += m.idf(feature) * trigramWeight / docLen
		}
	}

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			weights["t:"+tag] = tagWeight
		}
	}

	vec := &sparseVector{weights: weights}
	var sum float64
	for _, w := range weights {
		sum += w * w
	}
	vec.norm = math.Sqrt(sum)
	return vec
}

func (m *LexicalMatcher) idf(feature string) float64 {
	freq := m.docFreq[feature]
	return math.Log(float64(len(m.vectors)+1)/float64(freq+1)) + 1
}

func charTrigrams(word string) []string {
	runes := []rune("#" + word + "#")
	if len(runes) < 3 {
		return nil
	}
	grams := make([]string, 0, len(runes)-2)
	for i := 0; i+2 < len(runes); i++ {
		grams = append(grams, string(runes[i:i+3]))
	}
	return grams
}

func cosine(a, b *sparseVector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	small, large := a.weights, b.weights
	if len(small) > len(large) {
		small, large = large, small
	}
	var dot float64
	for feature, w := range small {
		if other, ok := large[feature]; ok {
			dot += w * other
		}
	}
	return dot / (a.norm * b.norm)
}
