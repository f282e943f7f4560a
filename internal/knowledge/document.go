package knowledge

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pds-agent/core/pkg/logger"
)

type documentMeta struct {
	Title   string
	Source  string
	Tags    []string
	Chunks  int
	AddedAt time.Time
}

type ChunkResult struct {
	DocID string
	Text  string
	Score float64
	Title string
}

// DocumentIndex splits ingested documents into overlapping chunks and
// serves lexical search over them.
type DocumentIndex struct {
	mu        sync.Mutex
	matcher   Matcher
	documents map[string]*documentMeta
	chunkDoc  map[string]string
	chunkText map[string]string
	chunkSize int
	overlap   int
}

func NewDocumentIndex(matcher Matcher, chunkSize, overlap int) *DocumentIndex {
	if matcher == nil {
		matcher = NewLexicalMatcher()
	}
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return &DocumentIndex{
		matcher:   matcher,
		documents: make(map[string]*documentMeta),
		chunkDoc:  make(map[string]string),
		chunkText: make(map[string]string),
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// AddDocument indexes the text and returns the chunk count. Adding an
// existing id replaces the document.
func (d *DocumentIndex) AddDocument(docID, text, title string, tags []string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.documents[docID]; ok {
		d.removeLocked(docID)
	}

	chunks := d.splitChunks(text)
	d.documents[docID] = &documentMeta{
		Title:   title,
		Source:  docID,
		Tags:    tags,
		Chunks:  len(chunks),
		AddedAt: time.Now(),
	}
	for i, chunk := range chunks {
		chunkID := fmt.Sprintf("%s__chunk_%d", docID, i)
		d.chunkDoc[chunkID] = docID
		d.chunkText[chunkID] = chunk
		d.matcher.Index(chunkID, chunk, tags)
	}

	logger.Info("document indexed",
		zap.String("doc_id", docID),
		zap.Int("chunks", len(chunks)),
	)
	return len(chunks)
}

func (d *DocumentIndex) RemoveDocument(docID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removeLocked(docID)
}

func (d *DocumentIndex) removeLocked(docID string) bool {
	if _, ok := d.documents[docID]; !ok {
		return false
	}
	for chunkID, owner := range d.chunkDoc {
		if owner == docID {
			d.matcher.Remove(chunkID)
			delete(d.chunkDoc, chunkID)
			delete(d.chunkText, chunkID)
		}
	}
	delete(d.documents, docID)
	return true
}

// Search ranks chunks by lexical overlap and returns at most one chunk
// per document, best first.
func (d *DocumentIndex) Search(query string, topK int) []ChunkResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	if topK <= 0 {
		topK = 5
	}
	matches := d.matcher.Match(query, topK*2, 0.05)

	seen := make(map[string]bool)
	var results []ChunkResult
	for _, m := range matches {
		docID := d.chunkDoc[m.ID]
		if docID == "" || seen[docID] {
			continue
		}
		seen[docID] = true
		meta := d.documents[docID]
		title := ""
		if meta != nil {
			title = meta.Title
		}
		results = append(results, ChunkResult{
			DocID: docID,
			Text:  d.chunkText[m.ID],
			Score: m.Score,
			Title: title,
		})
		if len(results) >= topK {
			break
		}
	}
	return results
}

func (d *DocumentIndex) DocumentCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.documents)
}

func (d *DocumentIndex) ChunkCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.chunkDoc)
}

// splitChunks splits on rune boundaries, preferring to break at a
// sentence end in the second half of the window.
func (d *DocumentIndex) splitChunks(text string) []string {
	runes := []rune(text)
	if len(runes) <= d.chunkSize {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + d.chunkSize
		if end < len(runes) {
			window := string(runes[start:end])
			if breakAt := strings.LastIndex(window, ". "); breakAt > d.chunkSize/2 {
				end = start + len([]rune(window[:breakAt+1]))
			}
		} else {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
		start = end - d.overlap
	}
	return chunks
}
