package refine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeShortAnswerShortCircuits(t *testing.T) {
	a := NewGapAnalyzer()

	// A near-empty answer reports only missing_data, even when every
	// other rule would fire too.
	gaps := a.Analyze("сколько стоит доставка в регионы страны", "не знаю", 0, 0.1)

	require.Len(t, gaps, 1)
	assert.Equal(t, GapMissingData, gaps[0].Type)
	assert.Equal(t, 1.0, gaps[0].Priority)
	assert.Equal(t, "сколько стоит доставка в регионы страны", gaps[0].SuggestedQuery)
}

func TestAnalyzeNumericQueryWithoutNumbers(t *testing.T) {
	a := NewGapAnalyzer()
	answer := "Стоимость доставки зависит от региона и веса посылки при отправке."

	gaps := a.Analyze("сколько стоит доставка", answer, 2, 0.8)

	require.NotEmpty(t, gaps)
	assert.Equal(t, GapNoNumbers, gaps[0].Type)
	assert.True(t, strings.HasSuffix(gaps[0].SuggestedQuery, " точные цифры данные"))
}

func TestAnalyzeNumericQuerySatisfiedByDigits(t *testing.T) {
	a := NewGapAnalyzer()
	answer := "Доставка стоит 1500 рублей в любой регион страны без ограничений."

	gaps := a.Analyze("сколько стоит доставка", answer, 2, 0.8)
	for _, g := range gaps {
		assert.NotEqual(t, GapNoNumbers, g.Type)
	}
}

func TestAnalyzeNoSources(t *testing.T) {
	a := NewGapAnalyzer()
	answer := strings.Repeat("Подробный ответ с фактами и данными за 2024 год. ", 4)

	gaps := a.Analyze("general question", answer, 0, 0.8)

	require.Len(t, gaps, 1)
	assert.Equal(t, GapNoSource, gaps[0].Type)
	assert.Equal(t, 0.7, gaps[0].Priority)
}

func TestAnalyzeIncompleteForComplexQuery(t *testing.T) {
	a := NewGapAnalyzer()

	gaps := a.Analyze(
		"what were the company results across all regions this year",
		"Results were generally positive overall.",
		2, 0.8,
	)

	require.Len(t, gaps, 1)
	assert.Equal(t, GapIncomplete, gaps[0].Type)
	assert.True(t, strings.HasSuffix(gaps[0].SuggestedQuery, " подробно детально"))
}

func TestAnalyzeVagueAnswer(t *testing.T) {
	a := NewGapAnalyzer()
	answer := "Возможно результаты вырастут, но может быть и нет, всё зависит от сезона и объёма продаж."

	gaps := a.Analyze("short query", answer, 2, 0.8)

	require.Len(t, gaps, 1)
	assert.Equal(t, GapVague, gaps[0].Type)
	assert.True(t, strings.HasSuffix(gaps[0].SuggestedQuery, " конкретно точно"))
}

func TestAnalyzeLowConfidence(t *testing.T) {
	a := NewGapAnalyzer()
	answer := strings.Repeat("Полный и уверенный ответ с цифрой 42 в тексте. ", 4)

	gaps := a.Analyze("short query", answer, 2, 0.3)

	require.Len(t, gaps, 1)
	assert.Equal(t, GapIncomplete, gaps[0].Type)
	assert.True(t, strings.HasSuffix(gaps[0].SuggestedQuery, " verified reliable"))
	assert.Equal(t, 0.65, gaps[0].Priority)
}

func TestAnalyzeSortedByPriority(t *testing.T) {
	a := NewGapAnalyzer()
	// No digits, no sources, low confidence all at once.
	answer := "Цена зависит от поставщика и сезона, точных данных сейчас нет в наличии."

	gaps := a.Analyze("сколько стоит товар", answer, 0, 0.2)

	require.GreaterOrEqual(t, len(gaps), 3)
	for i := 1; i < len(gaps); i++ {
		assert.GreaterOrEqual(t, gaps[i-1].Priority, gaps[i].Priority)
	}
	assert.Equal(t, GapNoNumbers, gaps[0].Type)
}

func TestAnalyzeCleanAnswer(t *testing.T) {
	a := NewGapAnalyzer()
	answer := strings.Repeat("Выручка составила 10 миллионов по итогам года. ", 4)

	gaps := a.Analyze("выручка", answer, 3, 0.9)
	assert.Empty(t, gaps)
}
