package sentiment

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/sentai/internal/models"
)

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

// VADERClassifier scores text with the VADER lexicon. It needs no model
// download, so it is the offline fallback when no transformer is available.
type VADERClassifier struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewVADERClassifier() *VADERClassifier {
	return &VADERClassifier{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// ConvertMarkdownToText renders reddit markdown and strips the markup so
// VADER only sees words.
func ConvertMarkdownToText(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	plain := html.UnescapeString(tagPattern.ReplaceAllString(string(output), " "))
	return strings.Join(strings.Fields(plain), " ")
}

// Classify returns VADER's neg/neu/pos proportions rescaled to sum to one.
func (v *VADERClassifier) Classify(_ context.Context, text string) (models.ScoreVector, error) {
	plain := ConvertMarkdownToText(text)
	if plain == "" {
		return models.ScoreVector{0, 1, 0}, nil
	}

	polarity := v.analyzer.PolarityScores(plain)
	sum := polarity.Negative + polarity.Neutral + polarity.Positive
	if sum <= 0 {
		return models.ScoreVector{0, 1, 0}, nil
	}

	return NewScoreVector([]float64{
		polarity.Negative / sum,
		polarity.Neutral / sum,
		polarity.Positive / sum,
	})
}
