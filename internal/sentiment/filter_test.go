package sentiment

import (
	"testing"
	"time"

	"github.com/spacesedan/sentai/internal/models"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestAcceptAuthor_Username(t *testing.T) {
	filters := models.Filters{Username: "alice"}

	tests := []struct {
		name   string
		author *string
		want   bool
	}{
		{"exact match", strPtr("alice"), true},
		{"absent author", nil, false},
		{"different author", strPtr("bob"), false},
		{"case differs", strPtr("Alice"), false},
		{"prefix only", strPtr("alice2"), false},
		{"surrounding space", strPtr(" alice"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := models.Comment{ID: "c1", Body: strPtr("hi"), Author: tt.author}
			assert.Equal(t, tt.want, AcceptAuthor(c, filters))
		})
	}
}

func TestAcceptAuthor_NoFilterAcceptsAbsentAuthor(t *testing.T) {
	assert.True(t, AcceptAuthor(models.Comment{ID: "c1"}, models.Filters{}))
}

func TestAcceptAuthor_TimeWindow(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	filters := models.Filters{StartTime: &start, EndTime: &end}

	at := func(ts time.Time) models.Comment { return models.Comment{ID: "c", CreatedAt: ts} }

	assert.True(t, AcceptAuthor(at(start), filters), "start is inclusive")
	assert.True(t, AcceptAuthor(at(end), filters), "end is inclusive")
	assert.True(t, AcceptAuthor(at(start.Add(time.Hour)), filters))
	assert.False(t, AcceptAuthor(at(start.Add(-time.Second)), filters))
	assert.False(t, AcceptAuthor(at(end.Add(time.Second)), filters))

	onlyStart := models.Filters{StartTime: &start}
	assert.True(t, AcceptAuthor(at(end.Add(24*time.Hour)), onlyStart))
}

func TestAcceptLabel(t *testing.T) {
	positive := models.ClassificationResult{Label: models.LabelPositive, Score: 0.8}

	assert.True(t, AcceptLabel(positive, models.Filters{}))
	assert.True(t, AcceptLabel(positive, models.Filters{Sentiment: models.LabelPositive}))
	assert.False(t, AcceptLabel(positive, models.Filters{Sentiment: models.LabelNegative}))
}

func TestAccept(t *testing.T) {
	c := models.Comment{ID: "c", Author: strPtr("alice")}
	neutral := models.ClassificationResult{Label: models.LabelNeutral, Score: 0.5}

	assert.True(t, Accept(c, neutral, models.Filters{Username: "alice", Sentiment: models.LabelNeutral}))
	assert.False(t, Accept(c, neutral, models.Filters{Username: "alice", Sentiment: models.LabelPositive}))
	assert.False(t, Accept(c, neutral, models.Filters{Username: "bob", Sentiment: models.LabelNeutral}))
}

func TestValidateFilters(t *testing.T) {
	start := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	assert.NoError(t, ValidateFilters(models.Filters{Sentiment: models.LabelNegative}))
	assert.ErrorIs(t, ValidateFilters(models.Filters{Sentiment: "positive"}), ErrInvalidFilters)
	assert.ErrorIs(t, ValidateFilters(models.Filters{StartTime: &start, EndTime: &end}), ErrInvalidFilters)
}
