package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spacesedan/sentai/internal/models"
	"github.com/spacesedan/sentai/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	mu     sync.Mutex
	seen   []string
	scores map[string]models.ScoreVector
	err    error
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (models.ScoreVector, error) {
	f.mu.Lock()
	f.seen = append(f.seen, text)
	f.mu.Unlock()

	if f.err != nil {
		return models.ScoreVector{}, f.err
	}
	if s, ok := f.scores[text]; ok {
		return s, nil
	}
	return models.ScoreVector{0.1, 0.8, 0.1}, nil
}

type fakeTranslator struct {
	failOn string
}

func (f fakeTranslator) Translate(_ context.Context, text, dest string) (string, error) {
	if text == f.failOn {
		return "", errors.New("translation service down")
	}
	return fmt.Sprintf("[%s] %s", dest, text), nil
}

type recordingTranslator struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingTranslator) Translate(_ context.Context, text, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, text)
	return text, nil
}

func strPtr(s string) *string { return &s }

func comment(id, author, body string, at time.Time) models.Comment {
	c := models.Comment{ID: id, Body: strPtr(body), CreatedAt: at, ParentID: "post1"}
	if author != "" {
		c.Author = strPtr(author)
	}
	return c
}

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestRun_NormalizesBeforeClassifying(t *testing.T) {
	fc := &fakeClassifier{}
	p := New(fc, nil, Options{})

	res, err := p.Run(context.Background(), []models.Comment{
		comment("c1", "alice", "@bob great post https://x.y/z", base),
	}, models.Filters{})
	require.NoError(t, err)

	assert.Equal(t, []string{"@user great post http"}, fc.seen)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "@bob great post https://x.y/z", res.Rows[0].OriginalText)
	assert.Equal(t, "@bob great post https://x.y/z", res.Rows[0].TranslatedText)
	assert.NotEmpty(t, res.RunID)
}

func TestRun_TranslatesOriginalBody(t *testing.T) {
	fc := &fakeClassifier{}
	tr := &recordingTranslator{}
	p := New(fc, tr, Options{})

	_, err := p.Run(context.Background(), []models.Comment{
		comment("c1", "alice", "@bob great post http://x", base),
	}, models.Filters{})
	require.NoError(t, err)

	assert.Equal(t, []string{"@user great post http"}, fc.seen)
	assert.Equal(t, []string{"@bob great post http://x"}, tr.seen)
}

func TestRun_RowFields(t *testing.T) {
	fc := &fakeClassifier{scores: map[string]models.ScoreVector{
		"awful": {0.9, 0.05, 0.05},
	}}
	p := New(fc, fakeTranslator{}, Options{DestLang: "fr"})

	c := comment("c1", "", "awful", base)
	c.ParentID = "t9"
	res, err := p.Run(context.Background(), []models.Comment{c}, models.Filters{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	row := res.Rows[0]
	assert.Equal(t, models.LabelNegative, row.Label)
	assert.Equal(t, 0.9, row.Score)
	assert.Equal(t, "[fr] awful", row.TranslatedText)
	assert.Equal(t, models.UnknownAuthor, row.Author)
	assert.Equal(t, "t9", row.Parent)
	assert.Equal(t, base, row.Timestamp)
	assert.Equal(t, 0.9, res.Totals.Negative)
}

func TestRun_TranslationFailureKeepsOriginal(t *testing.T) {
	p := New(&fakeClassifier{}, fakeTranslator{failOn: "two"}, Options{})

	res, err := p.Run(context.Background(), []models.Comment{
		comment("c1", "a", "one", base),
		comment("c2", "b", "two", base),
		comment("c3", "c", "three", base),
	}, models.Filters{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	assert.Equal(t, "[en] one", res.Rows[0].TranslatedText)
	assert.Equal(t, "two", res.Rows[1].TranslatedText)
	assert.Equal(t, "[en] three", res.Rows[2].TranslatedText)
}

func TestRun_SkipsMissingBody(t *testing.T) {
	fc := &fakeClassifier{}
	p := New(fc, nil, Options{})

	c := comment("c1", "alice", "", base)
	c.Body = nil
	res, err := p.Run(context.Background(), []models.Comment{c, comment("c2", "bob", "hi", base)}, models.Filters{})
	require.NoError(t, err)

	assert.Len(t, res.Rows, 1)
	assert.Equal(t, []string{"hi"}, fc.seen)
}

func TestRun_AuthorFilterSkipsClassification(t *testing.T) {
	fc := &fakeClassifier{}
	p := New(fc, nil, Options{})

	res, err := p.Run(context.Background(), []models.Comment{
		comment("c1", "alice", "mine", base),
		comment("c2", "bob", "theirs", base),
		comment("c3", "", "nobody", base),
	}, models.Filters{Username: "alice"})
	require.NoError(t, err)

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "alice", res.Rows[0].Author)
	assert.Equal(t, []string{"mine"}, fc.seen)
}

func TestRun_TimeFilter(t *testing.T) {
	fc := &fakeClassifier{}
	p := New(fc, nil, Options{})

	start := base.Add(time.Hour)
	end := base.Add(2 * time.Hour)
	res, err := p.Run(context.Background(), []models.Comment{
		comment("early", "a", "early", base),
		comment("start", "a", "start", start),
		comment("end", "a", "end", end),
		comment("late", "a", "late", end.Add(time.Second)),
	}, models.Filters{StartTime: &start, EndTime: &end})
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "end"}, fc.seen)
	assert.Len(t, res.Rows, 2)
}

func TestRun_SentimentFilter(t *testing.T) {
	fc := &fakeClassifier{scores: map[string]models.ScoreVector{
		"good": {0.05, 0.15, 0.8},
		"bad":  {0.8, 0.15, 0.05},
		"meh":  {0.1, 0.8, 0.1},
	}}
	p := New(fc, nil, Options{})

	res, err := p.Run(context.Background(), []models.Comment{
		comment("c1", "a", "good", base),
		comment("c2", "a", "bad", base),
		comment("c3", "a", "meh", base),
		comment("c4", "a", "good", base),
	}, models.Filters{Sentiment: models.LabelPositive})
	require.NoError(t, err)

	require.Len(t, res.Rows, 2)
	for _, row := range res.Rows {
		assert.Equal(t, models.LabelPositive, row.Label)
	}
	assert.InDelta(t, 1.6, res.Totals.Positive, 1e-9)
	assert.Zero(t, res.Totals.Negative)
	assert.Zero(t, res.Totals.Neutral)
	assert.Len(t, fc.seen, 4, "every comment is classified before the label check")
}

func TestRun_LegacyAndArgMaxModes(t *testing.T) {
	scores := map[string]models.ScoreVector{"x": {0.6, 0.1, 0.3}}

	legacy, err := New(&fakeClassifier{scores: scores}, nil, Options{Mode: sentiment.SelectionLegacy}).
		Run(context.Background(), []models.Comment{comment("c1", "a", "x", base)}, models.Filters{})
	require.NoError(t, err)
	assert.Equal(t, models.LabelPositive, legacy.Rows[0].Label)
	assert.Equal(t, 0.3, legacy.Rows[0].Score)

	argmax, err := New(&fakeClassifier{scores: scores}, nil, Options{Mode: sentiment.SelectionArgMax}).
		Run(context.Background(), []models.Comment{comment("c1", "a", "x", base)}, models.Filters{})
	require.NoError(t, err)
	assert.Equal(t, models.LabelNegative, argmax.Rows[0].Label)
	assert.Equal(t, 0.6, argmax.Rows[0].Score)
}

func TestRun_Progress(t *testing.T) {
	var counts []int
	var authors []string
	p := New(&fakeClassifier{}, nil, Options{Progress: func(processed, total int, author string) {
		assert.Equal(t, 3, total)
		counts = append(counts, processed)
		authors = append(authors, author)
	}})

	missing := comment("c2", "bob", "", base)
	missing.Body = nil
	_, err := p.Run(context.Background(), []models.Comment{
		comment("c1", "alice", "hi", base),
		missing,
		comment("c3", "", "yo", base),
	}, models.Filters{Username: "alice"})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, counts)
	assert.Equal(t, []string{"alice", "bob", models.UnknownAuthor}, authors)
}

func TestRun_ClassifierErrorAborts(t *testing.T) {
	p := New(&fakeClassifier{err: errors.New("model unavailable")}, nil, Options{})

	_, err := p.Run(context.Background(), []models.Comment{comment("c7", "a", "hi", base)}, models.Filters{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "c7")
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestRun_ContractViolation(t *testing.T) {
	tests := map[string]models.ScoreVector{
		"short sum":    {0.6, 0.1, 0.2},
		"out of range": {1.2, -0.1, -0.1},
	}
	for name, scores := range tests {
		t.Run(name, func(t *testing.T) {
			fc := &fakeClassifier{scores: map[string]models.ScoreVector{"x": scores}}
			_, err := New(fc, nil, Options{}).Run(context.Background(),
				[]models.Comment{comment("c1", "a", "x", base)}, models.Filters{})
			assert.ErrorIs(t, err, sentiment.ErrClassifierContractViolation)
		})
	}
}

func TestRun_InvalidFilters(t *testing.T) {
	fc := &fakeClassifier{}
	_, err := New(fc, nil, Options{}).Run(context.Background(),
		[]models.Comment{comment("c1", "a", "x", base)}, models.Filters{Sentiment: "Angry"})
	assert.Error(t, err)
	assert.Empty(t, fc.seen)
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	scores := map[string]models.ScoreVector{}
	var comments []models.Comment
	for i := range 50 {
		body := fmt.Sprintf("comment %d", i)
		switch i % 3 {
		case 0:
			scores[body] = models.ScoreVector{0.7, 0.2, 0.1}
		case 1:
			scores[body] = models.ScoreVector{0.1, 0.2, 0.7}
		}
		comments = append(comments, comment(fmt.Sprintf("c%d", i), fmt.Sprintf("user%d", i%4), body, base.Add(time.Duration(i)*time.Minute)))
	}

	seq, err := New(&fakeClassifier{scores: scores}, fakeTranslator{}, Options{}).
		Run(context.Background(), comments, models.Filters{})
	require.NoError(t, err)

	var counts []int
	par, err := New(&fakeClassifier{scores: scores}, fakeTranslator{}, Options{
		Workers:  8,
		Progress: func(processed, _ int, _ string) { counts = append(counts, processed) },
	}).Run(context.Background(), comments, models.Filters{})
	require.NoError(t, err)

	assert.Equal(t, seq.Rows, par.Rows)
	assert.InDelta(t, seq.Totals.Positive, par.Totals.Positive, 1e-9)
	assert.InDelta(t, seq.Totals.Neutral, par.Totals.Neutral, 1e-9)
	assert.InDelta(t, seq.Totals.Negative, par.Totals.Negative, 1e-9)
	require.Len(t, counts, 50)
	for i, n := range counts {
		assert.Equal(t, i+1, n)
	}
	assert.NoError(t, sentiment.VerifyTotals(par.Rows, par.Totals))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(&fakeClassifier{}, nil, Options{}).Run(ctx,
		[]models.Comment{comment("c1", "a", "x", base)}, models.Filters{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_EmptyInput(t *testing.T) {
	res, err := New(&fakeClassifier{}, nil, Options{}).Run(context.Background(), nil, models.Filters{})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, models.AggregateTotals{}, res.Totals)
}
