package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spacesedan/sentai/internal/models"
	"github.com/spacesedan/sentai/internal/sentiment"
	"golang.org/x/sync/errgroup"
)

// Classifier turns normalized text into negative/neutral/positive scores.
// One handle is shared by every worker, so it must be safe for concurrent
// use.
type Classifier interface {
	Classify(ctx context.Context, text string) (models.ScoreVector, error)
}

type Translator interface {
	Translate(ctx context.Context, text, dest string) (string, error)
}

// ProgressFunc is told how many of total comments have been looked at,
// skipped ones included, and who wrote the latest one.
type ProgressFunc func(processed, total int, author string)

type Options struct {
	Mode     sentiment.SelectionMode
	DestLang string
	// Workers above one classifies and translates comments concurrently.
	// Output is identical to a sequential run.
	Workers  int
	Progress ProgressFunc
}

// Pipeline is safe to share between goroutines; every Run keeps its rows and
// totals to itself.
type Pipeline struct {
	classifier Classifier
	translator Translator
	opts       Options
}

func New(c Classifier, t Translator, opts Options) *Pipeline {
	if opts.Mode == "" {
		opts.Mode = sentiment.SelectionLegacy
	}
	if opts.DestLang == "" {
		opts.DestLang = "en"
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Pipeline{classifier: c, translator: t, opts: opts}
}

type outcome struct {
	row  models.ResultRow
	kept bool
}

// Run classifies comments in input order and returns the kept rows with
// their per label totals. A classifier error or contract violation aborts
// the run; translation errors never do.
func (p *Pipeline) Run(ctx context.Context, comments []models.Comment, filters models.Filters) (models.AnalysisResult, error) {
	result := models.AnalysisResult{RunID: uuid.NewString(), Rows: []models.ResultRow{}}

	if err := sentiment.ValidateFilters(filters); err != nil {
		return result, err
	}

	start := time.Now()
	progress := newProgress(len(comments), p.opts.Progress)

	var outcomes []outcome
	var err error
	if p.opts.Workers > 1 {
		outcomes, err = p.runParallel(ctx, comments, filters, progress)
	} else {
		outcomes, err = p.runSequential(ctx, comments, filters, progress)
	}
	if err != nil {
		return result, err
	}

	for _, o := range outcomes {
		if !o.kept {
			continue
		}
		result.Rows = append(result.Rows, o.row)
		result.Totals = sentiment.Accumulate(result.Totals, models.ClassificationResult{Label: o.row.Label, Score: o.row.Score})
	}

	slog.Info("[Pipeline] Run complete",
		slog.String("run_id", result.RunID),
		slog.Int("comments", len(comments)),
		slog.Int("rows", len(result.Rows)),
		slog.Float64("positive", result.Totals.Positive),
		slog.Float64("neutral", result.Totals.Neutral),
		slog.Float64("negative", result.Totals.Negative),
		slog.Duration("elapsed", time.Since(start)))

	return result, nil
}

func (p *Pipeline) runSequential(ctx context.Context, comments []models.Comment, filters models.Filters, progress *progress) ([]outcome, error) {
	outcomes := make([]outcome, len(comments))
	for i, comment := range comments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, kept, err := p.process(ctx, comment, filters)
		if err != nil {
			return nil, err
		}
		outcomes[i] = outcome{row: row, kept: kept}
		progress.seen(comment)
	}
	return outcomes, nil
}

func (p *Pipeline) runParallel(ctx context.Context, comments []models.Comment, filters models.Filters, progress *progress) ([]outcome, error) {
	outcomes := make([]outcome, len(comments))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)

	for i, comment := range comments {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			row, kept, err := p.process(gctx, comment, filters)
			if err != nil {
				return err
			}
			outcomes[i] = outcome{row: row, kept: kept}
			progress.seen(comment)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// process decides a single comment. Cheap checks run before the classifier
// so rejected authors never cost an inference.
func (p *Pipeline) process(ctx context.Context, comment models.Comment, filters models.Filters) (models.ResultRow, bool, error) {
	if comment.Body == nil {
		return models.ResultRow{}, false, nil
	}
	if !sentiment.AcceptAuthor(comment, filters) {
		return models.ResultRow{}, false, nil
	}

	body := *comment.Body
	scores, err := p.classifier.Classify(ctx, sentiment.Normalize(body))
	if err != nil {
		return models.ResultRow{}, false, fmt.Errorf("classify comment %s: %w", comment.ID, err)
	}
	if err := sentiment.ValidateScores(scores); err != nil {
		return models.ResultRow{}, false, fmt.Errorf("classify comment %s: %w", comment.ID, err)
	}

	decision := sentiment.SelectLabel(scores, p.opts.Mode)
	if !sentiment.AcceptLabel(decision, filters) {
		return models.ResultRow{}, false, nil
	}

	return models.ResultRow{
		Label:          decision.Label,
		Score:          decision.Score,
		OriginalText:   body,
		TranslatedText: SafeTranslate(ctx, p.translator, body, p.opts.DestLang),
		Author:         comment.AuthorName(),
		Parent:         comment.ParentID,
		Timestamp:      comment.CreatedAt,
	}, true, nil
}

// SafeTranslate returns text unchanged when there is no translator or the
// translation fails.
func SafeTranslate(ctx context.Context, t Translator, text, dest string) string {
	if t == nil {
		return text
	}

	translated, err := t.Translate(ctx, text, dest)
	if err != nil {
		slog.Warn("[Pipeline] Error translating comment, keeping original text",
			slog.String("error", err.Error()))
		return text
	}
	return translated
}

type progress struct {
	mu        sync.Mutex
	processed int
	total     int
	notify    ProgressFunc
}

func newProgress(total int, notify ProgressFunc) *progress {
	return &progress{total: total, notify: notify}
}

// seen serializes callbacks so counts reach the sink in increasing order.
func (p *progress) seen(comment models.Comment) {
	if p.notify == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed++
	p.notify(p.processed, p.total, comment.AuthorName())
}
