package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/sentai/internal/clients"
	"github.com/spacesedan/sentai/internal/clients/kafka_client"
	"github.com/spacesedan/sentai/internal/clients/kafka_client/utils"
	"github.com/spacesedan/sentai/internal/export"
	"github.com/spacesedan/sentai/internal/models"
	"github.com/spacesedan/sentai/internal/pipeline"
	"github.com/spacesedan/sentai/internal/sentiment"
	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <post-url>",
	Short: "Analyze the comments of one Reddit post",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("username", "", "only keep comments by this author")
	analyzeCmd.Flags().String("sentiment", "", "only keep comments with this label (Positive|Neutral|Negative)")
	analyzeCmd.Flags().String("start", "", "only keep comments created at or after this time (RFC3339 or YYYY-MM-DD)")
	analyzeCmd.Flags().String("end", "", "only keep comments created at or before this time (RFC3339 or YYYY-MM-DD)")
	analyzeCmd.Flags().StringP("output", "o", export.DEFAULT_CSV_FILE, "CSV file to write, empty to skip")
	analyzeCmd.Flags().String("mode", "", "label selection mode (legacy|argmax, default $SELECTION_MODE)")
	analyzeCmd.Flags().Int("workers", 0, "comments classified concurrently (default $PIPELINE_WORKERS)")
	analyzeCmd.Flags().Bool("no-translate", false, "keep comments in their original language")
	analyzeCmd.Flags().Bool("persist", false, "store result rows in DynamoDB")
	analyzeCmd.Flags().Bool("publish", false, "publish the run result to the sentiment-results topic")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filters, err := filtersFromFlags(cmd)
	if err != nil {
		return err
	}
	if err := sentiment.ValidateFilters(filters); err != nil {
		return err
	}

	modeFlag, _ := cmd.Flags().GetString("mode")
	mode, err := selectionMode(modeFlag, cfg)
	if err != nil {
		return err
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers < 1 {
		workers = cfg.Workers
	}

	c, release, err := buildClassifier(cfg)
	if err != nil {
		return err
	}
	defer release()

	var translator pipeline.Translator
	if noTranslate, _ := cmd.Flags().GetBool("no-translate"); !noTranslate {
		translator = buildTranslator(cfg)
	}

	reddit := clients.GetRedditClient(cfg.RedditClientID, cfg.RedditClientSecret, cfg.RedditRequestsPerMinute)
	details, comments, err := reddit.FetchPostComments(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printPostDetails(out, details, cfg.Location())

	progressOut := cmd.ErrOrStderr()
	p := pipeline.New(c, translator, pipeline.Options{
		Mode:     mode,
		DestLang: cfg.TranslateDest,
		Workers:  workers,
		Progress: func(processed, total int, author string) {
			fmt.Fprintf(progressOut, "\rProcessing comment %d/%d by %-24s", processed, total, author)
			if processed == total {
				fmt.Fprintln(progressOut)
			}
		},
	})

	result, err := p.Run(ctx, comments, filters)
	if err != nil {
		return err
	}
	result.PostID = details.ID

	printSummary(out, result)

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := export.SaveCSV(path, result.Rows, cfg.Location()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Results written to %s\n", path)
	}

	if persist, _ := cmd.Flags().GetBool("persist"); persist {
		store, err := buildResultStore(ctx, cfg)
		if err != nil {
			return err
		}
		if err := store.BatchInsertResultRows(ctx, result.RunID, result.PostID, result.Rows); err != nil {
			return err
		}
	}

	if publish, _ := cmd.Flags().GetBool("publish"); publish {
		if err := publishResult(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

func publishResult(ctx context.Context, result models.AnalysisResult) error {
	producer, err := kafka_client.NewProducer(ctx, kafka_client.NewKafkaConfig(cfg.KafkaBroker, cfg.KafkaGroupID))
	if err != nil {
		return err
	}
	defer producer.Close()

	payload, err := utils.SerializeToJSON(result)
	if err != nil {
		return err
	}
	return producer.Publish(ctx, kafka_client.KAFKA_TOPIC_SENTIMENT_RESULTS, []byte(result.RunID), payload)
}

func filtersFromFlags(cmd *cobra.Command) (models.Filters, error) {
	var filters models.Filters

	filters.Username, _ = cmd.Flags().GetString("username")

	label, _ := cmd.Flags().GetString("sentiment")
	filters.Sentiment = models.Label(label)

	for name, dst := range map[string]**time.Time{"start": &filters.StartTime, "end": &filters.EndTime} {
		raw, _ := cmd.Flags().GetString(name)
		if raw == "" {
			continue
		}
		t, err := parseTimeFlag(raw, name == "end")
		if err != nil {
			return filters, fmt.Errorf("invalid --%s: %w", name, err)
		}
		*dst = &t
	}
	return filters, nil
}

// parseTimeFlag accepts RFC3339 or a bare date. A bare end date covers the
// whole day.
func parseTimeFlag(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, raw, cfg.Location())
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func printPostDetails(w io.Writer, d models.PostDetails, loc *time.Location) {
	fmt.Fprintf(w, "Title:   %s\n", d.Title)
	fmt.Fprintf(w, "Author:  %s\n", d.Author)
	fmt.Fprintf(w, "Created: %s\n", d.CreatedAt.In(loc).Format(export.TIMESTAMP_FORMAT))
	if d.MediaURL != "" {
		fmt.Fprintf(w, "Media:   %s\n", d.MediaURL)
	}
	fmt.Fprintf(w, "\n%s\n\n", d.Content)
}

func printSummary(w io.Writer, result models.AnalysisResult) {
	fmt.Fprintf(w, "Run %s: %d comments kept\n", result.RunID, len(result.Rows))
	for _, s := range sentiment.Summarize(result.Rows, result.Totals) {
		fmt.Fprintf(w, "  %-8s count=%-5d total=%.4f\n", s.Label, s.Count, s.Total)
	}
}
