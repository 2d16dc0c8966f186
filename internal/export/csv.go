package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spacesedan/sentai/internal/models"
)

const (
	DEFAULT_CSV_FILE = "sentiment_analysis_results.csv"
	TIMESTAMP_FORMAT = "2006-01-02 15:04:05"
)

var csvHeader = []string{
	"Sentiment",
	"Score",
	"Original Text",
	"Translated text",
	"Author",
	"Parent",
	"Time Stamp",
}

// WriteCSV writes rows in order after the header row. Timestamps are
// rendered in loc, UTC when loc is nil.
func WriteCSV(w io.Writer, rows []models.ResultRow, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("[Export] write header: %w", err)
	}

	for i, row := range rows {
		record := []string{
			string(row.Label),
			strconv.FormatFloat(row.Score, 'f', -1, 64),
			row.OriginalText,
			row.TranslatedText,
			row.Author,
			row.Parent,
			row.Timestamp.In(loc).Format(TIMESTAMP_FORMAT),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("[Export] write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// SaveCSV writes rows to path, replacing any existing file.
func SaveCSV(path string, rows []models.ResultRow, loc *time.Location) error {
	if path == "" {
		path = DEFAULT_CSV_FILE
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("[Export] create %s: %w", path, err)
	}

	if err := WriteCSV(f, rows, loc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("[Export] close %s: %w", path, err)
	}

	slog.Info("[Export] Saved results", slog.String("path", path), slog.Int("rows", len(rows)))
	return nil
}
