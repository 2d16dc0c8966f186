package sentiment

import (
	"errors"
	"fmt"

	"github.com/spacesedan/sentai/internal/models"
)

// AcceptAuthor runs the checks that need no classification: the username
// match and the creation time window. A comment without an author never
// matches a username filter.
func AcceptAuthor(comment models.Comment, filters models.Filters) bool {
	if filters.Username != "" {
		if comment.Author == nil || *comment.Author != filters.Username {
			return false
		}
	}

	if filters.StartTime != nil && comment.CreatedAt.Before(*filters.StartTime) {
		return false
	}
	if filters.EndTime != nil && comment.CreatedAt.After(*filters.EndTime) {
		return false
	}

	return true
}

func AcceptLabel(result models.ClassificationResult, filters models.Filters) bool {
	return filters.Sentiment == "" || result.Label == filters.Sentiment
}

// Accept combines both stages.
func Accept(comment models.Comment, result models.ClassificationResult, filters models.Filters) bool {
	return AcceptAuthor(comment, filters) && AcceptLabel(result, filters)
}

var ErrInvalidFilters = errors.New("invalid filters")

// ValidateFilters rejects labels outside the three known classes and
// inverted time windows.
func ValidateFilters(filters models.Filters) error {
	if filters.Sentiment != "" && !filters.Sentiment.Valid() {
		return fmt.Errorf("%w: unknown sentiment %q", ErrInvalidFilters, filters.Sentiment)
	}
	if filters.StartTime != nil && filters.EndTime != nil && filters.EndTime.Before(*filters.StartTime) {
		return fmt.Errorf("%w: end time %s is before start time %s", ErrInvalidFilters, filters.EndTime, filters.StartTime)
	}
	return nil
}
