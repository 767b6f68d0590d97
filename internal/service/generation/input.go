package generation

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/wordgen/internal/domain"
)

// SubmitInput carries the user's ask for a new word generation run.
type SubmitInput struct {
	SourceWord     string
	SourceLanguage string // optional, "auto" when empty
	TargetLanguage string
	UserID         string
}

// Validate checks the required fields. Failures wrap domain.ErrMissingField.
func (in SubmitInput) Validate() error {
	if strings.TrimSpace(in.SourceWord) == "" {
		return fmt.Errorf("source_word: %w", domain.ErrMissingField)
	}
	if strings.TrimSpace(in.TargetLanguage) == "" {
		return fmt.Errorf("target_language: %w", domain.ErrMissingField)
	}
	return nil
}

func (in SubmitInput) request() domain.WordRequest {
	return domain.WordRequest{
		SourceWord:     strings.TrimSpace(in.SourceWord),
		SourceLanguage: strings.TrimSpace(in.SourceLanguage),
		TargetLanguage: strings.TrimSpace(in.TargetLanguage),
		UserID:         strings.TrimSpace(in.UserID),
	}
}
