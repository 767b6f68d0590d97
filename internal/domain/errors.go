package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrMissingField = errors.New("missing required field")
	ErrRateLimited  = errors.New("rate limited")
	ErrRequestDone  = errors.New("request already resolved")
	ErrNotFound     = errors.New("not found")
)

// SubmissionError reports a synchronous failure to start a generation
// request. RateLimited distinguishes a throttling response so callers can
// choose a different user message; errors.Is(err, ErrRateLimited) also
// holds in that case.
type SubmissionError struct {
	StatusCode  int
	Message     string
	RateLimited bool
	Err         error
}

func (e *SubmissionError) Error() string {
	var b strings.Builder
	b.WriteString("submission failed")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) Is(target error) bool {
	return target == ErrRateLimited && e.RateLimited
}

// ValidationIssue is a terminal business-rule rejection from the pipeline.
// It carries the user-facing detail: the issue itself, the language the
// pipeline detected, and any suggested alternatives.
type ValidationIssue struct {
	Issue              string
	DetectedLanguage   string
	SuggestedWords     []string
	SuggestedLanguages []string
}

func (e *ValidationIssue) Error() string {
	if e.DetectedLanguage != "" {
		return fmt.Sprintf("validation: %s (detected language: %s)", e.Issue, e.DetectedLanguage)
	}
	return "validation: " + e.Issue
}
