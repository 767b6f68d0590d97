// Command wordgen submits a word-generation request to the pipeline and
// follows it to its terminal outcome, printing progress as events arrive.
//
// Modes:
//
//	-word ...    submit a new request for the given word
//	-resume      re-attach to the persisted pending request instead
//
// Exit codes: 0 = word ready (generated or already existing), 1 = error
// or generation failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/heartmarshall/wordgen/internal/app"
	"github.com/heartmarshall/wordgen/internal/request"
	"github.com/heartmarshall/wordgen/internal/service/generation"
)

func main() {
	word := flag.String("word", "", "source word to generate")
	source := flag.String("source", "", "source language (default: auto-detect)")
	target := flag.String("target", "en", "target language")
	user := flag.String("user", "", "user id (default: random)")
	resume := flag.Bool("resume", false, "re-attach to the pending request")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx)
	if err != nil {
		slog.Error("startup failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	var run *generation.Run
	if *resume {
		run, err = a.Generation.Resume(ctx)
	} else {
		userID := *user
		if userID == "" {
			userID = uuid.NewString()
		}
		run, err = a.Generation.Submit(ctx, generation.SubmitInput{
			SourceWord:     *word,
			SourceLanguage: *source,
			TargetLanguage: *target,
			UserID:         userID,
		})
	}
	if err != nil {
		a.Log.Error("request failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	outcome, err := run.Wait(ctx)
	if err != nil {
		a.Log.Error("interrupted", slog.String("error", err.Error()))
		os.Exit(1)
	}

	switch outcome.Kind {
	case request.OutcomeCompleted:
		fmt.Printf("word ready: %s\n", outcome.Route)
	case request.OutcomeRedirected:
		fmt.Printf("word already exists: %s\n", outcome.Route)
	case request.OutcomeInvalid:
		fmt.Printf("rejected: %s\n", outcome.Reason)
		if v := outcome.Validation; v != nil && len(v.SuggestedWords) > 0 {
			fmt.Printf("did you mean: %v\n", v.SuggestedWords)
		}
		os.Exit(1)
	case request.OutcomeFailed:
		fmt.Printf("generation failed: %s\n", outcome.Reason)
		os.Exit(1)
	}
}
