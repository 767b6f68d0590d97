package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/wordgen/internal/domain"
	"github.com/heartmarshall/wordgen/internal/stream"
)

func ptr[T any](v T) *T { return &v }

func newHausTracker() *Tracker {
	return NewTracker(domain.WordRequest{
		SourceWord:     "Haus",
		SourceLanguage: "de",
		TargetLanguage: "en",
		RequestID:      "req-1",
	})
}

func TestNewTracker_Skeleton(t *testing.T) {
	t.Parallel()

	tr := NewTracker(domain.WordRequest{SourceWord: "Haus", TargetLanguage: "en"})
	snap := tr.Snapshot()

	assert.Equal(t, "Haus", snap.Entry.Word)
	for field, loading := range snap.Loading {
		assert.True(t, loading, "field %s must start loading", field)
	}
	validation, _ := snap.Stages.Stage(domain.StageValidation)
	assert.Equal(t, domain.StageActive, validation.Status)
	for _, s := range snap.Stages {
		if s.Order > 1 {
			assert.Equal(t, domain.StagePending, s.Status, "stage %s", s.ID)
		}
	}
	assert.False(t, tr.Done())
}

func TestTracker_FieldReveal(t *testing.T) {
	t.Parallel()

	tr := newHausTracker()
	outcome, err := tr.Apply(stream.ChunkUpdate{Fields: stream.Fields{
		Synonyms: []string{"Heim", "Gebäude"},
		Progress: ptr(30),
	}})
	require.NoError(t, err)
	assert.Nil(t, outcome)

	snap := tr.Snapshot()
	assert.Equal(t, []string{"Heim", "Gebäude"}, snap.Entry.Synonyms)
	assert.False(t, snap.Loading[FieldSynonyms])
	assert.True(t, snap.Loading[FieldExamples], "absent fields stay loading")
	assert.Equal(t, 30, snap.Progress)

	// A later partial frame without synonyms must not reset them.
	_, err = tr.Apply(stream.ChunkUpdate{Fields: stream.Fields{Phonetic: ptr("haʊs")}})
	require.NoError(t, err)
	snap = tr.Snapshot()
	assert.Equal(t, []string{"Heim", "Gebäude"}, snap.Entry.Synonyms)
	assert.Equal(t, "haʊs", snap.Entry.Phonetic)
}

func TestTracker_StageSignals(t *testing.T) {
	t.Parallel()

	tr := newHausTracker()

	_, err := tr.Apply(stream.StepUpdate{Step: "validation", Fields: stream.Fields{
		ValidationApproved: ptr(true),
	}})
	require.NoError(t, err)

	snap := tr.Snapshot()
	classification, _ := snap.Stages.Stage(domain.StageClassification)
	assert.Equal(t, domain.StageActive, classification.Status)
	assert.Equal(t, "validation", snap.Step)

	_, err = tr.Apply(stream.ChunkUpdate{Fields: stream.Fields{
		ClassificationApproved: ptr(true),
		TranslationApproved:    ptr(true),
	}})
	require.NoError(t, err)

	snap = tr.Snapshot()
	for _, s := range snap.Stages {
		if s.Category == domain.CategoryParallel {
			assert.Equal(t, domain.StageActive, s.Status, "parallel stage %s after translation", s.ID)
		}
	}

	_, err = tr.Apply(stream.ChunkUpdate{Fields: stream.Fields{
		CompletedParallelTasks: []string{"media", "examples"},
	}})
	require.NoError(t, err)
	snap = tr.Snapshot()
	media, _ := snap.Stages.Stage(domain.StageMedia)
	assert.Equal(t, domain.StageCompleted, media.Status)

	_, err = tr.Apply(stream.ChunkUpdate{Fields: stream.Fields{QualityScore: ptr(0.93)}})
	require.NoError(t, err)
	snap = tr.Snapshot()
	final, _ := snap.Stages.Stage(domain.StageFinalQuality)
	assert.Equal(t, domain.StageCompleted, final.Status)
}

func TestTracker_ProcessingCompleted(t *testing.T) {
	t.Parallel()

	tr := newHausTracker()
	outcome, err := tr.Apply(stream.ProcessingCompleted{Fields: stream.Fields{
		Word:           ptr("haus"),
		SourceLanguage: ptr("de"),
		TargetLanguage: ptr("en"),
		PartOfSpeech:   ptr("neuter noun"),
		Definitions:    []string{"a building for living in"},
		Syllables:      []string{"haus"},
	}})
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, OutcomeCompleted, outcome.Kind)
	assert.Equal(t, "/words/de/en/noun/haus", outcome.Route,
		"route comes from the result's own fields")
	assert.False(t, outcome.ReplaceHistory)

	snap := tr.Snapshot()
	for field, loading := range snap.Loading {
		assert.False(t, loading, "field %s still loading after completion", field)
	}
	assert.True(t, snap.Stages.Completed())
	assert.Equal(t, 100, snap.Progress)
}

func TestTracker_CompletedRoutePrefersResultFields(t *testing.T) {
	t.Parallel()

	// The user typed "auto" detection; the pipeline resolved it to "de".
	tr := NewTracker(domain.WordRequest{SourceWord: "Haus", SourceLanguage: "auto", TargetLanguage: "en"})
	outcome, err := tr.Apply(stream.ProcessingCompleted{Fields: stream.Fields{
		Word:           ptr("haus"),
		SourceLanguage: ptr("de"),
		PartOfSpeech:   ptr("noun"),
	}})
	require.NoError(t, err)
	require.NotNil(t, outcome)
	assert.Equal(t, "/words/de/en/noun/haus", outcome.Route)
}

func TestTracker_WordExistsRedirect(t *testing.T) {
	t.Parallel()

	tr := newHausTracker()
	outcome, err := tr.Apply(stream.WordExists{
		Address: domain.StorageAddress{PK: "SRC#en#haus", SK: "TGT#es"},
	})
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, OutcomeRedirected, outcome.Kind)
	assert.Equal(t, "SRC#en#haus", outcome.Address.PK)
	assert.Equal(t, "TGT#es", outcome.Address.SK)
	assert.Equal(t, "/words/en/es/pending/haus", outcome.Route)
	assert.True(t, outcome.ReplaceHistory, "redirect replaces the in-progress view")
}

func TestTracker_WordExistsReconstructsAddress(t *testing.T) {
	t.Parallel()

	tr := newHausTracker()
	outcome, err := tr.Apply(stream.WordExists{
		Fields: stream.Fields{PartOfSpeech: ptr("noun")},
	})
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, "SRC#de#haus", outcome.Address.PK)
	assert.Equal(t, "TGT#en#POS#noun", outcome.Address.SK)
}

func TestTracker_ValidationFailed(t *testing.T) {
	t.Parallel()

	tr := newHausTracker()
	outcome, err := tr.Apply(stream.ValidationFailed{
		Issue:            "not a German word",
		DetectedLanguage: "fr",
		SuggestedWords:   []string{"maison"},
	})
	require.NoError(t, err)
	require.NotNil(t, outcome)

	assert.Equal(t, OutcomeInvalid, outcome.Kind)
	require.NotNil(t, outcome.Validation)
	assert.Equal(t, "fr", outcome.Validation.DetectedLanguage)
	assert.Equal(t, []string{"maison"}, outcome.Validation.SuggestedWords)
}

func TestTracker_SealedAfterTerminal(t *testing.T) {
	t.Parallel()

	tr := newHausTracker()
	_, err := tr.Apply(stream.WordExists{
		Address: domain.StorageAddress{PK: "SRC#de#haus", SK: "TGT#en"},
	})
	require.NoError(t, err)
	require.True(t, tr.Done())

	before := tr.Snapshot()
	outcome, err := tr.Apply(stream.ChunkUpdate{Fields: stream.Fields{Word: ptr("clobbered")}})
	require.ErrorIs(t, err, domain.ErrRequestDone)
	require.NotNil(t, outcome)
	assert.Equal(t, OutcomeRedirected, outcome.Kind)

	after := tr.Snapshot()
	assert.Equal(t, before.Entry, after.Entry, "sealed tracker must not mutate")
}

func TestTracker_IgnoresNeutralEvents(t *testing.T) {
	t.Parallel()

	tr := newHausTracker()
	_, err := tr.Apply(stream.Unknown{Tag: "heartbeat"})
	require.NoError(t, err)
	_, err = tr.Apply(stream.ConnectionClose{Message: "bye"})
	require.NoError(t, err)
	assert.False(t, tr.Done())
}
