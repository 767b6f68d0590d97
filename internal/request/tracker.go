// Package request tracks render-ready state for exactly one active
// word-creation request: which parts of the result have arrived, how far
// the ten-stage pipeline graph has progressed, and the terminal outcome.
package request

import (
	"github.com/heartmarshall/wordgen/internal/domain"
	"github.com/heartmarshall/wordgen/internal/stream"
)

// Field names one progressively revealed part of the result record.
type Field string

const (
	FieldWord          Field = "word"
	FieldDefinitions   Field = "definitions"
	FieldPartOfSpeech  Field = "part_of_speech"
	FieldSyllables     Field = "syllables"
	FieldPhonetic      Field = "phonetic"
	FieldSynonyms      Field = "synonyms"
	FieldExamples      Field = "examples"
	FieldConjugation   Field = "conjugation"
	FieldPronunciation Field = "pronunciation"
	FieldMedia         Field = "media"
)

var allFields = []Field{
	FieldWord, FieldDefinitions, FieldPartOfSpeech, FieldSyllables,
	FieldPhonetic, FieldSynonyms, FieldExamples, FieldConjugation,
	FieldPronunciation, FieldMedia,
}

// OutcomeKind classifies how a tracked request ended.
type OutcomeKind string

const (
	OutcomeCompleted  OutcomeKind = "completed"
	OutcomeRedirected OutcomeKind = "redirected"
	OutcomeInvalid    OutcomeKind = "invalid"
	OutcomeFailed     OutcomeKind = "failed"
)

// Outcome is the terminal result of a tracked request.
type Outcome struct {
	Kind    OutcomeKind
	Route   string // navigation target, empty on failure
	Address domain.StorageAddress
	// ReplaceHistory indicates the in-progress view must be replaced,
	// leaving no back-navigation to the skeleton.
	ReplaceHistory bool
	Reason         string
	Validation     *domain.ValidationIssue
}

// Snapshot is an immutable view of the tracker for rendering.
type Snapshot struct {
	Request  domain.WordRequest
	Entry    domain.WordEntry
	Loading  map[Field]bool
	Stages   domain.StageGraph
	Step     string
	Progress int
}

// Tracker is the single-shot state machine for one request instance. It is
// not safe for concurrent use; the owning run serializes access, matching
// the one-sequential-callback-per-channel delivery model.
type Tracker struct {
	req      domain.WordRequest
	entry    domain.WordEntry
	loading  map[Field]bool
	stages   domain.StageGraph
	step     string
	progress int
	outcome  *Outcome
}

// NewTracker seeds the skeleton for a just-submitted request: identifiers
// from the submission, every loading flag set, stage order 1 active.
func NewTracker(req domain.WordRequest) *Tracker {
	loading := make(map[Field]bool, len(allFields))
	for _, f := range allFields {
		loading[f] = true
	}
	return &Tracker{
		req: req,
		entry: domain.WordEntry{
			Word:           req.SourceWord,
			SourceLanguage: req.SourceLanguage,
			TargetLanguage: req.TargetLanguage,
		},
		loading: loading,
		stages:  domain.NewStageGraph(),
	}
}

// Snapshot returns a deep-enough copy for rendering.
func (t *Tracker) Snapshot() Snapshot {
	loading := make(map[Field]bool, len(t.loading))
	for k, v := range t.loading {
		loading[k] = v
	}
	return Snapshot{
		Request:  t.req,
		Entry:    t.entry,
		Loading:  loading,
		Stages:   t.stages.Clone(),
		Step:     t.step,
		Progress: t.progress,
	}
}

// Outcome returns the terminal outcome, nil while the request is live.
func (t *Tracker) Outcome() *Outcome { return t.outcome }

// Done reports whether a terminal outcome has been applied.
func (t *Tracker) Done() bool { return t.outcome != nil }

// Apply feeds one inbound event into the state machine and returns the
// terminal outcome once one exists. After a terminal outcome the tracker
// is sealed: further events mutate nothing and domain.ErrRequestDone is
// returned alongside the existing outcome.
func (t *Tracker) Apply(ev stream.Event) (*Outcome, error) {
	if t.outcome != nil {
		return t.outcome, domain.ErrRequestDone
	}

	switch e := ev.(type) {
	case stream.SubscriptionConfirmed:
		if e.RequestID != "" {
			t.req.RequestID = e.RequestID
		}

	case stream.ProcessingStarted:
		if e.RequestID != "" {
			t.req.RequestID = e.RequestID
		}
		t.applyFields(e.Fields)
		t.applyStageSignals(e.Fields)

	case stream.ChunkUpdate:
		t.applyFields(e.Fields)
		t.applyStageSignals(e.Fields)

	case stream.StepUpdate:
		t.step = e.Step
		t.applyFields(e.Fields)
		t.applyStageSignals(e.Fields)

	case stream.ProcessingCompleted:
		t.applyFields(e.Fields)
		t.stages.CompleteAll()
		for f := range t.loading {
			t.loading[f] = false
		}
		t.progress = 100
		t.outcome = t.completedOutcome(e.Fields)

	case stream.WordExists:
		t.outcome = t.redirectOutcome(e)

	case stream.ProcessingFailed:
		t.outcome = &Outcome{Kind: OutcomeFailed, Reason: e.Reason}

	case stream.ValidationFailed:
		t.outcome = &Outcome{
			Kind:   OutcomeInvalid,
			Reason: e.Issue,
			Validation: &domain.ValidationIssue{
				Issue:              e.Issue,
				DetectedLanguage:   e.DetectedLanguage,
				SuggestedWords:     e.SuggestedWords,
				SuggestedLanguages: e.SuggestedLanguages,
			},
		}

	case stream.ConnectionClose, stream.Unknown:
		// No state change.
	}

	return t.outcome, nil
}

// applyFields copies every present payload field into the result record
// and clears its loading flag. Absent fields stay untouched: a partial
// frame never resets previously revealed data.
func (t *Tracker) applyFields(f stream.Fields) {
	if f.Word != nil {
		t.entry.Word = *f.Word
		t.loading[FieldWord] = false
	}
	if f.SourceLanguage != nil {
		t.entry.SourceLanguage = *f.SourceLanguage
	}
	if f.TargetLanguage != nil {
		t.entry.TargetLanguage = *f.TargetLanguage
	}
	if f.PartOfSpeech != nil {
		t.entry.PartOfSpeech = *f.PartOfSpeech
		t.loading[FieldPartOfSpeech] = false
	}
	if f.Definitions != nil {
		t.entry.Definitions = f.Definitions
		t.loading[FieldDefinitions] = false
	}
	if f.Translations != nil {
		// Translations and definitions fill the same meanings section
		// of the rendered entry; either payload spelling reveals it.
		t.entry.Translations = f.Translations
		t.loading[FieldDefinitions] = false
	}
	if f.Syllables != nil {
		t.entry.Syllables = f.Syllables
		t.loading[FieldSyllables] = false
	}
	if f.Phonetic != nil {
		t.entry.Phonetic = *f.Phonetic
		t.loading[FieldPhonetic] = false
	}
	if f.Synonyms != nil {
		t.entry.Synonyms = f.Synonyms
		t.loading[FieldSynonyms] = false
	}
	if f.Examples != nil {
		t.entry.Examples = f.Examples
		t.loading[FieldExamples] = false
	}
	if f.Conjugation != nil {
		t.entry.Conjugation = f.Conjugation
		t.loading[FieldConjugation] = false
	}
	if f.PronunciationURLs != nil {
		t.entry.PronunciationURLs = f.PronunciationURLs
		t.loading[FieldPronunciation] = false
	}
	if f.PK != nil {
		t.entry.Media.PK = *f.PK
		t.loading[FieldMedia] = false
	}
	if f.SK != nil {
		t.entry.Media.SK = *f.SK
		t.loading[FieldMedia] = false
	}
	if f.MediaRef != nil {
		t.entry.Media.MediaRef = *f.MediaRef
		t.loading[FieldMedia] = false
	}
	if f.Progress != nil {
		t.progress = *f.Progress
	}
}

// stageApprovals maps each per-capability quality flag to its stage.
func stageApprovals(f stream.Fields) map[domain.StageID]*bool {
	return map[domain.StageID]*bool{
		domain.StageValidation:     f.ValidationApproved,
		domain.StageClassification: f.ClassificationApproved,
		domain.StageTranslation:    f.TranslationApproved,
		domain.StageMedia:          f.MediaApproved,
		domain.StageExamples:       f.ExamplesApproved,
		domain.StageSynonyms:       f.SynonymsApproved,
		domain.StageSyllables:      f.SyllablesApproved,
		domain.StageConjugation:    f.ConjugationApproved,
	}
}

func (t *Tracker) applyStageSignals(f stream.Fields) {
	for id, approved := range stageApprovals(f) {
		if approved != nil && *approved {
			t.stages.Complete(id)
		}
	}
	for _, task := range f.CompletedParallelTasks {
		t.stages.Complete(domain.StageID(task))
	}
	if (f.FinalQualityComplete != nil && *f.FinalQualityComplete) || f.QualityScore != nil {
		t.stages.Complete(domain.StageFinalQuality)
	}
}

// completedOutcome builds the navigation target from the result's own
// fields: the generated entry may differ from the raw request input (for
// example a corrected source language), so the route must not be derived
// from what the user typed.
func (t *Tracker) completedOutcome(f stream.Fields) *Outcome {
	word := t.entry.Word
	if word == "" {
		word = t.req.SourceWord
	}
	src := t.entry.SourceLanguage
	if src == "" {
		src = t.req.SourceLanguage
	}
	tgt := t.entry.TargetLanguage
	if tgt == "" {
		tgt = t.req.TargetLanguage
	}

	addr := t.entry.Media
	if addr.IsZero() {
		addr = domain.BuildAddress(word, src, tgt, t.entry.PartOfSpeech)
	}
	return &Outcome{
		Kind:    OutcomeCompleted,
		Route:   domain.WordRoute(src, tgt, t.entry.PartOfSpeech, word),
		Address: addr,
	}
}

// redirectOutcome resolves a cache hit to an address: explicit tokens from
// the event win, then deterministic reconstruction from whatever word and
// language fields the payload or the original request provide.
func (t *Tracker) redirectOutcome(e stream.WordExists) *Outcome {
	addr := e.Address
	if addr.IsZero() {
		word := firstNonEmpty(deref(e.Fields.Word), e.SourceWord, t.req.SourceWord)
		src := firstNonEmpty(deref(e.Fields.SourceLanguage), t.req.SourceLanguage)
		tgt := firstNonEmpty(deref(e.Fields.TargetLanguage), t.req.TargetLanguage)
		addr = domain.BuildAddress(word, src, tgt, deref(e.Fields.PartOfSpeech))
	}
	return &Outcome{
		Kind:           OutcomeRedirected,
		Route:          domain.RouteForAddress(addr, t.req.SourceWord, t.req.SourceLanguage, t.req.TargetLanguage),
		Address:        addr,
		ReplaceHistory: true,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
