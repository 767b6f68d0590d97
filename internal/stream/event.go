// Package stream owns the push side of the word-generation pipeline: it
// decodes inbound frames into a closed set of typed events and manages the
// single live channel per outstanding request.
package stream

import (
	"encoding/json"

	"github.com/heartmarshall/wordgen/internal/domain"
)

// EventType tags an inbound frame.
type EventType string

const (
	EventSubscriptionConfirmed EventType = "subscription_confirmed"
	EventProcessingStarted     EventType = "processing_started"
	EventChunkUpdate           EventType = "chunk_update"
	EventStepUpdate            EventType = "step_update"
	EventProcessingCompleted   EventType = "processing_completed"
	EventProcessingFailed      EventType = "processing_failed"
	EventValidationFailed      EventType = "validation_failed"
	EventWordExists            EventType = "word_exists"
	EventConnectionClose       EventType = "connection_close"
)

// Event is the closed set of inbound pipeline events. Consumers switch
// exhaustively on the concrete types; unrecognized tags arrive as Unknown
// and must be tolerated, never crashed on.
type Event interface {
	Type() EventType
	sealed()
}

// Fields is the opportunistically decoded portion of an event payload.
// Presence drives state changes: a nil pointer or nil slice means the
// field was absent and must leave existing state untouched. No field is
// ever assumed present.
type Fields struct {
	Word              *string                  `json:"word"`
	SourceLanguage    *string                  `json:"source_language"`
	TargetLanguage    *string                  `json:"target_language"`
	PartOfSpeech      *string                  `json:"part_of_speech"`
	Definitions       []string                 `json:"definitions"`
	Translations      []string                 `json:"translations"`
	Syllables         []string                 `json:"syllables"`
	Phonetic          *string                  `json:"phonetic"`
	Synonyms          []string                 `json:"synonyms"`
	Examples          []domain.ExampleSentence `json:"examples"`
	Conjugation       map[string]string        `json:"conjugation"`
	PronunciationURLs []string                 `json:"pronunciation_urls"`
	PK                *string                  `json:"pk"`
	SK                *string                  `json:"sk"`
	MediaRef          *string                  `json:"media_ref"`
	Progress          *int                     `json:"progress"`

	// Per-capability quality gates plus the parallel-task roll-up the
	// pipeline emits as stages finish.
	ValidationApproved     *bool    `json:"validation_approved"`
	ClassificationApproved *bool    `json:"classification_approved"`
	TranslationApproved    *bool    `json:"translation_approved"`
	MediaApproved          *bool    `json:"media_approved"`
	ExamplesApproved       *bool    `json:"examples_approved"`
	SynonymsApproved       *bool    `json:"synonyms_approved"`
	SyllablesApproved      *bool    `json:"syllables_approved"`
	ConjugationApproved    *bool    `json:"conjugation_approved"`
	CompletedParallelTasks []string `json:"completed_parallel_tasks"`
	QualityScore           *float64 `json:"quality_score"`
	FinalQualityComplete   *bool    `json:"final_quality_complete"`
}

// SubscriptionConfirmed acknowledges that the channel is attached to a run.
type SubscriptionConfirmed struct {
	RequestID string
}

// ProcessingStarted signals that the pipeline began working on the request.
type ProcessingStarted struct {
	RequestID  string
	SourceWord string
	Fields     Fields
}

// ChunkUpdate carries a partial slice of the result record.
type ChunkUpdate struct {
	RequestID string
	Fields    Fields
}

// StepUpdate carries a partial slice of the result record attributed to a
// named pipeline step.
type StepUpdate struct {
	RequestID string
	Step      string
	Fields    Fields
}

// ProcessingCompleted carries the full result record.
type ProcessingCompleted struct {
	RequestID string
	Fields    Fields
}

// ProcessingFailed terminates the run with a pipeline error.
type ProcessingFailed struct {
	RequestID string
	Reason    string
}

// ValidationFailed terminates the run with a business-rule rejection and
// whatever suggestions the pipeline offered.
type ValidationFailed struct {
	RequestID          string
	Issue              string
	DetectedLanguage   string
	SuggestedWords     []string
	SuggestedLanguages []string
}

// WordExists signals a cache hit: the requested word already exists.
// Address holds the tokens resolved from the payload (explicit top-level
// tokens preferred, nested existing-item structure second); a zero Address
// means the consumer must reconstruct one from the remaining fields.
type WordExists struct {
	RequestID  string
	SourceWord string
	Address    domain.StorageAddress
	Fields     Fields
}

// ConnectionClose announces that the server is about to close the channel.
type ConnectionClose struct {
	Message string
}

// Unknown wraps a frame with an unrecognized tag. It is forwarded, never
// silently dropped, so subscribers can log telemetry.
type Unknown struct {
	Tag string
	Raw json.RawMessage
}

func (SubscriptionConfirmed) Type() EventType { return EventSubscriptionConfirmed }
func (ProcessingStarted) Type() EventType     { return EventProcessingStarted }
func (ChunkUpdate) Type() EventType           { return EventChunkUpdate }
func (StepUpdate) Type() EventType            { return EventStepUpdate }
func (ProcessingCompleted) Type() EventType   { return EventProcessingCompleted }
func (ProcessingFailed) Type() EventType      { return EventProcessingFailed }
func (ValidationFailed) Type() EventType      { return EventValidationFailed }
func (WordExists) Type() EventType            { return EventWordExists }
func (ConnectionClose) Type() EventType       { return EventConnectionClose }
func (u Unknown) Type() EventType             { return EventType(u.Tag) }

// RequestID returns the request id the event carries, empty for events
// without one (ConnectionClose, Unknown).
func RequestID(ev Event) string {
	switch e := ev.(type) {
	case SubscriptionConfirmed:
		return e.RequestID
	case ProcessingStarted:
		return e.RequestID
	case ChunkUpdate:
		return e.RequestID
	case StepUpdate:
		return e.RequestID
	case ProcessingCompleted:
		return e.RequestID
	case ProcessingFailed:
		return e.RequestID
	case ValidationFailed:
		return e.RequestID
	case WordExists:
		return e.RequestID
	}
	return ""
}

func (SubscriptionConfirmed) sealed() {}
func (ProcessingStarted) sealed()     {}
func (ChunkUpdate) sealed()           {}
func (StepUpdate) sealed()            {}
func (ProcessingCompleted) sealed()   {}
func (ProcessingFailed) sealed()      {}
func (ValidationFailed) sealed()      {}
func (WordExists) sealed()            {}
func (ConnectionClose) sealed()       {}
func (Unknown) sealed()               {}
