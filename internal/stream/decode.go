package stream

import (
	"encoding/json"
	"fmt"

	"github.com/heartmarshall/wordgen/internal/domain"
)

// Frame is the raw wire shape of one push message.
type Frame struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	Step       string          `json:"step,omitempty"`
	SourceWord string          `json:"source_word,omitempty"`
}

// Decode maps one raw frame to its typed event. A frame whose envelope or
// payload is not valid JSON returns an error and should be dropped by the
// caller (logged, channel kept open). An unrecognized tag is not an error:
// it decodes to Unknown so it can still be forwarded.
func Decode(raw []byte) (Event, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return decodeFrame(f)
}

func decodeFrame(f Frame) (Event, error) {
	switch EventType(f.Type) {
	case EventSubscriptionConfirmed:
		return SubscriptionConfirmed{RequestID: f.RequestID}, nil

	case EventProcessingStarted:
		fields, err := decodeFields(f)
		if err != nil {
			return nil, err
		}
		return ProcessingStarted{RequestID: f.RequestID, SourceWord: f.SourceWord, Fields: fields}, nil

	case EventChunkUpdate:
		fields, err := decodeFields(f)
		if err != nil {
			return nil, err
		}
		return ChunkUpdate{RequestID: f.RequestID, Fields: fields}, nil

	case EventStepUpdate:
		fields, err := decodeFields(f)
		if err != nil {
			return nil, err
		}
		return StepUpdate{RequestID: f.RequestID, Step: f.Step, Fields: fields}, nil

	case EventProcessingCompleted:
		fields, err := decodeFields(f)
		if err != nil {
			return nil, err
		}
		return ProcessingCompleted{RequestID: f.RequestID, Fields: fields}, nil

	case EventProcessingFailed:
		return decodeFailed(f)

	case EventValidationFailed:
		return decodeValidationFailed(f)

	case EventWordExists:
		return decodeWordExists(f)

	case EventConnectionClose:
		var p struct {
			Message string `json:"message"`
		}
		if err := unmarshalData(f, &p); err != nil {
			return nil, err
		}
		return ConnectionClose{Message: p.Message}, nil

	default:
		return Unknown{Tag: f.Type, Raw: f.Data}, nil
	}
}

func decodeFields(f Frame) (Fields, error) {
	var fields Fields
	if err := unmarshalData(f, &fields); err != nil {
		return Fields{}, err
	}
	return fields, nil
}

func decodeFailed(f Frame) (Event, error) {
	var p struct {
		Reason  string `json:"reason"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := unmarshalData(f, &p); err != nil {
		return nil, err
	}
	reason := p.Reason
	if reason == "" {
		reason = p.Error
	}
	if reason == "" {
		reason = p.Message
	}
	return ProcessingFailed{RequestID: f.RequestID, Reason: reason}, nil
}

func decodeValidationFailed(f Frame) (Event, error) {
	var p struct {
		Issue              string   `json:"issue"`
		Message            string   `json:"message"`
		DetectedLanguage   string   `json:"detected_language"`
		SuggestedWords     []string `json:"suggested_words"`
		SuggestedLanguages []string `json:"suggested_languages"`
	}
	if err := unmarshalData(f, &p); err != nil {
		return nil, err
	}
	issue := p.Issue
	if issue == "" {
		issue = p.Message
	}
	return ValidationFailed{
		RequestID:          f.RequestID,
		Issue:              issue,
		DetectedLanguage:   p.DetectedLanguage,
		SuggestedWords:     p.SuggestedWords,
		SuggestedLanguages: p.SuggestedLanguages,
	}, nil
}

// decodeWordExists resolves the address tokens of a cache hit. Explicit
// top-level pk/sk win; a nested existing-item structure is the fallback.
// When neither is present the event carries a zero Address and the
// consumer reconstructs one from the word/language fields.
func decodeWordExists(f Frame) (Event, error) {
	var p struct {
		Fields
		ExistingItem *struct {
			PK       string `json:"PK"`
			SK       string `json:"SK"`
			MediaRef string `json:"media_ref"`
		} `json:"existing_item"`
	}
	if err := unmarshalData(f, &p); err != nil {
		return nil, err
	}

	var addr domain.StorageAddress
	switch {
	case p.PK != nil && p.SK != nil:
		addr = domain.StorageAddress{PK: *p.PK, SK: *p.SK}
		if p.MediaRef != nil {
			addr.MediaRef = *p.MediaRef
		}
	case p.ExistingItem != nil:
		addr = domain.StorageAddress{
			PK:       p.ExistingItem.PK,
			SK:       p.ExistingItem.SK,
			MediaRef: p.ExistingItem.MediaRef,
		}
	}

	return WordExists{
		RequestID:  f.RequestID,
		SourceWord: f.SourceWord,
		Address:    addr,
		Fields:     p.Fields,
	}, nil
}

func unmarshalData(f Frame, v any) error {
	if len(f.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(f.Data, v); err != nil {
		return fmt.Errorf("decode %s data: %w", f.Type, err)
	}
	return nil
}
