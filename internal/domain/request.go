package domain

// WordRequest identifies one pipeline run: a user's ask to generate a
// not-yet-existing vocabulary entry. Immutable once submitted.
type WordRequest struct {
	SourceWord     string
	SourceLanguage string // optional; treated as "auto" when empty
	TargetLanguage string
	RequestID      string // server-issued, empty until submission succeeds
	UserID         string // opaque, passed through to the collaborators
}

// Context returns the serializable state needed to re-attach to a
// still-pending request after reload or navigation.
func (r WordRequest) Context() RequestContext {
	return RequestContext{
		SourceWord:     r.SourceWord,
		SourceLanguage: r.SourceLanguage,
		TargetLanguage: r.TargetLanguage,
		RequestID:      r.RequestID,
		UserID:         r.UserID,
	}
}

// RequestContext is the explicit, serializable request context used to
// reconnect to an in-flight request without resubmitting it.
type RequestContext struct {
	SourceWord     string `json:"source_word"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language"`
	RequestID      string `json:"request_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
}

// Request converts the stored context back into a request value.
func (c RequestContext) Request() WordRequest {
	return WordRequest{
		SourceWord:     c.SourceWord,
		SourceLanguage: c.SourceLanguage,
		TargetLanguage: c.TargetLanguage,
		RequestID:      c.RequestID,
		UserID:         c.UserID,
	}
}

// StorageAddress holds the opaque tokens identifying a persisted word
// result. The tokens are either delivered by an event or reconstructed
// via BuildAddress; this subsystem never parses them beyond the light
// pattern extraction RouteForAddress needs.
type StorageAddress struct {
	PK       string `json:"pk,omitempty"`
	SK       string `json:"sk,omitempty"`
	MediaRef string `json:"media_ref,omitempty"`
}

// IsZero reports whether no address tokens are present.
func (a StorageAddress) IsZero() bool { return a.PK == "" && a.SK == "" }

// WordEntry is the progressively revealed result record of a generation
// run. Fields fill in as events arrive; absent fields stay zero.
type WordEntry struct {
	Word              string
	SourceLanguage    string
	TargetLanguage    string
	PartOfSpeech      string
	Definitions       []string
	Translations      []string
	Syllables         []string
	Phonetic          string
	Synonyms          []string
	Examples          []ExampleSentence
	Conjugation       map[string]string
	PronunciationURLs []string
	Media             StorageAddress
}

// ExampleSentence is one usage example with its translation.
type ExampleSentence struct {
	Sentence    string `json:"sentence"`
	Translation string `json:"translation,omitempty"`
}
