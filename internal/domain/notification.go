package domain

import "time"

// NotificationStatus is the user-facing state of one tracked request.
type NotificationStatus string

const (
	StatusPending    NotificationStatus = "pending"
	StatusProcessing NotificationStatus = "processing"
	StatusCompleted  NotificationStatus = "completed"
	StatusFailed     NotificationStatus = "failed"
	StatusRedirect   NotificationStatus = "redirect"
)

// Terminal reports whether the status is a final outcome that later
// non-terminal updates may not overwrite without an explicit override.
func (s NotificationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusRedirect
}

// Notification is one entry of the cross-request notification ledger.
type Notification struct {
	ID             string             `json:"id"`
	Title          string             `json:"title,omitempty"`
	Message        string             `json:"message,omitempty"`
	Status         NotificationStatus `json:"status"`
	Timestamp      time.Time          `json:"timestamp"`
	Seen           bool               `json:"seen"`
	Link           string             `json:"link,omitempty"`
	Progress       int                `json:"progress"` // 0–100
	SourceWord     string             `json:"source_word,omitempty"`
	SourceLanguage string             `json:"source_language,omitempty"`
	TargetLanguage string             `json:"target_language,omitempty"`
	RequestID      string             `json:"request_id,omitempty"`
	PK             string             `json:"pk,omitempty"`
	SK             string             `json:"sk,omitempty"`
	MediaRef       string             `json:"media_ref,omitempty"`
}

// Address returns the stored address tokens, if any.
func (n Notification) Address() StorageAddress {
	return StorageAddress{PK: n.PK, SK: n.SK, MediaRef: n.MediaRef}
}

// NotificationKey derives the canonical ledger id for a request. It is a
// pure function of the normalized word and language identifiers, so a
// repeated request for the same word dedupes into one entry and the key
// survives reload and reconnect (a server request id does not).
func NotificationKey(sourceWord, sourceLang, targetLang string) string {
	return NormalizeWord(sourceWord) + ":" + LanguageCode(sourceLang) + ":" + LanguageCode(targetLang)
}
