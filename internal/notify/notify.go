// Package notify is the out-of-band notification channel: ingestion and
// conversation errors surface here instead of failing requests outright.
package notify

import (
	"sync"
	"time"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Well-known notification codes.
const (
	CodeParseError        = "parse_error"
	CodeFileReadError     = "file_read_error"
	CodeIngestCaveat      = "ingest_caveat"
	CodeCredentialMissing = "credential_missing"
	CodeAPIError          = "api_error"
	CodeRecordsLoaded     = "records_loaded"
	CodeChatCompleted     = "chat_completed"
	CodeSessionReset      = "session_reset"
)

type Notification struct {
	Level   Level     `json:"level"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type Notifier interface {
	Notify(Notification)
}

// Feed is a bounded in-memory notification ring queryable over the API.
type Feed struct {
	mu    sync.Mutex
	items []Notification
	limit int
}

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 100
	}
	return &Feed{limit: limit}
}

func (f *Feed) Notify(n Notification) {
	if n.Time.IsZero() {
		n.Time = time.Now().UTC()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	if len(f.items) > f.limit {
		f.items = f.items[len(f.items)-f.limit:]
	}
}

// List returns a snapshot, oldest first.
func (f *Feed) List() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}

type multi []Notifier

func (m multi) Notify(n Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}

// Multi fans one notification out to several notifiers.
func Multi(notifiers ...Notifier) Notifier {
	return multi(notifiers)
}
