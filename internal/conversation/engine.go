// Package conversation owns the session context: uploaded records, the
// reference-document collection, the transcript, and the single in-flight
// generation request.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/petakom/petakom/internal/grounding"
	"github.com/petakom/petakom/internal/ingest"
	"github.com/petakom/petakom/internal/notify"
	"github.com/petakom/petakom/internal/skkni"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one transcript message. Turns are append-only and ordered by
// creation; a failed exchange leaves a user turn with no assistant turn.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Generator is the remote text-generation boundary.
type Generator interface {
	Generate(ctx context.Context, prompt, apiKey string) (string, error)
}

// CredentialSource is the read side of the credential store.
type CredentialSource interface {
	Get() (string, bool)
}

var (
	// ErrBusy rejects a submission while a request is already in flight.
	// The transcript is untouched; the caller simply asks again later.
	ErrBusy = errors.New("a request is already in flight")
	// ErrEmptyQuestion rejects blank submissions as a no-op.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrNoCredential means no generation-service key is configured. The
	// remote service is never contacted.
	ErrNoCredential = errors.New("no generation credential configured")
)

type Engine struct {
	gen      Generator
	creds    CredentialSource
	notifier notify.Notifier
	logger   *slog.Logger

	mu       sync.Mutex
	records  []skkni.Record
	docs     *ingest.Store
	turns    []Turn
	inFlight bool
}

func New(gen Generator, creds CredentialSource, notifier notify.Notifier, logger *slog.Logger) *Engine {
	return &Engine{
		gen:      gen,
		creds:    creds,
		notifier: notifier,
		logger:   logger,
		docs:     ingest.NewStore(),
	}
}

// Submit runs one exchange: the user turn is appended synchronously, then
// the grounded prompt is sent to the generation service. On success an
// assistant turn is appended; on failure the user turn dangles and the
// error is also raised on the notification channel. The engine always
// returns to idle.
func (e *Engine) Submit(ctx context.Context, question string) error {
	q := strings.TrimSpace(question)
	if q == "" {
		return ErrEmptyQuestion
	}

	e.mu.Lock()
	if e.inFlight {
		e.mu.Unlock()
		return ErrBusy
	}

	e.turns = append(e.turns, Turn{Role: RoleUser, Content: q, Timestamp: time.Now().UTC()})

	key, ok := e.creds.Get()
	if !ok {
		e.mu.Unlock()
		e.notifier.Notify(notify.Notification{
			Level:   notify.LevelError,
			Code:    notify.CodeCredentialMissing,
			Message: "hubungkan API key Gemini terlebih dahulu",
		})
		return ErrNoCredential
	}

	records := e.records
	docs := e.docs.List()
	e.inFlight = true
	e.mu.Unlock()

	contextText := grounding.Build(records, docs)
	prompt := grounding.Compose(q, contextText)

	e.logger.Info("sending grounded prompt",
		"records", len(records),
		"documents", len(docs),
		"prompt_len", len(prompt),
	)

	answer, err := e.gen.Generate(ctx, prompt, key)

	e.mu.Lock()
	e.inFlight = false
	if err != nil {
		e.mu.Unlock()
		e.logger.Error("generation failed", "error", err)
		e.notifier.Notify(notify.Notification{
			Level:   notify.LevelError,
			Code:    notify.CodeAPIError,
			Message: "gagal mendapatkan respons dari layanan AI",
		})
		return fmt.Errorf("generate: %w", err)
	}
	e.turns = append(e.turns, Turn{Role: RoleAssistant, Content: answer, Timestamp: time.Now().UTC()})
	e.mu.Unlock()

	e.notifier.Notify(notify.Notification{
		Level:   notify.LevelInfo,
		Code:    notify.CodeChatCompleted,
		Message: "respons diterima",
	})
	return nil
}

// Transcript returns an ordered snapshot of the visible conversation.
func (e *Engine) Transcript() []Turn {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Turn, len(e.turns))
	copy(out, e.turns)
	return out
}

// Busy reports whether a generation request is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inFlight
}

// SetRecords replaces the session's record set; a new upload supersedes
// the previous one.
func (e *Engine) SetRecords(records []skkni.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = records
}

// Records returns the current record snapshot.
func (e *Engine) Records() []skkni.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]skkni.Record, len(e.records))
	copy(out, e.records)
	return out
}

// AddDocuments publishes an ingested batch atomically.
func (e *Engine) AddDocuments(docs []ingest.Document) {
	e.docs.Add(docs)
}

// RemoveDocument removes by id; unknown ids are a no-op.
func (e *Engine) RemoveDocument(id string) {
	e.docs.Remove(id)
}

// Documents lists the session's reference documents.
func (e *Engine) Documents() []ingest.Document {
	return e.docs.List()
}

// Reset clears the transcript, records, and documents, returning the
// session to its initial state. An in-flight request keeps running; its
// outcome lands in the fresh transcript.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.turns = nil
	e.records = nil
	e.mu.Unlock()
	e.docs.Clear()

	e.notifier.Notify(notify.Notification{
		Level:   notify.LevelInfo,
		Code:    notify.CodeSessionReset,
		Message: "sesi direset",
	})
}
