package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/petakom/petakom/internal/ingest"
	"github.com/petakom/petakom/internal/notify"
	"github.com/petakom/petakom/internal/skkni"
)

type fakeCreds struct {
	key string
}

func (f fakeCreds) Get() (string, bool) { return f.key, f.key != "" }

type fakeGen struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
	block   chan struct{} // when set, Generate waits until closed
	started chan struct{} // closed when Generate is entered
}

func (g *fakeGen) Generate(ctx context.Context, prompt, apiKey string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.started != nil {
		close(g.started)
		g.started = nil
	}
	if g.block != nil {
		<-g.block
	}
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func (g *fakeGen) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func newTestEngine(gen *fakeGen, creds CredentialSource) (*Engine, *notify.Feed) {
	feed := notify.NewFeed(50)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(gen, creds, feed, logger), feed
}

func TestSubmit_SuccessAppendsBothTurns(t *testing.T) {
	gen := &fakeGen{reply: "silabus yang disarankan"}
	e, _ := newTestEngine(gen, fakeCreds{key: "k"})

	if err := e.Submit(context.Background(), "Buatkan silabus QA"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	turns := e.Transcript()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "Buatkan silabus QA" {
		t.Errorf("turn[0] = %+v", turns[0])
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != "silabus yang disarankan" {
		t.Errorf("turn[1] = %+v", turns[1])
	}
	if turns[1].Timestamp.Before(turns[0].Timestamp) {
		t.Error("turns must be ordered by creation")
	}
	if e.Busy() {
		t.Error("engine must return to idle")
	}
}

func TestSubmit_EmptyQuestionIsNoOp(t *testing.T) {
	gen := &fakeGen{reply: "x"}
	e, _ := newTestEngine(gen, fakeCreds{key: "k"})

	if err := e.Submit(context.Background(), "   \n"); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("expected ErrEmptyQuestion, got %v", err)
	}
	if len(e.Transcript()) != 0 {
		t.Error("empty submission must not touch the transcript")
	}
	if gen.lastPrompt() != "" {
		t.Error("remote service must not be contacted")
	}
}

func TestSubmit_MissingCredentialAbortsBeforeNetwork(t *testing.T) {
	gen := &fakeGen{reply: "x"}
	e, feed := newTestEngine(gen, fakeCreds{})

	err := e.Submit(context.Background(), "halo")
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	if gen.lastPrompt() != "" {
		t.Error("remote service must not be contacted without a credential")
	}
	// The user turn is already visible; only the answer is missing.
	if len(e.Transcript()) != 1 {
		t.Errorf("expected dangling user turn, got %d turns", len(e.Transcript()))
	}
	if e.Busy() {
		t.Error("engine must stay idle")
	}

	items := feed.List()
	if len(items) != 1 || items[0].Code != notify.CodeCredentialMissing {
		t.Errorf("expected credential_missing notification, got %+v", items)
	}
}

func TestSubmit_FailureLeavesDanglingUserTurnAndRecovers(t *testing.T) {
	gen := &fakeGen{err: errors.New("api error 500")}
	e, feed := newTestEngine(gen, fakeCreds{key: "k"})

	if err := e.Submit(context.Background(), "pertanyaan satu"); err == nil {
		t.Fatal("expected error")
	}

	turns := e.Transcript()
	if len(turns) != 1 || turns[0].Role != RoleUser {
		t.Fatalf("expected exactly the user turn, got %+v", turns)
	}
	found := false
	for _, n := range feed.List() {
		if n.Code == notify.CodeAPIError {
			found = true
		}
	}
	if !found {
		t.Error("expected api_error notification")
	}

	// Engine is idle again: a retry is accepted.
	gen.err = nil
	gen.reply = "jawaban"
	if err := e.Submit(context.Background(), "pertanyaan dua"); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	turns = e.Transcript()
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns after retry, got %d", len(turns))
	}
	users, assistants := 0, 0
	for _, turn := range turns {
		switch turn.Role {
		case RoleUser:
			users++
		case RoleAssistant:
			assistants++
		}
	}
	if users != assistants+1 {
		t.Errorf("expected one more user turn than assistant, got %d/%d", users, assistants)
	}
}

func TestSubmit_RejectedWhileInFlight(t *testing.T) {
	gen := &fakeGen{
		reply:   "jawaban",
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	started := gen.started
	e, _ := newTestEngine(gen, fakeCreds{key: "k"})

	done := make(chan error, 1)
	go func() {
		done <- e.Submit(context.Background(), "pertama")
	}()
	<-started

	before := len(e.Transcript())
	if err := e.Submit(context.Background(), "kedua"); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if got := len(e.Transcript()); got != before {
		t.Errorf("second submission must not change the transcript: %d -> %d", before, got)
	}

	close(gen.block)
	if err := <-done; err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if len(e.Transcript()) != 2 {
		t.Errorf("expected 2 turns, got %d", len(e.Transcript()))
	}
}

func TestSubmit_GroundsPromptInRecordsAndDocuments(t *testing.T) {
	gen := &fakeGen{reply: "ok"}
	e, _ := newTestEngine(gen, fakeCreds{key: "k"})

	e.SetRecords([]skkni.Record{{UnitCode: "J.620100.001.01", Occupation: "QA Engineer"}})
	e.AddDocuments([]ingest.Document{{ID: "d1", Filename: "silabus-mitra.txt", Content: "python dasar"}})

	if err := e.Submit(context.Background(), "apa rekomendasinya?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := gen.lastPrompt()
	for _, want := range []string{"J.620100.001.01", "silabus-mitra.txt", "apa rekomendasinya?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestSubmit_BarePromptWithoutContext(t *testing.T) {
	gen := &fakeGen{reply: "ok"}
	e, _ := newTestEngine(gen, fakeCreds{key: "k"})

	if err := e.Submit(context.Background(), "halo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.lastPrompt() != "halo" {
		t.Errorf("empty context must send the bare question, got %q", gen.lastPrompt())
	}
}

func TestSetRecords_Supersedes(t *testing.T) {
	gen := &fakeGen{reply: "ok"}
	e, _ := newTestEngine(gen, fakeCreds{key: "k"})

	e.SetRecords([]skkni.Record{{UnitCode: "OLD"}})
	e.SetRecords([]skkni.Record{{UnitCode: "NEW.1"}, {UnitCode: "NEW.2"}})

	records := e.Records()
	if len(records) != 2 || records[0].UnitCode != "NEW.1" {
		t.Errorf("expected new upload to supersede, got %+v", records)
	}
}

func TestReset_ClearsSessionState(t *testing.T) {
	gen := &fakeGen{reply: "ok"}
	e, _ := newTestEngine(gen, fakeCreds{key: "k"})

	e.SetRecords([]skkni.Record{{UnitCode: "J.1"}})
	e.AddDocuments([]ingest.Document{{ID: "d1", Filename: "a.txt"}})
	if err := e.Submit(context.Background(), "halo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e.Reset()

	if len(e.Transcript()) != 0 || len(e.Records()) != 0 || len(e.Documents()) != 0 {
		t.Error("reset must clear transcript, records, and documents")
	}

	// The session stays usable after reset.
	if err := e.Submit(context.Background(), "lagi"); err != nil {
		t.Fatalf("submission after reset should work: %v", err)
	}
}

func TestRemoveDocument_UnknownIDIsNoOp(t *testing.T) {
	gen := &fakeGen{reply: "ok"}
	e, _ := newTestEngine(gen, fakeCreds{key: "k"})
	e.AddDocuments([]ingest.Document{{ID: "d1"}})
	e.RemoveDocument("missing")
	if len(e.Documents()) != 1 {
		t.Error("removing an unknown id must leave the collection unchanged")
	}
}
