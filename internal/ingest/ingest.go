// Package ingest reads uploaded reference files into in-memory documents
// for grounding. Files are read as text regardless of declared media type;
// binary content yields best-effort text flagged as lossy rather than an
// error.
package ingest

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Document is one ingested reference file, immutable after creation.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	Content    string    `json:"-"`
	Lossy      bool      `json:"lossy"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// RawFile is one file in an upload batch.
type RawFile struct {
	Filename string
	Reader   io.Reader
}

// FileReadError reports a single file that could not be read. The rest of
// the batch is unaffected.
type FileReadError struct {
	Filename string
	Err      error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Filename, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// Result tags the outcome for one file in a batch: exactly one of Doc or
// Err is set.
type Result struct {
	Doc *Document
	Err error
}

// Ingest reads every file in the batch, returning one Result per input in
// order. A read failure on one file does not cancel the others.
func Ingest(files []RawFile) []Result {
	results := make([]Result, 0, len(files))
	for _, f := range files {
		content, err := io.ReadAll(f.Reader)
		if err != nil {
			results = append(results, Result{Err: &FileReadError{Filename: f.Filename, Err: err}})
			continue
		}
		results = append(results, Result{Doc: &Document{
			ID:         newID(),
			Filename:   f.Filename,
			Size:       int64(len(content)),
			Content:    string(content),
			Lossy:      !utf8.Valid(content),
			UploadedAt: time.Now().UTC(),
		}})
	}
	return results
}

// newID is time-based with a random suffix; uniqueness within a session is
// the only requirement.
func newID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
