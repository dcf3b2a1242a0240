package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/petakom/petakom/internal/conversation"
	"github.com/petakom/petakom/internal/gemini"
	"github.com/petakom/petakom/internal/ingest"
	"github.com/petakom/petakom/internal/notify"
	"github.com/petakom/petakom/internal/skkni"
)

const maxUploadBytes = 32 << 20

// fileStatus reports the per-file outcome of an upload batch.
type fileStatus struct {
	Filename string `json:"filename"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) uploadSKKNI(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_multipart", "invalid multipart body")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no_files", "no files in upload")
		return
	}

	var sources []skkni.Source
	var statuses []fileStatus
	for _, hdr := range files {
		if !isCSV(hdr.Filename, hdr.Header.Get("Content-Type")) {
			s.notifier.Notify(notify.Notification{
				Level:   notify.LevelError,
				Code:    notify.CodeParseError,
				Message: fmt.Sprintf("%s bukan file CSV", hdr.Filename),
			})
			statuses = append(statuses, fileStatus{Filename: hdr.Filename, Error: "not a CSV file"})
			continue
		}
		f, err := hdr.Open()
		if err != nil {
			statuses = append(statuses, fileStatus{Filename: hdr.Filename, Error: err.Error()})
			continue
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			statuses = append(statuses, fileStatus{Filename: hdr.Filename, Error: err.Error()})
			continue
		}
		sources = append(sources, skkni.Source{Name: hdr.Filename, Text: string(data)})
	}

	if len(sources) == 0 {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]any{
			"error":   "no_valid_csv",
			"message": "pilih file CSV yang valid",
			"files":   statuses,
		})
		return
	}

	records, failed := skkni.ParseAll(sources)
	for _, f := range failed {
		s.notifier.Notify(notify.Notification{
			Level:   notify.LevelError,
			Code:    notify.CodeParseError,
			Message: fmt.Sprintf("gagal memproses %s: %v", f.Name, f.Err),
		})
		statuses = append(statuses, fileStatus{Filename: f.Name, Error: f.Err.Error()})
	}

	// Supersede the previous upload only when at least one file parsed.
	if len(failed) < len(sources) {
		s.engine.SetRecords(records)
		s.notifier.Notify(notify.Notification{
			Level:   notify.LevelInfo,
			Code:    notify.CodeRecordsLoaded,
			Message: fmt.Sprintf("%d baris data SKKNI dimuat", len(records)),
		})
	}

	for _, src := range sources {
		ok := true
		for _, f := range failed {
			if f.Name == src.Name {
				ok = false
				break
			}
		}
		if ok {
			statuses = append(statuses, fileStatus{Filename: src.Name})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rows":  len(records),
		"files": statuses,
	})
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	records := s.engine.Records()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

// errReader carries a multipart open failure into the ingest batch so it
// surfaces as that file's FileReadError.
type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func (s *Server) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_multipart", "invalid multipart body")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no_files", "no files in upload")
		return
	}

	var raw []ingest.RawFile
	for _, hdr := range files {
		f, err := hdr.Open()
		if err != nil {
			raw = append(raw, ingest.RawFile{Filename: hdr.Filename, Reader: errReader{err}})
			continue
		}
		defer f.Close()
		raw = append(raw, ingest.RawFile{Filename: hdr.Filename, Reader: f})
	}

	results := ingest.Ingest(raw)

	var docs []ingest.Document
	var statuses []fileStatus
	for _, res := range results {
		if res.Err != nil {
			var ferr *ingest.FileReadError
			name := ""
			if errors.As(res.Err, &ferr) {
				name = ferr.Filename
			}
			s.notifier.Notify(notify.Notification{
				Level:   notify.LevelError,
				Code:    notify.CodeFileReadError,
				Message: fmt.Sprintf("gagal membaca %s", name),
			})
			statuses = append(statuses, fileStatus{Filename: name, Error: res.Err.Error()})
			continue
		}
		if res.Doc.Lossy {
			s.notifier.Notify(notify.Notification{
				Level:   notify.LevelWarn,
				Code:    notify.CodeIngestCaveat,
				Message: fmt.Sprintf("%s bukan file teks; konten dibaca apa adanya", res.Doc.Filename),
			})
		}
		docs = append(docs, *res.Doc)
		statuses = append(statuses, fileStatus{Filename: res.Doc.Filename})
	}

	// The whole batch is published at once.
	s.engine.AddDocuments(docs)

	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"files":     statuses,
	})
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.engine.Documents()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(docs),
		"documents": docs,
	})
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	// Unknown ids are a no-op, so deletion is idempotent.
	s.engine.RemoveDocument(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	// Once sent, a generation request runs to completion; a dropped client
	// connection must not cancel it mid-flight.
	err := s.engine.Submit(context.WithoutCancel(r.Context()), req.Message)
	switch {
	case errors.Is(err, conversation.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, "empty_question", "pertanyaan tidak boleh kosong")
		return
	case errors.Is(err, conversation.ErrBusy):
		writeError(w, http.StatusConflict, "busy", "permintaan sebelumnya masih diproses")
		return
	case errors.Is(err, conversation.ErrNoCredential):
		writeError(w, http.StatusPreconditionFailed, "credential_missing", "hubungkan API key Gemini terlebih dahulu")
		return
	case err != nil:
		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":           "api_error",
				"message":         "layanan AI menolak permintaan",
				"upstream_status": apiErr.StatusCode,
			})
			return
		}
		writeError(w, http.StatusBadGateway, "api_error", "layanan AI tidak dapat dihubungi")
		return
	}

	turns := s.engine.Transcript()
	reply := ""
	if len(turns) > 0 {
		reply = turns[len(turns)-1].Content
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) transcript(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"turns": s.engine.Transcript()})
}

func (s *Server) resetChat(w http.ResponseWriter, r *http.Request) {
	s.engine.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) putCredential(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if err := s.creds.Set(req.APIKey); err != nil {
		writeError(w, http.StatusBadRequest, "bad_credential", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) credentialStatus(w http.ResponseWriter, r *http.Request) {
	_, configured := s.creds.Get()
	writeJSON(w, http.StatusOK, map[string]bool{"configured": configured})
}

func (s *Server) deleteCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.creds.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, "clear_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) verifyCredential(w http.ResponseWriter, r *http.Request) {
	key, ok := s.creds.Get()
	if !ok {
		writeError(w, http.StatusPreconditionFailed, "credential_missing", "tidak ada API key yang tersimpan")
		return
	}
	if err := s.llm.Verify(r.Context(), key); err != nil {
		var apiErr *gemini.APIError
		if errors.As(err, &apiErr) {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"status":          "failed",
				"upstream_status": apiErr.StatusCode,
			})
			return
		}
		writeError(w, http.StatusBadGateway, "verify_failed", "koneksi ke layanan AI gagal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

func isCSV(filename, contentType string) bool {
	if strings.HasPrefix(contentType, "text/csv") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(filename), ".csv")
}
