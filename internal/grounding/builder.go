// Package grounding assembles the bounded context text that anchors
// outbound prompts to uploaded SKKNI records and reference documents.
package grounding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/petakom/petakom/internal/ingest"
	"github.com/petakom/petakom/internal/skkni"
)

// docSnippetLimit caps how much of each document reaches the prompt, so a
// large upload cannot grow the outbound request without bound.
const docSnippetLimit = 2000

const truncationMarker = "\n[konten dipotong]"

// Build renders records and documents into grounding text. Both inputs
// empty yields "" — the caller sends the bare question, it is not an
// error. Deterministic for identical inputs.
func Build(records []skkni.Record, docs []ingest.Document) string {
	var b strings.Builder

	if len(records) > 0 {
		b.WriteString("Data SKKNI:\n")
		for _, r := range records {
			b.WriteString(recordLine(r))
			b.WriteByte('\n')
		}
	}

	if len(docs) > 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("Dokumen Referensi:\n")
		for _, d := range docs {
			fmt.Fprintf(&b, "=== %s ===\n", d.Filename)
			b.WriteString(snippet(d.Content))
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// recordLine summarizes one record's salient fields in a fixed order.
func recordLine(r skkni.Record) string {
	return fmt.Sprintf("Okupasi: %s, Level: %s, Kode UK: %s, Judul UK: %s, Elemen: %s, KUK: %s, Aspek Kritis: %s",
		r.Occupation, r.Level, r.UnitCode, r.UnitTitle, r.ElementTitle, r.CriterionTitle, r.CriticalAspect)
}

func snippet(content string) string {
	if len(content) <= docSnippetLimit {
		return content
	}
	cut := content[:docSnippetLimit]
	// Do not cut a UTF-8 rune in half at the boundary. Bounded so garbled
	// best-effort content is not trimmed away entirely.
	for i := 0; i < utf8.UTFMax-1 && len(cut) > 0; i++ {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut + truncationMarker
}
