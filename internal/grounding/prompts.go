package grounding

import "fmt"

const rolePreamble = "Anda adalah asisten AI yang membantu membuat rekomendasi silabus pelatihan digital berdasarkan SKKNI."

const groundedTemplate = `%s

Gunakan data berikut sebagai dasar jawaban Anda:

%s
Pertanyaan: %s

Berikan jawaban terstruktur yang mencakup:
1. Unit kompetensi yang dapat diterapkan
2. Alternatif tools dan teknologi yang relevan
3. Gap konten dibandingkan materi mitra yang sudah ada
4. Sudut diferensiasi untuk materi pelatihan baru`

// Compose wraps the question in the grounded-advisor instruction when
// context is non-empty; with no context the prompt is the bare question.
func Compose(question, context string) string {
	if context == "" {
		return question
	}
	return fmt.Sprintf(groundedTemplate, rolePreamble, context, question)
}
