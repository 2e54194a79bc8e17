package gemini

import (
	"fmt"
	"strings"

	"topikai/internal/core"
)

// languageNames maps the language tags the app serves to English names
// for use inside prompts. Unknown tags are passed through verbatim.
var languageNames = map[string]string{
	"en": "English",
	"zh": "Chinese (Simplified)",
	"ja": "Japanese",
	"ko": "Korean",
	"es": "Spanish",
	"vi": "Vietnamese",
	"ru": "Russian",
}

func languageName(tag string) string {
	if name, ok := languageNames[strings.ToLower(tag)]; ok {
		return name
	}
	return tag
}

func questionPrompt(req core.QuestionRequest, hasImage bool) string {
	var b strings.Builder

	b.WriteString("You are a Korean language exam tutor. Analyze the following TOPIK exam question.\n\n")
	if hasImage {
		b.WriteString("An image belonging to the question is attached. Take its contents into account.\n\n")
	}
	if req.Type != "" {
		fmt.Fprintf(&b, "Question type: %s\n", req.Type)
	}
	fmt.Fprintf(&b, "Question:\n%s\n\nOptions:\n", req.Question)
	for i, opt := range req.Options {
		fmt.Fprintf(&b, "%d. %s\n", i, opt)
	}
	fmt.Fprintf(&b, "\nThe correct answer is option %d.\n\n", req.CorrectAnswerIndex)

	lang := languageName(req.Language)
	fmt.Fprintf(&b, `Respond with a single JSON object and nothing else, using exactly these keys:
{
  "translation": "the question translated into %[1]s",
  "keyPoint": "the key grammar or vocabulary point being tested, in %[1]s",
  "analysis": "why the correct answer is right, in %[1]s",
  "wrongOptions": { "<option number>": "why this option is wrong, in %[1]s", ... }
}
Include every incorrect option number as a key of wrongOptions. All explanatory text must be written in %[1]s.`, lang)

	return b.String()
}

func sentencePrompt(req core.SentenceRequest) string {
	var b strings.Builder

	b.WriteString("You are a Korean language tutor. Break down the following Korean sentence for a learner.\n\n")
	fmt.Fprintf(&b, "Sentence:\n%s\n", req.Sentence)
	if req.Context != "" {
		fmt.Fprintf(&b, "\nContext in which it appeared:\n%s\n", req.Context)
	}

	lang := languageName(req.Language)
	fmt.Fprintf(&b, `
Respond with a single JSON object and nothing else, using exactly these keys:
{
  "vocabulary": [ { "word": "...", "root": "dictionary form", "meaning": "meaning in %[1]s", "partOfSpeech": "part of speech in %[1]s" } ],
  "grammar": [ { "structure": "...", "explanation": "explanation in %[1]s" } ],
  "nuance": "overall nuance and register of the sentence, in %[1]s"
}
List every content word in vocabulary and every grammar pattern in grammar. All explanatory text must be written in %[1]s.`, lang)

	return b.String()
}

func transcriptPrompt(language string) string {
	lang := languageName(language)
	return fmt.Sprintf(`You are a professional Korean transcriber. The attached audio is a Korean language-learning podcast episode. Transcribe it completely with time alignment.

Respond with a single JSON object and nothing else, using exactly these keys:
{
  "segments": [ { "startSeconds": 0.0, "endSeconds": 0.0, "text": "Korean transcription", "translation": "translation into %[1]s" } ],
  "language": "ko",
  "durationSeconds": 0.0
}
Segments must cover the audio in order: sorted by startSeconds, non-overlapping, each no longer than one sentence or breath group. All translations must be written in %[1]s.`, lang)
}
