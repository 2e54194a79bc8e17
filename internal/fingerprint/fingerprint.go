// Package fingerprint derives stable cache keys from pipeline requests.
//
// A key is the SHA-256 digest of a canonical byte string built from the
// request kind, language tag, media locator, and ordered text fields. Equal
// logical inputs always map to the same key; changing any field (including
// the language) changes the key.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"topikai/internal/core"
)

// Digest hashes the canonical representation of a request. Pure function,
// no I/O. An absent media locator and an empty one are equivalent.
func Digest(kind core.RequestKind, fields []string, language, mediaRef string) string {
	var buf bytes.Buffer
	segment := func(s string) {
		// Length-prefixed segments keep ["ab","c"] and ["a","bc"] distinct.
		buf.WriteString(strconv.Itoa(len(s)))
		buf.WriteByte(':')
		buf.WriteString(s)
		buf.WriteByte('|')
	}

	segment(string(kind))
	segment(strings.ToLower(strings.TrimSpace(language)))
	segment(strings.TrimSpace(mediaRef))
	for _, f := range fields {
		segment(strings.TrimSpace(f))
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:])
}

// Question builds the cache key for an exam-question analysis request.
// Every request field participates: two questions differing only in the
// marked correct answer must not share an analysis.
func Question(req core.QuestionRequest) string {
	fields := make([]string, 0, len(req.Options)+3)
	fields = append(fields, req.Question, req.Type, strconv.Itoa(req.CorrectAnswerIndex))
	fields = append(fields, req.Options...)
	return Digest(core.KindQuestion, fields, req.Language, req.ImageURL)
}

// Sentence builds the cache key for a sentence analysis request.
func Sentence(req core.SentenceRequest) string {
	return Digest(core.KindSentence, []string{req.Sentence, req.Context}, req.Language, "")
}
