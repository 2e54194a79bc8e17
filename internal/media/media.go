// Package media downloads remote media files and conditionally transcodes
// audio ahead of a multimodal model call.
package media

import (
	"net/url"
	"path"
	"strings"
)

// Kind distinguishes the two media families the pipeline ingests.
type Kind string

const (
	KindAudio Kind = "audio"
	KindImage Kind = "image"
)

// Buffer is a transient in-memory media payload. It lives only for the
// duration of one ingestion/invoke cycle and is never persisted.
type Buffer struct {
	Data      []byte
	MIMEType  string
	SourceURL string
}

// Size returns the payload size in bytes.
func (b *Buffer) Size() int64 {
	return int64(len(b.Data))
}

var audioMIMETypes = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".weba": "audio/webm",
}

var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// MIMEFromURL infers the MIME type from the URL's file extension. Unknown
// or missing extensions fall back to audio/mpeg for audio and image/png
// for images.
func MIMEFromURL(rawURL string, kind Kind) string {
	table := audioMIMETypes
	fallback := "audio/mpeg"
	if kind == KindImage {
		table = imageMIMETypes
		fallback = "image/png"
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fallback
	}
	if mime, ok := table[strings.ToLower(path.Ext(u.Path))]; ok {
		return mime
	}
	return fallback
}
