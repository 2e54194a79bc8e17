package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"topikai/internal/core"
)

// DefaultTranscodeThreshold is the audio size above which transcoding
// kicks in (20 MB).
const DefaultTranscodeThreshold = 20 << 20

// Speech-optimized output profile: mono, 16 kHz, ~32 kbps. Enough for
// transcription while keeping payloads well under the model's limit.
var transcodeArgs = []string{
	"-ac", "1",
	"-ar", "16000",
	"-b:a", "32k",
}

var mimeExtensions = map[string]string{
	"audio/mpeg": ".mp3",
	"audio/mp4":  ".m4a",
	"audio/aac":  ".aac",
	"audio/wav":  ".wav",
	"audio/ogg":  ".ogg",
	"audio/opus": ".opus",
	"audio/flac": ".flac",
	"audio/webm": ".weba",
}

// TranscoderConfig tunes the conditional transcoder. Zero values select
// the defaults ("ffmpeg" from PATH, 20 MB threshold).
type TranscoderConfig struct {
	FFmpegPath string
	Threshold  int64
}

// Transcoder shrinks oversized audio buffers through ffmpeg. Buffers at
// or under the threshold pass through untouched.
type Transcoder struct {
	ffmpegPath string
	threshold  int64
}

// NewTranscoder resolves the ffmpeg binary. A missing binary is only a
// warning here; text and image requests must keep working without it.
func NewTranscoder(cfg TranscoderConfig) *Transcoder {
	path := cfg.FFmpegPath
	if path == "" {
		path = "ffmpeg"
	}
	if resolved, err := exec.LookPath(path); err == nil {
		path = resolved
	} else {
		slog.Warn("ffmpeg not found, audio transcoding unavailable", "path", path)
	}

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultTranscodeThreshold
	}

	return &Transcoder{ffmpegPath: path, threshold: threshold}
}

// Threshold returns the configured transcode trigger size in bytes.
func (t *Transcoder) Threshold() int64 {
	return t.threshold
}

// Process returns buf unchanged when it fits under the threshold,
// otherwise a new transcoded buffer. A failed transcode is fatal for the
// request; an oversized buffer is never passed through silently.
func (t *Transcoder) Process(ctx context.Context, buf *Buffer) (*Buffer, error) {
	if buf.Size() <= t.threshold {
		return buf, nil
	}
	return t.transcode(ctx, buf)
}

func (t *Transcoder) transcode(ctx context.Context, buf *Buffer) (*Buffer, error) {
	ctx, cancel := context.WithTimeout(ctx, transcodeTimeout(buf.Size()))
	defer cancel()

	// One temp dir holds both files; the deferred removal covers every
	// exit path, including timeouts.
	dir, err := os.MkdirTemp("", "transcode-*")
	if err != nil {
		return nil, core.NewTranscodeError("failed to create temp dir", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	ext := mimeExtensions[buf.MIMEType]
	if ext == "" {
		ext = ".mp3"
	}
	inPath := filepath.Join(dir, "input"+ext)
	outPath := filepath.Join(dir, "output.mp3")

	if err := os.WriteFile(inPath, buf.Data, 0o600); err != nil {
		return nil, core.NewTranscodeError("failed to write temp input", err)
	}

	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", inPath}
	args = append(args, transcodeArgs...)
	args = append(args, outPath)

	cmd := exec.CommandContext(ctx, t.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, core.NewTranscodeError(fmt.Sprintf("transcode timed out after %s", time.Since(start).Round(time.Second)), err)
		}
		return nil, core.NewTranscodeError(fmt.Sprintf("ffmpeg failed: %s", tail(stderr.String(), 500)), err)
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		return nil, core.NewTranscodeError("ffmpeg produced no output", err)
	}

	slog.Info("audio transcoded",
		"url", buf.SourceURL,
		"from", humanize.Bytes(uint64(buf.Size())),
		"to", humanize.Bytes(uint64(len(out))),
		"took", time.Since(start).Round(time.Millisecond),
	)

	return &Buffer{Data: out, MIMEType: "audio/mpeg", SourceURL: buf.SourceURL}, nil
}

// transcodeTimeout scales with input size: 30s base plus 2s per MiB.
func transcodeTimeout(size int64) time.Duration {
	return 30*time.Second + time.Duration(size>>20)*2*time.Second
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
