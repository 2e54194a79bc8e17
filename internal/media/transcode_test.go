package media

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"topikai/internal/core"
)

// writeStubFFmpeg creates a shell script standing in for ffmpeg. It logs
// its arguments and writes out to the last argument (the output path).
func writeStubFFmpeg(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub ffmpeg script requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "ffmpeg-stub")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestProcess_PassThroughUnderThreshold(t *testing.T) {
	tr := NewTranscoder(TranscoderConfig{FFmpegPath: "/nonexistent/ffmpeg", Threshold: 100})

	buf := &Buffer{Data: make([]byte, 100), MIMEType: "audio/mpeg", SourceURL: "https://cdn.example.com/a.mp3"}
	out, err := tr.Process(context.Background(), buf)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if out != buf {
		t.Error("buffer at the threshold should pass through unchanged")
	}
	if !bytes.Equal(out.Data, buf.Data) {
		t.Error("pass-through must be byte-identical")
	}
}

func TestProcess_OneByteOverTriggersTranscode(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	stub := writeStubFFmpeg(t, `
echo "$@" > `+argsFile+`
for last; do :; done
printf 'tiny-audio' > "$last"
`)

	tr := NewTranscoder(TranscoderConfig{FFmpegPath: stub, Threshold: 100})

	buf := &Buffer{Data: make([]byte, 101), MIMEType: "audio/mp4", SourceURL: "https://cdn.example.com/a.m4a"}
	out, err := tr.Process(context.Background(), buf)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	if out == buf {
		t.Fatal("oversized buffer should be replaced, not passed through")
	}
	if string(out.Data) != "tiny-audio" {
		t.Errorf("Data = %q, want stub output", out.Data)
	}
	if out.Size() >= buf.Size() {
		t.Errorf("transcoded size %d should be smaller than input %d", out.Size(), buf.Size())
	}
	if out.MIMEType != "audio/mpeg" {
		t.Errorf("MIMEType = %q, want audio/mpeg", out.MIMEType)
	}

	args, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"-ac 1", "-ar 16000", "-b:a 32k", "input.m4a"} {
		if !strings.Contains(string(args), want) {
			t.Errorf("ffmpeg args missing %q: %s", want, args)
		}
	}
}

func TestProcess_FFmpegFailureIsFatal(t *testing.T) {
	stub := writeStubFFmpeg(t, `
echo "input looks corrupt" >&2
exit 1
`)

	tr := NewTranscoder(TranscoderConfig{FFmpegPath: stub, Threshold: 10})

	_, err := tr.Process(context.Background(), &Buffer{Data: make([]byte, 11), MIMEType: "audio/mpeg"})
	if core.TypeOf(err) != core.ErrorTypeTranscode {
		t.Fatalf("error type = %v, want %v", core.TypeOf(err), core.ErrorTypeTranscode)
	}
	if !strings.Contains(err.Error(), "ffmpeg failed") {
		t.Errorf("error should carry ffmpeg context, got %v", err)
	}
}

func TestProcess_TempFilesRemoved(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)

	stub := writeStubFFmpeg(t, `
for last; do :; done
printf 'ok' > "$last"
`)
	tr := NewTranscoder(TranscoderConfig{FFmpegPath: stub, Threshold: 10})

	// Success path.
	if _, err := tr.Process(context.Background(), &Buffer{Data: make([]byte, 11), MIMEType: "audio/mpeg"}); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	assertNoTranscodeDirs(t, tmp)

	// Failure path.
	failing := writeStubFFmpeg(t, "exit 1\n")
	tr = NewTranscoder(TranscoderConfig{FFmpegPath: failing, Threshold: 10})
	if _, err := tr.Process(context.Background(), &Buffer{Data: make([]byte, 11), MIMEType: "audio/mpeg"}); err == nil {
		t.Fatal("expected transcode failure")
	}
	assertNoTranscodeDirs(t, tmp)
}

func assertNoTranscodeDirs(t *testing.T, dir string) {
	t.Helper()
	leftovers, err := filepath.Glob(filepath.Join(dir, "transcode-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) > 0 {
		t.Errorf("temp dirs not cleaned up: %v", leftovers)
	}
}

func TestProcess_MissingBinary(t *testing.T) {
	tr := NewTranscoder(TranscoderConfig{FFmpegPath: "/nonexistent/ffmpeg", Threshold: 10})

	_, err := tr.Process(context.Background(), &Buffer{Data: make([]byte, 11), MIMEType: "audio/mpeg"})
	if core.TypeOf(err) != core.ErrorTypeTranscode {
		t.Errorf("error type = %v, want %v", core.TypeOf(err), core.ErrorTypeTranscode)
	}
}

func TestTranscodeTimeout_ScalesWithSize(t *testing.T) {
	if got := transcodeTimeout(25 << 20); got != 30*time.Second+50*time.Second {
		t.Errorf("transcodeTimeout(25MiB) = %v, want 80s", got)
	}
	if got := transcodeTimeout(100); got != 30*time.Second {
		t.Errorf("transcodeTimeout(100B) = %v, want 30s", got)
	}
}

func TestNewTranscoder_Defaults(t *testing.T) {
	tr := NewTranscoder(TranscoderConfig{})
	if tr.Threshold() != DefaultTranscodeThreshold {
		t.Errorf("Threshold() = %d, want %d", tr.Threshold(), DefaultTranscodeThreshold)
	}
}
