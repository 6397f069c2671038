package acquire

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/zfogg/sidechain/backend/internal/mediatool"
)

// writeFakeFFprobe writes a stub ffprobe that reports a fixed duration,
// so enforceDurationBeforeDownload can be exercised without a network
// call or a real media file.
func writeFakeFFprobe(t *testing.T, durationSeconds string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	script := "#!/bin/sh\ncat <<EOF\n{\"format\":{\"duration\":\"" + durationSeconds + "\"},\"streams\":[{\"codec_type\":\"audio\",\"sample_rate\":\"44100\"}]}\nEOF\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake ffprobe: %v", err)
	}
	return path
}

func TestEnforceDurationBeforeDownloadRejectsOverLimit(t *testing.T) {
	a := &URLAcquirer{
		Toolchain:        &mediatool.Toolchain{FFprobePath: writeFakeFFprobe(t, "9000")},
		MaxVideoDuration: 600,
	}

	if err := a.enforceDurationBeforeDownload(context.Background(), "https://example.com/video"); err == nil {
		t.Fatal("expected a duration-exceeded error before any download is attempted")
	}
}

func TestEnforceDurationBeforeDownloadAllowsWithinLimit(t *testing.T) {
	a := &URLAcquirer{
		Toolchain:        &mediatool.Toolchain{FFprobePath: writeFakeFFprobe(t, "120")},
		MaxVideoDuration: 600,
	}

	if err := a.enforceDurationBeforeDownload(context.Background(), "https://example.com/video"); err != nil {
		t.Errorf("expected no error for a source within the limit, got %v", err)
	}
}

func TestEnforceDurationBeforeDownloadSkipsWhenUnconfigured(t *testing.T) {
	a := &URLAcquirer{MaxVideoDuration: 600}
	if err := a.enforceDurationBeforeDownload(context.Background(), "https://example.com/video"); err != nil {
		t.Errorf("expected a no-op with no Toolchain configured, got %v", err)
	}

	a = &URLAcquirer{Toolchain: &mediatool.Toolchain{FFprobePath: writeFakeFFprobe(t, "9000")}}
	if err := a.enforceDurationBeforeDownload(context.Background(), "https://example.com/video"); err != nil {
		t.Errorf("expected a no-op with MaxVideoDuration<=0, got %v", err)
	}
}

// TestAcquireRejectsOversizedSourceBeforeDownloading pins the ordering
// the spec requires: a source over the duration limit must be rejected
// before either download backend writes anything to outputDir.
func TestAcquireRejectsOversizedSourceBeforeDownloading(t *testing.T) {
	a := &URLAcquirer{
		Toolchain:        &mediatool.Toolchain{FFprobePath: writeFakeFFprobe(t, "9000")},
		MaxVideoDuration: 600,
	}

	dir := t.TempDir()
	_, _, err := a.Acquire(context.Background(), "https://www.youtube.com/watch?v=aaaaaaaaaaa", dir, nil)
	if err == nil {
		t.Fatal("expected Acquire to reject an oversized source")
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("read output dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("expected no bytes written to disk before the duration probe rejects, got %d entries", len(entries))
	}
}

func TestAcquireRejectsDisallowedHost(t *testing.T) {
	a := &URLAcquirer{MaxVideoDuration: 600}
	if _, _, err := a.Acquire(context.Background(), "https://evil.example.com/video", t.TempDir(), nil); err == nil {
		t.Error("expected a non-allowlisted host to be rejected")
	}
}
