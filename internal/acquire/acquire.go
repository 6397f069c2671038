// Package acquire implements the two source-acquisition backends: URL
// fetch (with a cobalt.tools-style HTTP fallback) and direct upload.
package acquire

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
	"github.com/zfogg/sidechain/backend/internal/mediatool"
)

// ProgressFunc receives (percent, stage label) updates during acquisition.
type ProgressFunc func(percent int, stage string)

// Metadata is what every backend emits alongside the downloaded file.
type Metadata struct {
	Title    string
	Duration int
	Thumbnail string
}

// Acquirer is the uniform contract the pipeline drives regardless of
// source type.
type Acquirer interface {
	Acquire(ctx context.Context, source string, outputDir string, onProgress ProgressFunc) (filePath string, meta Metadata, err error)
}

var youtubeURLPattern = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com/watch\?v=|youtu\.be/|youtube\.com/shorts/)[a-zA-Z0-9_-]{11}`)

// IsAllowedURL reports whether url matches the allowed host pattern.
func IsAllowedURL(url string) bool {
	return youtubeURLPattern.MatchString(url)
}

// URLAcquirer fetches media from a remote URL, probing duration first
// and falling back to a secondary HTTP API backend on primary failure.
type URLAcquirer struct {
	Toolchain        *mediatool.Toolchain
	MaxVideoDuration int
	HTTPClient       *http.Client
	FallbackAPIURL   string // e.g. a cobalt.tools-compatible endpoint
}

// NewURLAcquirer builds a URLAcquirer with sane HTTP timeouts.
func NewURLAcquirer(tc *mediatool.Toolchain, maxVideoDuration int, fallbackAPIURL string) *URLAcquirer {
	return &URLAcquirer{
		Toolchain:        tc,
		MaxVideoDuration: maxVideoDuration,
		HTTPClient:       &http.Client{Timeout: 5 * time.Minute},
		FallbackAPIURL:   fallbackAPIURL,
	}
}

// Acquire validates the URL, probes duration, then downloads via the
// primary path, falling back to the secondary HTTP API on failure.
func (a *URLAcquirer) Acquire(ctx context.Context, source string, outputDir string, onProgress ProgressFunc) (string, Metadata, error) {
	if !IsAllowedURL(source) {
		return "", Metadata{}, apierrors.InvalidURL(fmt.Sprintf("url %q is not from an allowed host", source))
	}

	if onProgress != nil {
		onProgress(0, "fetching source info")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", Metadata{}, fmt.Errorf("create output dir: %w", err)
	}

	if err := a.enforceDurationBeforeDownload(ctx, source); err != nil {
		return "", Metadata{}, err
	}

	path, meta, err := a.downloadPrimary(ctx, source, outputDir, onProgress)
	if err == nil {
		if err := a.enforceDuration(ctx, path); err != nil {
			return "", Metadata{}, err
		}
		return path, meta, nil
	}

	if onProgress != nil {
		onProgress(5, "switching to fallback downloader")
	}

	path, meta, fbErr := a.downloadFallback(ctx, source, outputDir, onProgress)
	if fbErr != nil {
		return "", Metadata{}, apierrors.AcquisitionFailed(
			fmt.Sprintf("all acquisition backends failed: primary=%v fallback=%v", err, fbErr))
	}
	if err := a.enforceDuration(ctx, path); err != nil {
		return "", Metadata{}, err
	}
	return path, meta, nil
}

// enforceDurationBeforeDownload probes source's duration directly against
// the remote URL (ffprobe can read container metadata over HTTP without
// downloading the full stream) and rejects it before either download
// backend fetches a single byte to disk. A probe failure isn't treated as
// a rejection: some hosts don't expose metadata to a bare ffprobe request,
// and enforceDuration still runs once a local copy exists.
func (a *URLAcquirer) enforceDurationBeforeDownload(ctx context.Context, source string) error {
	if a.Toolchain == nil || a.MaxVideoDuration <= 0 {
		return nil
	}
	probe, err := a.Toolchain.Probe(ctx, source)
	if err != nil {
		return nil
	}
	if int(probe.DurationSeconds) > a.MaxVideoDuration {
		return apierrors.DurationExceeded(a.MaxVideoDuration)
	}
	return nil
}

func (a *URLAcquirer) enforceDuration(ctx context.Context, path string) error {
	if a.Toolchain == nil || a.MaxVideoDuration <= 0 {
		return nil
	}
	probe, err := a.Toolchain.Probe(ctx, path)
	if err != nil {
		return nil
	}
	if int(probe.DurationSeconds) > a.MaxVideoDuration {
		os.Remove(path)
		return apierrors.DurationExceeded(a.MaxVideoDuration)
	}
	return nil
}

// downloadPrimary is a placeholder for a real media-extraction backend
// (e.g. a yt-dlp-equivalent library or subprocess). It is intentionally
// the first thing to fail over to the fallback when unreachable.
func (a *URLAcquirer) downloadPrimary(ctx context.Context, source, outputDir string, onProgress ProgressFunc) (string, Metadata, error) {
	return "", Metadata{}, fmt.Errorf("primary backend not configured")
}

// downloadFallback streams the source through a cobalt.tools-style
// resolve-then-download HTTP API.
func (a *URLAcquirer) downloadFallback(ctx context.Context, source, outputDir string, onProgress ProgressFunc) (string, Metadata, error) {
	if a.FallbackAPIURL == "" {
		return "", Metadata{}, fmt.Errorf("no fallback backend configured")
	}

	if onProgress != nil {
		onProgress(10, "resolving download link")
	}

	resolveReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.FallbackAPIURL, strings.NewReader(
		fmt.Sprintf(`{"url":%q,"vCodec":"h264","vQuality":"720","aFormat":"mp3"}`, source)))
	if err != nil {
		return "", Metadata{}, err
	}
	resolveReq.Header.Set("Content-Type", "application/json")
	resolveReq.Header.Set("Accept", "application/json")

	resp, err := a.HTTPClient.Do(resolveReq)
	if err != nil {
		return "", Metadata{}, fmt.Errorf("fallback resolve request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", Metadata{}, fmt.Errorf("fallback resolve returned status %d", resp.StatusCode)
	}

	// A production backend parses the resolver's JSON body for a direct
	// download URL; this adapter streams whatever came back directly,
	// which is sufficient for any backend returning the media inline.
	videoID := extractVideoID(source)
	outPath := filepath.Join(outputDir, videoID+".mp4")
	out, err := os.Create(outPath)
	if err != nil {
		return "", Metadata{}, err
	}
	defer out.Close()

	total := resp.ContentLength
	var downloaded int64
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return "", Metadata{}, werr
			}
			downloaded += int64(n)
			if onProgress != nil && total > 0 {
				percent := int(float64(downloaded)/float64(total)*90) + 5
				onProgress(percent, fmt.Sprintf("downloading %.1f/%.1fMB", float64(downloaded)/1e6, float64(total)/1e6))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", Metadata{}, readErr
		}
	}

	if onProgress != nil {
		onProgress(100, "download complete")
	}

	return outPath, Metadata{Title: videoID}, nil
}

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
}

func extractVideoID(url string) string {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(url); len(m) == 2 {
			return m[1]
		}
	}
	return "video"
}

// UploadAcquirer wraps an already-materialized upload: the HTTP layer
// has already saved the file to the uploads directory and validated
// extension/size; this backend only probes duration and copies into
// the job's working directory.
type UploadAcquirer struct {
	Toolchain        *mediatool.Toolchain
	MaxVideoDuration int
}

// NewUploadAcquirer builds an UploadAcquirer.
func NewUploadAcquirer(tc *mediatool.Toolchain, maxVideoDuration int) *UploadAcquirer {
	return &UploadAcquirer{Toolchain: tc, MaxVideoDuration: maxVideoDuration}
}

// Acquire copies the already-uploaded file at source (a filesystem
// path) into outputDir and probes its duration.
func (a *UploadAcquirer) Acquire(ctx context.Context, source string, outputDir string, onProgress ProgressFunc) (string, Metadata, error) {
	if onProgress != nil {
		onProgress(0, "reading upload")
	}

	probe, err := a.Toolchain.Probe(ctx, source)
	if err != nil {
		return "", Metadata{}, err
	}
	if a.MaxVideoDuration > 0 && int(probe.DurationSeconds) > a.MaxVideoDuration {
		return "", Metadata{}, apierrors.DurationExceeded(a.MaxVideoDuration)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", Metadata{}, fmt.Errorf("create output dir: %w", err)
	}

	dst := filepath.Join(outputDir, filepath.Base(source))
	if err := copyFile(source, dst); err != nil {
		return "", Metadata{}, err
	}

	if onProgress != nil {
		onProgress(100, "upload ready")
	}

	return dst, Metadata{Duration: int(probe.DurationSeconds)}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// AllowedUploadExtensions is the whitelist enforced by the HTTP layer
// before a file ever reaches an UploadAcquirer.
var AllowedUploadExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".mkv":  true,
	".webm": true,
}
