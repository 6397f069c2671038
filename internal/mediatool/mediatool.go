// Package mediatool wraps ffmpeg/ffprobe subprocess invocations used by
// the pipeline to probe, extract, and re-mux media.
package mediatool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
)

const (
	probeTimeout   = 30 * time.Second
	extractTimeout = 5 * time.Minute
	remuxTimeout   = 10 * time.Minute
	stderrTailLen  = 200
)

// Audio codecs selectable for Remux's output, keyed by container so the
// pipeline and remix engine never have to name an ffmpeg codec directly.
const (
	CodecAAC = "aac"
	CodecMP3 = "libmp3lame"
)

// CodecForContainer returns the ffmpeg audio codec to encode into for a
// container extension (without the leading dot, e.g. "mp3", "m4a", "mp4").
// Only MP3 output is encoded with libmp3lame; every other container
// (including video) uses AAC.
func CodecForContainer(containerExt string) string {
	if containerExt == "mp3" {
		return CodecMP3
	}
	return CodecAAC
}

// Toolchain invokes ffmpeg/ffprobe at the configured binary paths.
type Toolchain struct {
	FFmpegPath  string
	FFprobePath string
}

// New returns a Toolchain using the given binary paths (empty strings
// fall back to "ffmpeg"/"ffprobe" on $PATH).
func New(ffmpegPath, ffprobePath string) *Toolchain {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Toolchain{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

// ProbeResult carries the subset of ffprobe's format/stream data the
// pipeline and acquisition admission checks need.
type ProbeResult struct {
	DurationSeconds float64
	SampleRate      int
	HasAudio        bool
	HasVideo        bool
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe against path and returns duration, sample rate,
// and stream presence. It never runs longer than 30s.
func (t *Toolchain) Probe(ctx context.Context, path string) (ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return ProbeResult{}, apierrors.ToolTimeout("probe")
		}
		return ProbeResult{}, apierrors.ExternalTool(tail(stderr.Bytes()))
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		return ProbeResult{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	result := ProbeResult{}
	if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
		result.DurationSeconds = d
	}
	for _, s := range parsed.Streams {
		switch s.CodecType {
		case "audio":
			result.HasAudio = true
			if sr, err := strconv.Atoi(s.SampleRate); err == nil && result.SampleRate == 0 {
				result.SampleRate = sr
			}
		case "video":
			result.HasVideo = true
		}
	}
	return result, nil
}

// ExtractAudio decodes srcPath's audio stream to a 44.1kHz stereo WAV
// at dstPath, suitable as separator input.
func (t *Toolchain) ExtractAudio(ctx context.Context, srcPath, dstPath string) error {
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.FFmpegPath,
		"-i", srcPath,
		"-vn",
		"-ar", "44100",
		"-ac", "2",
		"-acodec", "pcm_s16le",
		"-y",
		dstPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return apierrors.ToolTimeout("extract")
		}
		return apierrors.ExternalTool(tail(stderr.Bytes()))
	}
	return nil
}

// Remux combines originalPath's video stream (if any) with the mixed
// audio at mixedAudioPath, writing the requested container to dstPath.
// For audio-only sources, originalPath is ignored and mixedAudioPath is
// simply transcoded using audioCodec (see CodecForContainer).
func (t *Toolchain) Remux(ctx context.Context, originalPath, mixedAudioPath, dstPath string, hasVideo bool, audioCodec string) error {
	ctx, cancel := context.WithTimeout(ctx, remuxTimeout)
	defer cancel()

	if audioCodec == "" {
		audioCodec = CodecAAC
	}

	var args []string
	if hasVideo {
		args = []string{
			"-i", originalPath,
			"-i", mixedAudioPath,
			"-map", "0:v:0",
			"-map", "1:a:0",
			"-c:v", "copy",
			"-c:a", audioCodec,
			"-b:a", "192k",
			"-shortest",
			"-y",
			dstPath,
		}
	} else {
		args = []string{
			"-i", mixedAudioPath,
			"-c:a", audioCodec,
			"-b:a", "192k",
			"-y",
			dstPath,
		}
	}

	cmd := exec.CommandContext(ctx, t.FFmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return apierrors.ToolTimeout("remux")
		}
		return apierrors.ExternalTool(tail(stderr.Bytes()))
	}
	return nil
}

// PitchShift applies a semitone pitch shift to a WAV file via ffmpeg's
// rubberband filter, preserving duration (tempo unaffected).
func (t *Toolchain) PitchShift(ctx context.Context, srcPath, dstPath string, semitones int) error {
	if semitones == 0 {
		return copyFile(ctx, t, srcPath, dstPath)
	}
	ctx, cancel := context.WithTimeout(ctx, extractTimeout)
	defer cancel()

	pitchFactor := semitoneRatio(semitones)
	cmd := exec.CommandContext(ctx, t.FFmpegPath,
		"-i", srcPath,
		"-af", fmt.Sprintf("rubberband=pitch=%.6f", pitchFactor),
		"-y",
		dstPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return apierrors.ToolTimeout("pitch shift")
		}
		return apierrors.ExternalTool(tail(stderr.Bytes()))
	}
	return nil
}

func copyFile(ctx context.Context, t *Toolchain, srcPath, dstPath string) error {
	cmd := exec.CommandContext(ctx, t.FFmpegPath, "-i", srcPath, "-c", "copy", "-y", dstPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return apierrors.ExternalTool(tail(stderr.Bytes()))
	}
	return nil
}

// semitoneRatio converts a semitone offset to a frequency ratio (12-TET).
func semitoneRatio(semitones int) float64 {
	const twelfthRootOfTwo = 1.0594630943592953
	ratio := 1.0
	n := semitones
	neg := n < 0
	if neg {
		n = -n
	}
	for i := 0; i < n; i++ {
		ratio *= twelfthRootOfTwo
	}
	if neg {
		return 1 / ratio
	}
	return ratio
}

// Available reports whether both ffmpeg and ffprobe can be executed.
func (t *Toolchain) Available() error {
	if err := exec.Command(t.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg not found at %q: %w", t.FFmpegPath, err)
	}
	if err := exec.Command(t.FFprobePath, "-version").Run(); err != nil {
		return fmt.Errorf("ffprobe not found at %q: %w", t.FFprobePath, err)
	}
	return nil
}

func tail(b []byte) string {
	if len(b) <= stderrTailLen {
		return string(b)
	}
	return string(b[len(b)-stderrTailLen:])
}
