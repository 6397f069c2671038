// Package separator adapts the stem-separation model (invoked as an
// external subprocess) behind a narrow Go interface, and provides a
// fixture-backed fake for tests.
package separator

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
)

// ProgressFunc receives (percent, stage label) updates, percent
// non-decreasing.
type ProgressFunc func(percent int, stage string)

// Result is what a separation run produces.
type Result struct {
	SampleRate int
	Drums      string
	Bass       string
	Other      string
	Vocals     string
}

// Separator is the one-method contract the pipeline drives.
// ModelSeparator starts a fresh model subprocess for every call (the
// model is not kept loaded between calls) and runs one separation at a
// time, serialized by its own mutex.
type Separator interface {
	Separate(ctx context.Context, inputWAVPath, outputDir string, onProgress ProgressFunc) (Result, error)
}

const separationTimeout = 20 * time.Minute

// ModelSeparator shells out to a subprocess wrapping the stem-
// separation model (the Go side never embeds the model itself).
type ModelSeparator struct {
	// ScriptPath is the executable (or interpreter + script) invoked
	// per separation, e.g. a Python entrypoint around the model.
	ScriptPath string
	Args       []string

	mu sync.Mutex // serializes model access within this process
}

// NewModelSeparator returns a ModelSeparator invoking scriptPath with
// extraArgs ahead of the positional input/output arguments.
func NewModelSeparator(scriptPath string, extraArgs ...string) *ModelSeparator {
	return &ModelSeparator{ScriptPath: scriptPath, Args: extraArgs}
}

// Separate runs the model against inputWAVPath, emitting drums.wav,
// bass.wav, other.wav, and vocals.wav into outputDir at the source
// sample rate.
func (m *ModelSeparator) Separate(ctx context.Context, inputWAVPath, outputDir string, onProgress ProgressFunc) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if onProgress != nil {
		onProgress(0, "loading model")
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create output dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, separationTimeout)
	defer cancel()

	args := append(append([]string{}, m.Args...), inputWAVPath, outputDir)
	cmd := exec.CommandContext(ctx, m.ScriptPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if onProgress != nil {
		onProgress(20, "separating stems")
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Result{}, apierrors.ToolTimeout("separate")
		}
		tail := stderr.Bytes()
		if len(tail) > 200 {
			tail = tail[len(tail)-200:]
		}
		return Result{}, apierrors.SeparationError(string(tail))
	}

	result := Result{
		Drums:  filepath.Join(outputDir, "drums.wav"),
		Bass:   filepath.Join(outputDir, "bass.wav"),
		Other:  filepath.Join(outputDir, "other.wav"),
		Vocals: filepath.Join(outputDir, "vocals.wav"),
	}
	for _, p := range []string{result.Drums, result.Bass, result.Other, result.Vocals} {
		if _, err := os.Stat(p); err != nil {
			return Result{}, apierrors.SeparationError(fmt.Sprintf("missing expected stem %s", filepath.Base(p)))
		}
	}

	if onProgress != nil {
		onProgress(100, "separation complete")
	}

	return result, nil
}

// FakeSeparator is a fixture-backed Separator for tests: it copies
// pre-rendered stem files from FixtureDir into the requested output
// directory instead of running a real model.
type FakeSeparator struct {
	FixtureDir string
	SampleRate int
}

// Separate copies the four fixture stems into outputDir.
func (f *FakeSeparator) Separate(ctx context.Context, inputWAVPath, outputDir string, onProgress ProgressFunc) (Result, error) {
	if onProgress != nil {
		onProgress(0, "loading model")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Result{}, err
	}

	names := [4]string{"drums.wav", "bass.wav", "other.wav", "vocals.wav"}
	result := Result{SampleRate: f.SampleRate}
	dests := map[string]*string{
		"drums.wav":  &result.Drums,
		"bass.wav":   &result.Bass,
		"other.wav":  &result.Other,
		"vocals.wav": &result.Vocals,
	}

	for i, name := range names {
		src := filepath.Join(f.FixtureDir, name)
		dst := filepath.Join(outputDir, name)
		if err := copyFile(src, dst); err != nil {
			return Result{}, apierrors.SeparationError(fmt.Sprintf("fixture %s: %v", name, err))
		}
		*dests[name] = dst
		if onProgress != nil {
			onProgress(20+int(float64(i+1)/4*80), "separating stems")
		}
	}

	return result, nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
