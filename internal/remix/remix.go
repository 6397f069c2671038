// Package remix implements the on-demand stem mixer: per-stem gains,
// optional pitch shift, target container, deterministic cache key, and
// single-flight de-duplication of concurrent identical requests.
package remix

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	apierrors "github.com/zfogg/sidechain/backend/internal/errors"
	"github.com/zfogg/sidechain/backend/internal/mediatool"
	"github.com/zfogg/sidechain/backend/internal/models"
	"github.com/zfogg/sidechain/backend/internal/store"
)

// Status is the lifecycle of one remix computation.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

type inFlight struct {
	mu       sync.Mutex
	status   Status
	progress int
	errMsg   string
	done     chan struct{}
}

// Engine mixes cached stems into a keyed output artifact, serving
// cache hits immediately and de-duplicating concurrent identical work.
type Engine struct {
	Store     *store.Store
	Toolchain *mediatool.Toolchain

	mu       sync.Mutex
	inflight map[string]*inFlight // key = jobID + ":" + mixKey
	known    map[string]models.MixSettings // key = jobID + ":" + mixKey
}

// New returns an Engine backed by st and tc.
func New(st *store.Store, tc *mediatool.Toolchain) *Engine {
	return &Engine{
		Store:     st,
		Toolchain: tc,
		inflight:  make(map[string]*inFlight),
		known:     make(map[string]models.MixSettings),
	}
}

// Lookup returns the settings a previously requested (jobID, key) pair
// was computed with, so the HTTP layer can re-resolve a mix_id handed
// back from CreateMix without the caller re-submitting the settings.
func (e *Engine) Lookup(jobID, key string) (models.MixSettings, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	settings, ok := e.known[jobID+":"+key]
	return settings, ok
}

// Key computes the deterministic cache key for settings, rounding
// gains to two decimal places so UI-level rounding doesn't multiply
// cache entries.
func Key(jobID string, settings models.MixSettings) string {
	round := func(f float64) float64 { return math.Round(f*100) / 100 }
	h := sha256.New()
	fmt.Fprintf(h, "%s|%.2f|%.2f|%.2f|%.2f|%d|%s",
		jobID,
		round(settings.DrumsGain), round(settings.BassGain),
		round(settings.OtherGain), round(settings.VocalsGain),
		settings.Pitch, settings.Container)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Artifact reports the current state of a remix computation or
// cached result.
type Artifact struct {
	Key      string
	Path     string
	Status   Status
	Progress int
	ErrorMsg string
	Cached   bool
}

// Get returns the current status of a mix key, whether freshly
// requested (cache miss → launches work) or already cached/in-flight.
// If the artifact file already exists on disk, it returns immediately
// with Cached=true regardless of in-flight bookkeeping.
func (e *Engine) Get(ctx context.Context, job *models.Job, settings models.MixSettings) (*Artifact, error) {
	key := Key(job.ID, settings)
	ext := containerExtension(settings.Container)
	path := e.Store.MixPath(job.ID, key, ext)

	e.mu.Lock()
	e.known[job.ID+":"+key] = settings
	e.mu.Unlock()

	if e.Store.Exists(path) {
		return &Artifact{Key: key, Path: path, Status: StatusCompleted, Progress: 100, Cached: true}, nil
	}

	flightKey := job.ID + ":" + key

	e.mu.Lock()
	if existing, ok := e.inflight[flightKey]; ok {
		e.mu.Unlock()
		existing.mu.Lock()
		defer existing.mu.Unlock()
		return &Artifact{Key: key, Path: path, Status: existing.status, Progress: existing.progress, ErrorMsg: existing.errMsg}, nil
	}

	flight := &inFlight{status: StatusProcessing, done: make(chan struct{})}
	e.inflight[flightKey] = flight
	e.mu.Unlock()

	go e.run(context.Background(), job, settings, key, path, flight, flightKey)

	return &Artifact{Key: key, Path: path, Status: StatusProcessing, Progress: 0}, nil
}

func (e *Engine) run(ctx context.Context, job *models.Job, settings models.MixSettings, key, outPath string, flight *inFlight, flightKey string) {
	defer func() {
		close(flight.done)
		e.mu.Lock()
		delete(e.inflight, flightKey)
		e.mu.Unlock()
	}()

	setProgress := func(p int) {
		flight.mu.Lock()
		flight.progress = p
		flight.mu.Unlock()
	}

	err := e.mix(ctx, job, settings, outPath, setProgress)

	flight.mu.Lock()
	defer flight.mu.Unlock()
	if err != nil {
		flight.status = StatusFailed
		flight.errMsg = err.Error()
		os.Remove(outPath)
		return
	}
	flight.status = StatusCompleted
	flight.progress = 100
}

func (e *Engine) mix(ctx context.Context, job *models.Job, settings models.MixSettings, outPath string, setProgress func(int)) error {
	if !job.Tracks.HasAll() {
		return apierrors.NoTracks()
	}

	setProgress(5)
	drums, err := loadWAV(e.Store.TrackPath(job.ID, "drums"))
	if err != nil {
		return err
	}
	bass, err := loadWAV(e.Store.TrackPath(job.ID, "bass"))
	if err != nil {
		return err
	}
	other, err := loadWAV(e.Store.TrackPath(job.ID, "other"))
	if err != nil {
		return err
	}
	vocals, err := loadWAV(e.Store.TrackPath(job.ID, "vocals"))
	if err != nil {
		return err
	}

	setProgress(30)
	mixed := mixBuffers(
		weighted{drums, settings.DrumsGain},
		weighted{bass, settings.BassGain},
		weighted{other, settings.OtherGain},
		weighted{vocals, settings.VocalsGain},
	)

	tmpWAV := outPath + ".mix.wav"
	if err := writeWAV(tmpWAV, mixed); err != nil {
		return err
	}
	defer os.Remove(tmpWAV)

	setProgress(60)
	shiftedWAV := tmpWAV
	if settings.Pitch != 0 {
		shiftedWAV = outPath + ".shifted.wav"
		if err := e.Toolchain.PitchShift(ctx, tmpWAV, shiftedWAV, settings.Pitch); err != nil {
			return err
		}
		defer os.Remove(shiftedWAV)
	}

	setProgress(80)
	if settings.Container.IsVideo() {
		originalPath := e.Store.OriginalPath(job.ID, job.OriginalExt)
		if err := e.Toolchain.Remux(ctx, originalPath, shiftedWAV, outPath, true, mediatool.CodecAAC); err != nil {
			return err
		}
	} else if settings.Container == models.ContainerAudioWAV {
		data, err := os.ReadFile(shiftedWAV)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return err
		}
	} else {
		codec := mediatool.CodecForContainer(string(settings.Container))
		if err := e.Toolchain.Remux(ctx, "", shiftedWAV, outPath, false, codec); err != nil {
			return err
		}
	}

	setProgress(100)
	return nil
}

type weighted struct {
	buf  *audio.IntBuffer
	gain float64
}

// mixBuffers sums gain-scaled PCM buffers sample-by-sample, aligning
// to the shortest input.
func mixBuffers(inputs ...weighted) *audio.IntBuffer {
	minLen := -1
	for _, w := range inputs {
		if minLen == -1 || len(w.buf.Data) < minLen {
			minLen = len(w.buf.Data)
		}
	}
	if minLen < 0 {
		minLen = 0
	}

	out := make([]int, minLen)
	for _, w := range inputs {
		for i := 0; i < minLen; i++ {
			out[i] += int(float64(w.buf.Data[i]) * w.gain)
		}
	}
	for i, v := range out {
		if v > math.MaxInt16 {
			out[i] = math.MaxInt16
		} else if v < math.MinInt16 {
			out[i] = math.MinInt16
		}
	}

	format := inputs[0].buf.Format
	return &audio.IntBuffer{
		Format:         format,
		Data:           out,
		SourceBitDepth: inputs[0].buf.SourceBitDepth,
	}
}

func loadWAV(path string) (*audio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apierrors.NoTracks().WithDetails(err.Error())
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, apierrors.NoTracks().WithDetails(fmt.Sprintf("%s is not a valid WAV", path))
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return buf, nil
}

func writeWAV(path string, buf *audio.IntBuffer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	enc := wav.NewEncoder(f, buf.Format.SampleRate, bitDepth, buf.Format.NumChannels, 1)
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}

func containerExtension(c models.Container) string {
	if c == "" {
		return ".mp4"
	}
	return c.Extension()
}

// MixDefaultInstrumental writes the drums+bass+other sum (vocals
// silent) to outWAVPath, using the same stem-mixing code the Engine
// uses for on-demand remixes. The pipeline calls this for its default
// re-mux stage instead of maintaining a second mixing implementation.
func MixDefaultInstrumental(tracks models.TrackPaths, outWAVPath string) error {
	drums, err := loadWAV(tracks.Drums)
	if err != nil {
		return err
	}
	bass, err := loadWAV(tracks.Bass)
	if err != nil {
		return err
	}
	other, err := loadWAV(tracks.Other)
	if err != nil {
		return err
	}
	vocals, err := loadWAV(tracks.Vocals)
	if err != nil {
		return err
	}

	mixed := mixBuffers(
		weighted{drums, 1},
		weighted{bass, 1},
		weighted{other, 1},
		weighted{vocals, 0},
	)
	return writeWAV(outWAVPath, mixed)
}
