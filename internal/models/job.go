package models

import "time"

// SourceType identifies how a Job's input media was acquired.
type SourceType string

const (
	SourceURL    SourceType = "url"
	SourceUpload SourceType = "upload"
)

// JobStatus is a Job's position in the pipeline state machine.
type JobStatus string

const (
	StatusPending     JobStatus = "pending"
	StatusDownloading JobStatus = "downloading"
	StatusSeparating  JobStatus = "separating"
	StatusMerging     JobStatus = "merging"
	StatusCompleted   JobStatus = "completed"
	StatusFailed      JobStatus = "failed"
)

// IsTerminal reports whether status is COMPLETED or FAILED.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Container is the output format a remix or the default mix is
// encoded into.
type Container string

const (
	ContainerVideo    Container = "mp4"  // video + AAC audio
	ContainerAudioMP3 Container = "mp3"  // audio-only, lossy
	ContainerAudioM4A Container = "m4a"  // audio-only, AAC
	ContainerAudioWAV Container = "wav"  // audio-only, lossless
)

// Extension returns the on-disk file extension for the container.
func (c Container) Extension() string {
	return "." + string(c)
}

// IsVideo reports whether the container carries a video stream.
func (c Container) IsVideo() bool {
	return c == ContainerVideo
}

// ContentType returns the HTTP Content-Type for the container.
func (c Container) ContentType() string {
	switch c {
	case ContainerVideo:
		return "video/mp4"
	case ContainerAudioMP3:
		return "audio/mpeg"
	case ContainerAudioM4A:
		return "audio/mp4"
	case ContainerAudioWAV:
		return "audio/wav"
	default:
		return "application/octet-stream"
	}
}

// TrackPaths holds the on-disk location of each separated stem.
type TrackPaths struct {
	Drums string `json:"drums,omitempty"`
	Bass  string `json:"bass,omitempty"`
	Other string `json:"other,omitempty"`
	Vocals string `json:"vocals,omitempty"`
}

// HasAll reports whether every stem path is populated.
func (t TrackPaths) HasAll() bool {
	return t.Drums != "" && t.Bass != "" && t.Other != "" && t.Vocals != ""
}

// TrackNames returns the four stem names in a fixed, stable order.
func TrackNames() [4]string {
	return [4]string{"drums", "bass", "other", "vocals"}
}

// Job is the unit of work tracked by the Registry and driven by the
// Pipeline. A Job is mutable only through Registry methods or explicit
// admin operations (delete, mark-imported).
type Job struct {
	ID     string     `json:"id"`
	Source SourceType `json:"source_type"`

	// SourceURL is the original URL for SourceURL jobs, or the stored
	// input path for SourceUpload jobs.
	SourceURL   string `json:"source_url,omitempty"`
	SourceTitle string `json:"source_title,omitempty"`

	Status       JobStatus `json:"status"`
	Progress     int       `json:"progress"`
	CurrentStage string    `json:"current_stage,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	ClientIP string `json:"-"`

	OriginalDuration int `json:"original_duration,omitempty"`
	SampleRate       int `json:"sample_rate,omitempty"`

	// Populated once stems exist, i.e. after the Separate stage.
	Tracks TrackPaths `json:"tracks,omitempty"`

	// OriginalPath is the copy of the source media (with vocals)
	// retained under the job directory, used by re-mux and by export.
	OriginalPath string `json:"-"`
	// OriginalExt is the file extension OriginalPath was stored with.
	OriginalExt string `json:"-"`

	// DefaultMixPath is the output of the pipeline's re-mux stage
	// (drums+bass+other, vocals muted), the job's primary download.
	DefaultMixPath string `json:"-"`

	// Imported marks a Job materialized directly via Bundle import
	// rather than run through the Pipeline.
	Imported bool `json:"imported,omitempty"`
}

// Clone returns a deep-enough copy safe to hand to callers outside the
// Registry's lock.
func (j *Job) Clone() *Job {
	cp := *j
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// MixSettings parameterizes the Remix Engine: per-stem linear gains,
// an integer semitone pitch shift, and the target container.
type MixSettings struct {
	DrumsGain  float64   `json:"drums" binding:"gte=0,lte=2"`
	BassGain   float64   `json:"bass" binding:"gte=0,lte=2"`
	OtherGain  float64   `json:"other" binding:"gte=0,lte=2"`
	VocalsGain float64   `json:"vocals" binding:"gte=0,lte=2"`
	Pitch      int       `json:"pitch" binding:"gte=-12,lte=12"`
	Container  Container `json:"container"`
}

// DefaultInstrumentalMix is the mix used by the Pipeline's re-mux
// stage: non-vocal stems at unity gain, vocals muted, video container.
func DefaultInstrumentalMix() MixSettings {
	return MixSettings{
		DrumsGain: 1, BassGain: 1, OtherGain: 1, VocalsGain: 0,
		Pitch: 0, Container: ContainerVideo,
	}
}

// RemixStatus is the lifecycle of one Remix Engine task.
type RemixStatus string

const (
	RemixProcessing RemixStatus = "processing"
	RemixCompleted  RemixStatus = "completed"
	RemixFailed     RemixStatus = "failed"
)

// RemixArtifact is the record of one (job, settings) remix computation,
// identified by a deterministic key over the rounded settings.
type RemixArtifact struct {
	Key          string      `json:"mix_id"`
	JobID        string      `json:"job_id"`
	Settings     MixSettings `json:"settings"`
	Status       RemixStatus `json:"status"`
	Progress     int         `json:"progress"`
	Path         string      `json:"-"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Cached       bool        `json:"cached,omitempty"`
}

// BundleMetadata is the JSON manifest embedded in every exported
// single-job zip entry (`metadata.json`).
type BundleMetadata struct {
	Version          string     `json:"version"`
	SourceTitle      string     `json:"source_title"`
	SourceType       SourceType `json:"source_type"`
	SourceURL        string     `json:"source_url,omitempty"`
	OriginalDuration int        `json:"original_duration"`
	CreatedAt        string     `json:"created_at"`
	SampleRate       int        `json:"sample_rate"`
}
