package models

import (
	"testing"
	"time"
)

func TestJobStatusIsTerminal(t *testing.T) {
	terminal := []JobStatus{StatusCompleted, StatusFailed}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	nonTerminal := []JobStatus{StatusPending, StatusDownloading, StatusSeparating, StatusMerging}
	for _, s := range nonTerminal {
		if s.IsTerminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}

func TestContainerExtension(t *testing.T) {
	if got := ContainerAudioMP3.Extension(); got != ".mp3" {
		t.Errorf("expected .mp3, got %s", got)
	}
}

func TestContainerIsVideo(t *testing.T) {
	if !ContainerVideo.IsVideo() {
		t.Error("expected video container to report IsVideo")
	}
	if ContainerAudioWAV.IsVideo() {
		t.Error("expected wav container to not report IsVideo")
	}
}

func TestContainerContentType(t *testing.T) {
	cases := map[Container]string{
		ContainerVideo:    "video/mp4",
		ContainerAudioMP3: "audio/mpeg",
		ContainerAudioM4A: "audio/mp4",
		ContainerAudioWAV: "audio/wav",
		Container("xyz"):  "application/octet-stream",
	}
	for container, want := range cases {
		if got := container.ContentType(); got != want {
			t.Errorf("%s: expected %s, got %s", container, want, got)
		}
	}
}

func TestTrackPathsHasAll(t *testing.T) {
	incomplete := TrackPaths{Drums: "d.wav", Bass: "b.wav"}
	if incomplete.HasAll() {
		t.Error("expected incomplete TrackPaths to report HasAll=false")
	}

	complete := TrackPaths{Drums: "d.wav", Bass: "b.wav", Other: "o.wav", Vocals: "v.wav"}
	if !complete.HasAll() {
		t.Error("expected complete TrackPaths to report HasAll=true")
	}
}

func TestTrackNamesStableOrder(t *testing.T) {
	want := [4]string{"drums", "bass", "other", "vocals"}
	if got := TrackNames(); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestJobCloneIsIndependent(t *testing.T) {
	completedAt := time.Now()
	original := &Job{ID: "job-1", Status: StatusCompleted, CompletedAt: &completedAt}

	clone := original.Clone()
	clone.ID = "job-2"
	*clone.CompletedAt = completedAt.Add(time.Hour)

	if original.ID != "job-1" {
		t.Error("mutating the clone's ID leaked into the original")
	}
	if !original.CompletedAt.Equal(completedAt) {
		t.Error("mutating the clone's CompletedAt leaked into the original")
	}
}

func TestJobCloneNilCompletedAt(t *testing.T) {
	original := &Job{ID: "job-1"}

	clone := original.Clone()

	if clone.CompletedAt != nil {
		t.Error("expected nil CompletedAt to stay nil after clone")
	}
}

func TestDefaultInstrumentalMix(t *testing.T) {
	mix := DefaultInstrumentalMix()

	if mix.VocalsGain != 0 {
		t.Errorf("expected vocals muted, got gain %v", mix.VocalsGain)
	}
	if mix.DrumsGain != 1 || mix.BassGain != 1 || mix.OtherGain != 1 {
		t.Errorf("expected non-vocal stems at unity gain, got %+v", mix)
	}
	if mix.Container != ContainerVideo {
		t.Errorf("expected video container, got %s", mix.Container)
	}
}
