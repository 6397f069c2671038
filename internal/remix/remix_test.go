package remix

import (
	"testing"

	"github.com/go-audio/audio"

	"github.com/zfogg/sidechain/backend/internal/models"
)

func TestKeyIsDeterministic(t *testing.T) {
	settings := models.MixSettings{DrumsGain: 1, BassGain: 0.5, OtherGain: 1, VocalsGain: 0, Pitch: 2, Container: models.ContainerVideo}

	k1 := Key("job-1", settings)
	k2 := Key("job-1", settings)

	if k1 != k2 {
		t.Errorf("expected the same settings to produce the same key, got %q and %q", k1, k2)
	}
	if len(k1) != 16 {
		t.Errorf("expected a 16-character key, got %d chars (%q)", len(k1), k1)
	}
}

func TestKeyDiffersByJob(t *testing.T) {
	settings := models.MixSettings{DrumsGain: 1, BassGain: 1, OtherGain: 1, VocalsGain: 1}

	k1 := Key("job-1", settings)
	k2 := Key("job-2", settings)

	if k1 == k2 {
		t.Error("expected different job IDs to produce different keys")
	}
}

func TestKeyDiffersBySettings(t *testing.T) {
	base := models.MixSettings{DrumsGain: 1, BassGain: 1, OtherGain: 1, VocalsGain: 1}
	louder := base
	louder.DrumsGain = 1.5

	if Key("job-1", base) == Key("job-1", louder) {
		t.Error("expected different gains to produce different keys")
	}
}

func TestKeyRoundsGainsToAvoidCacheFragmentation(t *testing.T) {
	a := models.MixSettings{DrumsGain: 1.001, BassGain: 1, OtherGain: 1, VocalsGain: 1}
	b := models.MixSettings{DrumsGain: 1.004, BassGain: 1, OtherGain: 1, VocalsGain: 1}

	if Key("job-1", a) != Key("job-1", b) {
		t.Error("expected gains within the same rounded cent to produce the same key")
	}
}

func TestEngineLookupReturnsRecordedSettings(t *testing.T) {
	e := New(nil, nil)
	settings := models.MixSettings{DrumsGain: 1, BassGain: 1, OtherGain: 1, VocalsGain: 0, Container: models.ContainerAudioWAV}
	key := Key("job-1", settings)

	e.mu.Lock()
	e.known["job-1:"+key] = settings
	e.mu.Unlock()

	got, ok := e.Lookup("job-1", key)
	if !ok {
		t.Fatal("expected Lookup to find previously recorded settings")
	}
	if got != settings {
		t.Errorf("expected %+v, got %+v", settings, got)
	}
}

func TestEngineLookupMissReportsFalse(t *testing.T) {
	e := New(nil, nil)

	_, ok := e.Lookup("unknown-job", "unknown-key")
	if ok {
		t.Error("expected Lookup to report false for an unrecorded (job, key) pair")
	}
}

func TestMixBuffersSumsAndAppliesGain(t *testing.T) {
	format := &audio.Format{NumChannels: 1, SampleRate: 44100}
	a := &audio.IntBuffer{Format: format, Data: []int{100, 200, 300}}
	b := &audio.IntBuffer{Format: format, Data: []int{10, 20, 30}}

	out := mixBuffers(weighted{a, 1}, weighted{b, 0.5})

	want := []int{105, 210, 315}
	for i, v := range want {
		if out.Data[i] != v {
			t.Errorf("sample %d: expected %d, got %d", i, v, out.Data[i])
		}
	}
}

func TestMixBuffersTruncatesToShortestInput(t *testing.T) {
	format := &audio.Format{NumChannels: 1, SampleRate: 44100}
	long := &audio.IntBuffer{Format: format, Data: []int{1, 2, 3, 4}}
	short := &audio.IntBuffer{Format: format, Data: []int{1, 2}}

	out := mixBuffers(weighted{long, 1}, weighted{short, 1})

	if len(out.Data) != 2 {
		t.Errorf("expected output truncated to the shortest buffer (2), got %d samples", len(out.Data))
	}
}

func TestMixBuffersClipsToInt16Range(t *testing.T) {
	format := &audio.Format{NumChannels: 1, SampleRate: 44100}
	a := &audio.IntBuffer{Format: format, Data: []int{30000}}
	b := &audio.IntBuffer{Format: format, Data: []int{30000}}

	out := mixBuffers(weighted{a, 1}, weighted{b, 1})

	if out.Data[0] != 32767 {
		t.Errorf("expected clipping to int16 max (32767), got %d", out.Data[0])
	}
}

func TestContainerExtensionDefaultsToMP4(t *testing.T) {
	if got := containerExtension(""); got != ".mp4" {
		t.Errorf("expected default extension .mp4, got %q", got)
	}
	if got := containerExtension(models.ContainerAudioMP3); got != ".mp3" {
		t.Errorf("expected .mp3, got %q", got)
	}
}
