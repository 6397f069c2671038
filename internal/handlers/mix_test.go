package handlers

import (
	"testing"

	"github.com/zfogg/sidechain/backend/internal/models"
)

// TestDefaultMixSettingsMatchesPipelineInstrumentalDefault pins the
// contract defaultMixSettings documents: a bare POST body should produce
// exactly the same mix the pipeline's own re-mux stage produces.
func TestDefaultMixSettingsMatchesPipelineInstrumentalDefault(t *testing.T) {
	got := defaultMixSettings()
	want := models.DefaultInstrumentalMix()

	if got != want {
		t.Errorf("defaultMixSettings() = %+v, want %+v (models.DefaultInstrumentalMix())", got, want)
	}
}

func TestDefaultMixSettingsMutesVocals(t *testing.T) {
	if got := defaultMixSettings().VocalsGain; got != 0 {
		t.Errorf("expected VocalsGain 0 for the instrumental default, got %v", got)
	}
}
