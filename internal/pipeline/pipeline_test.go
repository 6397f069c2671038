package pipeline

import "testing"

func TestStageRangeAt(t *testing.T) {
	s := stageRange{base: 10, span: 20}

	if got := s.at(0); got != 10 {
		t.Errorf("at(0): expected 10, got %d", got)
	}
	if got := s.at(50); got != 20 {
		t.Errorf("at(50): expected 20, got %d", got)
	}
	if got := s.at(100); got != 30 {
		t.Errorf("at(100): expected 30, got %d", got)
	}
}

// assertMonotonic fails if any stage in order starts before the previous
// stage ended, which is exactly the regression a UI progress bar would
// show as jumping backwards.
func assertMonotonic(t *testing.T, stages []stageRange) {
	t.Helper()
	prevEnd := 0
	for i, s := range stages {
		if start := s.at(0); start < prevEnd {
			t.Errorf("stage %d starts at %d, regressing from previous stage's end %d", i, start, prevEnd)
		}
		prevEnd = s.at(100)
	}
}

func TestStageProgressIsMonotonicForURLSource(t *testing.T) {
	assertMonotonic(t, []stageRange{stageAcquireURL, stageExtract, stageSeparateURL, stageRemux})
}

func TestStageProgressIsMonotonicForUploadSource(t *testing.T) {
	assertMonotonic(t, []stageRange{stageExtract, stageSeparateUpload, stageRemux})
}

// TestUploadSourceExtractDoesNotRegressIntoSeparate pins the specific
// regression an upload-source job used to hit: extract finishing past
// where the separate stage starts.
func TestUploadSourceExtractDoesNotRegressIntoSeparate(t *testing.T) {
	if stageExtract.at(100) > stageSeparateUpload.at(0) {
		t.Errorf("extract ends at %d but the upload-path separate stage starts at %d: progress would regress",
			stageExtract.at(100), stageSeparateUpload.at(0))
	}
}
