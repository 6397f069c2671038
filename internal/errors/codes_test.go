package errors

import (
	"net/http"
	"testing"
)

func TestStatusCodeKnownCode(t *testing.T) {
	if got := ErrJobNotFound.StatusCode(); got != http.StatusNotFound {
		t.Errorf("expected 404, got %d", got)
	}
}

func TestStatusCodeUnknownCodeDefaultsTo500(t *testing.T) {
	unknown := ErrorCode("NOT_IN_THE_MAP")

	if got := unknown.StatusCode(); got != http.StatusInternalServerError {
		t.Errorf("expected default 500, got %d", got)
	}
}

func TestEveryDeclaredCodeHasAStatus(t *testing.T) {
	codes := []ErrorCode{
		ErrInvalidURL, ErrInvalidSourceType, ErrMissingURL, ErrMissingFile,
		ErrInvalidFileType, ErrFileTooLarge, ErrInvalidFormat, ErrInvalidTrack,
		ErrInvalidAction, ErrMissingTitle, ErrRateLimitExceeded, ErrServiceBusy,
		ErrDurationExceeded, ErrJobNotFound, ErrJobNotCompleted, ErrNoResult,
		ErrNoTracks, ErrTrackNotFound, ErrMixNotFound, ErrExportNotFound,
		ErrAcquisitionFailed, ErrExtractError, ErrSeparationError, ErrMergeError,
		ErrToolTimeout, ErrExternalTool, ErrBadBundle, ErrExportFailed, ErrInternal,
	}

	for _, code := range codes {
		if _, ok := StatusCodeMap[code]; !ok {
			t.Errorf("code %s has no entry in StatusCodeMap", code)
		}
	}
}
