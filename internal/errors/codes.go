package errors

import "net/http"

// ErrorCode identifies the kind of failure surfaced to API callers.
type ErrorCode string

const (
	// Input validation
	ErrInvalidURL        ErrorCode = "INVALID_URL"
	ErrInvalidSourceType ErrorCode = "INVALID_SOURCE_TYPE"
	ErrMissingURL        ErrorCode = "MISSING_URL"
	ErrMissingFile       ErrorCode = "MISSING_FILE"
	ErrInvalidFileType   ErrorCode = "INVALID_FILE_TYPE"
	ErrFileTooLarge      ErrorCode = "FILE_TOO_LARGE"
	ErrInvalidFormat     ErrorCode = "INVALID_FORMAT"
	ErrInvalidTrack      ErrorCode = "INVALID_TRACK"
	ErrInvalidAction     ErrorCode = "INVALID_ACTION"
	ErrMissingTitle      ErrorCode = "MISSING_TITLE"

	// Admission
	ErrRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrServiceBusy       ErrorCode = "SERVICE_BUSY"
	ErrDurationExceeded  ErrorCode = "DURATION_EXCEEDED"

	// Lookup
	ErrJobNotFound     ErrorCode = "JOB_NOT_FOUND"
	ErrJobNotCompleted ErrorCode = "JOB_NOT_COMPLETED"
	ErrNoResult        ErrorCode = "NO_RESULT"
	ErrNoTracks        ErrorCode = "NO_TRACKS"
	ErrTrackNotFound   ErrorCode = "TRACK_NOT_FOUND"
	ErrMixNotFound     ErrorCode = "MIX_NOT_FOUND"
	ErrExportNotFound  ErrorCode = "EXPORT_NOT_FOUND"

	// Pipeline execution
	ErrAcquisitionFailed ErrorCode = "ACQUISITION_FAILED"
	ErrExtractError      ErrorCode = "EXTRACT_ERROR"
	ErrSeparationError   ErrorCode = "SEPARATION_ERROR"
	ErrMergeError        ErrorCode = "MERGE_ERROR"
	ErrToolTimeout       ErrorCode = "TOOL_TIMEOUT"
	ErrExternalTool      ErrorCode = "EXTERNAL_TOOL_ERROR"

	// Bundle
	ErrBadBundle    ErrorCode = "BAD_BUNDLE"
	ErrExportFailed ErrorCode = "EXPORT_FAILED"

	// Fallthrough
	ErrInternal ErrorCode = "INTERNAL_ERROR"
)

// StatusCodeMap maps each ErrorCode to its HTTP status.
var StatusCodeMap = map[ErrorCode]int{
	ErrInvalidURL:        http.StatusBadRequest,
	ErrInvalidSourceType: http.StatusBadRequest,
	ErrMissingURL:        http.StatusBadRequest,
	ErrMissingFile:       http.StatusBadRequest,
	ErrInvalidFileType:   http.StatusBadRequest,
	ErrFileTooLarge:      http.StatusBadRequest,
	ErrInvalidFormat:     http.StatusBadRequest,
	ErrInvalidTrack:      http.StatusBadRequest,
	ErrInvalidAction:     http.StatusBadRequest,
	ErrMissingTitle:      http.StatusBadRequest,

	ErrRateLimitExceeded: http.StatusTooManyRequests,
	ErrServiceBusy:       http.StatusServiceUnavailable,
	ErrDurationExceeded:  http.StatusBadRequest,

	ErrJobNotFound:     http.StatusNotFound,
	ErrJobNotCompleted: http.StatusBadRequest,
	ErrNoResult:        http.StatusBadRequest,
	ErrNoTracks:        http.StatusBadRequest,
	ErrTrackNotFound:   http.StatusNotFound,
	ErrMixNotFound:     http.StatusNotFound,
	ErrExportNotFound:  http.StatusNotFound,

	ErrAcquisitionFailed: http.StatusUnprocessableEntity,
	ErrExtractError:      http.StatusUnprocessableEntity,
	ErrSeparationError:   http.StatusUnprocessableEntity,
	ErrMergeError:        http.StatusUnprocessableEntity,
	ErrToolTimeout:       http.StatusGatewayTimeout,
	ErrExternalTool:      http.StatusBadGateway,

	ErrBadBundle:    http.StatusBadRequest,
	ErrExportFailed: http.StatusInternalServerError,

	ErrInternal: http.StatusInternalServerError,
}

// StatusCode returns the HTTP status for this code, defaulting to 500.
func (e ErrorCode) StatusCode() int {
	if code, ok := StatusCodeMap[e]; ok {
		return code
	}
	return http.StatusInternalServerError
}
