package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is the standardized error envelope returned by the HTTP
// surface: `{code, message}`, with an optional details string.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MarshalJSON customizes encoding so Status never leaks to callers.
func (e *APIError) MarshalJSON() ([]byte, error) {
	type Alias APIError
	return json.Marshal(&struct{ *Alias }{Alias: (*Alias)(e)})
}

// WithDetails attaches additional, non-sensitive context.
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

func newErr(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: code.StatusCode()}
}

func InvalidURL(message string) *APIError        { return newErr(ErrInvalidURL, message) }
func InvalidSourceType(message string) *APIError  { return newErr(ErrInvalidSourceType, message) }
func MissingURL() *APIError                       { return newErr(ErrMissingURL, "source_url is required") }
func MissingFile() *APIError                      { return newErr(ErrMissingFile, "file is required") }
func InvalidFileType(ext string) *APIError {
	return newErr(ErrInvalidFileType, fmt.Sprintf("file type %q is not accepted", ext))
}
func FileTooLarge(limitMB int) *APIError {
	return newErr(ErrFileTooLarge, fmt.Sprintf("file exceeds the %d MB limit", limitMB))
}
func InvalidFormat(message string) *APIError { return newErr(ErrInvalidFormat, message) }
func InvalidTrack(name string) *APIError {
	return newErr(ErrInvalidTrack, fmt.Sprintf("unknown track %q", name))
}
func InvalidAction(action string) *APIError {
	return newErr(ErrInvalidAction, fmt.Sprintf("unknown action %q", action))
}
func MissingTitle() *APIError { return newErr(ErrMissingTitle, "new_title is required for rename") }

func RateLimitExceeded(retryAfterSeconds int) *APIError {
	return newErr(ErrRateLimitExceeded, fmt.Sprintf("rate limit exceeded, retry in %ds", retryAfterSeconds))
}
func ServiceBusy() *APIError {
	return newErr(ErrServiceBusy, "the service is at capacity, try again shortly")
}
func DurationExceeded(maxSeconds int) *APIError {
	return newErr(ErrDurationExceeded, fmt.Sprintf("source exceeds the %ds duration limit", maxSeconds))
}

func JobNotFound(id string) *APIError {
	return newErr(ErrJobNotFound, fmt.Sprintf("job %q not found", id))
}
func JobNotCompleted(id string) *APIError {
	return newErr(ErrJobNotCompleted, fmt.Sprintf("job %q is not completed", id))
}
func NoResult() *APIError      { return newErr(ErrNoResult, "job has no result artifact") }
func NoTracks() *APIError      { return newErr(ErrNoTracks, "job has no separated tracks") }
func TrackNotFound(name string) *APIError {
	return newErr(ErrTrackNotFound, fmt.Sprintf("track %q not found", name))
}
func MixNotFound(id string) *APIError {
	return newErr(ErrMixNotFound, fmt.Sprintf("mix %q not found", id))
}
func ExportNotFound(id string) *APIError {
	return newErr(ErrExportNotFound, fmt.Sprintf("export %q not found", id))
}

func AcquisitionFailed(message string) *APIError { return newErr(ErrAcquisitionFailed, message) }
func ExtractError(message string) *APIError      { return newErr(ErrExtractError, message) }
func SeparationError(message string) *APIError   { return newErr(ErrSeparationError, message) }
func MergeError(message string) *APIError        { return newErr(ErrMergeError, message) }
func ToolTimeout(op string) *APIError {
	return newErr(ErrToolTimeout, fmt.Sprintf("%s timed out", op))
}
func ExternalTool(stderrTail string) *APIError {
	return newErr(ErrExternalTool, "external tool exited non-zero").WithDetails(stderrTail)
}

func BadBundle(message string) *APIError    { return newErr(ErrBadBundle, message) }
func ExportFailed(message string) *APIError { return newErr(ErrExportFailed, message) }

func Internal(message string) *APIError {
	if message == "" {
		message = "internal error"
	}
	return newErr(ErrInternal, message)
}

// AsAPIError unwraps err into an *APIError, or wraps it as a generic
// INTERNAL_ERROR if it isn't one already. Stack traces are never
// attached to the message.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*APIError); ok {
		return ae
	}
	return Internal(err.Error())
}

// StatusCode returns the HTTP status for a generic error, defaulting
// to 500 when it isn't an *APIError.
func StatusCode(err error) int {
	if ae, ok := err.(*APIError); ok {
		return ae.Status
	}
	return http.StatusInternalServerError
}
