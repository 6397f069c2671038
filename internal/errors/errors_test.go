package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestJobNotFoundMessage(t *testing.T) {
	err := JobNotFound("abc123")

	if err.Code != ErrJobNotFound {
		t.Errorf("expected code %s, got %s", ErrJobNotFound, err.Code)
	}
	if !strings.Contains(err.Message, "abc123") {
		t.Errorf("expected job id in message, got %q", err.Message)
	}
	if err.Status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", err.Status)
	}
}

func TestInvalidFileTypeMessage(t *testing.T) {
	err := InvalidFileType(".exe")

	if err.Code != ErrInvalidFileType {
		t.Errorf("expected code %s, got %s", ErrInvalidFileType, err.Code)
	}
	if !strings.Contains(err.Message, ".exe") {
		t.Errorf("expected extension in message, got %q", err.Message)
	}
}

func TestExternalToolAttachesDetails(t *testing.T) {
	err := ExternalTool("exit status 1: no such filter")

	if err.Details != "exit status 1: no such filter" {
		t.Errorf("expected stderr tail in details, got %q", err.Details)
	}
}

func TestRateLimitExceededRetryAfter(t *testing.T) {
	err := RateLimitExceeded(30)

	if !strings.Contains(err.Message, "30") {
		t.Errorf("expected retry-after seconds in message, got %q", err.Message)
	}
	if err.Status != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", err.Status)
	}
}

func TestInternalDefaultsMessage(t *testing.T) {
	err := Internal("")

	if err.Message != "internal error" {
		t.Errorf("expected default message, got %q", err.Message)
	}
}

func TestErrorImplementsErrorInterface(t *testing.T) {
	var err error = JobNotFound("x")

	if !strings.Contains(err.Error(), "JOB_NOT_FOUND") {
		t.Errorf("expected code in Error() string, got %q", err.Error())
	}
}

func TestMarshalJSONOmitsStatus(t *testing.T) {
	err := JobNotFound("abc")

	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("unexpected marshal error: %v", marshalErr)
	}
	if strings.Contains(string(data), "Status") || strings.Contains(string(data), "status") {
		t.Errorf("expected Status field to be omitted, got %s", data)
	}
	if !strings.Contains(string(data), "JOB_NOT_FOUND") {
		t.Errorf("expected code in JSON, got %s", data)
	}
}

func TestWithDetailsChains(t *testing.T) {
	err := InvalidFormat("bad container").WithDetails("container must be one of mp3, wav")

	if err.Details != "container must be one of mp3, wav" {
		t.Errorf("WithDetails did not set details, got %q", err.Details)
	}
}

func TestAsAPIErrorPassesThroughExisting(t *testing.T) {
	original := MixNotFound("mix-1")

	result := AsAPIError(original)

	if result != original {
		t.Error("expected the same *APIError pointer to be returned")
	}
}

func TestAsAPIErrorWrapsPlainError(t *testing.T) {
	result := AsAPIError(errors.New("boom"))

	if result.Code != ErrInternal {
		t.Errorf("expected INTERNAL_ERROR code, got %s", result.Code)
	}
	if result.Message != "boom" {
		t.Errorf("expected wrapped message, got %q", result.Message)
	}
}

func TestAsAPIErrorNil(t *testing.T) {
	if AsAPIError(nil) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestStatusCodeForPlainError(t *testing.T) {
	if got := StatusCode(errors.New("boom")); got != http.StatusInternalServerError {
		t.Errorf("expected 500 for a non-APIError, got %d", got)
	}
}

func TestStatusCodeForAPIError(t *testing.T) {
	err := ServiceBusy()
	if got := StatusCode(err); got != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", got)
	}
}
