package common

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes of the extraction taxonomy.
const (
	CodeUnsupportedFileType     = "UNSUPPORTED_FILE_TYPE"
	CodeQueueSaturated          = "QUEUE_SATURATED"
	CodeOcrTimeout              = "OCR_TIMEOUT"
	CodeOcrEngineFailure        = "OCR_ENGINE_FAILURE"
	CodeAllProvidersFailed      = "ALL_PROVIDERS_FAILED"
	CodeLowConfidenceResult     = "LOW_CONFIDENCE_RESULT"
	CodeRequestDeadlineExceeded = "REQUEST_DEADLINE_EXCEEDED"
	CodeJobNotFound             = "JOB_NOT_FOUND"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeConfig                  = "CONFIG_ERROR"
	CodeInternal                = "INTERNAL"
)

// Sentinels, one per code, so callers can use errors.Is.
var (
	ErrUnsupportedFileType     = errors.New("unsupported file type")
	ErrQueueSaturated          = errors.New("ocr queue saturated")
	ErrOcrTimeout              = errors.New("ocr timed out")
	ErrOcrEngineFailure        = errors.New("ocr engine failure")
	ErrAllProvidersFailed      = errors.New("all llm providers failed")
	ErrLowConfidenceResult     = errors.New("low confidence result")
	ErrRequestDeadlineExceeded = errors.New("request deadline exceeded")
	ErrJobNotFound             = errors.New("job not found")
	ErrInvalidInput            = errors.New("invalid input")
	ErrInternal                = errors.New("internal error")
	ErrShuttingDown            = errors.New("shutting down")
)

var codeSentinels = map[string]error{
	CodeUnsupportedFileType:     ErrUnsupportedFileType,
	CodeQueueSaturated:          ErrQueueSaturated,
	CodeOcrTimeout:              ErrOcrTimeout,
	CodeOcrEngineFailure:        ErrOcrEngineFailure,
	CodeAllProvidersFailed:      ErrAllProvidersFailed,
	CodeLowConfidenceResult:     ErrLowConfidenceResult,
	CodeRequestDeadlineExceeded: ErrRequestDeadlineExceeded,
	CodeJobNotFound:             ErrJobNotFound,
	CodeInvalidInput:            ErrInvalidInput,
	CodeConfig:                  ErrInvalidInput,
	CodeInternal:                ErrInternal,
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewTaxonomyError builds an AppError whose cause chain contains the code's sentinel
// and, when given, the underlying error.
func NewTaxonomyError(code, message string, cause error) *AppError {
	sentinel, ok := codeSentinels[code]
	if !ok {
		sentinel = ErrInternal
	}
	if cause == nil || errors.Is(cause, sentinel) {
		if cause == nil {
			cause = sentinel
		}
		return NewAppError(code, message, cause)
	}
	return NewAppError(code, message, fmt.Errorf("%w: %w", sentinel, cause))
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// CodeOf returns the taxonomy code carried by err, or CodeInternal.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	for code, sentinel := range codeSentinels {
		if code != CodeConfig && errors.Is(err, sentinel) {
			return code
		}
	}
	return CodeInternal
}

// GRPCStatus maps a taxonomy error onto a gRPC status error.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch CodeOf(err) {
	case CodeUnsupportedFileType, CodeInvalidInput, CodeConfig:
		return status.Error(codes.InvalidArgument, msg)
	case CodeQueueSaturated:
		return status.Error(codes.ResourceExhausted, msg)
	case CodeOcrTimeout, CodeRequestDeadlineExceeded:
		return status.Error(codes.DeadlineExceeded, msg)
	case CodeJobNotFound:
		return status.Error(codes.NotFound, msg)
	case CodeOcrEngineFailure, CodeAllProvidersFailed:
		return status.Error(codes.Unavailable, msg)
	default:
		return status.Error(codes.Internal, msg)
	}
}

// HTTPStatus maps a taxonomy error onto an HTTP status code.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case "":
		return http.StatusOK
	case CodeUnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case CodeInvalidInput, CodeConfig:
		return http.StatusBadRequest
	case CodeQueueSaturated:
		return http.StatusTooManyRequests
	case CodeOcrTimeout, CodeRequestDeadlineExceeded:
		return http.StatusGatewayTimeout
	case CodeJobNotFound:
		return http.StatusNotFound
	case CodeOcrEngineFailure, CodeAllProvidersFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}
