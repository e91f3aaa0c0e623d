// Package apperrors defines the typed failures surfaced by the checking
// pipeline. Every failure carries a stable code, the stage it happened in,
// and a message that is safe to show to callers.
package apperrors

import (
	"errors"
	"fmt"
)

// Code is a stable, user-visible error code.
type Code string

const (
	CodeUnsupportedFormat    Code = "UNSUPPORTED_FORMAT"
	CodeExtractionFailed     Code = "EXTRACTION_FAILED"
	CodeEmptyDocument        Code = "EMPTY_DOCUMENT"
	CodeEmbeddingUnavailable Code = "EMBEDDING_UNAVAILABLE"
	CodeIndexUnavailable     Code = "INDEX_UNAVAILABLE"
	CodeTimeout              Code = "TIMEOUT"
	CodeOverloaded           Code = "OVERLOADED"
	CodeInternal             Code = "INTERNAL"
)

// Kind groups codes by how the caller should react.
type Kind string

const (
	KindInput      Kind = "input"      // client-correctable
	KindProcessing Kind = "processing" // may or may not be retryable
	KindResource   Kind = "resource"   // retryable after backoff
	KindTimeout    Kind = "timeout"    // retryable
)

var codeKind = map[Code]Kind{
	CodeUnsupportedFormat:    KindInput,
	CodeExtractionFailed:     KindProcessing,
	CodeEmptyDocument:        KindInput,
	CodeEmbeddingUnavailable: KindProcessing,
	CodeIndexUnavailable:     KindResource,
	CodeTimeout:              KindTimeout,
	CodeOverloaded:           KindResource,
	CodeInternal:             KindProcessing,
}

var codeMessage = map[Code]string{
	CodeUnsupportedFormat:    "unsupported document format",
	CodeExtractionFailed:     "failed to extract text from document",
	CodeEmptyDocument:        "document contains no text",
	CodeEmbeddingUnavailable: "embedding model unavailable",
	CodeIndexUnavailable:     "reference index unavailable",
	CodeTimeout:              "processing deadline exceeded",
	CodeOverloaded:           "too many concurrent requests",
	CodeInternal:             "internal error",
}

// Error is the single structured error type used across the pipeline.
// The wrapped cause is kept for logging but never serialized to callers.
type Error struct {
	Code    Code
	Stage   string
	Message string
	ChunkID int // -1 when not chunk-specific
	Cause   error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Kind returns the taxonomy kind of the error's code.
func (e *Error) Kind() Kind {
	if k, ok := codeKind[e.Code]; ok {
		return k
	}
	return KindProcessing
}

// New builds an Error with the default message for code.
func New(code Code) *Error {
	return &Error{Code: code, Message: codeMessage[code], ChunkID: -1}
}

// Wrap builds an Error around a cause. A nil cause yields nil so it can be
// used inline on call results.
func Wrap(cause error, code Code) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Code: code, Message: codeMessage[code], ChunkID: -1, Cause: cause}
}

// WithStage records the pipeline stage the failure happened in.
func (e *Error) WithStage(stage string) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Stage = stage
	return &clone
}

// WithChunk records the chunk the failure is attributable to.
func (e *Error) WithChunk(id int) *Error {
	if e == nil {
		return nil
	}
	clone := *e
	clone.ChunkID = id
	return &clone
}

// CodeOf extracts the error code from err's chain, or CodeInternal when no
// typed error is present.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-safe message for err. Untyped errors map to
// the generic internal message so no internal detail leaks.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return codeMessage[CodeInternal]
}

// IsCode reports whether err's chain contains an Error with the given code.
func IsCode(err error, code Code) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
