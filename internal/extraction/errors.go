package extraction

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat is returned when a file's MIME type is neither an
// image nor a PDF.
var ErrUnsupportedFormat = errors.New("unsupported file format: expected an image or a PDF")

// ErrEmptyResponse is returned when the provider answers without any text
// content to parse.
var ErrEmptyResponse = errors.New("provider returned no text content")

// RenderError reports a failure while decoding or rasterizing a document.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering document: %v", e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// ProviderError reports a transport or HTTP-level failure talking to the
// inference provider. Message carries the provider's structured error body
// when one was present, else "HTTP <status>".
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// MalformedExtractionError reports that the provider replied successfully
// but with text that does not conform to the expected JSON shape. It is
// deliberately distinct from ProviderError: it signals a model problem, not
// a transport problem.
type MalformedExtractionError struct {
	Text string
	Err  error
}

func (e *MalformedExtractionError) Error() string {
	return fmt.Sprintf("malformed extraction output: %v", e.Err)
}

func (e *MalformedExtractionError) Unwrap() error {
	return e.Err
}
