package extraction

import "context"

// Document is a normalized input ready for the provider: raw bytes plus the
// MIME type they should be declared as.
type Document struct {
	Data     []byte
	MIMEType string
}

// ReceiptFields contains the structured fields extracted from a receipt.
// Absent fields are zero values; callers surface them for user review
// instead of rejecting the extraction.
type ReceiptFields struct {
	Date        string `json:"date"`
	Amount      int64  `json:"amount"`
	Payee       string `json:"payee"`
	Description string `json:"description"`
}

// ModelDescriptor describes one provider model capable of extraction.
type ModelDescriptor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// Extractor defines the interface for receipt field extraction.
type Extractor interface {
	// Extract sends a normalized document to the provider and returns the
	// parsed fields. A single attempt: no retry, no backoff.
	Extract(ctx context.Context, apiKey string, doc *Document, modelID string) (*ReceiptFields, error)
}

// Catalog defines the interface for listing extraction-capable models.
type Catalog interface {
	ListModels(ctx context.Context, apiKey string) ([]ModelDescriptor, error)
}
