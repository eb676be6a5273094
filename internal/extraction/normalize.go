package extraction

import (
	"bytes"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// pdfRenderDPI renders PDF pages at twice the PDF's native 72 DPI, matching
// a 2.0x rasterization scale.
const pdfRenderDPI = 144

// Normalize converts an input file into a Document the provider accepts.
//
// Images pass through with their declared MIME type, except HEIC/HEIF which
// the provider rejects as inline data and so are re-encoded as PNG. PDFs are
// rasterized: only the first page is rendered, regardless of page count.
func Normalize(data []byte, mimeType string) (*Document, error) {
	mt := strings.ToLower(strings.TrimSpace(mimeType))

	switch {
	case mt == "application/pdf":
		pngData, err := pdfFirstPagePNG(data)
		if err != nil {
			return nil, err
		}
		return &Document{Data: pngData, MIMEType: "image/png"}, nil
	case isHEICMimeType(mt) || isHEICFormat(data):
		pngData, err := heicToPNG(data)
		if err != nil {
			return nil, err
		}
		return &Document{Data: pngData, MIMEType: "image/png"}, nil
	case strings.HasPrefix(mt, "image/"):
		return &Document{Data: data, MIMEType: mt}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// pdfFirstPagePNG renders page 1 of a PDF to PNG. Multi-page documents are
// silently truncated to the first page.
func pdfFirstPagePNG(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, &RenderError{Err: err}
	}
	defer doc.Close()

	img, err := doc.ImageDPI(0, pdfRenderDPI)
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

// heicToPNG decodes a HEIC/HEIF image and re-encodes it as PNG. Go's
// standard image package does not support the format, and neither does the
// provider's inline_data payload.
func heicToPNG(data []byte) ([]byte, error) {
	img, err := heic.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &RenderError{Err: err}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &RenderError{Err: err}
	}
	return buf.Bytes(), nil
}

// isHEICFormat sniffs the ftyp box brands HEIC containers use.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
