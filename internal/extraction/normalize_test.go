package extraction

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// pngMagic is the PNG file signature.
var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// buildPNG returns a small valid PNG image.
func buildPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

// buildPDF assembles a minimal one-page PDF, computing xref offsets as the
// objects are written so the file is well-formed.
func buildPDF() []byte {
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xrefStart)
	return buf.Bytes()
}

var _ = Describe("Normalize", func() {
	var (
		data     []byte
		mimeType string
		doc      *Document
		err      error
	)

	JustBeforeEach(func() {
		doc, err = Normalize(data, mimeType)
	})

	When("given a PNG image", func() {
		BeforeEach(func() {
			data = buildPNG()
			mimeType = "image/png"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should pass the bytes through unchanged", func() {
			Expect(doc.Data).To(Equal(data))
		})

		It("should keep the declared MIME type", func() {
			Expect(doc.MIMEType).To(Equal("image/png"))
		})
	})

	When("given a JPEG image", func() {
		BeforeEach(func() {
			data = []byte("jpeg bytes, passed through undecoded")
			mimeType = "image/jpeg"
		})

		It("should keep the declared MIME type", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.MIMEType).To(Equal("image/jpeg"))
		})

		It("should pass the bytes through unchanged", func() {
			Expect(doc.Data).To(Equal(data))
		})
	})

	When("the MIME type carries whitespace and casing noise", func() {
		BeforeEach(func() {
			data = buildPNG()
			mimeType = " Image/PNG "
		})

		It("should normalize the MIME type", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.MIMEType).To(Equal("image/png"))
		})
	})

	When("given a single-page PDF", func() {
		BeforeEach(func() {
			data = buildPDF()
			mimeType = "application/pdf"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should always produce a PNG", func() {
			Expect(doc.MIMEType).To(Equal("image/png"))
			Expect(doc.Data[:4]).To(Equal(pngMagic))
		})
	})

	When("given a corrupt PDF", func() {
		BeforeEach(func() {
			data = []byte("not a pdf at all")
			mimeType = "application/pdf"
		})

		It("fails with a render error", func() {
			var render *RenderError
			Expect(errors.As(err, &render)).To(BeTrue())
		})

		It("produces no partial output", func() {
			Expect(doc).To(BeNil())
		})
	})

	When("given garbage declared as HEIC", func() {
		BeforeEach(func() {
			data = []byte("definitely not heic")
			mimeType = "image/heic"
		})

		It("fails with a render error", func() {
			var render *RenderError
			Expect(errors.As(err, &render)).To(BeTrue())
		})
	})

	When("given an unsupported MIME type", func() {
		BeforeEach(func() {
			data = []byte("hello")
			mimeType = "text/plain"
		})

		It("fails with ErrUnsupportedFormat", func() {
			Expect(err).To(MatchError(ErrUnsupportedFormat))
		})

		It("produces no partial output", func() {
			Expect(doc).To(BeNil())
		})
	})
})

var _ = Describe("isHEICFormat", func() {
	It("recognizes an ftyp box with a HEIC brand", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
		data = append(data, make([]byte, 8)...)
		Expect(isHEICFormat(data)).To(BeTrue())
	})

	It("rejects other containers", func() {
		data := append([]byte{0, 0, 0, 24}, []byte("ftypisom")...)
		data = append(data, make([]byte, 8)...)
		Expect(isHEICFormat(data)).To(BeFalse())
	})

	It("rejects short input", func() {
		Expect(isHEICFormat([]byte("tiny"))).To(BeFalse())
	})
})
