package scanning

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// Images shorter than minOCRHeight are upscaled to ocrHeight before OCR
const (
	minOCRHeight = 800
	ocrHeight    = 1200
)

// transcriptionPrompt is the shared prompt used by all LLM providers for reading documents
const transcriptionPrompt = `You are reading a bill, receipt or invoice. Transcribe every piece of text in the image exactly as printed, line by line, top to bottom.

Rules:
- Keep labels next to their amounts on the same line (for example "Total: INR 1200").
- Copy numbers, currency symbols, percent signs and separators exactly as they appear. Do not correct, convert or reformat them.
- Separate lines with a newline character.

Return ONLY valid JSON in this exact format:
{
  "text": "full transcription",
  "confidence": 0.0
}

Important:
- confidence is a number between 0 and 1 describing how legible the document was
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// decodeDocument turns an upload into a single image. PDFs render their first
// page; HEIC/HEIF goes through the pure Go decoder since image.Decode cannot
// read it.
func decodeDocument(data []byte, mimeType string) (image.Image, error) {
	switch {
	case mimeType == "application/pdf":
		doc, err := fitz.NewFromMemory(data)
		if err != nil {
			return nil, fmt.Errorf("opening PDF: %w", err)
		}
		defer doc.Close()

		img, err := doc.Image(0)
		if err != nil {
			return nil, fmt.Errorf("rendering PDF page: %w", err)
		}
		return img, nil
	case isHEIC(data, mimeType):
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	default:
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") {
				return nil, fmt.Errorf("unsupported image format (supported: JPEG, PNG, GIF, BMP, TIFF, HEIC, PDF): %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
		return img, nil
	}
}

// isHEIC checks the MIME type and the ftyp brand at offset 4
func isHEIC(data []byte, mimeType string) bool {
	if strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif") {
		return true
	}
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func normalizeMimeType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "" {
		return "image/jpeg"
	}
	return mimeType
}

// prepareImageData converts an upload to PNG for the vision models. PNG input
// is passed through untouched.
func prepareImageData(data []byte, contentType string) ([]byte, error) {
	mimeType := normalizeMimeType(contentType)
	if mimeType == "image/png" && !isHEIC(data, mimeType) {
		return data, nil
	}

	img, err := decodeDocument(data, mimeType)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}

// preprocessForOCR converts an upload to a grayscale PNG, upscaling short images
func preprocessForOCR(data []byte, contentType string) ([]byte, error) {
	img, err := decodeDocument(data, normalizeMimeType(contentType))
	if err != nil {
		return nil, err
	}

	gray := imaging.Grayscale(img)
	if gray.Bounds().Dy() < minOCRHeight {
		gray = imaging.Resize(gray, 0, ocrHeight, imaging.Lanczos)
	}
	return encodePNG(gray)
}
