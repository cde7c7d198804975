// Package media renders uploaded radiographs into browser-friendly PNG
// previews. DICOM files are windowed to 8-bit grayscale; plain PNG and JPEG
// uploads get a contrast stretch so low-exposure scans stay readable.
package media

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Kind classifies the upload by its magic bytes, not its filename.
type Kind string

const (
	KindDICOM   Kind = "dicom"
	KindPNG     Kind = "png"
	KindJPEG    Kind = "jpeg"
	KindUnknown Kind = "unknown"
)

// Meta describes the upload alongside the rendered preview.
type Meta struct {
	Filename   string            `json:"filename"`
	SHA256     string            `json:"sha256"`
	Kind       Kind              `json:"kind"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Preview is a rendered image plus its metadata.
type Preview struct {
	PNG  []byte `json:"png"`
	Meta Meta   `json:"meta"`
}

// DetectKind sniffs the payload type.
func DetectKind(data []byte) Kind {
	switch {
	case len(data) > 132 && bytes.Equal(data[128:132], []byte("DICM")):
		return KindDICOM
	case len(data) > 8 && bytes.Equal(data[:8], []byte("\x89PNG\r\n\x1a\n")):
		return KindPNG
	case len(data) > 3 && data[0] == 0xFF && data[1] == 0xD8:
		return KindJPEG
	default:
		return KindUnknown
	}
}

// Load renders a preview for an uploaded file. Unknown formats still get a
// hash and a placeholder image so the caller always has something to show.
func Load(filename string, data []byte) (Preview, error) {
	sum := sha256.Sum256(data)
	meta := Meta{
		Filename: filename,
		SHA256:   hex.EncodeToString(sum[:]),
		Kind:     DetectKind(data),
	}

	var (
		img image.Image
		err error
	)
	switch meta.Kind {
	case KindDICOM:
		img, meta.Attributes, err = renderDICOM(data)
	case KindPNG:
		img, err = decodeAndStretch(data, png.Decode)
	case KindJPEG:
		img, err = decodeAndStretch(data, jpeg.Decode)
	default:
		img = placeholder()
	}
	if err != nil {
		return Preview{}, fmt.Errorf("render %s: %w", filename, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Preview{}, fmt.Errorf("encode preview: %w", err)
	}
	return Preview{PNG: buf.Bytes(), Meta: meta}, nil
}

// metadataTags are the DICOM attributes surfaced to the technician view.
var metadataTags = map[string]tag.Tag{
	"Modality":          tag.Modality,
	"PatientID":         tag.PatientID,
	"StudyInstanceUID":  tag.StudyInstanceUID,
	"SeriesInstanceUID": tag.SeriesInstanceUID,
	"SOPInstanceUID":    tag.SOPInstanceUID,
	"StudyDate":         tag.StudyDate,
	"Rows":              tag.Rows,
	"Columns":           tag.Columns,
}

func renderDICOM(data []byte) (image.Image, map[string]string, error) {
	ds, err := dicom.Parse(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("parse dicom: %w", err)
	}

	attrs := make(map[string]string)
	for name, t := range metadataTags {
		if el, err := ds.FindElementByTag(t); err == nil {
			if s := elementString(el.Value.GetValue()); s != "" {
				attrs[name] = s
			}
		}
	}

	pixelEl, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, nil, fmt.Errorf("no pixel data: %w", err)
	}
	info := dicom.MustGetPixelDataInfo(pixelEl.Value)
	if len(info.Frames) == 0 {
		return nil, nil, fmt.Errorf("pixel data holds no frames")
	}
	frame := info.Frames[0]

	if native, err := frame.GetNativeFrame(); err == nil {
		center, width, ok := windowValues(ds)
		if !ok {
			center, width = autoWindow(native.Data)
		}
		return windowToGray(native.Data, native.Rows, native.Cols, center, width), attrs, nil
	}

	// Encapsulated transfer syntaxes (JPEG baseline etc.) decode directly.
	img, err := frame.GetImage()
	if err != nil {
		return nil, nil, fmt.Errorf("decode frame: %w", err)
	}
	return img, attrs, nil
}

// windowValues reads WindowCenter/WindowWidth; multi-valued attributes use
// the first pair.
func windowValues(ds dicom.Dataset) (center, width float64, ok bool) {
	centerEl, err := ds.FindElementByTag(tag.WindowCenter)
	if err != nil {
		return 0, 0, false
	}
	widthEl, err := ds.FindElementByTag(tag.WindowWidth)
	if err != nil {
		return 0, 0, false
	}
	center, okC := firstFloat(centerEl.Value.GetValue())
	width, okW := firstFloat(widthEl.Value.GetValue())
	if !okC || !okW || width <= 0 {
		return 0, 0, false
	}
	return center, width, true
}

// autoWindow derives a min-max window when the file carries none.
func autoWindow(pixels [][]int) (center, width float64) {
	min, max := 1<<30, -(1 << 30)
	for _, px := range pixels {
		if len(px) == 0 {
			continue
		}
		if px[0] < min {
			min = px[0]
		}
		if px[0] > max {
			max = px[0]
		}
	}
	if max <= min {
		return float64(min), 1
	}
	return float64(min+max) / 2, float64(max - min)
}

func windowToGray(pixels [][]int, rows, cols int, center, width float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	low := center - width/2
	for i, px := range pixels {
		if len(px) == 0 {
			continue
		}
		v := (float64(px[0]) - low) / width * 255
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		img.Pix[i] = uint8(v)
	}
	return img
}

func decodeAndStretch(data []byte, decode func(io.Reader) (image.Image, error)) (image.Image, error) {
	src, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return stretchGray(src), nil
}

// stretchGray converts to 8-bit grayscale and expands the used intensity
// range to the full scale.
func stretchGray(src image.Image) *image.Gray {
	b := src.Bounds()
	img := image.NewGray(b)
	draw.Draw(img, b, src, b.Min, draw.Src)

	min, max := uint8(255), uint8(0)
	for _, v := range img.Pix {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max <= min {
		return img
	}
	scale := 255.0 / float64(max-min)
	for i, v := range img.Pix {
		img.Pix[i] = uint8(float64(v-min) * scale)
	}
	return img
}

// placeholder is shown for formats the preview cannot decode.
func placeholder() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = 32
	}
	return img
}

func elementString(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, "\\")
	case []int:
		parts := make([]string, len(t))
		for i, n := range t {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, "\\")
	case string:
		return t
	default:
		return ""
	}
}

func firstFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(t[0]), 64)
		return f, err == nil
	case []float64:
		if len(t) == 0 {
			return 0, false
		}
		return t[0], true
	case []int:
		if len(t) == 0 {
			return 0, false
		}
		return float64(t[0]), true
	default:
		return 0, false
	}
}
