// Package imageproc resizes, re-encodes and inspects uploaded images.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

var ErrUnsupportedImage = errors.New("unsupported image")

type Metadata struct {
	Width  int
	Height int
	Format string
}

type Processor interface {
	// Resize scales data to width. A zero height keeps the aspect ratio.
	Resize(data []byte, width, height int) ([]byte, error)
	// ToWebP re-encodes data as lossy WebP.
	ToWebP(data []byte) ([]byte, error)
	Metadata(data []byte) (Metadata, error)
}

type Imaging struct {
	// WebPQuality is the lossy encoder quality, 0-100.
	WebPQuality float32
}

func NewImaging() *Imaging {
	return &Imaging{WebPQuality: 80}
}

func decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}

// Resize returns PNG encoded bytes; the result is an intermediate that is
// re-encoded before storage.
func (p *Imaging) Resize(data []byte, width, height int) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	resized := imaging.Resize(img, width, height, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG, imaging.PNGCompressionLevel(png.BestSpeed)); err != nil {
		return nil, fmt.Errorf("encode resized image: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *Imaging) ToWebP(data []byte) ([]byte, error) {
	img, err := decode(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: p.WebPQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// Metadata reports dimensions as displayed, so an EXIF-rotated JPEG agrees
// with the thumbnails Resize and ToWebP produce from it.
func (p *Imaging) Metadata(data []byte) (Metadata, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	meta := Metadata{Width: cfg.Width, Height: cfg.Height, Format: format}

	// imaging only reads orientation from JPEG
	if format == "jpeg" {
		img, err := decode(data)
		if err != nil {
			return Metadata{}, err
		}
		meta.Width, meta.Height = img.Bounds().Dx(), img.Bounds().Dy()
	}
	return meta, nil
}

// Stub returns its input unchanged and reports fixed dimensions.
type Stub struct {
	Width  int
	Height int
	Format string
}

func (s *Stub) Resize(data []byte, _, _ int) ([]byte, error) {
	return data, nil
}

func (s *Stub) ToWebP(data []byte) ([]byte, error) {
	return data, nil
}

func (s *Stub) Metadata(_ []byte) (Metadata, error) {
	return Metadata{Width: s.Width, Height: s.Height, Format: s.Format}, nil
}
