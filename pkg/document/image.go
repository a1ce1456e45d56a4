package document

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"net/http"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Image types understood by gofpdf without conversion.
const (
	imagePNG = "PNG"
	imageJPG = "JPG"
	imageGIF = "GIF"
)

// normalizeImage returns data in a form gofpdf can embed together with its
// gofpdf image type. WebP, BMP and TIFF, as well as PNG variants gofpdf
// rejects (16-bit depth, interlaced), are decoded and re-encoded as 8-bit PNG.
func normalizeImage(data []byte) ([]byte, string, error) {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, "", fmt.Errorf("unsupported image data: %w", err)
	}

	switch http.DetectContentType(data) {
	case "image/jpeg":
		return data, imageJPG, nil
	case "image/gif":
		return data, imageGIF, nil
	case "image/png":
		if pngEmbeddable(data) {
			return data, imagePNG, nil
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	out, err := encodePNG(img)
	if err != nil {
		return nil, "", err
	}
	return out, imagePNG, nil
}

// pngEmbeddable reports whether the PNG header describes an 8-bit,
// non-interlaced image.
func pngEmbeddable(data []byte) bool {
	const (
		bitDepthOffset  = 24
		interlaceOffset = 28
	)
	if len(data) <= interlaceOffset {
		return false
	}
	return data[bitDepthOffset] <= 8 && data[interlaceOffset] == 0
}

func encodePNG(img image.Image) ([]byte, error) {
	rgba := image.NewNRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
