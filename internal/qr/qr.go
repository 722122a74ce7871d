// Package qr encodes member identity tokens as QR codes and reads them back
// from scanned images.
package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/makiuchi-d/gozxing"
	zxingqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/skip2/go-qrcode"
)

// Size is the pixel width of generated member codes.
const Size = 300

// ErrNoCode is returned when an image holds no readable QR code.
var ErrNoCode = errors.New("no qr code found")

// Encode renders token as a PNG.
func Encode(token string) ([]byte, error) {
	png, err := qrcode.Encode(token, qrcode.Medium, Size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// Decode reads the first QR code in a PNG or JPEG image and returns its text.
func Decode(r io.Reader) (string, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", fmt.Errorf("binarize image: %w", err)
	}
	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := zxingqr.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoCode, err)
	}
	return result.GetText(), nil
}

// DecodeBytes is Decode over an in-memory image.
func DecodeBytes(b []byte) (string, error) {
	return Decode(bytes.NewReader(b))
}

// Filename is the download name for a member's code, e.g. Ana_Cruz_QR.png.
func Filename(name string) string {
	return strings.Join(strings.Fields(name), "_") + "_QR.png"
}
