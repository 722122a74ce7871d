package qr

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	token := uuid.NewString()

	b, err := Encode(token)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("png config: %v", err)
	}
	if cfg.Width != Size || cfg.Height != Size {
		t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, Size, Size)
	}

	got, err := DecodeBytes(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != token {
		t.Errorf("decoded = %q, want %q", got, token)
	}
}

func TestDecodeBlankImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for i := range img.Pix {
		img.Pix[i] = uint8(color.White.Y >> 8)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}

	_, err := Decode(&buf)
	if !errors.Is(err, ErrNoCode) {
		t.Errorf("err = %v, want ErrNoCode", err)
	}
}

func TestDecodeNotAnImage(t *testing.T) {
	if _, err := DecodeBytes([]byte("not an image")); err == nil {
		t.Error("expected error for non-image input")
	}
}

func TestFilename(t *testing.T) {
	tests := map[string]string{
		"Ana Cruz":          "Ana_Cruz_QR.png",
		"  Juan  dela Cruz": "Juan_dela_Cruz_QR.png",
		"Mo":                "Mo_QR.png",
	}
	for in, want := range tests {
		if got := Filename(in); got != want {
			t.Errorf("Filename(%q) = %q, want %q", in, got, want)
		}
	}
}
