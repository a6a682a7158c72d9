package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/psdemiurge/pkg/errors"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if (x+y)%2 == 0 {
				img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{B: 200, A: 100})
			}
		}
	}
	return img
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
	}{
		{"", CompressionDefault, false},
		{"default", CompressionDefault, false},
		{"best", CompressionBest, false},
		{"speed", CompressionSpeed, false},
		{"none", CompressionNone, false},
		{"max", CompressionDefault, true},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCompression(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseCompression(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if err != nil && !errors.IsConfigError(err) {
			t.Errorf("ParseCompression(%q) should fail with a config error", tt.in)
		}
	}
}

func TestWritePNGRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionDefault, CompressionBest, CompressionSpeed, CompressionNone} {
		t.Run(c.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "alice", "alice_happy.png")
			src := checker(9, 7)

			if err := WritePNG(path, src, c); err != nil {
				t.Fatalf("WritePNG() error = %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			decoded, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("png.Decode() error = %v", err)
			}
			got, ok := decoded.(*image.NRGBA)
			if !ok {
				t.Fatalf("decoded %T, want *image.NRGBA", decoded)
			}
			if !bytes.Equal(got.Pix, src.Pix) {
				t.Error("decoded pixels differ from source")
			}
		})
	}
}

func TestWriteFileReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.rpy")
	if err := WriteFile(path, []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(path, []byte("second")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (no temp files left)", len(entries))
	}
}

func TestScale(t *testing.T) {
	src := checker(10, 6)

	if got := Scale(src, 1); got != image.Image(src) {
		t.Error("Scale(1) should return the input")
	}

	half := Scale(src, 0.5)
	if got := half.Bounds().Size(); got != image.Pt(5, 3) {
		t.Errorf("Scale(0.5) size = %v, want (5,3)", got)
	}
	if _, ok := half.(*image.NRGBA); !ok {
		t.Errorf("Scale(0.5) type = %T, want *image.NRGBA", half)
	}

	tiny := Scale(src, 0.01)
	if got := tiny.Bounds().Size(); got != image.Pt(1, 1) {
		t.Errorf("Scale(0.01) size = %v, want (1,1)", got)
	}

	deep := Scale(image.NewNRGBA64(image.Rect(0, 0, 8, 8)), 0.5)
	if _, ok := deep.(*image.NRGBA64); !ok {
		t.Errorf("Scale(16-bit) type = %T, want *image.NRGBA64", deep)
	}
}
