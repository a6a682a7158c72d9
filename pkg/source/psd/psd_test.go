package psd

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/oov/psd"

	"github.com/matzehuels/psdemiurge/pkg/errors"
)

func pixelLayer(seq int, name string, r image.Rectangle) psd.Layer {
	img := image.NewNRGBA(r)
	img.SetNRGBA(r.Min.X, r.Min.Y, color.NRGBA{R: uint8(seq), A: 255})
	return psd.Layer{SeqID: seq, Name: name, Rect: r, Picker: img}
}

func TestFlatten(t *testing.T) {
	box := image.Rect(0, 0, 2, 2)
	tree := []psd.Layer{
		pixelLayer(0, "body", box),
		{
			SeqID: 4,
			Name:  "face",
			Layer: []psd.Layer{
				pixelLayer(1, "mouth", box),
				pixelLayer(2, "eyes", box),
				{SeqID: 3, Name: "empty", Rect: image.Rectangle{}},
			},
		},
		pixelLayer(5, "hat", box),
		{SeqID: 6, Name: "no pixels", Rect: box},
	}

	var got []string
	for _, l := range flatten(tree) {
		got = append(got, l.Name)
	}
	want := []string{"hat", "eyes", "mouth", "body"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("flatten() mismatch (-want +got):\n%s", diff)
	}
}

func TestConvert(t *testing.T) {
	r := image.Rect(10, -5, 14, -1)
	src := image.NewNRGBA(r)
	faint := color.NRGBA{R: 200, G: 150, B: 100, A: 3}
	src.SetNRGBA(11, -4, faint)

	layers := convert([]*psd.Layer{{Name: "faint", Rect: r, Picker: src}}, false)
	if len(layers) != 1 {
		t.Fatalf("convert() returned %d layers", len(layers))
	}
	l := layers[0]
	if l.Box != r {
		t.Errorf("Box = %v, want %v", l.Box, r)
	}
	img, ok := l.Pixels.(*image.NRGBA)
	if !ok {
		t.Fatalf("Pixels is %T, want *image.NRGBA", l.Pixels)
	}
	if img.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Errorf("Pixels bounds = %v", img.Bounds())
	}
	if got := img.NRGBAAt(1, 1); got != faint {
		t.Errorf("faint pixel = %v, want %v (straight copy)", got, faint)
	}
}

func TestConvertWide(t *testing.T) {
	r := image.Rect(0, 0, 2, 1)
	src := image.NewNRGBA64(r)
	want := color.NRGBA64{R: 0x1234, G: 0x2345, B: 0x3456, A: 0x0102}
	src.SetNRGBA64(1, 0, want)

	layers := convert([]*psd.Layer{{Name: "deep", Rect: r, Picker: src}}, true)
	img, ok := layers[0].Pixels.(*image.NRGBA64)
	if !ok {
		t.Fatalf("Pixels is %T, want *image.NRGBA64", layers[0].Pixels)
	}
	if got := img.NRGBA64At(1, 0); got != want {
		t.Errorf("pixel = %v, want %v", got, want)
	}
}

func TestIsWide(t *testing.T) {
	tests := []struct {
		depth   int
		want    bool
		wantErr bool
	}{
		{8, false, false},
		{1, false, false},
		{16, true, false},
		{32, false, true},
	}
	for _, tt := range tests {
		got, err := isWide(tt.depth)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("isWide(%d) = %v, %v", tt.depth, got, err)
		}
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	s := New()

	_, err := s.Open(context.Background(), filepath.Join(dir, "missing.psd"))
	if !errors.Is(err, errors.ErrCodeMissingDocument) {
		t.Errorf("Open(missing) error = %v, want MISSING_DOCUMENT", err)
	}

	garbage := filepath.Join(dir, "garbage.psd")
	if err := os.WriteFile(garbage, []byte("this is not a psd"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = s.Open(context.Background(), garbage)
	if !errors.Is(err, errors.ErrCodeDecode) {
		t.Errorf("Open(garbage) error = %v, want DECODE_FAILED", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Open(ctx, garbage); err != context.Canceled {
		t.Errorf("Open(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestConvertPrefersUnicodeName(t *testing.T) {
	r := image.Rect(0, 0, 1, 1)
	src := image.NewNRGBA(r)
	layers := convert([]*psd.Layer{
		{Name: "Ebene 1", UnicodeName: "Ebene 1 (Kopie)", Rect: r, Picker: src},
		{Name: "body", Rect: r, Picker: src},
	}, false)
	if layers[0].Name != "Ebene 1 (Kopie)" || layers[1].Name != "body" {
		t.Errorf("names = %q, %q", layers[0].Name, layers[1].Name)
	}
}
