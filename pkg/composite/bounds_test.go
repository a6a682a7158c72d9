package composite

import (
	"image"
	"testing"

	"github.com/matzehuels/psdemiurge/pkg/errors"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name   string
		boxes  []image.Rectangle
		policy Bounds
		want   image.Rectangle
	}{
		{
			name:   "single box at origin",
			boxes:  []image.Rectangle{image.Rect(0, 0, 100, 200)},
			policy: BoundsOrigin,
			want:   image.Rect(0, 0, 100, 200),
		},
		{
			name:   "origin seed grows to include origin",
			boxes:  []image.Rectangle{image.Rect(10, 20, 50, 60)},
			policy: BoundsOrigin,
			want:   image.Rect(0, 0, 50, 60),
		},
		{
			name:   "tight seed ignores origin",
			boxes:  []image.Rectangle{image.Rect(10, 20, 50, 60)},
			policy: BoundsTight,
			want:   image.Rect(10, 20, 50, 60),
		},
		{
			name:   "negative offsets",
			boxes:  []image.Rectangle{image.Rect(0, 0, 100, 200), image.Rect(10, -20, 90, 40)},
			policy: BoundsOrigin,
			want:   image.Rect(0, -20, 100, 200),
		},
		{
			name:   "all negative with origin seed",
			boxes:  []image.Rectangle{image.Rect(-50, -40, -10, -5)},
			policy: BoundsOrigin,
			want:   image.Rect(-50, -40, 0, 0),
		},
		{
			name:   "all negative tight",
			boxes:  []image.Rectangle{image.Rect(-50, -40, -10, -5), image.Rect(-30, -60, -20, -30)},
			policy: BoundsTight,
			want:   image.Rect(-50, -60, -10, -5),
		},
		{
			name:   "zero-sized box still counts",
			boxes:  []image.Rectangle{image.Rect(10, 10, 20, 20), {Min: image.Pt(40, 40), Max: image.Pt(40, 40)}},
			policy: BoundsTight,
			want:   image.Rect(10, 10, 40, 40),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Reduce(tt.boxes, tt.policy)
			if err != nil {
				t.Fatalf("Reduce() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Reduce() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReduceEmpty(t *testing.T) {
	for _, policy := range []Bounds{BoundsOrigin, BoundsTight} {
		_, err := Reduce(nil, policy)
		if !errors.Is(err, errors.ErrCodeEmptyVariant) {
			t.Errorf("Reduce(nil, %v) error = %v, want EMPTY_VARIANT", policy, err)
		}
	}
}

func TestReduceProperties(t *testing.T) {
	boxes := []image.Rectangle{
		image.Rect(5, 5, 30, 40),
		image.Rect(-12, 8, 3, 19),
		image.Rect(20, -7, 64, 2),
		image.Rect(1, 1, 2, 2),
	}

	for _, policy := range []Bounds{BoundsOrigin, BoundsTight} {
		t.Run(policy.String(), func(t *testing.T) {
			want, err := Reduce(boxes, policy)
			if err != nil {
				t.Fatalf("Reduce() error = %v", err)
			}

			if want.Dx() < 0 || want.Dy() < 0 {
				t.Errorf("negative size %v", want.Size())
			}
			for _, b := range boxes {
				if !b.In(want) {
					t.Errorf("box %v not contained in %v", b, want)
				}
			}
			if policy == BoundsOrigin && (want.Min.X > 0 || want.Min.Y > 0 || want.Max.X < 0 || want.Max.Y < 0) {
				t.Errorf("origin-seeded box %v does not include origin", want)
			}

			for _, perm := range permutations(boxes) {
				got, err := Reduce(perm, policy)
				if err != nil {
					t.Fatalf("Reduce() error = %v", err)
				}
				if got != want {
					t.Errorf("Reduce(%v) = %v, want %v", perm, got, want)
				}
			}
		})
	}
}

func TestSize(t *testing.T) {
	boxes := []image.Rectangle{image.Rect(0, 0, 100, 200), image.Rect(10, -20, 90, 40)}

	w, h, err := Size(boxes, BoundsOrigin)
	if err != nil {
		t.Fatalf("Size() error = %v", err)
	}
	if w != 100 || h != 220 {
		t.Errorf("Size() = (%d, %d), want (100, 220)", w, h)
	}

	if _, _, err := Size(nil, BoundsOrigin); err == nil {
		t.Error("Size(nil) should fail")
	}
}

func TestParseBounds(t *testing.T) {
	tests := []struct {
		in      string
		want    Bounds
		wantErr bool
	}{
		{"", BoundsOrigin, false},
		{"origin", BoundsOrigin, false},
		{"tight", BoundsTight, false},
		{"loose", BoundsOrigin, true},
	}
	for _, tt := range tests {
		got, err := ParseBounds(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseBounds(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseBounds(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && tt.in != "" && got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

// permutations returns every ordering of boxes.
func permutations(boxes []image.Rectangle) [][]image.Rectangle {
	if len(boxes) <= 1 {
		return [][]image.Rectangle{append([]image.Rectangle(nil), boxes...)}
	}
	var out [][]image.Rectangle
	for i := range boxes {
		rest := make([]image.Rectangle, 0, len(boxes)-1)
		rest = append(rest, boxes[:i]...)
		rest = append(rest, boxes[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]image.Rectangle{boxes[i]}, p...))
		}
	}
	return out
}
