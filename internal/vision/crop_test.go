package vision

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
)

func makeFrame(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return buf.Bytes()
}

func TestPixelRect(t *testing.T) {
	tests := []struct {
		name   string
		box    BoundingBox
		frameW int
		frameH int
		want   image.Rectangle
	}{
		{
			name:   "full frame",
			box:    BoundingBox{Left: 0, Top: 0, Width: 1, Height: 1},
			frameW: 640, frameH: 480,
			want: image.Rect(0, 0, 640, 480),
		},
		{
			name:   "centered box",
			box:    BoundingBox{Left: 0.25, Top: 0.25, Width: 0.5, Height: 0.5},
			frameW: 400, frameH: 400,
			want: image.Rect(100, 100, 300, 300),
		},
		{
			name:   "negative origin clamped to zero",
			box:    BoundingBox{Left: -0.1, Top: -0.2, Width: 0.5, Height: 0.5},
			frameW: 100, frameH: 100,
			want: image.Rect(0, 0, 50, 50),
		},
		{
			name:   "overflow shrunk to frame edge",
			box:    BoundingBox{Left: 0.8, Top: 0.9, Width: 0.5, Height: 0.5},
			frameW: 100, frameH: 100,
			want: image.Rect(80, 90, 100, 100),
		},
		{
			name:   "origin past the frame yields empty rect",
			box:    BoundingBox{Left: 1.5, Top: 1.5, Width: 0.2, Height: 0.2},
			frameW: 100, frameH: 100,
			want: image.Rect(100, 100, 100, 100),
		},
		{
			name:   "negative size collapses to zero",
			box:    BoundingBox{Left: 0.5, Top: 0.5, Width: -0.3, Height: -0.3},
			frameW: 100, frameH: 100,
			want: image.Rect(50, 50, 50, 50),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PixelRect(tt.box, tt.frameW, tt.frameH)
			if got != tt.want {
				t.Errorf("PixelRect() = %v, want %v", got, tt.want)
			}
			if got.Min.X < 0 || got.Min.Y < 0 || got.Max.X > tt.frameW || got.Max.Y > tt.frameH {
				t.Errorf("PixelRect() = %v escapes %dx%d frame", got, tt.frameW, tt.frameH)
			}
		})
	}
}

func TestCropFace(t *testing.T) {
	frame := makeFrame(t, 200, 200)

	crop, err := CropFace(frame, BoundingBox{Left: 0.25, Top: 0.25, Width: 0.5, Height: 0.5}, 40)
	if err != nil {
		t.Fatalf("CropFace() error = %v", err)
	}
	if crop == nil {
		t.Fatal("CropFace() returned nil for a valid crop")
	}

	img, err := jpeg.Decode(bytes.NewReader(crop))
	if err != nil {
		t.Fatalf("decode crop: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 100 {
		t.Errorf("crop dimensions = %dx%d, want 100x100", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCropFaceDiscardsUndersized(t *testing.T) {
	frame := makeFrame(t, 200, 200)

	// 0.15 * 200 = 30px, below the 40px minimum.
	crop, err := CropFace(frame, BoundingBox{Left: 0.1, Top: 0.1, Width: 0.15, Height: 0.15}, 40)
	if err != nil {
		t.Fatalf("CropFace() error = %v", err)
	}
	if crop != nil {
		t.Errorf("CropFace() returned %d bytes for an undersized face, want nil", len(crop))
	}
}

func TestCropFaceDiscardsEdgeSliver(t *testing.T) {
	frame := makeFrame(t, 200, 200)

	// Wide enough on its own, but clamping at the right edge leaves a sliver.
	crop, err := CropFace(frame, BoundingBox{Left: 0.95, Top: 0.1, Width: 0.5, Height: 0.5}, 40)
	if err != nil {
		t.Fatalf("CropFace() error = %v", err)
	}
	if crop != nil {
		t.Error("CropFace() returned a crop for a clamped edge sliver, want nil")
	}
}

func TestCropFaceInvalidImage(t *testing.T) {
	_, err := CropFace([]byte("not an image"), BoundingBox{Width: 1, Height: 1}, 40)
	if err == nil {
		t.Error("CropFace() expected error for undecodable frame")
	}
}
