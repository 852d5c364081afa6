package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
)

// PixelRect converts a normalized bounding box to a pixel rectangle inside
// a frame of the given dimensions. The origin is clamped to >= 0 and the
// rectangle is shrunk (never expanded) so it cannot extend past the frame.
func PixelRect(box BoundingBox, frameW, frameH int) image.Rectangle {
	left := int(box.Left * float64(frameW))
	top := int(box.Top * float64(frameH))
	w := int(box.Width * float64(frameW))
	h := int(box.Height * float64(frameH))

	if left < 0 {
		left = 0
	}
	if top < 0 {
		top = 0
	}
	if left > frameW {
		left = frameW
	}
	if top > frameH {
		top = frameH
	}
	if left+w > frameW {
		w = frameW - left
	}
	if top+h > frameH {
		h = frameH - top
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}

	return image.Rect(left, top, left+w, top+h)
}

// CropFace extracts the face region described by a normalized box from a
// frame image, measuring the frame's actual pixel dimensions. Crops whose
// final width or height falls below minPx are too unreliable to search and
// are discarded: the return is (nil, nil), not an error.
func CropFace(frame []byte, box BoundingBox, minPx int) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		img, _, err = image.Decode(bytes.NewReader(frame))
		if err != nil {
			return nil, fmt.Errorf("decode frame: %w", err)
		}
	}

	bounds := img.Bounds()
	rect := PixelRect(box, bounds.Dx(), bounds.Dy())

	if rect.Dx() < minPx || rect.Dy() < minPx {
		return nil, nil
	}

	crop := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			crop.Set(x-rect.Min.X, y-rect.Min.Y, img.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
	}

	return encodeJPEG(crop, 85), nil
}

// encodeJPEG encodes an image as JPEG with the given quality.
func encodeJPEG(img image.Image, quality int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	return buf.Bytes()
}
