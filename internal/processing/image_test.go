package processing

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoTone(w, h int, a, b uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := a
			if x >= w/2 {
				v = b
			}
			g.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return g
}

func TestStretchContrast(t *testing.T) {
	g := twoTone(10, 10, 100, 150)
	stretchContrast(g)
	assert.Equal(t, uint8(0), g.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(255), g.GrayAt(9, 9).Y)
}

func TestStretchContrastFlatImage(t *testing.T) {
	g := twoTone(10, 10, 128, 128)
	stretchContrast(g)
	assert.Equal(t, uint8(128), g.GrayAt(5, 5).Y)
}

func TestPreprocess(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2000, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 2000; x++ {
			c := uint8(90)
			if x >= 1000 {
				c = 160
			}
			src.Set(x, y, color.RGBA{R: c, G: c, B: c, A: 255})
		}
	}

	out := Preprocess(src)
	g, ok := out.(*image.Gray)
	require.True(t, ok)
	assert.Equal(t, src.Bounds().Size(), g.Bounds().Size())
	assert.Equal(t, uint8(0), g.GrayAt(10, 10).Y)
	assert.Equal(t, uint8(255), g.GrayAt(1990, 10).Y)
}

func TestPreprocessUpscalesSmallImages(t *testing.T) {
	out := Preprocess(twoTone(400, 100, 0, 255))
	assert.Equal(t, MinOCRWidth, out.Bounds().Dx())
	assert.Equal(t, 400, out.Bounds().Dy())
}
