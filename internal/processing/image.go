package processing

import (
	"image"

	"golang.org/x/image/draw"
)

// MinOCRWidth is the narrowest page image handed to OCR. Smaller renders are
// upscaled first; Tesseract loses small glyphs below roughly this size.
const MinOCRWidth = 1600

// Preprocess converts a page image to grayscale and stretches its contrast so
// the darkest 1% maps to black and the lightest 1% to white.
func Preprocess(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() > 0 && b.Dx() < MinOCRWidth {
		img = upscale(img, float64(MinOCRWidth)/float64(b.Dx()))
		b = img.Bounds()
	}

	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)

	stretchContrast(gray)
	return gray
}

func upscale(img image.Image, factor float64) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(b.Dx())*factor), int(float64(b.Dy())*factor)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func stretchContrast(g *image.Gray) {
	if len(g.Pix) == 0 {
		return
	}

	var hist [256]int
	for _, v := range g.Pix {
		hist[v]++
	}

	cut := len(g.Pix) / 100
	lo, hi := 0, 255
	for n := 0; lo < 255; lo++ {
		n += hist[lo]
		if n > cut {
			break
		}
	}
	for n := 0; hi > 0; hi-- {
		n += hist[hi]
		if n > cut {
			break
		}
	}
	if hi <= lo {
		return
	}

	var lut [256]uint8
	for i := range lut {
		switch {
		case i <= lo:
			lut[i] = 0
		case i >= hi:
			lut[i] = 255
		default:
			lut[i] = uint8((i - lo) * 255 / (hi - lo))
		}
	}
	for i, v := range g.Pix {
		g.Pix[i] = lut[v]
	}
}
