package ocrmodule

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Lower-third crop region: full width, bottom 30% of the frame.
const (
	lowerThirdYOffset = 0.7
	lowerThirdHeight  = 0.3
)

// Upscale thresholds. Recognition quality drops sharply on low-resolution
// crops, so narrow images are scaled up before recognition.
const (
	upscale3xBelow = 800
	upscale2xBelow = 1200
)

const binarizeThreshold = 128 // ~50% luminance

// cropLowerThird cuts the caption band from the bottom of the frame.
func cropLowerThird(img image.Image) image.Image {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	yOffset := int(float64(height) * lowerThirdYOffset)
	cropHeight := int(float64(height) * lowerThirdHeight)
	return imaging.Crop(img, image.Rect(
		bounds.Min.X,
		bounds.Min.Y+yOffset,
		bounds.Min.X+width,
		bounds.Min.Y+yOffset+cropHeight,
	))
}

// enhanceForRecognition runs the full preprocessing chain: grayscale,
// resolution correction, contrast normalization, binarization, sharpening
// and a final contrast boost.
func enhanceForRecognition(img image.Image) *image.NRGBA {
	enhanced := imaging.Grayscale(img)

	width := enhanced.Bounds().Dx()
	switch {
	case width < upscale3xBelow:
		enhanced = imaging.Resize(enhanced, width*3, 0, imaging.Lanczos)
	case width < upscale2xBelow:
		enhanced = imaging.Resize(enhanced, width*2, 0, imaging.Lanczos)
	}

	enhanced = normalize(enhanced)
	enhanced = threshold(enhanced, binarizeThreshold)
	enhanced = imaging.Sharpen(enhanced, 1.0)
	return imaging.AdjustContrast(enhanced, 20)
}

// enhanceFallback is a simpler chain used when the full one panics on an
// unusual image; mirrors the degraded path of the original pipeline.
func enhanceFallback(img image.Image) *image.NRGBA {
	enhanced := imaging.Grayscale(img)
	enhanced = normalize(enhanced)
	enhanced = imaging.AdjustContrast(enhanced, 20)
	return imaging.Sharpen(enhanced, 1.0)
}

// normalize stretches the luminance histogram to the full 0-255 range.
func normalize(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	minL, maxL := uint8(255), uint8(0)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			l := img.NRGBAAt(x, y).R // grayscale: R=G=B
			if l < minL {
				minL = l
			}
			if l > maxL {
				maxL = l
			}
		}
	}
	if maxL <= minL {
		return img
	}

	scale := 255.0 / float64(maxL-minL)
	out := imaging.Clone(img)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := out.NRGBAAt(x, y)
			l := uint8(float64(px.R-minL) * scale)
			out.SetNRGBA(x, y, color.NRGBA{R: l, G: l, B: l, A: px.A})
		}
	}
	return out
}

// threshold binarizes a grayscale image: pure black below the cutoff, pure
// white at or above it.
func threshold(img *image.NRGBA, cutoff uint8) *image.NRGBA {
	bounds := img.Bounds()
	out := imaging.Clone(img)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := out.NRGBAAt(x, y)
			v := uint8(0)
			if px.R >= cutoff {
				v = 255
			}
			out.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: px.A})
		}
	}
	return out
}
