package ocrmodule

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/mediahubpy/mediahub/internal/logger"
)

// DefaultLanguage is the recognition language for news content.
const DefaultLanguage = "spa"

const bigSuffix = "-big.png"

// Options tune a single extraction.
type Options struct {
	Language       string
	LowerThirdOnly bool
}

// DefaultOptions extracts Spanish text from the lower third.
func DefaultOptions() Options {
	return Options{Language: DefaultLanguage, LowerThirdOnly: true}
}

// Extractor crops, enhances and recognizes caption text from video stills.
type Extractor struct {
	recognizer TextRecognizer
	tempDir    string
}

// NewExtractor builds an extractor around a recognizer.
func NewExtractor(recognizer TextRecognizer) *Extractor {
	return &Extractor{recognizer: recognizer, tempDir: os.TempDir()}
}

// Extract returns the caption text found in the image. No detectable text
// is a success with an empty string; failures carry a remediation hint when
// an external tool is missing.
func (e *Extractor) Extract(imagePath string, opts Options) (string, error) {
	if imagePath == "" {
		return "", fmt.Errorf("image path is required")
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}

	// A full-resolution sibling, when present, recognizes far better than
	// the 500px thumbnail.
	imagePath = preferBigSibling(imagePath)

	if _, err := os.Stat(imagePath); err != nil {
		return "", fmt.Errorf("image file does not exist: %s", imagePath)
	}

	img, err := imaging.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image %s: %w", imagePath, err)
	}

	if opts.LowerThirdOnly {
		img = cropLowerThird(img)
	}
	prepared := e.enhance(img)

	tempPath := filepath.Join(e.tempDir, "ocr-"+uuid.NewString()+".png")
	if err := imaging.Save(prepared, tempPath); err != nil {
		return "", fmt.Errorf("failed to write prepared image: %w", err)
	}
	defer func() {
		if rmErr := os.Remove(tempPath); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("failed to remove ocr temp file", "path", tempPath, "error", rmErr)
		}
	}()

	text, err := e.recognizer.Recognize(tempPath, opts.Language, PSMSingleBlock)
	if err != nil {
		return "", err
	}
	if text == "" {
		// Lower thirds are often a single line; retry in line mode and
		// keep whichever pass read more.
		alt, altErr := e.recognizer.Recognize(tempPath, opts.Language, PSMSingleLine)
		if altErr == nil && len(alt) > len(text) {
			text = alt
		}
	}

	cleaned := cleanText(text)
	if cleaned == "" {
		logger.Debug("no text recognized", "image", filepath.Base(imagePath))
	}
	return cleaned, nil
}

func (e *Extractor) enhance(img image.Image) (out *image.NRGBA) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("image enhancement failed, using fallback chain", "panic", r)
			out = enhanceFallback(img)
		}
	}()
	return enhanceForRecognition(img)
}

// preferBigSibling swaps a standard thumbnail path for its full-resolution
// sibling when that file exists.
func preferBigSibling(path string) string {
	if !strings.HasSuffix(path, ".png") || strings.HasSuffix(path, bigSuffix) {
		return path
	}
	big := strings.TrimSuffix(path, ".png") + bigSuffix
	if _, err := os.Stat(big); err == nil {
		return big
	}
	return path
}

// cleanText collapses whitespace, strips characters outside the recognition
// whitelist and drops single-character numeric noise tokens.
func cleanText(text string) string {
	if text == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r):
			b.WriteRune(r)
		case strings.ContainsRune(`.,;:!?-()/`, r):
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if len([]rune(w)) < 2 && strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}
