package ocrmodule

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Page segmentation modes passed to the recognition engine.
const (
	PSMSingleBlock = 6 // one uniform block of text, the usual lower-third shape
	PSMSingleLine  = 7 // single text line, retry mode
)

// CharWhitelist restricts recognition to Latin letters with Spanish
// diacritics, digits and limited punctuation.
const CharWhitelist = `ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789ÁÉÍÓÚáéíóúÑñÜü.,;:!?\-()/ `

// ErrRecognizerUnavailable reports a missing recognition engine; the message
// carries an install hint.
var ErrRecognizerUnavailable = errors.New("text recognition engine unavailable")

// TextRecognizer turns a prepared still image into text. Implementations
// must return empty text, not an error, when the image simply contains none.
type TextRecognizer interface {
	Recognize(imagePath, language string, psm int) (string, error)
}

// TesseractRecognizer shells out to the tesseract binary.
type TesseractRecognizer struct {
	binPath string
}

// NewTesseractRecognizer locates tesseract in PATH.
func NewTesseractRecognizer() (*TesseractRecognizer, error) {
	path, err := exec.LookPath("tesseract")
	if err != nil {
		return nil, fmt.Errorf("%w: tesseract not found in PATH, install with: sudo apt-get install tesseract-ocr tesseract-ocr-spa",
			ErrRecognizerUnavailable)
	}
	return &TesseractRecognizer{binPath: path}, nil
}

// Recognize runs tesseract against the image with the given language, page
// segmentation mode and the character whitelist.
func (t *TesseractRecognizer) Recognize(imagePath, language string, psm int) (string, error) {
	cmd := exec.Command(t.binPath,
		imagePath,
		"stdout",
		"-l", language,
		"--psm", strconv.Itoa(psm),
		"-c", "tessedit_char_whitelist="+CharWhitelist,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed (psm %d): %w: %s", psm, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}
