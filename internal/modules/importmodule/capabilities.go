package importmodule

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mediahubpy/mediahub/internal/logger"
)

// StreamProbe confirms a file contains a decodable video stream.
type StreamProbe interface {
	HasVideoStream(path string) bool
}

// Thumbnailer produces still images from a video file: a 500px-wide
// standard still and a full-resolution one, both at the 1-second mark,
// saved as .png siblings of the source (the full-resolution variant with a
// -big suffix). Returns the standard still's path.
type Thumbnailer interface {
	Generate(videoPath string) (string, error)
}

// FFprobeStreamProbe shells out to ffprobe, selecting the first video
// stream; a zero exit means the stream decodes.
type FFprobeStreamProbe struct {
	binPath string
}

// NewFFprobeStreamProbe locates ffprobe in PATH.
func NewFFprobeStreamProbe() (*FFprobeStreamProbe, error) {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return &FFprobeStreamProbe{binPath: path}, nil
}

// HasVideoStream reports whether ffprobe can decode a video stream.
func (p *FFprobeStreamProbe) HasVideoStream(path string) bool {
	cmd := exec.Command(p.binPath,
		"-v", "error",
		"-show_streams",
		"-select_streams", "v:0",
		path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Debug("ffprobe rejected file", "path", path, "error", err, "stderr", strings.TrimSpace(stderr.String()))
		return false
	}
	return true
}

// FFmpegThumbnailer extracts stills with ffmpeg.
type FFmpegThumbnailer struct {
	binPath string
}

// NewFFmpegThumbnailer locates ffmpeg in PATH.
func NewFFmpegThumbnailer() (*FFmpegThumbnailer, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return &FFmpegThumbnailer{binPath: path}, nil
}

const (
	thumbnailSeekSeconds = 1
	thumbnailWidth       = 500
)

// Generate writes <base>.png (500px wide) and <base>-big.png (full
// resolution) next to the source, both from the 1-second mark.
func (t *FFmpegThumbnailer) Generate(videoPath string) (string, error) {
	base := strings.TrimSuffix(videoPath, ".mp4")
	small := base + ".png"
	big := base + "-big.png"

	if err := t.extract(videoPath, small, thumbnailWidth); err != nil {
		return "", err
	}
	if err := t.extract(videoPath, big, 0); err != nil {
		// The standard still exists; a missing big variant only costs
		// OCR quality.
		logger.Warn("full-resolution still failed", "path", videoPath, "error", err)
	}
	return small, nil
}

func (t *FFmpegThumbnailer) extract(videoPath, outPath string, width int) error {
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%d", thumbnailSeekSeconds),
		"-i", videoPath,
		"-vframes", "1",
	}
	if width > 0 {
		args = append(args, "-vf", fmt.Sprintf("scale=%d:-1", width))
	}
	args = append(args, outPath)

	cmd := exec.Command(t.binPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("frame extraction failed for %s: %w: %s", videoPath, err, strings.TrimSpace(stderr.String()))
	}
	if _, err := os.Stat(outPath); err != nil {
		return fmt.Errorf("frame extraction produced no output for %s", videoPath)
	}
	return nil
}

// fileInUse reports whether a writer still holds the file open; used only
// for files under the transient staging directory.
func fileInUse(path string) bool {
	lsof, err := exec.LookPath("lsof")
	if err != nil {
		return false
	}

	cmd := exec.Command(lsof, "-w", path)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	// lsof exits non-zero when nothing holds the file.
	if err := cmd.Run(); err != nil {
		return false
	}
	return stdout.Len() > 0
}
