package handlers

import (
	"bytes"
	"image/png"
	"net/http"
	"os"

	"github.com/chai2010/webp"
	"github.com/gin-gonic/gin"
)

const webpQuality = 90

// handleThumbnail serves a video's still image, optionally re-encoded as
// WebP for lighter UI delivery.
func handleThumbnail(c *gin.Context) {
	video, ok := findVideo(c)
	if !ok {
		return
	}
	if video.ThumbnailPath == nil || *video.ThumbnailPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "video has no thumbnail"})
		return
	}

	data, err := os.ReadFile(*video.ThumbnailPath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "thumbnail file missing"})
		return
	}

	if c.Query("format") != "webp" {
		c.Data(http.StatusOK, "image/png", data)
		return
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		// Serve the original rather than failing on a decode quirk.
		c.Data(http.StatusOK, "image/png", data)
		return
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: webpQuality}); err != nil {
		c.Data(http.StatusOK, "image/png", data)
		return
	}
	c.Data(http.StatusOK, "image/webp", buf.Bytes())
}
