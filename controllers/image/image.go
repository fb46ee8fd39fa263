package imageControllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
)

// The customizer's image tooling (background removal, border detection for
// die-cut outlines) runs in a separate image service; these handlers are a
// thin authenticated proxy in front of it.

var imageClient = &http.Client{Timeout: 30 * time.Second}

type RemoveBackgroundInput struct {
	ImageURL string `json:"imageUrl" binding:"required"`
}

type DetectBordersInput struct {
	ImageURL      string `json:"imageUrl" binding:"required"`
	LowThreshold  int    `json:"lowThreshold"`
	HighThreshold int    `json:"highThreshold"`
}

func imageServiceURL() (string, error) {
	url := os.Getenv("IMAGE_API_URL")
	if url == "" {
		return "", fmt.Errorf("image service configuration missing")
	}
	return url, nil
}

// callImageService posts a JSON payload to the image service and decodes the
// reply into out.
func callImageService(path string, payload interface{}, out interface{}) error {
	base, err := imageServiceURL()
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, base+path, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if key := os.Getenv("IMAGE_API_KEY"); key != "" {
		req.Header.Set("X-API-KEY", key)
	}

	resp, err := imageClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach image service: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image service error (%d): %s", resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, out)
}

// POST /api/image/remove-background
func RemoveBackground() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RemoveBackgroundInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var result struct {
			URL string `json:"url"`
		}
		if err := callImageService("/remove-background", input, &result); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// POST /api/image/detect-borders
func DetectBorders() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input DetectBordersInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var result struct {
			Borders json.RawMessage `json:"borders"`
			Width   int             `json:"width"`
			Height  int             `json:"height"`
		}
		if err := callImageService("/detect-borders", input, &result); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
