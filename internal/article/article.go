// Package article resolves links shared inside posts into readable text for
// the detail pane.
package article

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// FirstURL returns the first http(s) link inside a post's content, if any.
func FirstURL(content string) (string, bool) {
	for _, field := range strings.Fields(content) {
		field = strings.TrimRight(field, ".,;:!?)\"'")
		if strings.HasPrefix(field, "http://") || strings.HasPrefix(field, "https://") {
			return field, true
		}
	}
	return "", false
}

// FetchReadable fetches a URL and extracts readable text content.
// Returns the article title and extracted text.
func FetchReadable(url string) (title, text string, err error) {
	client := &http.Client{Timeout: 15 * time.Second}
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", "", fmt.Errorf("fetch %s: HTTP %d", url, resp.StatusCode)
	}

	art, err := readability.FromReader(resp.Body, nil)
	if err != nil {
		return "", "", fmt.Errorf("extract readable content from %s: %w", url, err)
	}

	return art.Title, art.TextContent, nil
}
