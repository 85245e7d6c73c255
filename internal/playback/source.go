package playback

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
)

// audioFormat derives the decoder to use from the locator's extension.
func audioFormat(locator string) (string, error) {
	p := locator
	if u, err := url.Parse(locator); err == nil && u.Path != "" {
		p = u.Path
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".mp3", ".wav":
		return ext[1:], nil
	default:
		return "", ErrUnsupportedType
	}
}

// fetch reads the whole sample into memory. Locators may be http(s) URLs, file:// URLs or
// plain filesystem paths.
func fetch(ctx context.Context, client *http.Client, locator string) ([]byte, error) {
	u, err := url.Parse(locator)
	if err == nil {
		switch u.Scheme {
		case "http", "https":
			return fetchHTTP(ctx, client, locator)
		case "file":
			return os.ReadFile(u.Path)
		}
	}
	return os.ReadFile(locator)
}

func fetchHTTP(ctx context.Context, client *http.Client, locator string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sample: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sample: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
