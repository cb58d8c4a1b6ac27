package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

const (
	downloadTimeout = 30 * time.Second
	maxDownloadSize = 100 << 20 // 100MiB
)

var pdfMagic = []byte("%PDF")

// Downloader fetches a PDF over HTTP and validates it looks like one before
// any parsing happens.
type Downloader struct {
	client *http.Client
}

func NewDownloader() *Downloader {
	return &Downloader{
		client: &http.Client{Timeout: downloadTimeout},
	}
}

// Download fetches the document at rawURL and returns its bytes together with
// the file name derived from the URL path.
func (d *Downloader) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download failed: server returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("download failed: %w", err)
	}
	if len(data) > maxDownloadSize {
		return nil, "", fmt.Errorf("document exceeds maximum size of %d bytes", maxDownloadSize)
	}

	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, "", fmt.Errorf("document at %s is not a PDF", rawURL)
	}

	return data, FileNameFromURL(rawURL), nil
}

// FileNameFromURL derives a display name from the URL path. Falls back to
// "document.pdf" when the path carries no usable segment.
func FileNameFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "document.pdf"
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "document.pdf"
	}
	return name
}
