// Package report converts rendered HTML documents into PDF through Gotenberg.
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/bizdesk/bizdesk/internal/shared"
)

// ErrRender reports a conversion Gotenberg rejected or could not be reached for.
var ErrRender = fmt.Errorf("report: pdf conversion failed: %w", shared.ErrUnavailable)

// PageOptions are the chromium form fields sent with every conversion.
type PageOptions struct {
	PaperWidth   string
	PaperHeight  string
	MarginTop    string
	MarginBottom string
	MarginLeft   string
	MarginRight  string
}

// DefaultPageOptions is A4 portrait with 1cm margins, in inches.
var DefaultPageOptions = PageOptions{
	PaperWidth:   "8.27",
	PaperHeight:  "11.7",
	MarginTop:    "0.4",
	MarginBottom: "0.4",
	MarginLeft:   "0.4",
	MarginRight:  "0.4",
}

// Client wraps interactions with the Gotenberg API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	page       PageOptions
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		page: DefaultPageOptions,
	}
}

// Ping checks if the remote Gotenberg service is available.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode)
	}
	return nil
}

// RenderHTML converts a complete HTML document into a PDF.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	for name, value := range c.page.fields() {
		if err := writer.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRender, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return io.ReadAll(resp.Body)
}

func (o PageOptions) fields() map[string]string {
	fields := map[string]string{}
	add := func(name, value string) {
		if value != "" {
			fields[name] = value
		}
	}
	add("paperWidth", o.PaperWidth)
	add("paperHeight", o.PaperHeight)
	add("marginTop", o.MarginTop)
	add("marginBottom", o.MarginBottom)
	add("marginLeft", o.MarginLeft)
	add("marginRight", o.MarginRight)
	return fields
}
