// Package parser talks to the document parsing service that extracts invoice
// line items from delivery dockets and invoices.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/MrJamesThe3rd/boqrecon/internal/reconciliation"
)

// MaxTextLength is the largest document the parsing service accepts.
const MaxTextLength = 50000

var (
	ErrEmptyText   = errors.New("no text provided")
	ErrTextTooLong = fmt.Errorf("text too long (max %d characters)", MaxTextLength)
	ErrRateLimited = errors.New("parser rate limit exceeded")
)

type Client struct {
	url     string
	token   string
	client  *http.Client
	retries uint64
}

func NewClient(url, token string, timeout time.Duration) *Client {
	return &Client{
		url:     url,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		retries: 2,
	}
}

type parseRequest struct {
	Text     string `json:"text"`
	FileType string `json:"fileType,omitempty"`
}

type parseResponse struct {
	Items []map[string]any `json:"items"`
	Error string           `json:"error"`
}

// Parse sends the document text to the parsing service and returns the
// extracted lines ready for AddInvoiceItems. Server errors are retried; rate
// limiting is reported as ErrRateLimited.
func (c *Client) Parse(ctx context.Context, text, fileType string) ([]reconciliation.InvoiceItemParams, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	if len([]rune(text)) > MaxTextLength {
		return nil, ErrTextTooLong
	}

	body, err := json.Marshal(parseRequest{Text: text, FileType: fileType})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	var resp parseResponse

	op := func() error {
		return c.do(ctx, body, &resp)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond

	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)); err != nil {
		return nil, err
	}

	return Normalize(resp.Items), nil
}

func (c *Client) do(ctx context.Context, body []byte, out *parseResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return backoff.Permanent(ErrRateLimited)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("parser returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return backoff.Permanent(fmt.Errorf("parser returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()

	if err := dec.Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decoding response: %w", err))
	}

	return nil
}
