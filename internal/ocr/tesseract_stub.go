//go:build !ocr

package ocr

import (
	"context"
	"image"
)

// Client is a placeholder recognizer for builds without the engine.
type Client struct{}

// Options configures the Tesseract engine. Unused in stub builds but
// kept so callers compile identically with or without the tag.
type Options struct {
	Language       string
	TessdataPrefix string
}

// NewClient always fails without the ocr tag.
func NewClient(Options) (*Client, error) {
	return nil, ErrNotEnabled
}

// Close implements the same surface as the real client.
func (c *Client) Close() error { return nil }

// Recognize always fails without the ocr tag.
func (c *Client) Recognize(context.Context, image.Image, Mode) (string, error) {
	return "", ErrNotEnabled
}
