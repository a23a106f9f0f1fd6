//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/sheetgrid/sheetgrid/internal/imaging"
)

// Client wraps a gosseract client as a Recognizer. It is not safe for
// concurrent use; the pipeline gives each worker its own Client.
type Client struct {
	tess     *gosseract.Client
	language string
}

// Options configures the Tesseract engine.
type Options struct {
	// Language is the trained-data language code, "eng" by default.
	Language string
	// TessdataPrefix overrides the trained-data directory when set.
	TessdataPrefix string
}

// NewClient initializes a Tesseract-backed recognizer.
func NewClient(opts Options) (*Client, error) {
	tess := gosseract.NewClient()

	lang := opts.Language
	if lang == "" {
		lang = "eng"
	}
	if err := tess.SetLanguage(lang); err != nil {
		tess.Close()
		return nil, fmt.Errorf("ocr: set language %q: %w", lang, err)
	}
	if opts.TessdataPrefix != "" {
		if err := tess.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			tess.Close()
			return nil, fmt.Errorf("ocr: set tessdata prefix: %w", err)
		}
	}
	return &Client{tess: tess, language: lang}, nil
}

// Close releases the underlying engine.
func (c *Client) Close() error {
	return c.tess.Close()
}

// Recognize implements Recognizer. Engine-level failures surface as
// errors; an image the engine reads as blank returns "".
func (c *Client) Recognize(ctx context.Context, img image.Image, mode Mode) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	buf, err := imaging.EncodePNG(img)
	if err != nil {
		return "", fmt.Errorf("ocr: encode crop: %w", err)
	}
	if err := c.tess.SetImageFromBytes(buf); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}
	if err := c.tess.SetPageSegMode(pageSegMode(mode)); err != nil {
		return "", fmt.Errorf("ocr: set segmentation mode: %w", err)
	}
	if err := c.tess.SetWhitelist(mode.Whitelist()); err != nil {
		return "", fmt.Errorf("ocr: set whitelist: %w", err)
	}

	text, err := c.tess.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: recognize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func pageSegMode(m Mode) gosseract.PageSegMode {
	switch m {
	case ModeBlock:
		return gosseract.PSM_SINGLE_BLOCK
	case ModeLine, ModeDigits:
		return gosseract.PSM_SINGLE_LINE
	case ModeSparse:
		return gosseract.PSM_SPARSE_TEXT
	default:
		return gosseract.PSM_AUTO
	}
}
