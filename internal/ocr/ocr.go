// Package ocr defines the text recognition contract used by the document
// processor. Engines live in subpackages.
package ocr

import "context"

// Engine recognizes text in an image file.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, imagePath string, languages ...string) (string, error)
}
