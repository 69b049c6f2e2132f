package googlevision

import (
	"context"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// detectFunc returns up to maxResults text annotations for img.
type detectFunc func(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int) ([]*visionpb.EntityAnnotation, error)

// Engine recognizes document text with the Cloud Vision API.
type Engine struct {
	client *vision.ImageAnnotatorClient
	detect detectFunc
}

// NewEngine creates a Vision client. An empty credPath falls back to
// application default credentials.
func NewEngine(ctx context.Context, credPath string) (*Engine, error) {
	var opts []option.ClientOption
	if credPath != "" {
		opts = append(opts, option.WithCredentialsFile(credPath))
	}
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init OCR client: %w", err)
	}
	return &Engine{
		client: client,
		detect: func(ctx context.Context, img *visionpb.Image, ictx *visionpb.ImageContext, maxResults int) ([]*visionpb.EntityAnnotation, error) {
			return client.DetectTexts(ctx, img, ictx, maxResults)
		},
	}, nil
}

func (e *Engine) Name() string { return "vision" }

func (e *Engine) Close() error {
	if e.client == nil {
		return nil
	}
	return e.client.Close()
}

// Recognize sends the image at imagePath to DetectTexts and returns the full
// text annotation. languages are passed as hints.
func (e *Engine) Recognize(ctx context.Context, imagePath string, languages ...string) (string, error) {
	imgBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	img := &visionpb.Image{Content: imgBytes}
	var ictx *visionpb.ImageContext
	if len(languages) > 0 {
		ictx = &visionpb.ImageContext{LanguageHints: visionLanguages(languages)}
	}

	// the first annotation holds the whole text block
	anns, err := e.detect(ctx, img, ictx, 1)
	if err != nil {
		return "", fmt.Errorf("could not extract text from image: %w", err)
	}
	if len(anns) == 0 {
		return "", nil
	}
	return strings.TrimSpace(anns[0].Description), nil
}

// visionLanguages maps Tesseract language codes to the BCP-47 hints Vision
// expects.
func visionLanguages(langs []string) []string {
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		if hint, ok := tesseractToBCP47[l]; ok {
			l = hint
		}
		out = append(out, l)
	}
	return out
}

var tesseractToBCP47 = map[string]string{
	"eng": "en",
	"deu": "de",
	"fra": "fr",
	"spa": "es",
	"ita": "it",
	"por": "pt",
	"nld": "nl",
}
