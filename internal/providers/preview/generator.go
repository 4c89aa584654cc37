package preview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lookbook/internal/domain"
	"lookbook/internal/imaging"
	"lookbook/internal/infra"
)

// Validation failures, checked in this order so callers report the first
// missing input rather than an arbitrary one.
var (
	ErrMissingPhoto   = errors.New("preview: no image file provided")
	ErrMissingEvent   = errors.New("preview: event description is required")
	ErrNoProducts     = errors.New("preview: product list is required")
	ErrNoUsableImages = errors.New("preview: none of the product images could be retrieved")
)

// ImageGenerator abstracts the model call so handlers and tests can inject
// fakes.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, instruction string, images []InlineImage) ([]byte, string, error)
}

// Generator produces a try-on preview: it composites the selected products
// into a grid and asks the model to render the person wearing them.
type Generator struct {
	merger *imaging.Merger
	model  ImageGenerator
	log    infra.Logger
}

// NewGenerator wires a Generator from its collaborators.
func NewGenerator(merger *imaging.Merger, model ImageGenerator, log infra.Logger) *Generator {
	return &Generator{merger: merger, model: model, log: log}
}

// Result is a generated preview image.
type Result struct {
	Data     []byte
	MIMEType string
}

// Generate validates inputs in a fixed order, merges the product images into
// a single grid and requests a photorealistic composite from the model.
func (g *Generator) Generate(ctx context.Context, photo []byte, photoMIME, eventDescription string, products []domain.Product) (*Result, error) {
	if len(photo) == 0 {
		return nil, ErrMissingPhoto
	}
	if strings.TrimSpace(eventDescription) == "" {
		return nil, ErrMissingEvent
	}
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	grid, err := g.merger.Merge(ctx, products)
	if err != nil {
		return nil, fmt.Errorf("preview: merge products: %w", err)
	}
	if grid == nil {
		return nil, ErrNoUsableImages
	}

	instruction := buildInstruction(eventDescription)
	g.log.Info().Int("products", len(products)).Msg("requesting outfit preview")

	data, mime, err := g.model.GenerateImage(ctx, instruction, []InlineImage{
		{MIMEType: photoMIME, Data: photo},
		{MIMEType: "image/jpeg", Data: grid},
	})
	if err != nil {
		return nil, err
	}
	return &Result{Data: data, MIMEType: mime}, nil
}

func buildInstruction(eventDescription string) string {
	return fmt.Sprintf(
		"Generate a photorealistic image of the person in the first image wearing all the clothing items shown in the second image, dressed appropriately for: %s. Keep the person's face and body unchanged. Use a 3:4 portrait aspect ratio.",
		strings.TrimSpace(eventDescription))
}
