package ocr

import (
	"context"

	"letterflow/appconfig"
	"letterflow/schema"
)

// Provider extracts raw text and coordinates from a prepared document.
// Implementations translate their backend's native response shape into the
// canonical OCRResult; a failed extraction never aborts the batch, only the
// document.
type Provider interface {
	// Name returns the provider selector name.
	Name() string

	// PDFOnly reports whether the backend accepts only PDF input. When true,
	// image inputs are converted to PDF during preprocessing.
	PDFOnly() bool

	Extract(ctx context.Context, doc *schema.Document) (*schema.OCRResult, error)
}

// NewProvider builds the provider for the configured ocr_provider selector.
func NewProvider(ctx context.Context, cfg *appconfig.AppConfig) (Provider, error) {
	switch cfg.OCRProvider {
	case "aws":
		return NewTextractProvider(ctx, cfg)
	case "azure":
		return NewAzureProvider(cfg)
	}
	return nil, schema.Errorf(schema.KindConfiguration, "unknown ocr_provider: %s", cfg.OCRProvider)
}
