package image

import (
	"encoding/base64"
	"fmt"

	"plant-diagnosis-server/internal/platform/config"
	"plant-diagnosis-server/internal/platform/logging"
)

// Pipeline turns fetched image bytes into the validated, base64-encoded
// payload the inference layer sends to the model.
type Pipeline struct {
	validator *Validator
	logger    *logging.Logger
}

// Options configures the pipeline behaviour.
type Options struct {
	Security *config.SecurityConfig
	Logger   *logging.Logger
}

func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Security == nil {
		return nil, fmt.Errorf("security config is required")
	}

	return &Pipeline{
		validator: NewValidator(opts.Security, opts.Logger),
		logger:    opts.Logger,
	}, nil
}

// Validator exposes the underlying validator for callers that only need
// the validation step.
func (p *Pipeline) Validator() *Validator {
	return p.validator
}

// Process validates raw bytes and encodes them for transport.
func (p *Pipeline) Process(raw []byte) (*Output, error) {
	validation := p.validator.ValidateBytes(raw, "")
	if !validation.IsValid {
		return nil, fmt.Errorf("image validation failed: %w", validation.Error)
	}

	return &Output{
		Base64:     base64.StdEncoding.EncodeToString(raw),
		Bytes:      raw,
		Format:     validation.Format,
		Validation: validation,
	}, nil
}
