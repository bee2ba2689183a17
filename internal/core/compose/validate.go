package compose

import (
	"context"
	"strings"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Document Validation
// =============================================================================

// Validate checks that the document is a loadable compose project before any
// patch touches it. A document that fails validation is never rewritten.
func Validate(doc []byte) error {
	if strings.TrimSpace(string(doc)) == "" {
		return ErrEmptyInput
	}

	var dict map[string]interface{}
	if err := yaml.Unmarshal(doc, &dict); err != nil {
		return NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}
	if dict == nil {
		return NewParseError("", "invalid YAML syntax", ErrInvalidYAML)
	}

	project, err := loader.LoadWithContext(context.Background(), types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Content: doc,
				Config:  dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName("rollout-temp", false)
		opts.SkipValidation = false
		opts.SkipInterpolation = true // Patch targets, not variables; leave ${...} alone
		opts.SkipNormalization = true // In-memory, no path resolution
		opts.SkipExtends = true       // Don't try to load external files
	})
	if err != nil {
		return NewParseError("", err.Error(), ErrInvalidYAML)
	}

	if len(project.Services) == 0 {
		return NewParseError("services", "no services defined", ErrNoServices)
	}
	return nil
}
