package markdup

import (
	"fmt"
	"strings"
)

// validate checks opts for obviously invalid combinations before any
// file is opened, and fills in defaults that depend on other fields.
func validate(opts *Options) error {
	if opts.In == "" {
		return fmt.Errorf("markdup: Options.In is required")
	}
	if opts.Out == "" {
		return fmt.Errorf("markdup: Options.Out is required")
	}
	if opts.MinQual < 0 {
		return fmt.Errorf("markdup: MinQual must be >= 0, got %d", opts.MinQual)
	}
	if opts.Log == "" {
		if strings.HasPrefix(opts.Out, "-") {
			opts.Log = "-"
		} else {
			opts.Log = opts.Out + ".log"
		}
	}
	return nil
}
