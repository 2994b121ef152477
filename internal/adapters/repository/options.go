// Package repository persists the seen-item registry and the alerts stories file.
package repository

import "github.com/okian/scout/pkg/logger"

type options struct {
	log logger.Logger
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithLogger sets the logger used for recoverable store problems.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
