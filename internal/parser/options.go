package parser

import "log/slog"

type options struct {
	logger *slog.Logger
}

// Option configures a parser.
type Option func(*options)

// WithLogger sets the logger used for diagnostics. A nil logger means slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func buildOptions(component string, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With(slog.String("component", component))
	return o
}
