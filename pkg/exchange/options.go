package exchange

type Option func(*Options)

type Options struct {
	Limit int
}

// WithLimit sets the number of levels requested per side.
func WithLimit(limit int) Option {
	return func(o *Options) {
		o.Limit = limit
	}
}

func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
