package batch

// FlowOption overrides a Config setting for a single Flow.
type FlowOption func(*flowOptions)

type flowOptions struct {
	shuffle bool
	seed    int64
}

// WithShuffle overrides Config.Shuffle.
func WithShuffle(shuffle bool) FlowOption {
	return func(o *flowOptions) {
		o.shuffle = shuffle
	}
}

// WithSeed overrides Config.Seed.
func WithSeed(seed int64) FlowOption {
	return func(o *flowOptions) {
		o.seed = seed
	}
}
