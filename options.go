package wad

// Option configures a File.
type Option func(*options)

type options struct {
	atomic bool
}

// WithAtomicCommit makes every structural mutation write a complete new archive
// to a temporary file next to the original, sync it and rename it into place.
// A failed mutation then leaves the previous archive untouched, at the cost of
// rewriting the whole file each time. Without it mutations are applied in place
// (data, then directory, then header) and a failure halfway can leave the three
// out of step.
func WithAtomicCommit() Option {
	return func(o *options) {
		o.atomic = true
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
