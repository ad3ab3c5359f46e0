package jsondelta

import "github.com/go-logr/logr"

// DiffFlag tunes the shape of the patch produced by New.
type DiffFlag uint16

const (
	// GenerateTests precedes every operation that overwrites or removes a
	// value with a test of that value.
	GenerateTests DiffFlag = 1 << iota
	// FavorOrdinal writes literal array indexes instead of "-" for appends.
	FavorOrdinal
	// FavorArrayReorder keeps element-level array scripts even when a whole
	// array replace would be cheaper.
	FavorArrayReorder
	// VerbosePatch expands added containers into one add per leaf.
	VerbosePatch
	// UseAddForReplaceOfRoot uses add instead of replace at the root.
	UseAddForReplaceOfRoot
	// UseReplaceForNull uses replace when the previous value is null.
	UseReplaceForNull
)

// Has reports whether every flag in want is set.
func (f DiffFlag) Has(want DiffFlag) bool { return f&want == want }

// ApplyFlag relaxes the failure policy of Apply.
type ApplyFlag uint8

const (
	// Force creates missing containers, lets add overwrite and replace create,
	// and ignores failed tests.
	Force ApplyFlag = 1 << iota
	// SkipConflicts skips the operation following a failed test.
	SkipConflicts
	// IgnoreErrors logs operation errors and carries on.
	IgnoreErrors
)

// Has reports whether every flag in want is set.
func (f ApplyFlag) Has(want ApplyFlag) bool { return f&want == want }

// DefaultCopySearchBudget caps the nodes visited when looking for a copy source.
const DefaultCopySearchBudget = 150

type config struct {
	diff       DiffFlag
	apply      ApplyFlag
	logger     logr.Logger
	fast       bool
	copyBudget int
}

// Option configures New, Apply and their variants.
type Option func(cfg *config)

// WithDiffFlags adds flags to the diff configuration.
func WithDiffFlags(flags ...DiffFlag) Option {
	return func(cfg *config) {
		for _, f := range flags {
			cfg.diff |= f
		}
	}
}

// WithApplyFlags adds flags to the apply configuration.
func WithApplyFlags(flags ...ApplyFlag) Option {
	return func(cfg *config) {
		for _, f := range flags {
			cfg.apply |= f
		}
	}
}

// WithLogger routes swallowed errors and fallbacks to l.
func WithLogger(l logr.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithFastDiff disables move and copy inference.
func WithFastDiff() Option {
	return func(cfg *config) {
		cfg.fast = true
	}
}

// WithCopySearchBudget sets how many nodes the copy source search may visit.
// Zero or less disables the search.
func WithCopySearchBudget(n int) Option {
	return func(cfg *config) {
		cfg.copyBudget = n
	}
}

func newConfig(opts []Option) config {
	cfg := config{
		logger:     logr.Discard(),
		copyBudget: DefaultCopySearchBudget,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
