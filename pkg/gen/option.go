package gen

import "github.com/sirupsen/logrus"

type (
	options struct {
		patterns  []string
		tags      []string
		recursive bool
		deps      []string
		dir       string
		logger    logrus.FieldLogger
	}
	Option     interface{ apply(*options) }
	optionFunc func(g *options)
)

func (f optionFunc) apply(o *options) {
	f(o)
}

func DefaultOptions() options {
	return options{
		patterns:  []string{"."},
		tags:      []string{},
		deps:      []string{},
		recursive: true,
		logger:    logrus.StandardLogger(),
	}
}

func WithPatterns(patterns ...string) Option {
	return optionFunc(
		func(o *options) {
			patterns = filterEmptyStr(patterns...)
			if len(patterns) > 0 {
				o.patterns = patterns
			}
		})
}

func WithTags(tags ...string) Option {
	return optionFunc(
		func(o *options) {
			tags = filterEmptyStr(tags...)
			if len(tags) > 0 {
				o.tags = tags
			}
		})
}

func WithRecursive(recursive bool) Option {
	return optionFunc(
		func(o *options) {
			o.recursive = recursive
		})
}

func WithDeps(deps ...string) Option {
	return optionFunc(
		func(o *options) {
			deps = filterEmptyStr(deps...)
			if len(deps) > 0 {
				o.deps = deps
			}
		})
}

// WithDir sets the directory patterns are resolved in, the working
// directory by default.
func WithDir(dir string) Option {
	return optionFunc(
		func(o *options) {
			o.dir = dir
		})
}

func WithLogger(logger logrus.FieldLogger) Option {
	return optionFunc(
		func(o *options) {
			if logger != nil {
				o.logger = logger
			}
		})
}
