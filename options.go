package wasmbuild

import (
	iopts "github.com/wasmbuild/wasmbuild/internal/options"
)

// ApplyOptions pushes values to the host's option store through the
// options layer, and additionally keeps the builder's own cached
// useConstants flag (which gates PtrConst) consistent with the host side,
// as the specification requires.
func (b *Builder) ApplyOptions(values map[iopts.Key]any) error {
	if v, ok := values[iopts.KeyUseConstants]; ok {
		if bv, ok := v.(bool); ok {
			b.useConstants = bv
		}
	}
	return b.opts.Apply(values)
}

// Options returns the cached option table, re-fetching it from the host if
// its version counter has advanced since the last fetch.
func (b *Builder) Options() (iopts.Table, error) {
	return b.opts.Get()
}
