package wasmbuild

import (
	iopts "github.com/wasmbuild/wasmbuild/internal/options"
)

// RecordFailure increments the builder-wide failure counter. Once it
// reaches maxFailures (2), it disables all three emission categories by
// applying an options patch, matching the specification's
// generation-disabling rule.
func (b *Builder) RecordFailure() error {
	b.failureCount++
	if b.failureCount < b.maxFailures {
		return nil
	}
	b.log.WithField("failureCount", b.failureCount).
		Warn("jiterpreter: failure threshold reached, disabling generation")
	return b.ApplyOptions(map[iopts.Key]any{
		iopts.KeyEnableTraces:      false,
		iopts.KeyEnableJitCall:     false,
		iopts.KeyEnableInterpEntry: false,
	})
}

// FailureCount returns the current value of the builder-wide failure
// counter, for diagnostics.
func (b *Builder) FailureCount() int { return b.failureCount }
