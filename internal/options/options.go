// Package options implements the Options Layer: it mirrors the host's
// configuration flags in a cached table, applies updates back through the
// host's option parser, and re-reads the full table whenever the host's
// version counter advances.
//
// The source this module is grounded on iterates an option object by key
// and looks up its host name in a table ("Ad-hoc option-key reflection" in
// the design notes this implements); here every key is an explicitly
// enumerated Key constant, and the kebab-case mapping lives in exactly one
// switch (keyToFlag), the single source of truth between the builder and
// the host.
package options

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/wasmbuild/wasmbuild/host"
)

// Key enumerates every option the host recognizes, per the specification
// this module implements.
type Key string

const (
	KeyEnableTraces            Key = "enableTraces"
	KeyEnableInterpEntry       Key = "enableInterpEntry"
	KeyEnableJitCall           Key = "enableJitCall"
	KeyEnableBackwardBranches  Key = "enableBackwardBranches"
	KeyEnableCallResume        Key = "enableCallResume"
	KeyEnableWasmEh            Key = "enableWasmEh"
	KeyDisableHeuristic        Key = "disableHeuristic"
	KeyEnableStats             Key = "enableStats"
	KeyEstimateHeat            Key = "estimateHeat"
	KeyCountBailouts           Key = "countBailouts"
	KeyDumpTraces              Key = "dumpTraces"
	KeyUseConstants            Key = "useConstants"
	KeyNoExitBackwardBranches  Key = "noExitBackwardBranches"
	KeyDirectJitCalls          Key = "directJitCalls"
	KeyEliminateNullChecks     Key = "eliminateNullChecks"
	KeyMinimumTraceLength      Key = "minimumTraceLength"
	KeyMinimumTraceHitCount    Key = "minimumTraceHitCount"
	KeyJitCallHitCount         Key = "jitCallHitCount"
	KeyJitCallFlushThreshold   Key = "jitCallFlushThreshold"
	KeyInterpEntryHitCount     Key = "interpEntryHitCount"
	KeyInterpEntryFlushThreshold Key = "interpEntryFlushThreshold"
	KeyWasmBytesLimit          Key = "wasmBytesLimit"
)

// boolKeys and intKeys partition the recognized keys by value kind, used
// both for validation and for JSON decoding of the host's options blob.
var boolKeys = map[Key]bool{
	KeyEnableTraces: true, KeyEnableInterpEntry: true, KeyEnableJitCall: true,
	KeyEnableBackwardBranches: true, KeyEnableCallResume: true, KeyEnableWasmEh: true,
	KeyDisableHeuristic: true, KeyEnableStats: true, KeyEstimateHeat: true,
	KeyCountBailouts: true, KeyDumpTraces: true, KeyUseConstants: true,
	KeyNoExitBackwardBranches: true, KeyDirectJitCalls: true, KeyEliminateNullChecks: true,
}

var intKeys = map[Key]bool{
	KeyMinimumTraceLength: true, KeyMinimumTraceHitCount: true, KeyJitCallHitCount: true,
	KeyJitCallFlushThreshold: true, KeyInterpEntryHitCount: true, KeyInterpEntryFlushThreshold: true,
	KeyWasmBytesLimit: true,
}

// keyToFlag is the single source of truth mapping a Key to the host's
// kebab-case option name.
func keyToFlag(k Key) (string, bool) {
	switch k {
	case KeyEnableTraces:
		return "jiterpreter-traces-enabled", true
	case KeyEnableInterpEntry:
		return "jiterpreter-interp-entry-enabled", true
	case KeyEnableJitCall:
		return "jiterpreter-jit-call-enabled", true
	case KeyEnableBackwardBranches:
		return "jiterpreter-backward-branches-enabled", true
	case KeyEnableCallResume:
		return "jiterpreter-call-resume-enabled", true
	case KeyEnableWasmEh:
		return "jiterpreter-wasm-eh-enabled", true
	case KeyDisableHeuristic:
		return "jiterpreter-disable-heuristic", true
	case KeyEnableStats:
		return "jiterpreter-stats-enabled", true
	case KeyEstimateHeat:
		return "jiterpreter-estimate-heat", true
	case KeyCountBailouts:
		return "jiterpreter-count-bailouts", true
	case KeyDumpTraces:
		return "jiterpreter-dump-traces", true
	case KeyUseConstants:
		return "jiterpreter-use-constants", true
	case KeyNoExitBackwardBranches:
		return "jiterpreter-no-exit-backward-branches", true
	case KeyDirectJitCalls:
		return "jiterpreter-direct-jit-calls", true
	case KeyEliminateNullChecks:
		return "jiterpreter-eliminate-null-checks", true
	case KeyMinimumTraceLength:
		return "jiterpreter-minimum-trace-length", true
	case KeyMinimumTraceHitCount:
		return "jiterpreter-minimum-trace-hit-count", true
	case KeyJitCallHitCount:
		return "jiterpreter-jit-call-hit-count", true
	case KeyJitCallFlushThreshold:
		return "jiterpreter-jit-call-flush-threshold", true
	case KeyInterpEntryHitCount:
		return "jiterpreter-interp-entry-hit-count", true
	case KeyInterpEntryFlushThreshold:
		return "jiterpreter-interp-entry-flush-threshold", true
	case KeyWasmBytesLimit:
		return "jiterpreter-wasm-bytes-limit", true
	default:
		return "", false
	}
}

// Table is a cached snapshot of the host's option values, keyed by Key.
// Bool-valued entries are stored as bool, int-valued entries as int.
type Table map[Key]any

// Layer pulls configuration from a host.Host, mirrors it in a cached
// Table, and pushes updates back through the host's option parser.
type Layer struct {
	host    host.Host
	cache   Table
	version int
	log     *logrus.Entry
}

// New constructs an options Layer backed by h. log may be nil, in which
// case logrus.StandardLogger() is used.
func New(h host.Host, log *logrus.Entry) *Layer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Layer{host: h, cache: Table{}, version: -1, log: log}
}

// Apply iterates the recognized keys in values and calls the host's option
// parser with a derived argument: booleans map to "--name"/"--no-name",
// numbers to "--name=value". Unrecognized keys are logged as a warning and
// skipped, never treated as an error.
func (l *Layer) Apply(values map[Key]any) error {
	for k, v := range values {
		flag, ok := keyToFlag(k)
		if !ok {
			l.log.WithField("option", string(k)).Warn("jiterpreter: unrecognized option key, skipping")
			continue
		}
		arg, err := renderArg(flag, v)
		if err != nil {
			return errors.Wrapf(err, "option %q", k)
		}
		if err := l.host.ParseOption(arg); err != nil {
			return errors.Wrapf(err, "applying option %q", k)
		}
		l.cache[k] = v
	}
	return nil
}

func renderArg(flag string, v any) (string, error) {
	switch val := v.(type) {
	case bool:
		if val {
			return "--" + flag, nil
		}
		return "--no-" + flag, nil
	case int:
		return "--" + flag + "=" + strconv.Itoa(val), nil
	default:
		return "", errors.Errorf("unsupported option value type %T", v)
	}
}

// Get returns the cached option table, re-fetching it from the host first
// if the host's option version has advanced since the last fetch.
func (l *Layer) Get() (Table, error) {
	v := l.host.OptionsVersion()
	if v == l.version {
		return l.cache, nil
	}
	raw, err := l.host.OptionsJSON()
	if err != nil {
		return nil, errors.Wrap(err, "fetching options from host")
	}
	var decoded map[string]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.Wrap(err, "decoding host options JSON")
	}
	table := Table{}
	flagToKey := map[string]Key{}
	for k := range boolKeys {
		if flag, ok := keyToFlag(k); ok {
			flagToKey[flag] = k
		}
	}
	for k := range intKeys {
		if flag, ok := keyToFlag(k); ok {
			flagToKey[flag] = k
		}
	}
	for flag, raw := range decoded {
		key, ok := flagToKey[flag]
		if !ok {
			continue
		}
		if boolKeys[key] {
			table[key] = raw == "true"
		} else {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, errors.Wrapf(err, "option %q has non-numeric value %q", flag, raw)
			}
			table[key] = n
		}
	}
	l.cache = table
	l.version = v
	return table, nil
}

// Bool returns a cached boolean option, defaulting to def if unset.
func (t Table) Bool(k Key, def bool) bool {
	if v, ok := t[k]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns a cached integer option, defaulting to def if unset.
func (t Table) Int(k Key, def int) int {
	if v, ok := t[k]; ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return def
}
