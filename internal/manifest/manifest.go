// Package manifest loads kiln target manifests written in CUE.
//
// A manifest names the test binaries kiln can run and how to launch them:
//
//	targets: host: {
//		binary: "./build/host/ringbuf_test"
//		args: ["-kiln.reporter=json"]
//		env: {KILN_SEED: "7"}
//	}
//
// Target names are free-form labels; "host" is only a convention. Env and
// args are optional, binary is required.
package manifest

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Target describes one runnable test binary.
type Target struct {
	Name   string
	Binary string
	Args   []string
	Env    map[string]string
}

// Manifest is a compiled set of targets, in declaration order.
type Manifest struct {
	Targets []Target
}

// Target returns the named target and whether it exists.
func (m *Manifest) Target(name string) (Target, bool) {
	for _, t := range m.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return Target{}, false
}

// Names returns the target names in declaration order.
func (m *Manifest) Names() []string {
	names := make([]string, len(m.Targets))
	for i, t := range m.Targets {
		names[i] = t.Name
	}
	return names
}

// Load reads and compiles the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Compile(data, path)
}

// Compile parses CUE source into a Manifest.
// Uses CUE SDK's Go API directly (not CLI subprocess).
func Compile(src []byte, filename string) (*Manifest, error) {
	ctx := cuecontext.New()
	val := ctx.CompileBytes(src, cue.Filename(filename))
	if err := val.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	targetsVal := val.LookupPath(cue.ParsePath("targets"))
	if !targetsVal.Exists() {
		return nil, &CompileError{
			Field:   "targets",
			Message: "targets is required",
			Pos:     val.Pos(),
		}
	}

	iter, err := targetsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	m := &Manifest{}
	for iter.Next() {
		target, err := compileTarget(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		m.Targets = append(m.Targets, target)
	}

	if len(m.Targets) == 0 {
		return nil, &CompileError{
			Field:   "targets",
			Message: "at least one target is required",
			Pos:     targetsVal.Pos(),
		}
	}

	return m, nil
}

// compileTarget parses a single target struct.
func compileTarget(name string, v cue.Value) (Target, error) {
	target := Target{Name: name}

	// Parse binary (required)
	binaryVal := v.LookupPath(cue.ParsePath("binary"))
	if !binaryVal.Exists() {
		return Target{}, &CompileError{
			Target:  name,
			Field:   "binary",
			Message: "binary is required",
			Pos:     v.Pos(),
		}
	}
	binary, err := binaryVal.String()
	if err != nil {
		return Target{}, formatCUEError(err)
	}
	if binary == "" {
		return Target{}, &CompileError{
			Target:  name,
			Field:   "binary",
			Message: "binary must not be empty",
			Pos:     binaryVal.Pos(),
		}
	}
	target.Binary = binary

	// Parse args (optional)
	argsVal := v.LookupPath(cue.ParsePath("args"))
	if argsVal.Exists() {
		argsIter, err := argsVal.List()
		if err != nil {
			return Target{}, formatCUEError(err)
		}
		for argsIter.Next() {
			arg, err := argsIter.Value().String()
			if err != nil {
				return Target{}, formatCUEError(err)
			}
			target.Args = append(target.Args, arg)
		}
	}

	// Parse env (optional)
	envVal := v.LookupPath(cue.ParsePath("env"))
	if envVal.Exists() {
		envIter, err := envVal.Fields()
		if err != nil {
			return Target{}, formatCUEError(err)
		}
		for envIter.Next() {
			value, err := envIter.Value().String()
			if err != nil {
				return Target{}, formatCUEError(err)
			}
			if target.Env == nil {
				target.Env = make(map[string]string)
			}
			target.Env[envIter.Label()] = value
		}
	}

	return target, nil
}

// CompileError represents a manifest error with source position.
type CompileError struct {
	Target  string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	field := e.Field
	if e.Target != "" {
		field = fmt.Sprintf("targets.%s.%s", e.Target, e.Field)
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			field, e.Message)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
