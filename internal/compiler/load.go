package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// ErrNoCUEFiles is returned when a rig directory holds no .cue files.
var ErrNoCUEFiles = errors.New("no CUE files found")

// LoadValue loads and builds the CUE package in dir.
func LoadValue(dir string) (cue.Value, error) {
	files, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return cue.Value{}, fmt.Errorf("%s: %w", dir, ErrNoCUEFiles)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("loading %s: no CUE instances loaded", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, fmt.Errorf("loading CUE files: %w", formatCUEError(inst.Err))
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("building CUE value: %w", formatCUEError(err))
	}
	return value, nil
}

// LoadRig loads the CUE package in dir and compiles it into a Rig.
func LoadRig(dir string) (*Rig, error) {
	value, err := LoadValue(dir)
	if err != nil {
		return nil, err
	}
	return CompileRig(value)
}

// FindCUEFiles returns the .cue files directly in dir, sorted by name.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}
