package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/storylet/internal/ir"
)

// CompileContent compiles the top-level quality and storylet structs of v.
//
//	quality: gold: { name: "Gold" }
//	storylet: forge: { title: "The Forge", branches: [...] }
//
// Every entry is compiled; the returned error joins one *CompileError per
// entry that failed, and the content holds the entries that succeeded.
func CompileContent(v cue.Value) (*ir.Content, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	content := ir.NewContent()
	var errs []error

	if qv := v.LookupPath(cue.ParsePath("quality")); qv.Exists() {
		iter, err := qv.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			def, err := CompileQuality(iter.Value())
			if err != nil {
				errs = append(errs, err)
				continue
			}
			content.Qualities[def.ID] = def
		}
	}

	if sv := v.LookupPath(cue.ParsePath("storylet")); sv.Exists() {
		iter, err := sv.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			s, err := CompileStorylet(iter.Value())
			if err != nil {
				errs = append(errs, err)
				continue
			}
			content.Storylets[s.ID] = s
		}
	}

	return content, errors.Join(errs...)
}

// CompileSource compiles CUE source text. filename only labels positions.
func CompileSource(filename, src string) (*ir.Content, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	return CompileContent(v)
}

// LoadDir loads every .cue file in dir as one instance and compiles it.
// The files must share a package clause.
func LoadDir(dir string) (*ir.Content, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content directory: not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoContent, dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoContent, dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	ctx := cuecontext.New()
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return CompileContent(value)
}

// ErrNoContent is returned by LoadDir when a directory has no CUE files.
var ErrNoContent = errors.New("no CUE content files")

// FindCUEFiles returns the .cue files directly inside dir.
func FindCUEFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "*.cue"))
}
