package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/scalargrad/internal/ir"
)

// Load error codes (E001-E099), shared with the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeNoGraphs    = "E007" // No graph definitions found
)

// LoadResult contains the graphs loaded from a file or directory.
type LoadResult struct {
	Graphs    []ir.GraphSpec
	FileCount int // Number of CUE files found
}

// Graph returns the graph with the given name.
func (r *LoadResult) Graph(name string) (*ir.GraphSpec, bool) {
	for i := range r.Graphs {
		if r.Graphs[i].Name == name {
			return &r.Graphs[i], true
		}
	}
	return nil, false
}

// Names lists the compiled graph names in declaration order.
func (r *LoadResult) Names() []string {
	names := make([]string, len(r.Graphs))
	for i, g := range r.Graphs {
		names[i] = g.Name
	}
	return names
}

// LoadError represents an error that occurred during loading.
type LoadError struct {
	Code    string
	Message string
	Err     error // underlying compile error, if any
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load compiles every graph under the "graph" field of a CUE file or of all
// CUE files in a directory.
//
// Fatal problems (missing path, no files, CUE syntax errors) return a nil
// result. Per-graph compile errors are collected and the graphs that did
// compile are still returned.
func Load(path string) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("spec path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing spec path: %v", err)}}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: err.Error()}}
	}

	var (
		cfg   *load.Config
		args  []string
		files []string
	)
	if info.IsDir() {
		files, err = FindCUEFiles(abs)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		cfg = &load.Config{Dir: abs}
		args = []string{"."}
	} else {
		if filepath.Ext(abs) != ".cue" {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("not a CUE file: %s", path)}}
		}
		files = []string{abs}
		cfg = &load.Config{Dir: filepath.Dir(abs)}
		args = []string{abs}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{
		FileCount: len(files),
	}
	graphs, errs := CompileAll(value)
	result.Graphs = graphs

	if len(result.Graphs) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoGraphs, Message: "no graphs found in specs"})
	}
	return result, errs
}

// CompileAll compiles every field under "graph" in declaration order.
func CompileAll(value cue.Value) ([]ir.GraphSpec, []error) {
	graphsVal := value.LookupPath(cue.ParsePath("graph"))
	if !graphsVal.Exists() {
		return nil, nil
	}

	iter, err := graphsVal.Fields()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating graphs: %v", err)}}
	}

	var (
		graphs []ir.GraphSpec
		errs   []error
	)
	for iter.Next() {
		spec, err := CompileGraph(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("graph.%s: %w", iter.Label(), err))
			continue
		}
		if verrs := Validate(spec); len(verrs) > 0 {
			for _, ve := range verrs {
				errs = append(errs, fmt.Errorf("graph.%s: %w", iter.Label(), ve))
			}
			continue
		}
		graphs = append(graphs, *spec)
	}
	return graphs, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// ErrorCode returns the validation or load code carried by err, or
// ErrCodeGeneric.
func ErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	var ce *CycleError
	if errors.As(err, &ce) {
		return ErrDefinitionCycle
	}
	var cmp *CompileError
	if errors.As(err, &cmp) && cmp.Code != "" {
		return cmp.Code
	}
	return ErrCodeGeneric
}
