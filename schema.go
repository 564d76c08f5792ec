package exi

import (
	"io"

	"github.com/chaisql/exi/engine"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"golang.org/x/sync/errgroup"
)

// MaxSchemaResources is the maximum number of resources a schema can be
// compiled from.
const MaxSchemaResources = 10

// maximum number of resources read concurrently by LoadSchemaFS.
const readConcurrency = 4

// Schema is a compiled grammar. It is immutable and can be shared by
// any number of readers and writers, provided they use the engine that
// compiled it.
type Schema struct {
	grammar engine.Grammar
}

// NewSchema compiles EXI-encoded XML Schema resources into a grammar.
// The resources are not retained. opts may be nil.
func NewSchema(e engine.Engine, resources [][]byte, opts *Options) (*Schema, error) {
	if len(resources) > MaxSchemaResources {
		return nil, errors.Wrapf(ErrTooManyResources, "got %d, at most %d allowed", len(resources), MaxSchemaResources)
	}

	var raw *engine.Options
	if opts != nil {
		o := opts.raw()
		raw = &o
	}

	g, code := e.GenerateGrammars(resources, engine.SchemaFormatXSDEXI, raw)
	if code != engine.OK {
		return nil, errors.Mark(errors.Wrap(code, "cannot generate grammars"), ErrGrammarGeneration)
	}

	return &Schema{grammar: g}, nil
}

// LoadSchema reads the given files from the local file system and
// compiles them with NewSchema.
func LoadSchema(e engine.Engine, paths []string, opts *Options) (*Schema, error) {
	return LoadSchemaFS(e, vfs.Default, paths, opts)
}

// LoadSchemaFS reads the given files from fs and compiles them with
// NewSchema. Nothing is read if more than MaxSchemaResources paths are given.
// If several files cannot be read, the error of the first one in paths
// order is returned.
func LoadSchemaFS(e engine.Engine, fs vfs.FS, paths []string, opts *Options) (*Schema, error) {
	if len(paths) > MaxSchemaResources {
		return nil, errors.Wrapf(ErrTooManyResources, "got %d, at most %d allowed", len(paths), MaxSchemaResources)
	}

	resources := make([][]byte, len(paths))
	errs := make([]error, len(paths))

	var g errgroup.Group
	g.SetLimit(readConcurrency)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			b, err := readResource(fs, path)
			if err != nil {
				errs[i] = &ResourceError{Path: path, Err: err}
				return errs[i]
			}
			resources[i] = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, err := range errs {
			if err != nil {
				return nil, errors.WithStack(err)
			}
		}
		return nil, err
	}

	return NewSchema(e, resources, opts)
}

func readResource(fs vfs.FS, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
