// Package cueschema validates node payloads against a CUE schema.
//
// A schema source declares #Properties, which every payload must satisfy,
// and optionally #Labels, whose fields add constraints for nodes with that
// exact label. The two are checked independently, so a label rule never
// has to repeat the optional fields of #Properties. Label rules are closed
// like any definition unless they end in "...":
//
//	#Properties: {
//		name?: string
//		...
//	}
//
//	#Labels: {
//		Person: { name: string, age?: int & >=0 }
//	}
package cueschema

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"

	"github.com/roach88/triplestore/internal/props"
)

const (
	propertiesDef = "#Properties"
	labelsDef     = "#Labels"
)

// Schema is a compiled payload schema. It implements graph.Validator and is
// safe for concurrent use.
type Schema struct {
	// cue.Context is not safe for concurrent use.
	mu         sync.Mutex
	ctx        *cue.Context
	properties cue.Value
	labels     cue.Value
}

// Compile builds a Schema from CUE source. filename is used in error
// positions only.
func Compile(filename string, src []byte) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", formatCUEError(err))
	}

	properties := v.LookupPath(cue.ParsePath(propertiesDef))
	if !properties.Exists() {
		return nil, fmt.Errorf("compile schema: %s does not define %s", filename, propertiesDef)
	}
	if err := properties.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", formatCUEError(err))
	}

	return &Schema{
		ctx:        ctx,
		properties: properties,
		labels:     v.LookupPath(cue.ParsePath(labelsDef)),
	}, nil
}

// Load reads and compiles a schema file.
func Load(path string) (*Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Compile(path, src)
}

// Validate checks the payload against #Properties and then against
// #Labels.<label> when present. Each check requires a concrete result.
func (s *Schema) Validate(label string, properties props.Object) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if properties == nil {
		properties = props.Object{}
	}
	value := s.ctx.Encode(props.ToAny(properties))
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode properties: %w", err)
	}

	if err := s.properties.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	if !s.labels.Exists() {
		return nil
	}
	perLabel := s.labels.LookupPath(cue.MakePath(cue.Str(label)))
	if !perLabel.Exists() {
		return nil
	}
	if err := perLabel.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError flattens a CUE error list into one error, one problem per
// clause.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) <= 1 {
		return err
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
