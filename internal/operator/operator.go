// Package operator defines the plugin contract between the pipeline host and
// row-set operators, mirroring the host's callback lifecycle:
//
//	InputArguments        declare arguments (once)
//	OnArgumentsProcessed  validate resolved arguments and bind state (once)
//	HandleColumns         rewrite the header (once, before any row)
//	HandleRow             rewrite a row (once per row, in input order)
//
// The host calls these in order from a single goroutine and never calls a
// later stage when an earlier one returned an error.
package operator

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"parsenumber/internal/rowset"
)

// Operator declares and validates input arguments.
type Operator interface {
	InputArguments() []Argument
	OnArgumentsProcessed(args Arguments) error
}

// ColumnOperator rewrites the header of the row set.
type ColumnOperator interface {
	HandleColumns(h *rowset.Header) error
}

// RowOperator rewrites one row at a time.
type RowOperator interface {
	HandleRow(r *rowset.Row)
}

// Metadata describes an operator for discovery.
type Metadata struct {
	// Name is the human-readable operator name shown by the host.
	Name string
}

// Factory builds a fresh operator instance. Instances are single use.
type Factory func() Operator

type registration struct {
	meta    Metadata
	factory Factory
}

// ErrUnknownKind is returned by New for kinds nobody registered.
var ErrUnknownKind = errors.New("unknown operator kind")

var (
	regMu    sync.RWMutex
	registry = map[string]registration{}
)

// Register makes an operator available under kind. Operator packages call it
// from init.
func Register(kind string, meta Metadata, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[kind] = registration{meta: meta, factory: f}
}

// New returns a new operator instance for kind with its metadata.
func New(kind string) (Operator, Metadata, error) {
	regMu.RLock()
	reg, ok := registry[kind]
	regMu.RUnlock()
	if !ok {
		return nil, Metadata{}, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
	return reg.factory(), reg.meta, nil
}

// Kinds lists the registered kinds in sorted order.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
