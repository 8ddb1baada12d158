package curve

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ID addresses a curve in a Registry. Ids are 1-based.
type ID uint32

// Registry is an ordered, immutable set of curves with a designated default.
type Registry struct {
	curves    []Curve
	defaultID ID
}

// NewRegistry builds a registry. curves[0] gets id 1. defaultID must name one
// of them.
func NewRegistry(defaultID ID, curves ...Curve) (*Registry, error) {
	if len(curves) == 0 {
		return nil, errors.New("curve registry: at least one curve is required")
	}
	if defaultID == 0 || int(defaultID) > len(curves) {
		return nil, errors.Newf("curve registry: default id %d out of range [1, %d]", defaultID, len(curves))
	}
	cs := make([]Curve, len(curves))
	copy(cs, curves)
	return &Registry{curves: cs, defaultID: defaultID}, nil
}

// Get returns the curve with the given id.
func (r *Registry) Get(id ID) (Curve, bool) {
	if id == 0 || int(id) > len(r.curves) {
		return nil, false
	}
	return r.curves[id-1], true
}

// Default returns the default curve id.
func (r *Registry) Default() ID {
	return r.defaultID
}

// Count returns the number of registered curves.
func (r *Registry) Count() int {
	return len(r.curves)
}

// Describe lists "id:name" pairs, in id order.
func (r *Registry) Describe() []string {
	out := make([]string, len(r.curves))
	for i, c := range r.curves {
		out[i] = fmt.Sprintf("%d:%s", i+1, c.Name())
	}
	return out
}
