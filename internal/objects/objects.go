// Package objects holds the records scraped from the portal: units forming
// the organisational tree and the persons registered in them.
package objects

import (
	"errors"
	"fmt"
)

var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrBuilderConsumed      = errors.New("builder has already been built")
	ErrCycle                = errors.New("unit would become its own descendant")
)

// Builder is the contract shared by every record builder, it covers the two
// fields each listing row provides. Build fails with ErrMissingRequiredField
// if either of them was never set.
type Builder[T any] interface {
	SetName(name string)
	SetId(id uint32)
	Build() (T, error)
}

// required holds the fields every builder must have set before building.
type required struct {
	name     *string
	id       *uint32
	consumed bool
}

func (r *required) SetName(name string) {
	r.name = &name
}

func (r *required) SetId(id uint32) {
	r.id = &id
}

func (r *required) take() (string, uint32, error) {
	if r.consumed {
		return "", 0, ErrBuilderConsumed
	}
	if r.name == nil {
		return "", 0, fmt.Errorf("%w: name", ErrMissingRequiredField)
	}
	if r.id == nil {
		return "", 0, fmt.Errorf("%w: id", ErrMissingRequiredField)
	}
	r.consumed = true
	return *r.name, *r.id, nil
}
