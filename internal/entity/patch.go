package entity

// PatchOp tags the three update semantics for an optional attribute:
// leave untouched, remove, or set to a value.
type PatchOp int

const (
	PatchUnset PatchOp = iota // key absent in the request; stored value untouched
	PatchClear                // explicit null/empty; stored attribute removed
	PatchSet                  // valid value supplied; stored attribute replaced
)

// Patch is a tagged optional update value. The zero value is PatchUnset.
type Patch[T any] struct {
	op    PatchOp
	value T
}

// Unset returns a Patch that leaves the stored value untouched.
func Unset[T any]() Patch[T] { return Patch[T]{op: PatchUnset} }

// Clear returns a Patch that removes the stored attribute.
func Clear[T any]() Patch[T] { return Patch[T]{op: PatchClear} }

// Set returns a Patch that replaces the stored attribute with v.
func Set[T any](v T) Patch[T] { return Patch[T]{op: PatchSet, value: v} }

// Op returns the tagged operation.
func (p Patch[T]) Op() PatchOp { return p.op }

// Value returns the value carried by a PatchSet patch; meaningless otherwise.
func (p Patch[T]) Value() T { return p.value }
