package snapshotcache

import (
	"fmt"

	"github.com/goccy/go-reflect"
)

// ValueCloner returns a deep copy of a value.
// Storages hand out copies so that callers cannot mutate a shared snapshot.
type ValueCloner[V any] interface {
	CloneValue(V) V
}

// ValueClonerFunc is a function type that implements the ValueCloner interface.
type ValueClonerFunc[V any] func(v V) V

// CloneValue calls the function.
func (f ValueClonerFunc[V]) CloneValue(v V) V {
	return f(v)
}

// NopValueCloner returns values as they are. Use it for values that are never mutated.
type NopValueCloner[V any] struct{}

// CloneValue returns v.
func (NopValueCloner[V]) CloneValue(v V) V {
	return v
}

// DefaultValueCloner returns the cloner for V used when none is configured:
// the Clone or DeepCopy method of V, or assignment for scalar kinds.
// It panics for any other type.
func DefaultValueCloner[V any]() ValueCloner[V] {
	type cloner interface{ Clone() V }
	type deepCopier interface{ DeepCopy() V }

	var zero V
	switch any(zero).(type) {
	case cloner:
		return ValueClonerFunc[V](func(v V) V { return any(v).(cloner).Clone() })
	case deepCopier:
		return ValueClonerFunc[V](func(v V) V { return any(v).(deepCopier).DeepCopy() })
	}

	if typ := reflect.TypeOf(zero); typ != nil && isScalar(typ.Kind()) {
		return NopValueCloner[V]{}
	}
	panic(fmt.Sprintf("snapshotcache: %T has neither a Clone nor a DeepCopy method", zero))
}

func isScalar(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	default:
		return false
	}
}
