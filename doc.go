// Package alloc defines the contract every concrete memory resource in
// this module satisfies (linear, staticlinear, stack, pool, dynamic), the
// sentinel errors those resources fail with, and the FailPolicy hook a
// host can attach to turn a nil/false return into a log line or a panic.
//
// None of the concrete resources are constructed from this package —
// linear.New, stack.New, pool.New and dynamic.New each return a value
// satisfying alloc.Resource over a caller-supplied []byte. This package
// only describes the shared shape.
package alloc
