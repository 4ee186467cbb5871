package main

import (
	"fmt"
	"unsafe"

	"microalloc"
	"microalloc/dynamic"
	"microalloc/linear"
	"microalloc/pool"
	"microalloc/stack"
	"microalloc/staticlinear"
)

func exercise(name string, r alloc.Resource, workload func()) {
	before := r.Available()
	workload()
	after := r.Available()
	fmt.Printf("%-14s available before=%-8d after=%-8d tag=%s\n", name, before, after, r.Tag())
}

func main() {
	l := linear.New(make([]byte, 1<<16), linear.WithAlignment(16))
	exercise("linear", l, func() {
		for i := 0; i < 32; i++ {
			l.Allocate(64)
		}
	})

	s := staticlinear.New(1, 1<<16, staticlinear.WithAlignment(16))
	exercise("static-linear", s, func() {
		for i := 0; i < 32; i++ {
			s.Allocate(64)
		}
	})

	st := stack.New(make([]byte, 1<<16), stack.WithAlignment(16))
	exercise("stack", st, func() {
		var ptrs [32]unsafe.Pointer
		for i := range ptrs {
			ptrs[i] = st.Allocate(64)
		}
		for i := len(ptrs) - 1; i >= 0; i-- {
			st.Free(ptrs[i])
		}
	})

	p := pool.New(make([]byte, 1<<16), 64, pool.WithAlignment(16), pool.WithGuardDoubleFree())
	exercise("pool", p, func() {
		var held []unsafe.Pointer
		for i := 0; i < 32; i++ {
			held = append(held, p.Allocate(64))
		}
		for _, h := range held {
			p.Free(h)
		}
	})

	d := dynamic.New(make([]byte, 1<<16), dynamic.WithAlignment(16))
	exercise("dynamic", d, func() {
		var held []unsafe.Pointer
		for i := 0; i < 32; i++ {
			held = append(held, d.Allocate(64))
		}
		for _, h := range held {
			d.Free(h)
		}
	})
}
