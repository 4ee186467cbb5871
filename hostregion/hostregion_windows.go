//go:build windows

package hostregion

import "errors"

// ErrUnsupported is returned by NewAnonymous on windows, which
// golang.org/x/sys/unix does not cover.
var ErrUnsupported = errors.New("hostregion: anonymous mapping not supported on this platform")

// NewAnonymous always fails on windows; there is no unix.Mmap to back it.
func NewAnonymous(size int) (region []byte, release func() error, err error) {
	return nil, nil, ErrUnsupported
}
