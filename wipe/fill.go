package wipe

import (
	"errors"
	"io"
)

// Pattern is the fill strategy of a pass.
type Pattern int

const (
	// Random fills the buffer with cryptographically strong random bytes.
	Random Pattern = iota
	// Zero fills the buffer with zero bytes.
	Zero
)

func (p Pattern) String() string {
	if p == Zero {
		return "zeros"
	}
	return "random data"
}

// Fill writes the pattern into buf. Random bytes are read from src.
func (p Pattern) Fill(buf []byte, src io.Reader) error {
	if p == Zero {
		clear(buf)
		return nil
	}
	return FillRandom(buf, src)
}

// maxEmptyReads bounds the number of consecutive (0, nil) reads tolerated
// from a random source.
const maxEmptyReads = 100

// FillRandom reads from src until buf is completely filled. Running out of
// data before that is an ErrRandomSource error; buf is never padded with
// predictable bytes.
func FillRandom(buf []byte, src io.Reader) error {
	filled, empty := 0, 0
	for filled < len(buf) {
		n, err := src.Read(buf[filled:])
		filled += n
		if filled == len(buf) {
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return &Error{Kind: ErrRandomSource, Op: "read random source", Err: err}
		}
		if n == 0 {
			if empty++; empty >= maxEmptyReads {
				return &Error{Kind: ErrRandomSource, Op: "read random source", Err: io.ErrNoProgress}
			}
			continue
		}
		empty = 0
	}
	return nil
}
