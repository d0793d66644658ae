package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/spf13/pflag"

	"devwipe/wipe"
)

// byteSizeValue accepts plain byte counts as well as sizes like 64KB or
// 1MB. Units are powers of 1024.
type byteSizeValue datasize.ByteSize

var _ pflag.Value = (*byteSizeValue)(nil)

func (b *byteSizeValue) Set(s string) error {
	var v datasize.ByteSize
	if err := v.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return fmt.Errorf("invalid size %q: %w", s, err)
	}
	*b = byteSizeValue(v)
	return nil
}

func (b *byteSizeValue) String() string {
	return datasize.ByteSize(*b).String()
}

func (b *byteSizeValue) Type() string {
	return "size"
}

func configError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", wipe.ErrConfiguration, fmt.Sprintf(format, args...))
}

// parsePasses parses the optional pass count argument.
func parsePasses(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, configError("pass count must be a positive integer, got %q", s)
	}
	if n < 1 {
		return 0, configError("pass count must be >= 1, got %d", n)
	}
	return n, nil
}
