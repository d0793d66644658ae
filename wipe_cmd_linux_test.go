package main

import (
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devwipe/rawdev"
)

func TestWipeImageDirectMode(t *testing.T) {
	path := scratchImage(t, 10000)
	env, stdout, _ := newTestEnv(rawdev.New())

	err := execute(env, "wipe", path, "2", "--force", "--grace=0s", "--mode", "direct")
	if errors.Is(err, syscall.EINVAL) {
		t.Skipf("filesystem holding %s does not support O_DIRECT: %v", path, err)
	}
	require.NoError(t, err)

	out := stdout.String()
	assert.Contains(t, out, "Mode: direct")
	assert.Contains(t, out, "Device size: 10000 bytes")
	assert.Contains(t, out, "\rPass 2/2 | Progress: 100% | Pass ETA: 00:00 | Total ETA: 00:00\n")
	assert.True(t, strings.HasSuffix(out, "Device "+path+" wiped successfully\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, data, 10000)
	for i, c := range data {
		if c != 0 {
			t.Fatalf("byte %d is %#x after the final zero pass", i, c)
		}
	}
}
