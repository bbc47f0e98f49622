package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/airlock-labs/airlock/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toHex = "0x00000000000000000000000000000000000000aa"

func run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := Run(append([]string{"airlock"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_NoArgsPrintsUsage(t *testing.T) {
	code, _, stderr := run()
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "usage: airlock")
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := run("frobnicate")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := run("version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "airlock")
}

func TestHash_Deterministic(t *testing.T) {
	code, first, _ := run("hash", "-to", toHex, "-value", "100", "-payload", "0xdeadbeef")
	require.Equal(t, 0, code)
	code, second, _ := run("hash", "-to", toHex, "-value", "100", "-payload", "0xdeadbeef")
	require.Equal(t, 0, code)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "0x"))
	assert.Len(t, strings.TrimSpace(first), 2+64)
}

func TestHash_SecretDiffersFromPlain(t *testing.T) {
	code, plain, _ := run("hash", "-to", toHex, "-value", "100")
	require.Equal(t, 0, code)
	code, secret, _ := run("hash", "-to", toHex, "-value", "100", "-secret", "-salt", "0")
	require.Equal(t, 0, code)

	assert.NotEqual(t, plain, secret)
}

func TestHash_BadInputs(t *testing.T) {
	code, _, stderr := run("hash", "-to", "nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "address")

	code, _, stderr = run("hash", "-to", toHex, "-call-type", "staticcall")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "call type")
}

func TestInspect_PrintsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	s, err := store.OpenSQLite(path)
	require.NoError(t, err)

	ctx := context.Background()
	var digest [32]byte
	digest[0] = 0xab
	require.NoError(t, s.AppendEntry(ctx,
		store.Entry{Slot: 0, Commitment: digest, CreatedAt: time.Now().UTC()},
		store.State{Cursor: 0, Tail: 1}))
	require.NoError(t, s.Close())

	code, stdout, stderr := run("inspect", "-db", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"pending": 1`)
	assert.Contains(t, stdout, "0xab")
}

func TestInspect_RequiresDB(t *testing.T) {
	code, _, stderr := run("inspect")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "-db is required")
}
