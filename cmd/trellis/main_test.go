package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetMocks() {
	osWriteFile = os.WriteFile
	osExit = os.Exit
}

func TestHandlePanicWritesLog(t *testing.T) {
	defer resetMocks()

	var (
		written  string
		exitCode = -1
	)
	osWriteFile = func(name string, data []byte, _ os.FileMode) error {
		assert.Equal(t, panicLogFile, name)
		written = string(data)
		return nil
	}
	osExit = func(code int) { exitCode = code }

	func() {
		defer handlePanic()
		panic("boom")
	}()

	assert.Equal(t, 1, exitCode)
	assert.True(t, strings.HasPrefix(written, "panic: boom"))
	assert.Contains(t, written, "goroutine")
}

func TestHandlePanicLogWriteFailure(t *testing.T) {
	defer resetMocks()

	exitCode := -1
	osWriteFile = func(string, []byte, os.FileMode) error { return errors.New("read-only") }
	osExit = func(code int) { exitCode = code }

	func() {
		defer handlePanic()
		panic("boom")
	}()
	assert.Equal(t, 1, exitCode)
}

func TestHandlePanicNoPanic(t *testing.T) {
	defer resetMocks()
	osExit = func(int) { t.Fatal("exit must not be called without a panic") }
	handlePanic()
}

func TestInteractiveSession(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("\nversion\nnot-a-command\nexit\nversion\n")

	require.NoError(t, interactive(context.Background(), in, &out))

	text := out.String()
	assert.Equal(t, 1, strings.Count(text, "trellis version"), "input after exit is ignored")
	assert.Contains(t, text, "Error:")
	assert.Contains(t, text, "trellis > ")
}
