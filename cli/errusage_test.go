package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsageError_Is(t *testing.T) {
	err := NewUsageError("test")
	assert.ErrorIs(t, err, &UsageError{})

	var ErrTesting = errors.New("test")
	err2 := NewUsageError("%w", ErrTesting)
	assert.ErrorIs(t, err2, &UsageError{})
	assert.ErrorIs(t, err2, ErrTesting)

	wrapped := fmt.Errorf("binding: %w", err2)
	assert.ErrorIs(t, wrapped, &UsageError{})
}

func TestUsageError_Error(t *testing.T) {
	err := &UsageError{}
	assert.Equal(t, "usage error", err.Error(), "Default error output should be returned when there is no wrapping error")
	err2 := NewUsageError("test")
	assert.Equal(t, "usage error: test", err2.Error(), "The wrapped error's output should be returned when Error is called")
}

func TestWithExitCode(t *testing.T) {
	assert.NoError(t, WithExitCode(3, nil))

	var ErrTesting = errors.New("test")
	err := WithExitCode(3, ErrTesting)
	assert.ErrorIs(t, err, ErrTesting)
	var coder ExitCoder
	assert.True(t, errors.As(err, &coder))
	assert.Equal(t, 3, coder.ExitCode())
	assert.Equal(t, "test", err.Error())
}

func ExampleNewUsageError() {
	reg := NewRegistry("parent")
	// Done for testing purposes
	reg.Printer().Redirect(os.Stdout)
	// Error not handled for brevity
	_, _ = reg.Register(CommandSpec{
		Name:  "command",
		Short: "test command",
		Exec: func(in *Input) (int, error) {
			return 0, NewUsageError("test usage error")
		},
	})
	code := reg.Run(context.Background(), []string{"command"})
	fmt.Println("exit code:", code)

	// Output:
	// usage error: test usage error
	// test command
	//
	// USAGE:
	// parent command
	//
	// FLAGS
	//   -h, --help   Prints this usage information
	// exit code: 2
}
