package binder

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/saylorsolutions/cmdbind/cli"
	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T, users *testUsers) (*cli.Registry, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	reg := cli.NewRegistry("test-cli")
	reg.Printer().Redirect(&buf)
	_, err := New().Register(reg, "users",
		testMethod(t, users, "CreateUser", &Metadata{Aliases: []string{"cu"}},
			Param{Name: "name"},
			Param{Name: "admin", Default: false, HasDefault: true, Meta: &Metadata{Shorthand: "a", Aliases: []string{"superuser"}}},
		),
		testMethod(t, users, "Count", &Metadata{}, Param{Name: "p"}, Param{Name: "ctx"}, Param{Name: "in"}, Param{Name: "min", Default: "0", HasDefault: true}),
		testMethod(t, users, "Tag", &Metadata{}, Param{Name: "user"}, Param{Name: "tags"}),
		testMethod(t, users, "Helper", nil),
	)
	require.NoError(t, err)
	return reg, &buf
}

func TestDescriptor_Invoke(t *testing.T) {
	tests := map[string]struct {
		args    []string
		code    int
		created []string
		admins  []string
	}{
		"Create user": {
			args:    []string{"users:create-user", "alice"},
			code:    cli.ExitOK,
			created: []string{"alice"},
		},
		"Create admin by alias": {
			args:    []string{"cu", "--admin", "bob"},
			code:    cli.ExitOK,
			created: []string{"bob"},
			admins:  []string{"bob"},
		},
		"Create admin by shorthand": {
			args:    []string{"cu", "-a", "bob"},
			code:    cli.ExitOK,
			created: []string{"bob"},
			admins:  []string{"bob"},
		},
		"Create admin by flag alias": {
			args:    []string{"cu", "--superuser", "bob"},
			code:    cli.ExitOK,
			created: []string{"bob"},
			admins:  []string{"bob"},
		},
		"Missing required argument": {
			args: []string{"cu"},
			code: cli.ExitUsage,
		},
		"Extra arguments": {
			args: []string{"cu", "carol", "dave"},
			code: cli.ExitUsage,
		},
		"Method error": {
			args: []string{"cu", "fail"},
			code: cli.ExitError,
		},
		"Method not bound": {
			args: []string{"users:helper"},
			code: cli.ExitUsage,
		},
		"Variadic": {
			args: []string{"users:tag", "alice", "a", "b", "c"},
			code: 3,
		},
		"Variadic empty": {
			args: []string{"users:tag", "alice"},
			code: 0,
		},
		"Runtime values and default": {
			args: []string{"users:count"},
			code: 0,
		},
		"Converted argument": {
			args: []string{"users:count", "-2"},
			code: cli.ExitUsage,
		},
		"Converted argument after terminator": {
			args: []string{"users:count", "--", "-2"},
			code: 2,
		},
		"Invalid argument": {
			args: []string{"users:count", "two"},
			code: cli.ExitUsage,
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			users := new(testUsers)
			reg, _ := testRegistry(t, users)
			assert.Equal(t, tc.code, reg.Run(context.Background(), tc.args))
			assert.Equal(t, tc.created, users.created)
			assert.Equal(t, tc.admins, users.admins)
		})
	}
}

func TestDescriptor_Invoke_Help(t *testing.T) {
	reg, buf := testRegistry(t, new(testUsers))
	assert.Equal(t, cli.ExitOK, reg.Run(context.Background(), []string{"cu", "--help"}))
	assert.Equal(t, `USAGE:
test-cli users:create-user [FLAGS] NAME

ALIASES:
  cu

FLAGS
  -a, --admin   Sets admin
  -h, --help    Prints this usage information
`, buf.String())
}

type settings struct {
	timeout time.Duration
	ports   []int
	ratio   float64
	debug   bool
}

func (s *settings) Apply(timeout time.Duration, ports []int, ratio float64, debug bool) {
	s.timeout = timeout
	s.ports = ports
	s.ratio = ratio
	s.debug = debug
}

func TestDescriptor_Invoke_Conversion(t *testing.T) {
	s := new(settings)
	d, err := Bind(testMethod(t, s, "Apply", &Metadata{},
		Param{Name: "timeout"},
		Param{Name: "ports", Default: "80,443", HasDefault: true},
		Param{Name: "ratio", Default: 0.5, HasDefault: true},
		Param{Name: "debug", Default: "true", HasDefault: true},
	), "")
	require.NoError(t, err)

	fs := flag.NewFlagSet("apply", flag.ContinueOnError)
	d.Define(fs)
	require.NoError(t, fs.Parse([]string{"1m30s"}))
	code, err := d.Invoke(&cli.Input{Flags: fs, Args: fs.Args()})
	require.NoError(t, err)
	assert.Equal(t, cli.ExitOK, code)
	assert.Equal(t, 90*time.Second, s.timeout)
	assert.Equal(t, []int{80, 443}, s.ports)
	assert.Equal(t, 0.5, s.ratio)
	assert.True(t, s.debug, "Boolean defaults may be given as strings")

	fs = flag.NewFlagSet("apply", flag.ContinueOnError)
	d.Define(fs)
	require.NoError(t, fs.Parse([]string{"--debug=false", "5s", "8080", "0.25"}))
	_, err = d.Invoke(&cli.Input{Flags: fs, Args: fs.Args()})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, s.timeout)
	assert.Equal(t, []int{8080}, s.ports)
	assert.Equal(t, 0.25, s.ratio)
	assert.False(t, s.debug)
}

type results struct{}

func (results) Code() uint8 { return 5 }

func (results) CodeAndError(fail bool) (int, error) {
	if fail {
		return 0, errors.New("failed")
	}
	return 0, nil
}

func (results) CodeAndErrorWithCode() (int, error) {
	return 9, errors.New("failed with code")
}

func TestDescriptor_Invoke_Results(t *testing.T) {
	tests := map[string]struct {
		method string
		params []Param
		args   []string
		code   int
		err    bool
	}{
		"Unsigned code":      {method: "Code", code: 5},
		"Code and nil":       {method: "CodeAndError", params: []Param{{Name: "fail"}}, code: 0},
		"Code and error":     {method: "CodeAndError", params: []Param{{Name: "fail"}}, args: []string{"--fail"}, code: cli.ExitError, err: true},
		"Reported and error": {method: "CodeAndErrorWithCode", code: 9, err: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, err := Bind(testMethod(t, results{}, tc.method, &Metadata{}, tc.params...), "")
			require.NoError(t, err)
			fs := flag.NewFlagSet(tc.method, flag.ContinueOnError)
			d.Define(fs)
			require.NoError(t, fs.Parse(tc.args))
			code, err := d.Invoke(&cli.Input{Flags: fs, Args: fs.Args()})
			assert.Equal(t, tc.code, code)
			if tc.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBinder_Register_Duplicates(t *testing.T) {
	users := new(testUsers)
	reg := cli.NewRegistry("test-cli")
	_, err := New().Register(reg, "users", testMethod(t, users, "Tag", &Metadata{Aliases: []string{"t"}}, Param{Name: "user"}, Param{Name: "tags"}))
	require.NoError(t, err)
	_, err = New().Register(reg, "groups", testMethod(t, users, "Tag", &Metadata{Aliases: []string{"t"}}, Param{Name: "user"}, Param{Name: "tags"}))
	assert.ErrorIs(t, err, cli.ErrDuplicateCommand, "Alias collisions are detected by the registry")
}

func TestDescriptor_Invoke_ResolveErrors(t *testing.T) {
	c := &clock{now: "noon"}
	failing := errors.New("clock unavailable")
	d, err := New(WithRuntimeType(reflect.TypeOf(c), func(*cli.Input) (reflect.Value, error) {
		return reflect.Value{}, failing
	})).Bind(testMethod(t, c, "Now", &Metadata{}, Param{Name: "cl"}, Param{Name: "p"}), "")
	require.NoError(t, err)
	code, err := d.Invoke(&cli.Input{Printer: cli.NewPrinter()})
	assert.ErrorIs(t, err, failing)
	assert.Equal(t, cli.ExitError, code, "Resolver failures aren't usage errors")

	users := new(testUsers)
	d, err = Bind(testMethod(t, users, "CreateUser", &Metadata{}, Param{Name: "name"}, Param{Name: "admin"}), "users")
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		code, err = d.Invoke(&cli.Input{Args: []string{"alice"}})
	})
	assert.ErrorIs(t, err, ErrNoFlags)
	assert.Equal(t, cli.ExitError, code)
	assert.Empty(t, users.created)

	code, err = d.Invoke(&cli.Input{Flags: flag.NewFlagSet("create-user", flag.ContinueOnError), Args: []string{"alice"}})
	assert.Error(t, err, "Flags that were never defined can't be read")
	assert.Equal(t, cli.ExitError, code)
}

func TestBinder_Register_Partial(t *testing.T) {
	users := new(testUsers)
	reg := cli.NewRegistry("test-cli")
	_, err := reg.Register(cli.CommandSpec{Name: "users:tag", Exec: func(*cli.Input) (int, error) { return 0, nil }})
	require.NoError(t, err)

	descs, err := New().Register(reg, "users",
		testMethod(t, users, "CreateUser", &Metadata{}, Param{Name: "name"}, Param{Name: "admin"}),
		testMethod(t, users, "Tag", &Metadata{}, Param{Name: "user"}, Param{Name: "tags"}),
	)
	assert.ErrorIs(t, err, cli.ErrDuplicateCommand)
	require.Len(t, descs, 1, "Only registered descriptors are returned")
	assert.Equal(t, "users:create-user", descs[0].FullName())
	_, ok := reg.Lookup("users:create-user")
	assert.True(t, ok, "Commands registered before the rejected one stay registered")
}
