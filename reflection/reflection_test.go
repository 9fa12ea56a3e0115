package reflection

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/saylorsolutions/cmdbind/annotation"
	"github.com/saylorsolutions/cmdbind/binder"
	"github.com/saylorsolutions/cmdbind/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type users struct {
	names []string
}

func (u *users) Annotations() map[string]string {
	return map[string]string{
		"CreateUser": `command:"" aliases:"cu" short:"Creates a user" params:"name,admin=false"`,
		"List":       `command:"ls" params:"out"`,
	}
}

func (u *users) CreateUser(name string, admin bool) error {
	if admin {
		name += " (admin)"
	}
	u.names = append(u.names, name)
	return nil
}

func (u *users) List(out *cli.Printer) {
	out.Print(strings.Join(u.names, ","))
}

func (u *users) Reset() {
	u.names = nil
}

func TestMethods(t *testing.T) {
	methods, err := Methods(new(users), nil)
	require.NoError(t, err)
	byName := map[string]binder.Method{}
	for _, m := range methods {
		byName[m.Name] = m
	}
	assert.Len(t, methods, 3, "Annotations should never be reflected as a method")
	assert.NotContains(t, byName, "Annotations")

	create := byName["CreateUser"]
	require.NotNil(t, create.Meta)
	assert.Equal(t, []string{"cu"}, create.Meta.Aliases)
	assert.Equal(t, "Creates a user", create.Doc.Short)
	require.Len(t, create.Params, 2)
	assert.Equal(t, "name", create.Params[0].Name)
	assert.False(t, create.Params[0].HasDefault)
	assert.Equal(t, "admin", create.Params[1].Name)
	assert.Equal(t, "false", create.Params[1].Default)

	reset := byName["Reset"]
	assert.Nil(t, reset.Meta, "Methods without annotations are not commands")
}

func TestMethods_CreateUserScenario(t *testing.T) {
	methods, err := Methods(new(users), nil)
	require.NoError(t, err)
	descs, err := binder.New().BindAll("users", methods...)
	require.NoError(t, err)

	var create *binder.Descriptor
	for _, d := range descs {
		if d.FullName() == "users:create-user" {
			create = d
		}
	}
	require.NotNil(t, create)
	assert.Equal(t, []string{"cu"}, create.Aliases())
	bindings := create.Bindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, binder.KindPositional, bindings[0].Kind())
	assert.Equal(t, "name", bindings[0].Name())
	assert.True(t, bindings[0].Required())
	assert.Equal(t, binder.KindBooleanFlag, bindings[1].Kind())
	assert.Equal(t, "admin", bindings[1].Name())
	assert.Equal(t, false, bindings[1].Default())
}

func TestMethods_Registered(t *testing.T) {
	var (
		buf bytes.Buffer
		u   = new(users)
		reg = cli.NewRegistry("test-cli")
	)
	reg.Printer().Redirect(&buf)
	methods, err := Methods(u, nil)
	require.NoError(t, err)
	_, err = binder.New().Register(reg, "users", methods...)
	require.NoError(t, err)

	assert.Equal(t, cli.ExitOK, reg.Run(context.Background(), []string{"cu", "alice"}))
	assert.Equal(t, cli.ExitOK, reg.Run(context.Background(), []string{"users:create-user", "--admin", "bob"}))
	assert.Equal(t, cli.ExitOK, reg.Run(context.Background(), []string{"users:ls"}))
	assert.Equal(t, "alice,bob (admin)", buf.String())
	_, ok := reg.Lookup("users:reset")
	assert.False(t, ok)
}

func TestMethods_Manifest(t *testing.T) {
	manifest, err := annotation.LoadManifest(strings.NewReader(`
commands:
  CreateUser:
    aliases: [cu]
    params:
      - name: name
      - name: admin
        default: false
        cli: is-admin
        shorthand: a
`))
	require.NoError(t, err)
	methods, err := Methods(new(users), manifest)
	require.NoError(t, err)
	descs, err := binder.New().BindAll("users", methods...)
	require.NoError(t, err)
	require.Len(t, descs, 1, "The manifest replaces the type's own annotations")
	bindings := descs[0].Bindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, "is-admin", bindings[1].Name())
	assert.Equal(t, "a", bindings[1].(*binder.BooleanFlag).Shorthand())
}

type plain struct{}

func (plain) Run() {}

func TestMethods_Errors(t *testing.T) {
	_, err := Methods(nil, nil)
	assert.ErrorIs(t, err, ErrNilReceiver)

	_, err = Methods(plain{}, nil)
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = Methods(plain{}, annotation.Tags{"Run": `command:"" params:"extra"`})
	assert.Error(t, err, "Declaring more parameters than a method takes is an error")

	_, err = Methods(plain{}, annotation.Tags{"Run": `command:"run`})
	assert.ErrorIs(t, err, annotation.ErrMalformed)

	methods, err := Methods(plain{}, annotation.Tags{"Run": `command:""`})
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.NotNil(t, methods[0].Meta)
}
