package annotation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `
namespace: users
commands:
  CreateUser:
    aliases: [cu]
    short: Creates a user
    params:
      - name: name
      - name: admin
        default: false
        shorthand: a
  ListUsers:
  Rename:
    name: mv
`

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest(strings.NewReader(testManifest))
	require.NoError(t, err)
	assert.Equal(t, "users", m.Namespace)

	create, ok, err := m.Lookup("CreateUser")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "", create.Name)
	assert.Equal(t, []string{"cu"}, create.Aliases)
	assert.Equal(t, "Creates a user", create.Short)
	require.Len(t, create.Params, 2)
	assert.False(t, create.Params[0].HasDefault)
	assert.True(t, create.Params[1].HasDefault, "A false default is still a default")
	assert.Equal(t, false, create.Params[1].Default)
	assert.Equal(t, "a", create.Params[1].Shorthand)

	list, ok, err := m.Lookup("ListUsers")
	require.NoError(t, err)
	assert.True(t, ok, "A method listed without fields is still a command")
	assert.Equal(t, &Method{}, list)

	rename, ok, err := m.Lookup("Rename")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "mv", rename.Name)

	_, ok, err = m.Lookup("Helper")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadManifest_Errors(t *testing.T) {
	tests := map[string]string{
		"Unknown key":     "commands:\n  CreateUser:\n    alias: [cu]\n",
		"Unnamed param":   "commands:\n  CreateUser:\n    params:\n      - default: 1\n",
		"Not a structure": "commands: [a, b]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadManifest(strings.NewReader(doc))
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestLoadManifest_Empty(t *testing.T) {
	m, err := LoadManifest(strings.NewReader(""))
	require.NoError(t, err)
	_, ok, err := m.Lookup("CreateUser")
	assert.NoError(t, err)
	assert.False(t, ok)

	var nilManifest *Manifest
	_, ok, err = nilManifest.Lookup("CreateUser")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadManifestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0600))
	m, err := LoadManifestFile(path)
	require.NoError(t, err)
	assert.Len(t, m.Commands, 3)

	_, err = LoadManifestFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
