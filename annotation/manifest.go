package annotation

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is a [Source] loaded from YAML, for types that can't or shouldn't declare their own annotations.
//
//	namespace: users
//	commands:
//	  CreateUser:
//	    aliases: [cu]
//	    short: Creates a user
//	    params:
//	      - name: name
//	      - name: admin
//	        default: false
//	        shorthand: a
type Manifest struct {
	Namespace string             `yaml:"namespace"`
	Commands  map[string]*Method `yaml:"commands"`
}

// LoadManifest decodes a [Manifest] from YAML.
// Unknown keys are rejected to catch typos in metadata early.
func LoadManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	for name, method := range m.Commands {
		if method == nil {
			continue
		}
		for _, p := range method.Params {
			if len(p.Name) == 0 {
				return nil, fmt.Errorf("%w: method %s has a parameter without a name", ErrMalformed, name)
			}
		}
	}
	return &m, nil
}

// LoadManifestFile reads a [Manifest] from the file at path.
func LoadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	m, err := LoadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Lookup returns metadata for the method.
// A method listed with no fields at all is still a command.
func (m *Manifest) Lookup(method string) (*Method, bool, error) {
	if m == nil {
		return nil, false, nil
	}
	found, ok := m.Commands[method]
	if !ok {
		return nil, false, nil
	}
	if found == nil {
		return &Method{}, true, nil
	}
	return found, true, nil
}

// UnmarshalYAML records whether a default was declared, so a zero default like false is still a default.
func (p *Param) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name      string     `yaml:"name"`
		Rename    string     `yaml:"cli"`
		Default   *yaml.Node `yaml:"default"`
		Shorthand string     `yaml:"shorthand"`
		Aliases   []string   `yaml:"aliases"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*p = Param{
		Name:      raw.Name,
		Rename:    raw.Rename,
		Shorthand: raw.Shorthand,
		Aliases:   raw.Aliases,
	}
	if raw.Default != nil {
		p.HasDefault = true
		if err := raw.Default.Decode(&p.Default); err != nil {
			return err
		}
	}
	return nil
}
