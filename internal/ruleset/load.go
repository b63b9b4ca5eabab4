package ruleset

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/genefryaustin-source/cui-inspector/internal/domain"
)

// file is the on-disk layout of a custom ruleset file.
type file struct {
	Rulesets []*Ruleset `yaml:"rulesets"`
}

// Decode reads rulesets from YAML and compiles each one.
func Decode(r io.Reader) ([]*Ruleset, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("decode yaml: %v", err)}
	}
	for _, rs := range f.Rulesets {
		if err := rs.Compile(); err != nil {
			return nil, err
		}
	}
	return f.Rulesets, nil
}

// LoadFile reads custom rulesets from path. An empty path yields none.
func LoadFile(path string) ([]*Ruleset, error) {
	if path == "" {
		return nil, nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, &domain.ConfigurationError{Reason: fmt.Sprintf("open %s: %v", path, err)}
	}
	defer fh.Close()
	return Decode(fh)
}
