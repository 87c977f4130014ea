package npyio

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FormatDescriptor names the columns of an .npy array positionally and
// marks which of them are datetimes and in what epoch unit.
type FormatDescriptor struct {
	Columns    []string          `yaml:"columns"`
	DateColumn map[string]string `yaml:"date_column"`
	Float32    bool              `yaml:"float32"`
}

const defaultDescriptorYAML = `columns:
  - Time
  - Current
  - Voltage
  - Temperature
date_column:
  Time: s
float32: false
`

// DefaultDescriptor returns the built-in instrument format.
func DefaultDescriptor() FormatDescriptor {
	var d FormatDescriptor
	// The literal is known-good; a parse failure here is a programming
	// error.
	if err := yaml.Unmarshal([]byte(defaultDescriptorYAML), &d); err != nil {
		panic(err)
	}
	return d
}

// LoadDescriptor reads a user-supplied YAML format descriptor.
func LoadDescriptor(path string) (FormatDescriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return FormatDescriptor{}, errors.Wrap(err, "reading format descriptor")
	}
	var d FormatDescriptor
	if err := yaml.Unmarshal(b, &d); err != nil {
		return FormatDescriptor{}, errors.Wrapf(err, "parsing %s", path)
	}
	if len(d.Columns) == 0 {
		return FormatDescriptor{}, errors.Errorf("%s: descriptor names no columns", path)
	}
	return d, nil
}
