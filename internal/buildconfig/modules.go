package buildconfig

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Modules is the ordered list of module identifiers an entry point starts from.
//
// In descriptor files it may be written as a single scalar or as a sequence.
type Modules []string

func (m *Modules) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*m = Modules{single}
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*m = Modules(many)
		return nil
	default:
		return fmt.Errorf("line %d: entry point must be a module or a list of modules", value.Line)
	}
}

func (m Modules) MarshalYAML() (any, error) {
	if len(m) == 1 {
		return m[0], nil
	}
	return []string(m), nil
}
