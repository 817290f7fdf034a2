package buildconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestModules_yaml(t *testing.T) {
	var ep EntryPoints
	err := yaml.Unmarshal([]byte("app: ./main\nvendors:\n  - react\n  - react-dom\n"), &ep)
	require.NoError(t, err)

	require.Equal(t, EntryPoints{
		"app":     {"./main"},
		"vendors": {"react", "react-dom"},
	}, ep)

	out, err := yaml.Marshal(ep)
	require.NoError(t, err)
	require.Equal(t, "app: ./main\nvendors:\n    - react\n    - react-dom\n", string(out))
}
