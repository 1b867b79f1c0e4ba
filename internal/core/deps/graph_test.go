package deps

import (
	"errors"
	"testing"

	"github.com/cask-engine/cask/abi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manifest(name string, defines, requires []string) *abi.Manifest {
	return &abi.Manifest{Name: name, Defines: defines, Requires: requires}
}

func TestResolve_Orders(t *testing.T) {
	tests := []struct {
		name      string
		manifests []*abi.Manifest
		want      []string
	}{
		{
			name:      "empty",
			manifests: nil,
			want:      []string{},
		},
		{
			name: "provider moved before consumer",
			manifests: []*abi.Manifest{
				manifest("Consumer", nil, []string{"C"}),
				manifest("Provider", []string{"C"}, nil),
			},
			want: []string{"Provider", "Consumer"},
		},
		{
			name: "independent plugins keep input order",
			manifests: []*abi.Manifest{
				manifest("c", []string{"Z"}, nil),
				manifest("a", []string{"X"}, nil),
				manifest("b", []string{"Y"}, nil),
			},
			want: []string{"c", "a", "b"},
		},
		{
			name: "chain",
			manifests: []*abi.Manifest{
				manifest("render", nil, []string{"Physics"}),
				manifest("physics", []string{"Physics"}, []string{"Input"}),
				manifest("input", []string{"Input"}, nil),
			},
			want: []string{"input", "physics", "render"},
		},
		{
			name: "diamond breaks ties by input order",
			manifests: []*abi.Manifest{
				manifest("sink", nil, []string{"L", "R"}),
				manifest("right", []string{"R"}, []string{"Root"}),
				manifest("left", []string{"L"}, []string{"Root"}),
				manifest("root", []string{"Root"}, nil),
			},
			want: []string{"root", "right", "left", "sink"},
		},
		{
			name: "self requirement adds no edge",
			manifests: []*abi.Manifest{
				manifest("self", []string{"S"}, []string{"S"}),
				manifest("other", nil, nil),
			},
			want: []string{"self", "other"},
		},
		{
			name: "repeated requirement",
			manifests: []*abi.Manifest{
				manifest("consumer", nil, []string{"C", "C"}),
				manifest("provider", []string{"C"}, nil),
			},
			want: []string{"provider", "consumer"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.manifests)

			require.NoError(t, err)
			assert.Equal(t, tt.want, abi.Names(got))
		})
	}
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	in := []*abi.Manifest{
		manifest("Consumer", nil, []string{"C"}),
		manifest("Provider", []string{"C"}, nil),
	}

	_, err := Resolve(in)

	require.NoError(t, err)
	assert.Equal(t, []string{"Consumer", "Provider"}, abi.Names(in))
}

func TestResolve_DuplicateDefiner(t *testing.T) {
	_, err := Resolve([]*abi.Manifest{
		manifest("physics", []string{"Transform"}, nil),
		manifest("render", []string{"Transform"}, nil),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transform")
	assert.True(t, errors.Is(err, ErrDuplicateDefiner))

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "Transform", cfgErr.Component)
	assert.Equal(t, []string{"physics", "render"}, cfgErr.Plugins)
}

func TestResolve_MissingDependency(t *testing.T) {
	_, err := Resolve([]*abi.Manifest{
		manifest("render", nil, []string{"Mesh"}),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mesh")
	assert.ErrorIs(t, err, ErrMissingDependency)
	assert.NotErrorIs(t, err, ErrCircularDependency)
}

func TestResolve_Cycle(t *testing.T) {
	_, err := Resolve([]*abi.Manifest{
		manifest("A", []string{"CA"}, []string{"CB"}),
		manifest("B", []string{"CB"}, []string{"CA"}),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCircularDependency)
	assert.Contains(t, err.Error(), "A")
	assert.Contains(t, err.Error(), "B")

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, []string{"A", "B"}, cfgErr.Plugins)
}

func TestResolve_CycleNamesOnlyUnsortedPlugins(t *testing.T) {
	_, err := Resolve([]*abi.Manifest{
		manifest("base", []string{"Base"}, nil),
		manifest("x", []string{"X"}, []string{"Y", "Base"}),
		manifest("y", []string{"Y"}, []string{"X"}),
		manifest("downstream", nil, []string{"Y"}),
	})

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, KindCircularDependency, cfgErr.Kind)
	assert.Equal(t, []string{"x", "y", "downstream"}, cfgErr.Plugins)
}

func TestConfigurationError_Messages(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigurationError
		want string
	}{
		{
			name: "duplicate",
			err:  &ConfigurationError{Kind: KindDuplicateDefiner, Component: "T", Plugins: []string{"a", "b"}},
			want: "duplicate definer for component: T (a, b)",
		},
		{
			name: "missing",
			err:  &ConfigurationError{Kind: KindMissingDependency, Component: "M", Plugins: []string{"r"}},
			want: "missing dependency: M (required by r)",
		},
		{
			name: "cycle",
			err:  &ConfigurationError{Kind: KindCircularDependency, Plugins: []string{"A", "B"}},
			want: "circular dependency detected involving: A, B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
