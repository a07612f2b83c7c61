package operations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepIDs(steps []Step) []string {
	ids := make([]string, len(steps))
	for i, s := range steps {
		ids[i] = s.ID()
	}
	return ids
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(newFakeStep("a", nil, nil)))
	assert.True(t, r.Has("a"))
	assert.Equal(t, 1, r.Count())

	err := r.Register(newFakeStep("a", nil, nil))
	assert.ErrorContains(t, err, "already registered")

	assert.Error(t, r.Register(nil))
	assert.Error(t, r.Register(newFakeStep("", nil, nil)))

	_, err = r.Get("missing")
	assert.ErrorContains(t, err, "not found")
}

func TestRegistryGetDependencyOrder(t *testing.T) {
	tests := []struct {
		name    string
		steps   []Step
		want    []string
		wantErr string
	}{
		{
			name: "pipeline registered out of order",
			steps: []Step{
				newFakeStep("report", []string{"analyze"}, nil),
				newFakeStep("load", nil, nil),
				newFakeStep("aggregate", []string{"clean"}, nil),
				newFakeStep("analyze", []string{"aggregate"}, nil),
				newFakeStep("clean", []string{"load"}, nil),
			},
			want: []string{"load", "clean", "aggregate", "analyze", "report"},
		},
		{
			name: "independent steps keep registration order",
			steps: []Step{
				newFakeStep("b", nil, nil),
				newFakeStep("a", nil, nil),
				newFakeStep("c", []string{"a"}, nil),
			},
			want: []string{"b", "a", "c"},
		},
		{
			name: "unknown dependency",
			steps: []Step{
				newFakeStep("a", []string{"ghost"}, nil),
			},
			wantErr: "non-existent step ghost",
		},
		{
			name: "cycle",
			steps: []Step{
				newFakeStep("a", []string{"b"}, nil),
				newFakeStep("b", []string{"a"}, nil),
			},
			wantErr: "cycle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			for _, s := range tt.steps {
				require.NoError(t, r.Register(s))
			}
			ordered, err := r.GetDependencyOrder()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, stepIDs(ordered))
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeStep("load", nil, nil)))
	require.NoError(t, r.Register(newFakeStep("clean", []string{"load"}, nil)))
	require.NoError(t, r.Register(newFakeStep("aggregate", []string{"clean"}, nil)))

	tests := []struct {
		name    string
		ids     []string
		want    []string
		wantErr bool
	}{
		{name: "empty selects all", ids: nil, want: []string{"load", "clean", "aggregate"}},
		{name: "subset in dependency order", ids: []string{"aggregate", "load"}, want: []string{"load", "aggregate"}},
		{name: "duplicates collapse", ids: []string{"clean", "clean"}, want: []string{"clean"}},
		{name: "unknown step", ids: []string{"render"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := r.Resolve(tt.ids)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrStepNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, stepIDs(steps))
		})
	}
}

func TestRegistryGetDependents(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(newFakeStep("load", nil, nil)))
	require.NoError(t, r.Register(newFakeStep("clean", []string{"load"}, nil)))
	require.NoError(t, r.Register(newFakeStep("audit", []string{"load"}, nil)))

	assert.Equal(t, []string{"clean", "audit"}, stepIDs(r.GetDependents("load")))
	assert.Empty(t, r.GetDependents("clean"))
}
