package cli

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
)

func TestParseRunners(t *testing.T) {
	tests := []struct {
		name      string
		specs     []string
		localTags string
		want      []domain.Runner
		wantErr   bool
	}{
		{
			name: "default local runner",
			want: []domain.Runner{{Name: "local"}},
		},
		{
			name:      "default runner with tags",
			localTags: "linux,docker",
			want:      []domain.Runner{{Name: "local", Tags: []string{"linux", "docker"}}},
		},
		{
			name:  "named runners",
			specs: []string{"builder=linux,nix", "gpu-1=gpu"},
			want: []domain.Runner{
				{Name: "builder", Tags: []string{"linux", "nix"}},
				{Name: "gpu-1", Tags: []string{"gpu"}},
			},
		},
		{
			name:  "runner without tags",
			specs: []string{"anything"},
			want:  []domain.Runner{{Name: "anything"}},
		},
		{
			name:    "empty name",
			specs:   []string{"=linux"},
			wantErr: true,
		},
		{
			name:    "duplicate name",
			specs:   []string{"a", "a=x"},
			wantErr: true,
		},
		{
			name:      "runner-tags with explicit runners",
			specs:     []string{"a"},
			localTags: "linux",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRunners(tt.specs, tt.localTags)
			if tt.wantErr {
				if !errors.Is(err, ErrBadRunnerSpec) {
					t.Errorf("expected ErrBadRunnerSpec, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestParseVariables(t *testing.T) {
	vars, err := parseVariables([]string{"TARGET=dist", "EMPTY="})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vars["TARGET"] != "dist" || vars["EMPTY"] != "" {
		t.Errorf("unexpected variables: %+v", vars)
	}

	if _, err := parseVariables([]string{"NOVALUE"}); err == nil {
		t.Error("expected error for pair without =")
	}
}
