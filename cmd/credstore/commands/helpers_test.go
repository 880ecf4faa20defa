package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/credstore/internal/sequence"
	"github.com/systmms/credstore/pkg/credential"
)

func TestParseContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pairs   []string
		want    credential.Context
		wantErr bool
	}{
		{
			name:  "empty",
			pairs: nil,
			want:  nil,
		},
		{
			name:  "single pair",
			pairs: []string{"env=prod"},
			want:  credential.Context{"env": "prod"},
		},
		{
			name:  "multiple pairs",
			pairs: []string{"env=prod", "app=billing"},
			want:  credential.Context{"env": "prod", "app": "billing"},
		},
		{
			name:  "value containing equals",
			pairs: []string{"query=a=b"},
			want:  credential.Context{"query": "a=b"},
		},
		{
			name:  "empty value",
			pairs: []string{"env="},
			want:  credential.Context{"env": ""},
		},
		{
			name:    "missing equals",
			pairs:   []string{"env"},
			wantErr: true,
		},
		{
			name:    "empty key",
			pairs:   []string{"=prod"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseContext(tt.pairs)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", normalizeVersion(""))
	assert.Equal(t, sequence.Pad(2), normalizeVersion("2"))
	assert.Equal(t, sequence.Pad(2), normalizeVersion(sequence.Pad(2)))
	assert.Equal(t, "rc-1", normalizeVersion("rc-1"))
}

func TestDisplayVersion(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2", displayVersion(sequence.Pad(2)))
	assert.Equal(t, "rc-1", displayVersion("rc-1"))
	assert.Equal(t, "0", displayVersion(strings.Repeat("0", sequence.Width)))
}
