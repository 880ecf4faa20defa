package sequence_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/credstore/internal/sequence"
	"github.com/systmms/credstore/pkg/credential"
)

func TestPad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		n    uint64
		want string
	}{
		{name: "zero", n: 0, want: "0000000000000000000"},
		{name: "one", n: 1, want: "0000000000000000001"},
		{name: "multi_digit", n: 42, want: "0000000000000000042"},
		{name: "max_uint64", n: 18446744073709551615, want: "18446744073709551615"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sequence.Pad(tt.n))
		})
	}
}

func TestNext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		current string
		want    string
		wantErr bool
	}{
		{name: "no_prior_version", current: "", want: sequence.Pad(1)},
		{name: "zero_sentinel", current: sequence.Zero(), want: sequence.Pad(1)},
		{name: "padded_increment", current: "0000000000000000041", want: "0000000000000000042"},
		{name: "unpadded_numeric", current: "7", want: sequence.Pad(8)},
		{name: "non_numeric", current: "v1.2.3", wantErr: true},
		{name: "negative", current: "-1", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := sequence.Next("db-pass", tt.current)
			if tt.wantErr {
				var aie credential.AutoIncrementError
				require.ErrorAs(t, err, &aie)
				assert.Equal(t, "db-pass", aie.Name)
				assert.Equal(t, tt.current, aie.Version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Lexicographic order of padded versions must equal numeric order.
func TestNextPreservesLexicographicOrder(t *testing.T) {
	t.Parallel()

	current := ""
	var previous string
	for i := 0; i < 100; i++ {
		next, err := sequence.Next("seq", current)
		require.NoError(t, err)
		if previous != "" {
			assert.Equal(t, 1, strings.Compare(next, previous))
		}
		previous = next
		current = next
	}
}
