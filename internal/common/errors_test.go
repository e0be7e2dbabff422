package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	base := errors.New("disk full")
	err := NewUserError("could not save proposals", base)

	assert.Equal(t, "could not save proposals: disk full", err.Error())
	assert.ErrorIs(t, err, base)

	bare := NewUserError("nothing to do", nil)
	assert.Equal(t, "nothing to do", bare.Error())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		n     int
		want  string
	}{
		{
			name:  "short string unchanged",
			input: "error",
			n:     10,
			want:  "error",
		},
		{
			name:  "long string cut",
			input: "abcdefghij",
			n:     4,
			want:  "abcd",
		},
		{
			name:  "cut lands on rune boundary",
			input: "añño",
			n:     2,
			want:  "añ",
		},
		{
			name:  "zero budget",
			input: "abc",
			n:     0,
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.input, tt.n))
		})
	}
}
