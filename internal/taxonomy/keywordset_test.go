package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordSetScore(t *testing.T) {
	set := newKeywordSet()
	set.Add("bota")
	set.Add("gafas de sol")

	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "word hit counts once",
			text: "bota alta bota",
			want: 1,
		},
		{
			name: "substring is not a word hit",
			text: "botanica coleccion",
			want: 0,
		},
		{
			name: "phrase hit scores double",
			text: "gafas de sol polarizadas",
			want: 2,
		},
		{
			name: "phrase tokens out of order do not match",
			text: "sol gafas de",
			want: 0,
		},
		{
			name: "word and phrase stack",
			text: "bota y gafas de sol",
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, set.Score(Tokens(tt.text)))
		})
	}
}

func TestKeywordSetAddNormalizes(t *testing.T) {
	set := newKeywordSet()
	set.Add("Pantalón")

	assert.True(t, set.AnyMatch(Tokens("pantalon recto")))
	assert.True(t, set.AnyMatch(Tokens("PANTALÓN")))
}

func TestKeywordSetRemoveWord(t *testing.T) {
	set := newKeywordSet()
	set.Add("pantalón")
	set.Add("chino")
	set.Add("pantalon cargo")

	set.RemoveWord("pantalón")

	assert.False(t, set.AnyMatch(Tokens("pantalon recto")))
	assert.True(t, set.AnyMatch(Tokens("corte chino")))
	// Phrases survive word removal.
	assert.True(t, set.AnyMatch(Tokens("pantalon cargo verde")))
}

func TestKeywordSetMatchesSorted(t *testing.T) {
	set := newKeywordSet()
	set.AddAll([]string{"vaquero", "jean", "mezclilla"})

	got := set.Matches(Tokens("jean vaquero slim"))
	assert.Equal(t, []string{"jean", "vaquero"}, got)
}

func TestCloneIsIndependent(t *testing.T) {
	set := newKeywordSet()
	set.Add("falda")

	c := set.clone()
	c.RemoveWord("falda")

	assert.True(t, set.AnyMatch(Tokens("falda midi")))
	assert.False(t, c.AnyMatch(Tokens("falda midi")))
}
