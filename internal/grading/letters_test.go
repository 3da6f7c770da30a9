package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLetterForBands(t *testing.T) {
	for n := 0; n <= 20; n++ {
		got := LetterFor(f(float64(n)))
		switch {
		case n >= 19:
			assert.Equal(t, "A", got, n)
		case n >= 15:
			assert.Equal(t, "B", got, n)
		case n >= 11:
			assert.Equal(t, "C", got, n)
		default:
			assert.Equal(t, "D", got, n)
		}
	}
	assert.Equal(t, "", LetterFor(nil))
	assert.Equal(t, "A", LetterFor(f(18.5)))
	assert.Equal(t, "B", LetterFor(f(18.49)))
	assert.Equal(t, "B", LetterFor(f(14.5)))
	assert.Equal(t, "C", LetterFor(f(14.49)))
	assert.Equal(t, "C", LetterFor(f(10.5)))
	assert.Equal(t, "C", LetterFor(f(10.9)))
	assert.Equal(t, "D", LetterFor(f(10.4)))
}

func TestFinalLetter(t *testing.T) {
	cases := []struct {
		l1, l2, l3 string
		want       string
	}{
		{"A", "A", "A", "A"},
		{"B", "B", "D", "C"},
		{"B", "D", "B", "C"},
		{"D", "B", "B", "C"},
		{"A", "A", "C", "A"},
		{"C", "D", "D", "D"},
		{"B", "C", "B", "B"},
		{"A", "B", "C", "B"},
		{"D", "A", "C", "C"},
		{"A", "B", "D", "B"},
		{"", "B", "B", ""},
		{"A", "X", "A", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FinalLetter(tc.l1, tc.l2, tc.l3), "%s%s%s", tc.l1, tc.l2, tc.l3)
	}
}

func TestIsAppreciativeName(t *testing.T) {
	assert.True(t, IsAppreciativeName("Orientación y Convivencia"))
	assert.True(t, IsAppreciativeName("  PARTICIPACIÓN EN GRUPOS   DE RECREACIÓN "))
	assert.False(t, IsAppreciativeName("Matemática"))
}
