package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	G = MarkCorrect
	Y = MarkPresent
	A = MarkAbsent
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		target string
		want   []Mark
	}{
		{"all correct", "crane", "crane", []Mark{G, G, G, G, G}},
		{"all absent", "crane", "pilot", []Mark{A, A, A, A, A}},
		{"duplicate in guess, three in target", "abbey", "bobby", []Mark{A, Y, G, A, G}},
		{"duplicate e in guess", "speed", "erase", []Mark{Y, A, Y, Y, A}},
		{"double letter once in target", "eerie", "crane", []Mark{A, A, Y, A, G}},
		{"case insensitive", "CrAnE", "crane", []Mark{G, G, G, G, G}},
		{"three letters", "cat", "act", []Mark{Y, Y, G}},
		{"seven letters", "balloon", "lobster", []Mark{Y, A, Y, A, Y, A, A}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.guess, tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScoreNeverOvercountsLetters(t *testing.T) {
	pairs := [][2]string{
		{"speed", "erase"}, {"abbey", "bobby"}, {"llama", "hello"},
		{"sassy", "essay"}, {"eerie", "there"}, {"geese", "sense"},
	}
	for _, p := range pairs {
		marks, err := Score(p[0], p[1])
		require.NoError(t, err)

		hits := map[rune]int{}
		for i, r := range p[0] {
			if marks[i] != MarkAbsent {
				hits[r]++
			}
		}
		for r, n := range hits {
			want := 0
			for _, tr := range p[1] {
				if tr == r {
					want++
				}
			}
			assert.LessOrEqual(t, n, want, "%s vs %s letter %c", p[0], p[1], r)
		}
	}
}

func TestScoreRejectsMismatchedLengths(t *testing.T) {
	_, err := Score("cat", "crane")
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = Score("", "")
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.Panics(t, func() { MustScore("ab", "abc") })
}

func TestMarksEncoding(t *testing.T) {
	marks := []Mark{G, Y, A}
	assert.Equal(t, "G,Y,A", EncodeMarks(marks))

	got, err := DecodeMarks("g, Y ,A")
	require.NoError(t, err)
	assert.Equal(t, marks, got)

	got, err = DecodeMarks("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = DecodeMarks("G,X")
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.True(t, AllCorrect([]Mark{G, G}))
	assert.False(t, AllCorrect([]Mark{G, Y}))
	assert.False(t, AllCorrect(nil))
	assert.True(t, EqualMarks([]Mark{G}, []Mark{G}))
	assert.False(t, EqualMarks([]Mark{G}, []Mark{G, A}))
}
