package deck

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var assetNamePattern = regexp.MustCompile(`^(A|[2-9]|10|J|Q|K)[HDCS]\.png$`)

// constSource always returns the same value.
type constSource float64

func (c constSource) Next() float64 { return float64(c) }

func TestNewDeckCoversCrossProduct(t *testing.T) {
	d := New()
	require.Len(t, d, Size)

	seen := make(map[string]bool, Size)
	for _, c := range d {
		require.False(t, seen[c.Code()], "duplicate card %s", c)
		seen[c.Code()] = true
	}
	for _, r := range Ranks {
		for _, s := range Suits {
			assert.True(t, seen[r+s], "missing card %s%s", r, s)
		}
	}
}

func TestShufflePreservesCards(t *testing.T) {
	d := New()
	d.Shuffle(NewSource(1))

	assert.ElementsMatch(t, New(), d)
}

func TestShuffleWithTopSourceIsIdentity(t *testing.T) {
	// j == i on every step means no card moves
	for _, src := range []Source{constSource(0.999999), constSource(1.0)} {
		d := New()
		d.Shuffle(src)
		assert.Equal(t, New(), d)
	}
}

func TestBuildShuffledReturnsFourDistinctCards(t *testing.T) {
	src := NewTimeSource()
	for i := 0; i < 500; i++ {
		hand := BuildShuffled(src)
		require.Len(t, hand, HandSize)

		codes := map[string]bool{}
		for _, c := range hand {
			codes[c.Code()] = true
			assert.Regexp(t, assetNamePattern, c.AssetName())
		}
		assert.Len(t, codes, HandSize)
	}
}

func TestBuildShuffledIsReproducibleWithSeed(t *testing.T) {
	a, b := NewSource(2024), NewSource(2024)
	for i := 0; i < 20; i++ {
		assert.Equal(t, BuildShuffled(a), BuildShuffled(b))
	}
}

func TestBuildShuffledEveryCardReachable(t *testing.T) {
	src := NewSource(99)
	seen := map[string]bool{}
	for i := 0; i < 2000 && len(seen) < Size; i++ {
		for _, c := range BuildShuffled(src) {
			seen[c.Code()] = true
		}
	}
	assert.Len(t, seen, Size)
}

// TestFirstPositionUniform runs a chi-squared goodness-of-fit check on the first card.
func TestFirstPositionUniform(t *testing.T) {
	const trials = 10000
	src := NewSource(7)

	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		counts[BuildShuffled(src)[0].Code()]++
	}
	require.Len(t, counts, Size)

	expected := float64(trials) / Size
	var chi2 float64
	for _, n := range counts {
		diff := float64(n) - expected
		chi2 += diff * diff / expected
	}
	// 51 degrees of freedom; 100 is far beyond the 0.01% tail
	assert.Less(t, chi2, 100.0, "chi-squared statistic too large")
}

func TestConsecutiveRoundsDiffer(t *testing.T) {
	src := NewSource(31)
	same := 0
	prev := BuildShuffled(src)
	for i := 0; i < 1000; i++ {
		next := BuildShuffled(src)
		if assert.ObjectsAreEqual(prev, next) {
			same++
		}
		prev = next
	}
	assert.Less(t, same, 2)
}

func TestDeriveAssetName(t *testing.T) {
	assert.Equal(t, "AH.png", DeriveAssetName("A", "H"))
	assert.Equal(t, "10S.png", DeriveAssetName("10", "S"))
	assert.Equal(t, "KD.png", Card{Rank: "K", Suit: "D"}.AssetName())
}

func TestParseCode(t *testing.T) {
	cases := []struct {
		in   string
		want Card
	}{
		{"AH", Card{Rank: "A", Suit: "H"}},
		{"10C", Card{Rank: "10", Suit: "C"}},
		{"QS.png", Card{Rank: "Q", Suit: "S"}},
	}
	for _, c := range cases {
		got, err := ParseCode(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got)
	}

	for _, bad := range []string{"", "A", "1H", "11D", "AX", "ah", "JOKER"} {
		_, err := ParseCode(bad)
		assert.ErrorIs(t, err, ErrInvalidCode, bad)
	}
}

func TestCardValue(t *testing.T) {
	assert.Equal(t, 1, Card{Rank: "A", Suit: "S"}.Value())
	assert.Equal(t, 10, Card{Rank: "10", Suit: "H"}.Value())
	assert.Equal(t, 11, Card{Rank: "J", Suit: "C"}.Value())
	assert.Equal(t, 13, Card{Rank: "K", Suit: "D"}.Value())
	assert.Zero(t, RankValue("Z"))
}
