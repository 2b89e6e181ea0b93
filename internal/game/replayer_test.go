package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplay(t *testing.T) {
	oracle := stubOracle()

	positions := Replay(oracle, "S", []string{"e4", "e5", "Nf3"})
	assert.Equal(t, []string{"S|e4", "S|e4|e5", "S|e4|e5|Nf3"}, positions)
}

func TestReplayIllegalKeepsPosition(t *testing.T) {
	oracle := stubOracle()

	steps := Fold(oracle, "S", []string{"e4", "?bad", "Nf3", "illegal"})
	assert.Len(t, steps, 4)
	assert.Equal(t, "S|e4", steps[0].Position)
	assert.True(t, steps[0].Legal)
	assert.Equal(t, "E4", steps[0].Canonical)

	assert.Equal(t, "S|e4", steps[1].Position)
	assert.False(t, steps[1].Legal)
	assert.Empty(t, steps[1].Canonical)

	assert.Equal(t, "S|e4|Nf3", steps[2].Position)
	assert.Equal(t, "S|e4|Nf3", steps[3].Position)
}

func TestReplayEmpty(t *testing.T) {
	assert.Empty(t, Replay(stubOracle(), "S", nil))
	assert.Equal(t, "S", PositionAfter(stubOracle(), "S", nil))
}

func TestReplayIllegalFirstMove(t *testing.T) {
	positions := Replay(stubOracle(), "S", []string{"?x", "e4"})
	assert.Equal(t, []string{"S", "S|e4"}, positions)
}

func TestReplayDeterministic(t *testing.T) {
	notations := []string{"d4", "?", "c4", "e6"}
	before := append([]string(nil), notations...)

	a := Replay(stubOracle(), "S", notations)
	b := Replay(stubOracle(), "S", notations)
	assert.Equal(t, a, b)
	assert.Equal(t, before, notations)
}
