package modules

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterOracle(t *testing.T) {
	surety, events := mockSurety(t)
	surety.SetRandomness(NewHashRandomness([]byte("block")))

	_, err := surety.RegisterOracle(call(oracles[0], Wei(WeiPerEther-1)))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	_, err = surety.GetMyIndexes(oracles[0])
	require.ErrorIs(t, err, ErrInvalidState)

	indexes, err := surety.RegisterOracle(call(oracles[0], Ether(1)))
	require.NoError(t, err)
	checkIndexes(t, indexes, DefaultIndexSpace)
	mine, err := surety.GetMyIndexes(oracles[0])
	require.NoError(t, err)
	require.Equal(t, indexes, mine)
	require.Equal(t, []string{EventOracleRegistered}, events.types())
	require.Equal(t, Ether(1), surety.GetTreasury().Deposits)

	_, err = surety.RegisterOracle(call(oracles[0], Ether(1)))
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestSampleIndexes(t *testing.T) {
	for i := 0; i < 200; i++ {
		random := NewHashRandomness([]byte{byte(i), byte(i >> 8)})
		checkIndexes(t, sampleIndexes(random, DefaultIndexSpace), DefaultIndexSpace)
	}
	// the smallest space still yields distinct indexes
	checkIndexes(t, sampleIndexes(NewHashRandomness(nil), IndexesPerOracle), IndexesPerOracle)
	require.Equal(t, [IndexesPerOracle]uint8{5, 6, 7}, sampleIndexes(&fixedRandomness{values: []int{5}}, DefaultIndexSpace))
}

func TestHashRandomness(t *testing.T) {
	a := NewHashRandomness([]byte("seed"))
	b := NewHashRandomness([]byte("seed"))
	c := NewHashRandomness([]byte("other"))
	same, different := true, false
	for i := 0; i < 16; i++ {
		x, y, z := a.Intn(1000), b.Intn(1000), c.Intn(1000)
		require.True(t, x >= 0 && x < 1000)
		same = same && x == y
		different = different || x != z
	}
	require.True(t, same)
	require.True(t, different)
	require.Panics(t, func() { a.Intn(0) })
}

func checkIndexes(t *testing.T, indexes [IndexesPerOracle]uint8, space uint8) {
	seen := make(map[uint8]bool)
	for _, index := range indexes {
		require.Less(t, index, space)
		require.False(t, seen[index], "duplicate index %d in %v", index, indexes)
		seen[index] = true
	}
}
