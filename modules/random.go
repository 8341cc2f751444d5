package modules

import (
	"encoding/binary"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Randomness is the source used to assign oracle indexes and to pick request indexes.
// *math/rand.Rand satisfies it.
type Randomness interface {
	Intn(n int) int
}

// HashRandomness is a keccak256 stream over a seed. Replicas seeded with the same block hash
// draw the same numbers in the same order.
type HashRandomness struct {
	seed    []byte
	counter uint64
}

func NewHashRandomness(seed []byte) *HashRandomness {
	return &HashRandomness{seed: append([]byte(nil), seed...)}
}

func (random *HashRandomness) Intn(n int) int {
	if n <= 0 {
		panic("invalid argument to Intn")
	}
	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], random.counter)
	random.counter++
	value := new(uint256.Int).SetBytes(ethcrypto.Keccak256(random.seed, counter[:]))
	return int(value.Mod(value, uint256.NewInt(uint64(n))).Uint64())
}

// sampleIndexes draws count distinct values from [0, space) by a partial Fisher-Yates shuffle.
func sampleIndexes(random Randomness, space uint8) [IndexesPerOracle]uint8 {
	pool := make([]uint8, space)
	for i := range pool {
		pool[i] = uint8(i)
	}
	var picked [IndexesPerOracle]uint8
	for i := range picked {
		j := i + random.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		picked[i] = pool[i]
	}
	return picked
}
