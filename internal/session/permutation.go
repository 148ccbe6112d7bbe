package session

import (
	"math/rand"
	"time"
)

// PermutationManager holds a shuffled order of indices over a slice it never touches.
// It provides a stable, randomized view of the data without altering the original slice.
type PermutationManager struct {
	shuffledMap []int // Maps a shuffled index to its original index (shuffledMap[shuffledIdx] = originalIdx)
}

// NewPermutationManager shuffles the indices 0..n-1 with rng.
// A nil rng gets a time-seeded source.
func NewPermutationManager(n int, rng *rand.Rand) *PermutationManager {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if n < 0 {
		n = 0
	}

	shuffledMap := make([]int, n)
	for i := 0; i < n; i++ {
		shuffledMap[i] = i
	}
	// rand.Shuffle is Fisher–Yates.
	rng.Shuffle(n, func(i, j int) {
		shuffledMap[i], shuffledMap[j] = shuffledMap[j], shuffledMap[i]
	})

	return &PermutationManager{shuffledMap: shuffledMap}
}

// Order returns a copy of the shuffled order.
func (pm *PermutationManager) Order() []int {
	orderCopy := make([]int, len(pm.shuffledMap))
	copy(orderCopy, pm.shuffledMap)
	return orderCopy
}
