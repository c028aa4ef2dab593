package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionMap(t *testing.T) {
	{ // Balanced partitions
		histo := func(K, Np int) (h map[int]int) {
			pm := NewPartitionMap(Np, K)
			h = make(map[int]int)
			for bn := 0; bn < pm.ParallelDegree; bn++ {
				h[pm.Size(bn)]++
			}
			return
		}
		assert.Equal(t, map[int]int{0: 30, 1: 2}, histo(2, 32))
		assert.Equal(t, map[int]int{1: 32}, histo(32, 32))
		assert.Equal(t, map[int]int{8: 32}, histo(256, 32))
		assert.Equal(t, map[int]int{8: 1, 9: 31}, histo(287, 32))
		for n := 64; n < 2000; n++ {
			var total int
			for size, count := range histo(n, 32) {
				assert.True(t, size == n/32 || size == n/32+1)
				total += size * count
			}
			assert.Equal(t, n, total)
		}
	}
	{ // Owner agrees with the ranges
		for maxIndex := 10; maxIndex < 300; maxIndex++ {
			pm := NewPartitionMap(5, maxIndex)
			for k := 0; k < maxIndex; k++ {
				kMin, kMax := pm.Range(pm.Owner(k))
				assert.True(t, k >= kMin && k < kMax)
			}
			assert.Equal(t, -1, pm.Owner(maxIndex))
			assert.Equal(t, -1, pm.Owner(-1))
		}
	}
	{
		pm := NewPartitionMap(3, 7)
		assert.Equal(t, []int{0, 0, 0, 1, 1, 2, 2}, pm.Assignment())
		pm = NewPartitionMap(0, 4)
		assert.Equal(t, 1, pm.ParallelDegree)
		assert.Equal(t, []int{0, 0, 0, 0}, pm.Assignment())
	}
}
