package utils

import "sort"

// PartitionMap splits the index range [0,MaxIndex) into ParallelDegree contiguous ranges whose sizes differ
// by at most one.
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		ParallelDegree = 1
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	var (
		size      = maxIndex / ParallelDegree
		remainder = maxIndex % ParallelDegree
		start     int
	)
	// The remainder goes one item each to the first partitions
	for n := range pm.Partitions {
		end := start + size
		if n < remainder {
			end++
		}
		pm.Partitions[n] = [2]int{start, end}
		start = end
	}
	return
}

func (pm *PartitionMap) Range(bn int) (kMin, kMax int) {
	return pm.Partitions[bn][0], pm.Partitions[bn][1]
}

func (pm *PartitionMap) Size(bn int) int {
	return pm.Partitions[bn][1] - pm.Partitions[bn][0]
}

// Owner returns the partition holding index k, -1 when k is out of range.
func (pm *PartitionMap) Owner(k int) (bn int) {
	if k < 0 || k >= pm.MaxIndex {
		return -1
	}
	return sort.Search(pm.ParallelDegree, func(n int) bool { return pm.Partitions[n][1] > k })
}

// Assignment returns the owning partition of every index.
func (pm *PartitionMap) Assignment() (part []int) {
	part = make([]int, pm.MaxIndex)
	for bn := range pm.Partitions {
		kMin, kMax := pm.Range(bn)
		for k := kMin; k < kMax; k++ {
			part[k] = bn
		}
	}
	return
}
