package mesh

import (
	"fmt"
	"log"
	"math"

	metis "github.com/notargets/go-metis"
	"github.com/notargets/godpg/utils"
)

// PartitionConfig holds configuration for partitioning the active volumes
type PartitionConfig struct {
	NumPartitions    int32
	ImbalanceFactor  float32 // e.g., 1.05 for 5% imbalance
	UseEdgeWeights   bool
	UseVertexWeights bool
	Objective        string // "cut" or "vol"
}

func DefaultPartitionConfig(nparts int32) *PartitionConfig {
	return &PartitionConfig{
		NumPartitions:    nparts,
		ImbalanceFactor:  1.05,
		UseEdgeWeights:   true,
		UseVertexWeights: true,
		Objective:        "vol",
	}
}

// DualGraph is the volume adjacency graph in METIS compressed form.
type DualGraph struct {
	Xadj, Adjncy []int32
	Vwgt, Adjwgt []int32
}

func (g DualGraph) NVertices() int { return len(g.Xadj) - 1 }

/*
NewDualGraph builds the dual graph of nv volumes. neighbours lists each volume's face neighbours with the
face DOF count used as edge weight, cost the compute weight of a volume.
*/
func NewDualGraph(nv int, neighbours func(v int) (nbrs []int, faceDOFs []int32),
	cost func(v int) int32) (g DualGraph) {
	g.Xadj = make([]int32, nv+1)
	g.Vwgt = make([]int32, nv)
	for v := 0; v < nv; v++ {
		g.Vwgt[v] = cost(v)
		nbrs, w := neighbours(v)
		for i, nb := range nbrs {
			if nb >= 0 && nb != v {
				g.Adjncy = append(g.Adjncy, int32(nb))
				g.Adjwgt = append(g.Adjwgt, w[i])
			}
		}
		g.Xadj[v+1] = int32(len(g.Adjncy))
	}
	return
}

// Partition assigns every vertex of the dual graph to one of cfg.NumPartitions parts using METIS k-way.
func Partition(g DualGraph, cfg *PartitionConfig, logger *log.Logger) (part []int, err error) {
	nv := g.NVertices()
	if cfg.NumPartitions <= 1 || nv <= int(cfg.NumPartitions) {
		return ContiguousPartition(nv, int(cfg.NumPartitions)), nil
	}
	logger.Printf("Partitioning %d volumes into %d parts", nv, cfg.NumPartitions)

	opts := make([]int32, metis.NoOptions)
	if err = metis.SetDefaultOptions(opts); err != nil {
		return nil, fmt.Errorf("failed to set METIS options: %w", err)
	}
	if cfg.Objective == "vol" {
		opts[metis.OptionObjType] = metis.ObjTypeVol
	} else {
		opts[metis.OptionObjType] = metis.ObjTypeCut
	}
	ubvec := []float32{cfg.ImbalanceFactor}

	var vwgt, adjwgt []int32
	if cfg.UseVertexWeights {
		vwgt = g.Vwgt
	}
	if cfg.UseEdgeWeights {
		adjwgt = g.Adjwgt
	}
	p32, objval, err := metis.PartGraphKwayWeighted(
		g.Xadj, g.Adjncy, vwgt, adjwgt,
		cfg.NumPartitions, nil, ubvec, opts,
	)
	if err != nil {
		return nil, fmt.Errorf("METIS partitioning failed: %w", err)
	}
	part = make([]int, nv)
	for i := range part {
		part[i] = int(p32[i])
	}
	analyzePartition(g, part, int(cfg.NumPartitions), objval, logger)
	return
}

func analyzePartition(g DualGraph, part []int, nparts int, objval int32, logger *log.Logger) {
	var (
		load     = make([]int64, nparts)
		cutEdges int
		avgLoad  float64
		maxLoad  int64
		minLoad  = int64(math.MaxInt64)
	)
	for v, p := range part {
		load[p] += int64(g.Vwgt[v])
		for j := g.Xadj[v]; j < g.Xadj[v+1]; j++ {
			nb := int(g.Adjncy[j])
			if nb > v && part[nb] != p {
				cutEdges++
			}
		}
	}
	for _, l := range load {
		avgLoad += float64(l)
		maxLoad = max(maxLoad, l)
		minLoad = min(minLoad, l)
	}
	avgLoad /= float64(nparts)
	logger.Printf("Partition Analysis:")
	logger.Printf("  Objective value: %d", objval)
	logger.Printf("  Cut edges: %d", cutEdges)
	logger.Printf("  Load imbalance: %.2f%%", (float64(maxLoad)/avgLoad-1)*100)
	logger.Printf("  Load range: [%d, %d], avg: %.1f", minLoad, maxLoad, avgLoad)
}

// ContiguousPartition splits n items into balanced contiguous ranges.
func ContiguousPartition(n, nparts int) []int {
	return utils.NewPartitionMap(nparts, n).Assignment()
}

// Buckets groups item indices by part, preserving ascending order inside each part.
func Buckets(part []int, nparts int) (buckets [][]int) {
	buckets = make([][]int, max(nparts, 1))
	for i, p := range part {
		buckets[p] = append(buckets[p], i)
	}
	return
}
