package adaptation

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/godpg/elements"
	"github.com/notargets/godpg/mesh"
	"github.com/notargets/godpg/simulation"
	"github.com/notargets/godpg/types"
)

// Driver applies h- and p-adaptation to the containers of one simulation.
type Driver struct {
	Sim *simulation.Simulation
	C   *elements.Containers
}

func NewDriver(sim *simulation.Simulation, c *elements.Containers) *Driver {
	return &Driver{Sim: sim, C: c}
}

// Report counts the transitions of one adaptation pass.
type Report struct {
	Split, Merged        int
	PRefined, PCoarsened int
	Errors               []error
	ActiveVolumes, Faces int
}

func (r Report) String() string {
	return fmt.Sprintf("split %d, merged %d, p-refined %d, p-coarsened %d, %d errors, %d volumes, %d faces",
		r.Split, r.Merged, r.PRefined, r.PCoarsened, len(r.Errors), r.ActiveVolumes, r.Faces)
}

// Mark sets the transition requested for volume h on the next pass.
func (d *Driver) Mark(h mesh.Handle, t types.AdaptType) error {
	d.C.Mu.Lock()
	defer d.C.Mu.Unlock()
	d.C.EnterAdaptation()
	sv := d.C.Volume(h)
	if sv == nil {
		return types.NewStructuralError("mark of dead volume %d", h)
	}
	sv.Adapt.AdaptType = t
	return nil
}

// MarkByIndicator marks every active volume with the transition chosen by indicator and returns how many
// were marked for a change.
func (d *Driver) MarkByIndicator(indicator func(sv *elements.SolverVolume) types.AdaptType) (n int) {
	d.C.Mu.Lock()
	defer d.C.Mu.Unlock()
	d.C.EnterAdaptation()
	d.C.ActiveVolumes.Each(func(r elements.VolumeRecord) bool {
		sv := elements.AsSolver(r)
		if sv.Adapt.AdaptType = indicator(sv); sv.Adapt.AdaptType != types.ADAPT_NONE {
			n++
		}
		return true
	})
	return
}

// Split refines volume h immediately.
func (d *Driver) Split(h mesh.Handle) error {
	return d.single(func() error { return d.split(h) })
}

// Merge coarsens the children of volume h back into h immediately.
func (d *Driver) Merge(h mesh.Handle) error {
	return d.single(func() error { return d.merge(h) })
}

func (d *Driver) RefineP(h mesh.Handle) error {
	return d.single(func() (err error) {
		_, err = d.changeOrder(h, 1)
		return
	})
}

func (d *Driver) CoarsenP(h mesh.Handle) error {
	return d.single(func() (err error) {
		_, err = d.changeOrder(h, -1)
		return
	})
}

func (d *Driver) single(op func() error) (err error) {
	d.C.Mu.Lock()
	defer d.C.Mu.Unlock()
	d.C.EnterAdaptation()
	if err = op(); err != nil {
		return
	}
	return d.finish()
}

/*
Adapt applies the marked transitions in active list order. A transition that fails is recorded and skipped,
and the pass continues. The active lists are rebuilt, the geometry of the updated volumes and their faces is
recomputed, and the Updated flags are cleared. Geometry flagged on unchanged neighbours is left to the next
assembly.
*/
func (d *Driver) Adapt() (report Report, err error) {
	d.C.Mu.Lock()
	defer d.C.Mu.Unlock()
	d.C.EnterAdaptation()
	var (
		m       = d.Sim.Metrics
		handles []mesh.Handle
		merged  = make(map[mesh.Handle]bool)
	)
	d.C.ActiveVolumes.Each(func(r elements.VolumeRecord) bool {
		handles = append(handles, r.Base().Handle)
		return true
	})
	for _, h := range handles {
		sv := d.C.Volume(h)
		if sv == nil {
			continue
		}
		var (
			t       = sv.Adapt.AdaptType
			changed = true
			terr    error
		)
		switch t {
		case types.ADAPT_NONE:
			continue
		case types.H_REFINE:
			if terr = d.split(h); terr == nil {
				report.Split++
			}
		case types.H_COARSE:
			parent := sv.Adapt.Parent
			if !parent.Valid() {
				sv.Adapt.AdaptType = types.ADAPT_NONE
				terr = types.NewStructuralError("volume %d has no parent to merge into", h)
				break
			}
			if merged[parent] {
				continue
			}
			merged[parent] = true
			if terr = d.merge(parent); terr == nil {
				report.Merged++
			}
		case types.P_REFINE:
			if changed, terr = d.changeOrder(h, 1); changed {
				report.PRefined++
			}
		case types.P_COARSE:
			if changed, terr = d.changeOrder(h, -1); changed {
				report.PCoarsened++
			}
		default:
			terr = types.NewConfigurationError("unknown adapt type %d", t)
		}
		if terr != nil {
			err = multierr.Append(err, fmt.Errorf("volume %d %s: %w", h, t, terr))
			m.AdaptErrors.Inc()
			if sv = d.C.Volume(h); sv != nil {
				sv.Adapt.AdaptType = types.ADAPT_NONE
			}
			continue
		}
		if changed {
			m.Adaptations.WithLabelValues(t.String()).Inc()
		}
	}
	err = multierr.Append(err, d.finish())
	report.Errors = multierr.Errors(err)
	report.ActiveVolumes, report.Faces = d.C.ActiveVolumes.Len(), d.C.ActiveFaces.Len()
	d.Sim.Logger.Printf("run %s: adaptation %s", d.Sim.RunID, report)
	return
}

// finish relinks the active lists and recomputes the geometry of updated volumes and their faces.
func (d *Driver) finish() (err error) {
	c := d.C
	c.RebuildLists()
	done := make(map[mesh.Handle]bool)
	c.ActiveVolumes.Each(func(r elements.VolumeRecord) bool {
		sv := elements.AsSolver(r)
		if !sv.Adapt.Updated {
			return true
		}
		for _, list := range sv.Faces {
			for _, fh := range list {
				if done[fh] {
					continue
				}
				done[fh] = true
				f := c.Face(fh)
				err = multierr.Append(err, f.RebuildGeometry(d.Sim, c.Volume))
				f.Adapt.Updated, f.Adapt.UpdatedGeomNCFace = false, false
			}
		}
		sv.Adapt.Updated = false
		return true
	})
	return
}

/*
Indicator returns the marking rule of an adaptation strategy:

	none       nothing is marked
	uniform_h  every volume is split
	uniform_p  every volume is raised one order
	residual   volumes whose residual norm is at least half the largest are split

The residual rule reads the residual of the last assembly.
*/
func Indicator(strategy string, c *elements.Containers) (func(sv *elements.SolverVolume) types.AdaptType, error) {
	switch strategy {
	case "", "none":
		return func(*elements.SolverVolume) types.AdaptType { return types.ADAPT_NONE }, nil
	case "uniform_h":
		return func(*elements.SolverVolume) types.AdaptType { return types.H_REFINE }, nil
	case "uniform_p":
		return func(*elements.SolverVolume) types.AdaptType { return types.P_REFINE }, nil
	case "residual":
		var maxNorm float64
		c.ActiveVolumes.Each(func(r elements.VolumeRecord) bool {
			maxNorm = math.Max(maxNorm, floats.Norm(elements.AsSolver(r).RHS, 2))
			return true
		})
		return func(sv *elements.SolverVolume) types.AdaptType {
			if maxNorm > 0 && floats.Norm(sv.RHS, 2) >= 0.5*maxNorm {
				return types.H_REFINE
			}
			return types.ADAPT_NONE
		}, nil
	}
	return nil, types.NewConfigurationError("unknown adaptation strategy %q", strategy)
}
