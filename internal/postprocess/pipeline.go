package postprocess

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/projectsyn/commodore/internal/commodoreerrors"
)

// JsonnetRunner executes a jsonnet-authored filter against compiled output,
// implemented by internal/renderdriver.Engine (Kapitan-compatible
// ext-var/native-callback environment per spec §4.7).
type JsonnetRunner interface {
	RunFilter(ctx context.Context, instanceName, filterPath, targetDir string, filterArgs map[string]string) error
}

// Instance is one component instance's ordered filter pipeline.
type Instance struct {
	Name        string
	CompiledDir string // compiled/<instance>
	Filters     []Spec
}

// Pipeline runs every Instance's filters, sequentially within an instance
// and in parallel across instances (spec §4.7, §5).
type Pipeline struct {
	Jsonnet     JsonnetRunner
	Parallelism int
}

// Run executes every instance's filter pipeline, returning the first error
// encountered (cancelling the remaining instances).
func (p *Pipeline) Run(ctx context.Context, instances []Instance) error {
	g, gctx := errgroup.WithContext(ctx)
	if p.Parallelism > 0 {
		g.SetLimit(p.Parallelism)
	}

	for _, inst := range instances {
		inst := inst
		g.Go(func() error {
			return p.runInstance(gctx, inst)
		})
	}

	return g.Wait()
}

func (p *Pipeline) runInstance(ctx context.Context, inst Instance) error {
	for _, spec := range inst.Filters {
		if !spec.Enabled {
			continue
		}

		dir := filepath.Join(inst.CompiledDir, spec.Path)

		switch spec.Type {
		case "builtin":
			filter, err := Builtin(spec.Filter, spec.FilterArgs)
			if err != nil {
				return commodoreerrors.Wrap(commodoreerrors.ErrFilter,
					fmt.Sprintf("instance %s", inst.Name), err).WithLocation(inst.Name, "", spec.Filter)
			}
			if err := filter.Apply(ctx, dir); err != nil {
				return err
			}
		case "jsonnet":
			if p.Jsonnet == nil {
				return commodoreerrors.New(commodoreerrors.ErrFilter,
					fmt.Sprintf("instance %s: no jsonnet runner configured for filter %s", inst.Name, spec.Filter))
			}
			if err := p.Jsonnet.RunFilter(ctx, inst.Name, spec.Filter, dir, spec.StringArgs()); err != nil {
				return commodoreerrors.Wrap(commodoreerrors.ErrFilter,
					fmt.Sprintf("instance %s", inst.Name), err).WithLocation(inst.Name, "", spec.Filter)
			}
		}
	}
	return nil
}
