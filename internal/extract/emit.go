package extract

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"apiextract/internal/closure"
	"apiextract/internal/decl"
	"apiextract/internal/errors"
	"apiextract/internal/sink"
	"apiextract/internal/stub"
)

// Artifact is an emitted class file and where it goes.
type Artifact struct {
	Resource sink.Resource
	Data     []byte
}

// Emit builds the class file of every type in res using up to workers
// goroutines (0 means one per CPU). The result is ordered by qualified
// name regardless of scheduling. Nothing is returned unless every type
// emits.
func Emit(ctx context.Context, res *closure.Result, location string, workers int) ([]Artifact, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if location == "" {
		location = sink.DefaultLocation
	}

	g := res.Graph()
	emitter := stub.NewEmitter(res)
	types := res.Types()
	out := make([]Artifact, len(types))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, h := range types {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := emitter.Emit(h)
			if err != nil {
				if errors.Is(err, errors.EmitFailed) {
					return err
				}
				return errors.New(errors.EmitFailed, "cannot emit "+g.BinaryName(h), err)
			}
			pkg, file := stub.ResourceName(g, h)
			out[i] = Artifact{
				Resource: sink.Resource{
					Location:     location,
					Package:      pkg,
					File:         file,
					BinaryName:   g.BinaryName(h),
					Dependencies: dependencies(res, h),
				},
				Data: data,
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// dependencies returns the qualified names of the seeds h was reached from.
func dependencies(res *closure.Result, h decl.Handle) []string {
	st, ok := res.State(h)
	if !ok {
		return nil
	}
	g := res.Graph()
	names := make([]string, len(st.Dependents))
	for i, d := range st.Dependents {
		names[i] = g.QualifiedName(d)
	}
	return names
}
