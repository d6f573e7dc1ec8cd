package extract

import (
	"apiextract/internal/config"
	"apiextract/internal/errors"
	"apiextract/internal/paths"
	"apiextract/internal/sink"
)

type outputs struct {
	sink  sink.Sink
	abort func()
}

// openOutputs creates the directory and jar sinks named by out. At least
// one must be configured.
func openOutputs(root string, out config.OutputConfig) (*outputs, error) {
	var tee sink.Tee
	var jar *sink.Jar

	if out.Dir != "" {
		d, err := sink.NewDir(paths.Resolve(root, out.Dir))
		if err != nil {
			return nil, errors.New(errors.EmitFailed, "cannot create output directory", err)
		}
		tee = append(tee, d)
	}
	if out.Jar != "" {
		j, err := sink.NewJar(paths.Resolve(root, out.Jar))
		if err != nil {
			return nil, errors.New(errors.EmitFailed, "cannot create output jar", err)
		}
		jar = j
		tee = append(tee, j)
	}
	if len(tee) == 0 {
		return nil, errors.New(errors.ConfigInvalid, "no output configured: set output.dir or output.jar", nil)
	}

	o := &outputs{sink: tee, abort: func() {}}
	if jar != nil {
		o.abort = jar.Abort
	}
	if len(tee) == 1 {
		o.sink = tee[0]
	}
	return o, nil
}
