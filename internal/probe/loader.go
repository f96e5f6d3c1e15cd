// Package probe manages the lifecycle of the compiled instrumentation
// program: loading its object file, attaching its uprobes to the target
// binary and opening the perf buffer it writes raw events into. The
// program itself is produced by an external compiler; this package only
// attaches what it is given.
package probe

import (
	"errors"
	"fmt"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/perf"

	"github.com/tracekit/dtracecol/internal/config"
)

// Loader owns the loaded collection and its kernel attachments.
type Loader struct {
	cfg     config.ProbeConfig
	coll    *ebpf.Collection
	perfMap *ebpf.Map
	links   []link.Link
}

// New loads the compiled BPF object into the kernel and resolves the perf
// output map.
func New(cfg config.ProbeConfig) (*Loader, error) {
	coll, err := ebpf.LoadCollection(cfg.ObjectPath)
	if err != nil {
		return nil, fmt.Errorf("loading BPF collection %s: %w", cfg.ObjectPath, err)
	}

	perfMap, ok := coll.Maps[cfg.PerfMap]
	if !ok {
		coll.Close()
		return nil, fmt.Errorf("BPF collection %s has no map %q", cfg.ObjectPath, cfg.PerfMap)
	}

	return &Loader{cfg: cfg, coll: coll, perfMap: perfMap}, nil
}

// closeErrorf detaches everything attached so far and returns a formatted
// error. Cleanup errors are ignored since we are already in an error path.
func (l *Loader) closeErrorf(errstr string, e error) error {
	for _, lnk := range l.links {
		_ = lnk.Close() //nolint:errcheck // Best-effort cleanup in error path
	}
	l.links = nil
	return fmt.Errorf("%s: %w", errstr, e)
}

// Attach attaches every configured uprobe to the target binary.
func (l *Loader) Attach() error {
	ex, err := link.OpenExecutable(l.cfg.Binary)
	if err != nil {
		return fmt.Errorf("opening executable %s: %w", l.cfg.Binary, err)
	}

	for _, up := range l.cfg.Uprobes {
		prog, ok := l.coll.Programs[up.Program]
		if !ok {
			return l.closeErrorf("attaching uprobes",
				fmt.Errorf("no program %q in collection %s", up.Program, l.cfg.ObjectPath))
		}

		var lnk link.Link
		if up.Ret {
			lnk, err = ex.Uretprobe(up.Symbol, prog, nil)
		} else {
			lnk, err = ex.Uprobe(up.Symbol, prog, nil)
		}
		if err != nil {
			return l.closeErrorf(fmt.Sprintf("attaching uprobe %s:%s", l.cfg.Binary, up.Symbol), err)
		}
		l.links = append(l.links, lnk)
	}

	return nil
}

// OpenPerfReader opens a reader over the program's perf output map.
func (l *Loader) OpenPerfReader(perCPUBuffer int) (*perf.Reader, error) {
	rd, err := perf.NewReader(l.perfMap, perCPUBuffer)
	if err != nil {
		return nil, fmt.Errorf("opening perf buffer %q: %w", l.cfg.PerfMap, err)
	}
	return rd, nil
}

// Close detaches all uprobes and releases the loaded objects.
func (l *Loader) Close() error {
	var errs []error

	for i := len(l.links) - 1; i >= 0; i-- {
		if err := l.links[i].Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing uprobe link: %w", err))
		}
	}
	l.links = nil

	l.coll.Close()

	if len(errs) > 0 {
		return fmt.Errorf("errors during cleanup: %w", errors.Join(errs...))
	}
	return nil
}
