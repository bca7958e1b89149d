package types

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"HLL-EVAL/general"
	"HLL-EVAL/types/external"
	"HLL-EVAL/types/hll"
)

var ErrUnknownEstimator = errors.New("unknown estimator")

// Spec describes one registered estimator. Concurrent estimators may be
// shared between goroutines as-is; the others need a Locked wrapper.
type Spec struct {
	Name       string
	New        general.Factory
	Concurrent bool
}

var registry = []Spec{
	{Name: "hll/dense", New: hll.NewDense, Concurrent: true},
	{Name: "hll/dense-sha256", New: hll.NewDenseSecure, Concurrent: true},
	{Name: "hll/atomic", New: hll.NewAtomic, Concurrent: true},
	{Name: "hll/plusplus", New: hll.NewHLLPP, Concurrent: true},
	{Name: "boom/hyperloglog", New: external.NewBoom},
	{Name: "exact/roaring64", New: external.NewExact},
}

// All returns every registered estimator in registration order.
func All() []Spec {
	out := make([]Spec, len(registry))
	copy(out, registry)
	return out
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for _, s := range registry {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

func Lookup(name string) (Spec, error) {
	for _, s := range registry {
		if s.Name == name {
			return s, nil
		}
	}
	return Spec{}, errors.Wrapf(ErrUnknownEstimator, "%q (known: %s)", name, strings.Join(Names(), ", "))
}

// Select resolves a list of names; "all" expands to every estimator.
// Duplicates are dropped so labels stay unique within a run.
func Select(names []string) ([]Spec, error) {
	var out []Spec
	seen := make(map[string]struct{})
	for _, name := range names {
		if name == "all" {
			for _, s := range registry {
				if _, ok := seen[s.Name]; !ok {
					seen[s.Name] = struct{}{}
					out = append(out, s)
				}
			}
			continue
		}
		s, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[s.Name]; ok {
			continue
		}
		seen[s.Name] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// SharedFactory returns a factory whose instances tolerate concurrent use.
func (s Spec) SharedFactory() general.Factory {
	if s.Concurrent {
		return s.New
	}
	return LockedFactory(s.New)
}
