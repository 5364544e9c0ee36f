package stats

import (
	"github.com/keilerkonzept/topk"
)

// moduleSketch ranks input modules by the bytes they contribute to the
// emitted outputs. A heavy-hitters sketch keeps the ranking cheap even for
// dependency trees with tens of thousands of inputs, where an exact sort
// would hold every path in memory.
type moduleSketch struct {
	sketch *topk.Sketch
	k      int
}

func newModuleSketch(k int) *moduleSketch {
	if k <= 0 {
		k = 20
	}
	return &moduleSketch{
		sketch: topk.New(k),
		k:      k,
	}
}

// add records bytes contributed by one input module to one output.
func (s *moduleSketch) add(path string, bytes int) {
	if bytes <= 0 {
		return
	}
	s.sketch.Add(path, uint32(bytes))
}

// top returns the k heaviest modules, largest first.
func (s *moduleSketch) top() []ModuleStat {
	items := s.sketch.SortedSlice()
	out := make([]ModuleStat, 0, len(items))
	for _, item := range items {
		if item.Count == 0 {
			break // sorted, nothing heavier follows
		}
		out = append(out, ModuleStat{Path: item.Item, Bytes: int(item.Count)})
	}
	return out
}
