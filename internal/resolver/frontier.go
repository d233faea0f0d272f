package resolver

import "github.com/yejune/wit/internal/depgraph"

// frontierItem is one entry on the time-ordered frontier: a dependency
// edge and the commit time of its specified revision at the moment it
// was pushed.
type frontierItem struct {
	dep        *depgraph.Dependency
	commitTime int64
	seq        uint64
}

// frontier is a container/heap.Interface max-heap on commitTime, with
// ties broken by insertion sequence so pop order is deterministic within
// one commit time (design note §9: "tie at identical commit times").
type frontier []*frontierItem

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].commitTime != f[j].commitTime {
		return f[i].commitTime > f[j].commitTime
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x interface{}) {
	*f = append(*f, x.(*frontierItem))
}

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*f = old[:n-1]
	return item
}
