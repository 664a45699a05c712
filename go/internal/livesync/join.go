package livesync

import "sync"

// Join keeps out equal to resolve(source, dependency). It recomputes when
// either side publishes, always from the latest published lists, and only
// once the source has published at least once since it was enabled. It never
// waits for a fresher dependency.
type Join[S, D, R any] struct {
	source  *Stream[S]
	dep     *Stream[D]
	out     *Stream[R]
	resolve func([]S, []D) []R

	mu         sync.Mutex
	enabled    bool
	sourceSeen bool
}

func NewJoin[S, D, R any](source *Stream[S], dep *Stream[D], out *Stream[R], resolve func([]S, []D) []R) *Join[S, D, R] {
	j := &Join[S, D, R]{source: source, dep: dep, out: out, resolve: resolve}
	source.attach(j.onSource)
	dep.attach(j.onDependency)
	return j
}

// Enable starts a new session: nothing is published until the source does
func (j *Join[S, D, R]) Enable() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.enabled = true
	j.sourceSeen = false
}

// Disable stops all recomputation, e.g. while lists are being cleared
func (j *Join[S, D, R]) Disable() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.enabled = false
	j.sourceSeen = false
}

func (j *Join[S, D, R]) onSource(items []S) {
	j.mu.Lock()
	if !j.enabled {
		j.mu.Unlock()
		return
	}
	j.sourceSeen = true
	j.mu.Unlock()

	j.out.publish(j.resolve(items, j.dep.Current()))
}

func (j *Join[S, D, R]) onDependency(deps []D) {
	j.mu.Lock()
	if !j.enabled || !j.sourceSeen {
		j.mu.Unlock()
		return
	}
	j.mu.Unlock()

	j.out.publish(j.resolve(j.source.Current(), deps))
}
