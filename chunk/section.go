package chunk

import (
	"sort"
	"sync"
)

// sectionLike is satisfied by each dialect's concrete section type; the
// tower only needs to know a section's y-index and whether it is a
// terminator entry some encoders emit for gaps in the stack.
//
// Grounded on fastanvil/src/java/section_tower.rs's SectionLike trait and
// its three implementors in pre13.rs/pre18.rs/chunk.rs.
type sectionLike interface {
	sectionY() int8
	isTerminator() bool
}

// sectionTower holds an ordered, contiguous run of sections covering
// [yMin/16, yMax/16), plus a memoized y-section-index -> slice-index map
// built once on first lookup under a RWMutex (spec.md §5's lazy-cache
// requirement), mirroring the RefCell<HashMap<i8, usize>> sec_map field
// from java.rs's Level.
type sectionTower[S sectionLike] struct {
	sections []S

	mu      sync.RWMutex
	secMap  map[int8]int
	built   bool
}

func newSectionTower[S sectionLike](raw []S) *sectionTower[S] {
	kept := make([]S, 0, len(raw))
	for _, s := range raw {
		if s.isTerminator() {
			continue
		}
		kept = append(kept, s)
	}
	return &sectionTower[S]{sections: kept}
}

func (t *sectionTower[S]) ensureMap() {
	t.mu.RLock()
	built := t.built
	t.mu.RUnlock()
	if built {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.built {
		return
	}
	m := make(map[int8]int, len(t.sections))
	for i, s := range t.sections {
		m[s.sectionY()] = i
	}
	t.secMap = m
	t.built = true
}

// forY returns the section containing world y, if any.
func (t *sectionTower[S]) forY(y int) (S, bool) {
	var zero S
	if len(t.sections) == 0 {
		return zero, false
	}
	t.ensureMap()

	secY := floorDiv16(y)
	t.mu.RLock()
	idx, ok := t.secMap[int8(secY)]
	t.mu.RUnlock()
	if !ok {
		return zero, false
	}
	return t.sections[idx], true
}

// yMin/yMax report the world-y bounds covered by the tower, in 16-block
// section units, i.e. [yMin, yMax) where yMax - yMin is a multiple of 16.
func (t *sectionTower[S]) yRange() (min, max int) {
	if len(t.sections) == 0 {
		return 0, 0
	}
	ys := make([]int, len(t.sections))
	for i, s := range t.sections {
		ys[i] = int(s.sectionY())
	}
	sort.Ints(ys)
	return ys[0] * 16, (ys[len(ys)-1] + 1) * 16
}

func floorDiv16(y int) int {
	if y >= 0 {
		return y / 16
	}
	return -((-y + 15) / 16)
}
