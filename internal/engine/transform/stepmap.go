package transform

// Mappable maps positions from one document version to a later one.
type Mappable interface {
	Map(pos, assoc int) int
	MapResult(pos, assoc int) MapResult
}

// MapResult is a mapped position together with what happened around it.
type MapResult struct {
	// Pos is the mapped position.
	Pos int

	// Deleted is set when the position lay strictly inside a deleted range.
	// Callers decide whether such a position collapses to the edit boundary.
	Deleted bool

	// DeletedBefore is set when content directly before the position was
	// deleted.
	DeletedBefore bool

	// DeletedAfter is set when content directly after the position was
	// deleted.
	DeletedAfter bool
}

// StepMap describes the ranges a single step replaced. Ranges are stored as
// (start, oldSize, newSize) triplets in ascending order.
type StepMap struct {
	ranges   []int
	inverted bool
}

// EmptyStepMap maps every position to itself.
var EmptyStepMap = &StepMap{}

// NewStepMap creates a step map from (start, oldSize, newSize) triplets.
func NewStepMap(ranges []int, inverted bool) *StepMap {
	if len(ranges) == 0 {
		return EmptyStepMap
	}
	return &StepMap{ranges: ranges, inverted: inverted}
}

// OffsetMap returns a map that shifts every position by n.
func OffsetMap(n int) *StepMap {
	switch {
	case n == 0:
		return EmptyStepMap
	case n < 0:
		return NewStepMap([]int{0, -n, 0}, false)
	default:
		return NewStepMap([]int{0, 0, n}, false)
	}
}

func (m *StepMap) sizes() (oldIndex, newIndex int) {
	if m.inverted {
		return 2, 1
	}
	return 1, 2
}

// MapResult maps pos. assoc decides which side a position at an insertion
// point sticks to: negative stays before the inserted content, positive
// moves after it.
func (m *StepMap) MapResult(pos, assoc int) MapResult {
	diff := 0
	oldIndex, newIndex := m.sizes()
	for i := 0; i < len(m.ranges); i += 3 {
		start := m.ranges[i]
		if m.inverted {
			start -= diff
		}
		if start > pos {
			break
		}
		oldSize, newSize := m.ranges[i+oldIndex], m.ranges[i+newIndex]
		end := start + oldSize
		if pos <= end {
			side := assoc
			if oldSize > 0 {
				if pos == start {
					side = -1
				} else if pos == end {
					side = 1
				}
			}
			result := start + diff
			if side >= 0 {
				result += newSize
			}
			res := MapResult{Pos: result}
			if oldSize > 0 {
				res.Deleted = pos > start && pos < end
				res.DeletedBefore = pos > start
				res.DeletedAfter = pos < end
			}
			return res
		}
		diff += newSize - oldSize
	}
	return MapResult{Pos: pos + diff}
}

// Map maps pos, discarding deletion information.
func (m *StepMap) Map(pos, assoc int) int {
	return m.MapResult(pos, assoc).Pos
}

// ForEach calls fn for every changed range with its old and new extent.
func (m *StepMap) ForEach(fn func(oldStart, oldEnd, newStart, newEnd int)) {
	oldIndex, newIndex := m.sizes()
	diff := 0
	for i := 0; i < len(m.ranges); i += 3 {
		start := m.ranges[i]
		oldStart := start
		if m.inverted {
			oldStart = start - diff
		}
		newStart := start
		if !m.inverted {
			newStart = start + diff
		}
		oldSize, newSize := m.ranges[i+oldIndex], m.ranges[i+newIndex]
		fn(oldStart, oldStart+oldSize, newStart, newStart+newSize)
		diff += newSize - oldSize
	}
}

// Invert returns the map that undoes this one.
func (m *StepMap) Invert() *StepMap {
	return &StepMap{ranges: m.ranges, inverted: !m.inverted}
}

// Empty reports whether the map changes nothing.
func (m *StepMap) Empty() bool {
	return len(m.ranges) == 0
}

// Mapping is an ordered pipeline of step maps.
type Mapping struct {
	maps []*StepMap
}

// NewMapping creates a mapping from maps.
func NewMapping(maps ...*StepMap) *Mapping {
	return &Mapping{maps: append([]*StepMap(nil), maps...)}
}

// Maps returns the step maps in order.
func (m *Mapping) Maps() []*StepMap {
	return m.maps
}

// Len returns the number of step maps.
func (m *Mapping) Len() int {
	return len(m.maps)
}

// Slice returns a mapping over maps [from, to).
func (m *Mapping) Slice(from, to int) *Mapping {
	return &Mapping{maps: append([]*StepMap(nil), m.maps[from:to]...)}
}

// AppendMap adds a step map to the end.
func (m *Mapping) AppendMap(sm *StepMap) {
	m.maps = append(m.maps, sm)
}

// AppendMapping adds all maps of other to the end.
func (m *Mapping) AppendMapping(other *Mapping) {
	m.maps = append(m.maps, other.maps...)
}

// Invert returns a mapping that maps positions back through the maps in
// reverse order.
func (m *Mapping) Invert() *Mapping {
	out := make([]*StepMap, len(m.maps))
	for i, sm := range m.maps {
		out[len(m.maps)-1-i] = sm.Invert()
	}
	return &Mapping{maps: out}
}

// Map maps pos through every map in order.
func (m *Mapping) Map(pos, assoc int) int {
	for _, sm := range m.maps {
		pos = sm.Map(pos, assoc)
	}
	return pos
}

// MapResult maps pos and accumulates deletion flags across all maps.
func (m *Mapping) MapResult(pos, assoc int) MapResult {
	res := MapResult{Pos: pos}
	for _, sm := range m.maps {
		r := sm.MapResult(res.Pos, assoc)
		res.Pos = r.Pos
		res.Deleted = res.Deleted || r.Deleted
		res.DeletedBefore = res.DeletedBefore || r.DeletedBefore
		res.DeletedAfter = res.DeletedAfter || r.DeletedAfter
	}
	return res
}
