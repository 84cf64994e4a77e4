package nbody

// DefaultCapacity is the default number of body indices a leaf holds before
// subdividing.
const DefaultCapacity = 32

// node is one entry in the quadtree's flat arena. A node is a leaf iff
// childrenIdx is 0 — node 0 is always the root and can never be a child, so
// 0 doubles as the "no children" sentinel.
type node struct {
	boundary    SquareBox
	indices     []int
	childrenIdx int
	mass        float64
}

// Quadtree is a mass-aware point-region quadtree. Nodes live in a single
// flat pool; children of an internal node occupy four consecutive slots
// addressed by childrenIdx, in quadrant order NE, NW, SW, SE. The pool is
// rebuilt every step but its backing array is retained across rebuilds.
type Quadtree struct {
	capacity int
	nodes    []node
}

// New creates a quadtree rooted at boundary with the default leaf capacity.
func New(boundary SquareBox) *Quadtree {
	return NewWithCapacity(boundary, DefaultCapacity)
}

// NewWithCapacity creates a quadtree rooted at boundary with the given leaf
// capacity.
func NewWithCapacity(boundary SquareBox, capacity int) *Quadtree {
	return &Quadtree{
		capacity: capacity,
		nodes:    []node{{boundary: boundary}},
	}
}

// Reset clears the tree back to a single root node with the given
// boundary. The node pool's capacity is retained; only its length is reset.
func (q *Quadtree) Reset(boundary SquareBox) {
	q.nodes = append(q.nodes[:0], node{boundary: boundary})
}

// SetCapacity changes the per-leaf capacity used by future subdivisions.
func (q *Quadtree) SetCapacity(capacity int) {
	q.capacity = capacity
}

func (q *Quadtree) isLeaf(idx int) bool { return q.nodes[idx].childrenIdx == 0 }

// Insert adds the body at index i if its position lies within the root
// boundary. Returns false (without mutating the tree) otherwise.
func (q *Quadtree) Insert(i int, bodies []Body) bool {
	if !q.nodes[0].boundary.Contains(bodies[i].Position) {
		return false
	}
	q.InsertUnchecked(i, bodies)
	return true
}

// InsertUnchecked inserts the body at index i without checking containment
// against the root boundary. The caller must guarantee containment — used
// when the boundary was just computed from the very bodies being inserted.
func (q *Quadtree) InsertUnchecked(i int, bodies []Body) {
	nodeIdx := 0
	for {
		q.nodes[nodeIdx].mass += bodies[i].Mass
		if q.isLeaf(nodeIdx) {
			if len(q.nodes[nodeIdx].indices) < q.capacity {
				q.nodes[nodeIdx].indices = append(q.nodes[nodeIdx].indices, i)
				return
			}
			if !q.subdivide(nodeIdx, bodies) {
				// Further subdivision would not reduce occupancy
				// (coincident positions) — tolerate overflow.
				q.nodes[nodeIdx].indices = append(q.nodes[nodeIdx].indices, i)
				return
			}
		}
		quadrant := q.nodes[nodeIdx].boundary.QuadrantOf(bodies[i].Position)
		nodeIdx = q.nodes[nodeIdx].childrenIdx + quadrant
	}
}

// subdivide splits the leaf at parentIdx into four children, redistributing
// its held indices. Returns false if the child half-size has shrunk below
// the point where subdivision could still make useful progress, in which
// case the parent is left untouched.
func (q *Quadtree) subdivide(parentIdx int, bodies []Body) bool {
	boundary := q.nodes[parentIdx].boundary
	childHalf := boundary.HalfSize / 2
	if childHalf*childHalf < small {
		return false
	}

	childrenIdx := len(q.nodes)
	q.nodes = append(q.nodes,
		node{boundary: boundary.NorthEast()},
		node{boundary: boundary.NorthWest()},
		node{boundary: boundary.SouthWest()},
		node{boundary: boundary.SouthEast()},
	)

	moved := q.nodes[parentIdx].indices
	q.nodes[parentIdx].indices = nil
	q.nodes[parentIdx].childrenIdx = childrenIdx

	for _, idx := range moved {
		quadrant := boundary.QuadrantOf(bodies[idx].Position)
		child := childrenIdx + quadrant
		q.nodes[child].indices = append(q.nodes[child].indices, idx)
		q.nodes[child].mass += bodies[idx].Mass
	}
	return true
}

// QueryRange returns all body indices whose position lies within region.
// Order is deterministic for a given build but otherwise unspecified.
func (q *Quadtree) QueryRange(region SquareBox, bodies []Body) []int {
	var result []int
	stack := []int{0}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &q.nodes[idx]

		if region.ContainsBox(n.boundary) {
			q.collectSubtree(idx, &result)
			continue
		}
		if q.isLeaf(idx) {
			for _, bi := range n.indices {
				if region.Contains(bodies[bi].Position) {
					result = append(result, bi)
				}
			}
			continue
		}
		c := n.childrenIdx
		stack = append(stack, c, c+1, c+2, c+3)
	}
	return result
}

func (q *Quadtree) collectSubtree(rootIdx int, result *[]int) {
	stack := []int{rootIdx}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if q.isLeaf(idx) {
			*result = append(*result, q.nodes[idx].indices...)
			continue
		}
		c := q.nodes[idx].childrenIdx
		stack = append(stack, c, c+1, c+2, c+3)
	}
}

// Depth returns the maximum root-to-leaf depth, for diagnostics.
func (q *Quadtree) Depth() int {
	type frame struct{ idx, depth int }
	max := 0
	stack := []frame{{0, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > max {
			max = f.depth
		}
		if q.isLeaf(f.idx) {
			continue
		}
		c := q.nodes[f.idx].childrenIdx
		for i := 0; i < 4; i++ {
			stack = append(stack, frame{c + i, f.depth + 1})
		}
	}
	return max
}

// NodeCount returns the number of nodes currently in the pool, for
// diagnostics and tests.
func (q *Quadtree) NodeCount() int { return len(q.nodes) }

// Mass returns the aggregate mass stored at nodeIdx.
func (q *Quadtree) Mass(nodeIdx int) float64 { return q.nodes[nodeIdx].mass }

// IsLeaf reports whether nodeIdx is a leaf.
func (q *Quadtree) IsLeaf(nodeIdx int) bool { return q.isLeaf(nodeIdx) }

// ChildrenIndex returns the pool index of nodeIdx's first child, or 0 if
// nodeIdx is a leaf.
func (q *Quadtree) ChildrenIndex(nodeIdx int) int { return q.nodes[nodeIdx].childrenIdx }

// Boundary returns the boundary of nodeIdx.
func (q *Quadtree) Boundary(nodeIdx int) SquareBox { return q.nodes[nodeIdx].boundary }

// LeafIndices returns the body indices directly held by nodeIdx. Empty for
// internal nodes.
func (q *Quadtree) LeafIndices(nodeIdx int) []int { return q.nodes[nodeIdx].indices }
