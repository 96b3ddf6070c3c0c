package feather2d

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/akmonengine/feather2d/actor"
	"github.com/akmonengine/feather2d/config"
	"github.com/go-gl/mathgl/mgl64"
)

// NULL_PROXY is the proxy id of a shape that is not in the broad-phase
const NULL_PROXY = -1

// ErrBroadPhaseInconsistent is wrapped by every error returned from BroadPhase.Validate.
var ErrBroadPhaseInconsistent = errors.New("broad-phase inconsistent")

// ============================================================================
// Types
// ============================================================================

// cellKey is the coordinate of a cell of the grid
type cellKey struct {
	X, Y int
}

// cell holds the ids of the proxies overlapping every grid cell hashed to it
type cell struct {
	proxyIDs []int
}

type proxy struct {
	aabb             actor.AABB // fat AABB
	shape            *Shape
	minCell, maxCell cellKey
	oversized        bool
	partners         []int // sorted ids of the paired proxies
	stamp            int
	inUse            bool
}

// Pair is a pair of proxies whose fat AABBs overlap. Contact is nil when the pair
// was filtered out; it stays recorded so it is not offered again on every commit.
type Pair struct {
	ProxyA, ProxyB int // ProxyA < ProxyB
	Contact        *Contact
}

type pairKey struct {
	a, b int
}

// makePairKey creates a normalized pair key with consistent ordering
func makePairKey(a, b int) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a: a, b: b}
}

// PairCallback is told when the fat AABBs of two proxies start or stop overlapping
type PairCallback interface {
	// PairAdded returns the contact of the pair, or nil when the pair is filtered out
	PairAdded(shapeA, shapeB *Shape) *Contact
	PairRemoved(shapeA, shapeB *Shape, contact *Contact)
}

type segmentHit struct {
	shape *Shape
	key   float64
}

// BroadPhase keeps a fat AABB per shape on a uniform hashed grid and maintains the set of
// overlapping pairs. Moves are buffered until Commit.
type BroadPhase struct {
	worldAABB actor.AABB
	extension float64

	cellSize      float64
	cells         []cell
	cellMask      int
	maxProxyCells int

	proxies    []proxy
	freeList   []int
	proxyCount int
	oversized  []int // proxies spanning too many cells, scanned by every query

	pairs      map[pairKey]*Pair
	moveBuffer []int
	callback   PairCallback

	stamp      int
	candidates []int
	hits       []segmentHit
}

// ============================================================================
// Constructor
// ============================================================================

// NewBroadPhase creates a broad-phase covering worldAABB
func NewBroadPhase(worldAABB actor.AABB, settings config.Collision, callback PairCallback) *BroadPhase {
	numCells := nextPowerOfTwo(settings.GridCells)

	cells := make([]cell, numCells)
	for i := range cells {
		cells[i].proxyIDs = make([]int, 0, 8)
	}

	return &BroadPhase{
		worldAABB:     worldAABB,
		extension:     settings.AABBExtension,
		cellSize:      settings.GridCellSize,
		cells:         cells,
		cellMask:      numCells - 1,
		maxProxyCells: settings.MaxProxyCells,
		pairs:         make(map[pairKey]*Pair),
		callback:      callback,
	}
}

// nextPowerOfTwo rounds n up to the next power of two
func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// InRange reports whether aabb lies inside the world bounds
func (bp *BroadPhase) InRange(aabb actor.AABB) bool {
	return bp.worldAABB.Contains(aabb)
}

func (bp *BroadPhase) ProxyCount() int { return bp.proxyCount }

func (bp *BroadPhase) PairCount() int { return len(bp.pairs) }

// GetFatAABB returns the enlarged AABB stored for the proxy
func (bp *BroadPhase) GetFatAABB(id int) actor.AABB { return bp.proxies[id].aabb }

// ============================================================================
// Proxies
// ============================================================================

// CreateProxy registers a shape with its tight AABB. The pairs of the new proxy are
// found by the next Commit.
func (bp *BroadPhase) CreateProxy(aabb actor.AABB, shape *Shape) int {
	assert(bp.InRange(aabb), "proxy created outside of the world bounds")

	var id int
	if n := len(bp.freeList); n > 0 {
		id = bp.freeList[n-1]
		bp.freeList = bp.freeList[:n-1]
	} else {
		id = len(bp.proxies)
		bp.proxies = append(bp.proxies, proxy{})
	}

	p := &bp.proxies[id]
	p.aabb = aabb.Extend(bp.extension)
	p.shape = shape
	p.partners = p.partners[:0]
	p.inUse = true

	bp.insert(id)
	bp.proxyCount++
	bp.moveBuffer = append(bp.moveBuffer, id)

	return id
}

// DestroyProxy removes the proxy and every pair it belongs to
func (bp *BroadPhase) DestroyProxy(id int) {
	p := &bp.proxies[id]
	assert(p.inUse, "proxy destroyed twice")

	for _, other := range p.partners {
		key := makePairKey(id, other)
		pair := bp.pairs[key]
		delete(bp.pairs, key)

		bp.proxies[other].partners = removeSorted(bp.proxies[other].partners, id)
		bp.callback.PairRemoved(bp.proxies[key.a].shape, bp.proxies[key.b].shape, pair.Contact)
	}
	p.partners = p.partners[:0]

	bp.remove(id)
	p.inUse = false
	p.shape = nil

	bp.freeList = append(bp.freeList, id)
	bp.proxyCount--
}

// MoveProxy updates the proxy with a new tight AABB. The fat AABB only moves when
// aabb leaves it; the return value reports whether it did.
func (bp *BroadPhase) MoveProxy(id int, aabb actor.AABB) bool {
	p := &bp.proxies[id]
	if p.aabb.Contains(aabb) {
		return false
	}

	bp.remove(id)
	p.aabb = aabb.Extend(bp.extension)
	bp.insert(id)
	bp.moveBuffer = append(bp.moveBuffer, id)

	return true
}

// Refilter drops every pair of the proxy and offers them again on the next Commit,
// after the filtering rules of its shape changed
func (bp *BroadPhase) Refilter(id int) {
	p := &bp.proxies[id]
	for _, other := range p.partners {
		bp.removePair(makePairKey(id, other), other, id)
	}
	p.partners = p.partners[:0]

	bp.moveBuffer = append(bp.moveBuffer, id)
}

// ============================================================================
// Pairs
// ============================================================================

// Commit finds the pairs created or broken by the buffered moves. Moved proxies are
// processed in id order, so the callbacks fire in a deterministic order.
func (bp *BroadPhase) Commit() {
	slices.Sort(bp.moveBuffer)
	bp.moveBuffer = slices.Compact(bp.moveBuffer)

	for _, id := range bp.moveBuffer {
		if !bp.proxies[id].inUse {
			continue
		}
		bp.updatePairs(id)
	}

	bp.moveBuffer = bp.moveBuffer[:0]
}

func (bp *BroadPhase) updatePairs(id int) {
	p := &bp.proxies[id]

	// ========== BROKEN PAIRS ==========
	kept := p.partners[:0]
	for _, other := range p.partners {
		if p.aabb.Overlaps(bp.proxies[other].aabb) {
			kept = append(kept, other)
			continue
		}
		bp.removePair(makePairKey(id, other), other, id)
	}
	p.partners = kept

	// ========== NEW PAIRS ==========
	bp.candidates = bp.collect(p.aabb, bp.candidates[:0])
	for _, other := range bp.candidates {
		if other == id {
			continue
		}
		key := makePairKey(id, other)
		if _, ok := bp.pairs[key]; ok {
			continue
		}
		bp.addPair(key)
	}
}

func (bp *BroadPhase) addPair(key pairKey) {
	pair := &Pair{ProxyA: key.a, ProxyB: key.b}
	bp.pairs[key] = pair

	bp.proxies[key.a].partners = insertSorted(bp.proxies[key.a].partners, key.b)
	bp.proxies[key.b].partners = insertSorted(bp.proxies[key.b].partners, key.a)

	pair.Contact = bp.callback.PairAdded(bp.proxies[key.a].shape, bp.proxies[key.b].shape)
}

// removePair deletes the pair and removes id from the partners of other. The partners
// of id are left to the caller, which is iterating them.
func (bp *BroadPhase) removePair(key pairKey, other, id int) {
	pair := bp.pairs[key]
	delete(bp.pairs, key)

	bp.proxies[other].partners = removeSorted(bp.proxies[other].partners, id)
	bp.callback.PairRemoved(bp.proxies[key.a].shape, bp.proxies[key.b].shape, pair.Contact)
}

func insertSorted(ids []int, id int) []int {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}

func removeSorted(ids []int, id int) []int {
	i, found := slices.BinarySearch(ids, id)
	if !found {
		return ids
	}
	return slices.Delete(ids, i, i+1)
}

// ============================================================================
// Queries
// ============================================================================

// Query returns at most maxCount shapes whose fat AABB overlaps aabb, in proxy order
func (bp *BroadPhase) Query(aabb actor.AABB, maxCount int) []*Shape {
	bp.candidates = bp.collect(aabb, bp.candidates[:0])

	results := make([]*Shape, 0, min(maxCount, len(bp.candidates)))
	for _, id := range bp.candidates {
		if len(results) == maxCount {
			break
		}
		results = append(results, bp.proxies[id].shape)
	}

	return results
}

// QuerySegment returns at most maxCount shapes whose fat AABB is crossed by the segment,
// sorted by sortKey. Shapes with a negative key are left out. A nil sortKey keeps the
// proxy order.
func (bp *BroadPhase) QuerySegment(segment actor.Segment, sortKey func(*Shape) float64, maxCount int) []*Shape {
	box := actor.AABB{
		Min: actor.MinVec(segment.P1, segment.P2),
		Max: actor.MaxVec(segment.P1, segment.P2),
	}
	bp.candidates = bp.collect(box, bp.candidates[:0])

	bp.hits = bp.hits[:0]
	for _, id := range bp.candidates {
		p := &bp.proxies[id]
		if !p.aabb.TestSegment(segment.P1, segment.P2) {
			continue
		}

		key := 0.0
		if sortKey != nil {
			key = sortKey(p.shape)
		}
		if key < 0 {
			continue
		}
		bp.hits = append(bp.hits, segmentHit{shape: p.shape, key: key})
	}

	slices.SortStableFunc(bp.hits, func(a, b segmentHit) int {
		return cmp.Compare(a.key, b.key)
	})

	results := make([]*Shape, 0, min(maxCount, len(bp.hits)))
	for _, hit := range bp.hits {
		if len(results) == maxCount {
			break
		}
		results = append(results, hit.shape)
	}

	return results
}

// collect appends to out the ids of the proxies whose fat AABB overlaps aabb, sorted
func (bp *BroadPhase) collect(aabb actor.AABB, out []int) []int {
	bp.stamp++

	visit := func(id int) {
		p := &bp.proxies[id]
		if p.stamp == bp.stamp {
			return
		}
		p.stamp = bp.stamp
		if p.aabb.Overlaps(aabb) {
			out = append(out, id)
		}
	}

	// Proxies never leave the world bounds
	clip := actor.AABB{
		Min: actor.MaxVec(aabb.Min, bp.worldAABB.Min),
		Max: actor.MinVec(aabb.Max, bp.worldAABB.Max),
	}
	if !(clip.Min.X() <= clip.Max.X() && clip.Min.Y() <= clip.Max.Y()) {
		return out
	}

	if bp.cellSpan(clip) > float64(len(bp.cells)) {
		// Walking the grid would visit every bucket several times
		for id := range bp.proxies {
			if bp.proxies[id].inUse {
				visit(id)
			}
		}
	} else {
		minCell := bp.worldToCell(clip.Min)
		maxCell := bp.worldToCell(clip.Max)
		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for _, id := range bp.cells[bp.hashCell(cellKey{x, y})].proxyIDs {
					visit(id)
				}
			}
		}
		for _, id := range bp.oversized {
			visit(id)
		}
	}

	slices.Sort(out)
	return out
}

// ============================================================================
// Grid
// ============================================================================

// insert adds the proxy to every cell its fat AABB occupies
func (bp *BroadPhase) insert(id int) {
	p := &bp.proxies[id]
	p.minCell = bp.worldToCell(p.aabb.Min)
	p.maxCell = bp.worldToCell(p.aabb.Max)

	p.oversized = bp.cellSpan(p.aabb) > float64(bp.maxProxyCells)
	if p.oversized {
		bp.oversized = append(bp.oversized, id)
		return
	}

	for x := p.minCell.X; x <= p.maxCell.X; x++ {
		for y := p.minCell.Y; y <= p.maxCell.Y; y++ {
			c := &bp.cells[bp.hashCell(cellKey{x, y})]
			c.proxyIDs = append(c.proxyIDs, id)
		}
	}
}

// remove undoes insert, using the cell range stored in the proxy
func (bp *BroadPhase) remove(id int) {
	p := &bp.proxies[id]
	if p.oversized {
		if i := slices.Index(bp.oversized, id); i >= 0 {
			bp.oversized = slices.Delete(bp.oversized, i, i+1)
		}
		return
	}

	for x := p.minCell.X; x <= p.maxCell.X; x++ {
		for y := p.minCell.Y; y <= p.maxCell.Y; y++ {
			c := &bp.cells[bp.hashCell(cellKey{x, y})]
			if i := slices.Index(c.proxyIDs, id); i >= 0 {
				last := len(c.proxyIDs) - 1
				c.proxyIDs[i] = c.proxyIDs[last]
				c.proxyIDs = c.proxyIDs[:last]
			}
		}
	}
}

// worldToCell converts a world position to cell coordinates
func (bp *BroadPhase) worldToCell(pos mgl64.Vec2) cellKey {
	return cellKey{
		X: int(math.Floor(pos.X() / bp.cellSize)),
		Y: int(math.Floor(pos.Y() / bp.cellSize)),
	}
}

// cellSpan returns the number of cells covered by aabb, counted in floating point
func (bp *BroadPhase) cellSpan(aabb actor.AABB) float64 {
	nx := math.Floor(aabb.Max.X()/bp.cellSize) - math.Floor(aabb.Min.X()/bp.cellSize) + 1
	ny := math.Floor(aabb.Max.Y()/bp.cellSize) - math.Floor(aabb.Min.Y()/bp.cellSize) + 1
	return nx * ny
}

// hashCell maps a cell to an index in the array
func (bp *BroadPhase) hashCell(key cellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663)
	return h & bp.cellMask
}

// ============================================================================
// Validation
// ============================================================================

// Validate checks the pair set against a brute force overlap test, and the grid and
// partner lists against the proxies. It is meant for tests.
func (bp *BroadPhase) Validate() error {
	if len(bp.moveBuffer) > 0 {
		return fmt.Errorf("%w: %d moves are not committed", ErrBroadPhaseInconsistent, len(bp.moveBuffer))
	}

	count := 0
	partnerEntries := 0
	for i := range bp.proxies {
		p := &bp.proxies[i]
		if !p.inUse {
			continue
		}
		count++
		partnerEntries += len(p.partners)

		for j := i + 1; j < len(bp.proxies); j++ {
			q := &bp.proxies[j]
			if !q.inUse {
				continue
			}
			overlap := p.aabb.Overlaps(q.aabb)
			_, paired := bp.pairs[pairKey{a: i, b: j}]
			if overlap != paired {
				return fmt.Errorf("%w: proxies %d and %d overlap=%v paired=%v", ErrBroadPhaseInconsistent, i, j, overlap, paired)
			}
		}

		if !slices.IsSorted(p.partners) {
			return fmt.Errorf("%w: partners of proxy %d are not sorted", ErrBroadPhaseInconsistent, i)
		}
		for _, other := range p.partners {
			if _, found := slices.BinarySearch(bp.proxies[other].partners, i); !found {
				return fmt.Errorf("%w: proxy %d is missing from the partners of %d", ErrBroadPhaseInconsistent, i, other)
			}
		}

		if p.oversized {
			if !slices.Contains(bp.oversized, i) {
				return fmt.Errorf("%w: oversized proxy %d is not listed", ErrBroadPhaseInconsistent, i)
			}
			continue
		}
		for x := p.minCell.X; x <= p.maxCell.X; x++ {
			for y := p.minCell.Y; y <= p.maxCell.Y; y++ {
				if !slices.Contains(bp.cells[bp.hashCell(cellKey{x, y})].proxyIDs, i) {
					return fmt.Errorf("%w: proxy %d is missing from cell (%d, %d)", ErrBroadPhaseInconsistent, i, x, y)
				}
			}
		}
	}

	if count != bp.proxyCount {
		return fmt.Errorf("%w: %d proxies in use, count is %d", ErrBroadPhaseInconsistent, count, bp.proxyCount)
	}
	if partnerEntries != 2*len(bp.pairs) {
		return fmt.Errorf("%w: %d partner entries for %d pairs", ErrBroadPhaseInconsistent, partnerEntries, len(bp.pairs))
	}

	return nil
}
