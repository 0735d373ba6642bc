package grid

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Board is a sparse map of occupied cells. It keeps insertion order because the
// win scan walks cells in the order they were placed.
//
// Apply returns a new Board and never touches the receiver. Push and Pop mutate in
// place; they exist for search code working on a private Clone.
type Board struct {
	cells   map[uint64]Cell
	order   []Coord
	columns map[int]int
	blocks  [3]int
	hash    uint64
}

func NewBoard() Board {
	return Board{
		cells:   make(map[uint64]Cell),
		columns: make(map[int]int),
	}
}

// Rebuild replays the history in order into a fresh board.
func Rebuild(history []Block) Board {
	board := NewBoard()
	for _, block := range history {
		board.Push(block)
	}

	return board
}

func packKey(x, y int) uint64 {
	return uint64(uint32(int32(x)))<<32 | uint64(uint32(int32(y)))
}

func cellHash(x, y int, owner Owner) uint64 {
	var buf [9]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(int32(x)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(int32(y)))
	buf[8] = byte(owner)

	return xxhash.Sum64(buf[:])
}

func (that Board) At(x, y int) (Cell, bool) {
	cell, ok := that.cells[packKey(x, y)]
	return cell, ok
}

func (that Board) Occupied(x, y int) bool {
	_, ok := that.cells[packKey(x, y)]
	return ok
}

// OwnedBy reports whether (x, y) holds a cell of the given owner.
func (that Board) OwnedBy(x, y int, owner Owner) bool {
	cell, ok := that.cells[packKey(x, y)]
	return ok && cell.Owner == owner
}

func (that Board) IsEmpty() bool {
	return len(that.cells) == 0
}

// Len is the number of occupied cells.
func (that Board) Len() int {
	return len(that.cells)
}

// Height counts contiguously occupied cells in column x starting from the ground.
func (that Board) Height(x int) int {
	height := 0
	for that.Occupied(x, height) {
		height++
	}

	return height
}

// Bounds returns the occupied column range, {0, 0} for an empty board.
func (that Board) Bounds() Bounds {
	if len(that.columns) == 0 {
		return Bounds{}
	}

	first := true
	bounds := Bounds{}
	for x := range that.columns {
		if first {
			bounds = Bounds{MinX: x, MaxX: x}
			first = false
			continue
		}
		bounds.MinX = min(bounds.MinX, x)
		bounds.MaxX = max(bounds.MaxX, x)
	}

	return bounds
}

// BlockCount is the number of blocks the owner has on the board.
func (that Board) BlockCount(owner Owner) int {
	if owner > Black {
		return 0
	}
	return that.blocks[owner]
}

// Fingerprint is an order-independent hash of cell positions and owners.
// Two boards with the same owned cells share a fingerprint regardless of history order.
func (that Board) Fingerprint() uint64 {
	return that.hash
}

// Each walks cells in insertion order until fn returns false.
func (that Board) Each(fn func(Coord, Cell) bool) {
	for _, coord := range that.order {
		if !fn(coord, that.cells[packKey(coord.X, coord.Y)]) {
			return
		}
	}
}

// Coords returns occupied coordinates in insertion order.
func (that Board) Coords() []Coord {
	out := make([]Coord, len(that.order))
	copy(out, that.order)

	return out
}

func (that Board) Clone() Board {
	clone := Board{
		cells:   make(map[uint64]Cell, len(that.cells)+2),
		order:   make([]Coord, len(that.order), len(that.order)+2),
		columns: make(map[int]int, len(that.columns)+2),
		blocks:  that.blocks,
		hash:    that.hash,
	}

	for key, cell := range that.cells {
		clone.cells[key] = cell
	}
	copy(clone.order, that.order)
	for x, count := range that.columns {
		clone.columns[x] = count
	}

	return clone
}

// Apply returns a copy of the board with the block placed.
func (that Board) Apply(block Block) Board {
	next := that.Clone()
	next.Push(block)

	return next
}

// Push places the block in place. Callers must only push blocks whose cells are free.
func (that *Board) Push(block Block) {
	if that.cells == nil {
		*that = NewBoard()
	}

	for i, coord := range block.Move().Cells() {
		part := Origin
		if i == 1 {
			part = Extension
		}

		that.cells[packKey(coord.X, coord.Y)] = Cell{
			Owner:       block.Owner,
			Orientation: block.Orientation,
			BlockID:     block.ID,
			Part:        part,
		}
		that.order = append(that.order, coord)
		that.columns[coord.X]++
		that.hash += cellHash(coord.X, coord.Y, block.Owner)
	}

	if block.Owner <= Black {
		that.blocks[block.Owner]++
	}
}

// Pop removes the most recently pushed block and returns it.
func (that *Board) Pop() (Block, bool) {
	if len(that.order) < 2 {
		return Block{}, false
	}

	origin := that.order[len(that.order)-2]
	cell := that.cells[packKey(origin.X, origin.Y)]
	block := Block{
		ID:          cell.BlockID,
		X:           origin.X,
		Y:           origin.Y,
		Orientation: cell.Orientation,
		Owner:       cell.Owner,
	}

	for _, coord := range that.order[len(that.order)-2:] {
		delete(that.cells, packKey(coord.X, coord.Y))
		that.columns[coord.X]--
		if that.columns[coord.X] == 0 {
			delete(that.columns, coord.X)
		}
		that.hash -= cellHash(coord.X, coord.Y, block.Owner)
	}
	that.order = that.order[:len(that.order)-2]

	if block.Owner <= Black {
		that.blocks[block.Owner]--
	}

	return block, true
}

// Equal compares boards cell for cell; insertion order is ignored.
func (that Board) Equal(other Board) bool {
	if len(that.cells) != len(other.cells) {
		return false
	}

	for key, cell := range that.cells {
		if otherCell, ok := other.cells[key]; !ok || otherCell != cell {
			return false
		}
	}

	return true
}
