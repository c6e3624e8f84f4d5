// Package undo records paint strokes as tile snapshots so they can be
// reverted and reapplied.
package undo

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

// TileSize is the edge length of an undo tile in pixels.
const TileSize = 64

var (
	// ErrNoStroke is returned when capturing outside a stroke.
	ErrNoStroke = errors.New("no stroke in progress")
	// ErrStrokeOpen is returned when a stroke begins inside another.
	ErrStrokeOpen = errors.New("stroke already in progress")
)

// Target is a bitmap whose rectangles can be saved and restored.
type Target interface {
	Bounds() image.Rectangle
	CopyRect(r image.Rectangle) ([]byte, image.Rectangle)
	PasteRect(r image.Rectangle, data []byte) error
}

// TileKey is a tile coordinate, in units of TileSize.
type TileKey struct {
	X, Y int
}

// TileAt returns the key of the tile containing pixel (x, y).
func TileAt(x, y int) TileKey {
	return TileKey{floorDiv(x, TileSize), floorDiv(y, TileSize)}
}

// Rect returns the pixel rectangle covered by the tile.
func (k TileKey) Rect() image.Rectangle {
	return image.Rect(k.X*TileSize, k.Y*TileSize, (k.X+1)*TileSize, (k.Y+1)*TileSize)
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

type tile struct {
	key  TileKey
	rect image.Rectangle // Clipped to the target
	pix  []byte
}

// Stroke holds the pre-stroke contents of every tile a stroke touched.
type Stroke struct {
	index map[TileKey]int
	tiles []tile // First-touch order
}

func newStroke() *Stroke {
	return &Stroke{index: make(map[TileKey]int)}
}

// Len returns the number of captured tiles.
func (s *Stroke) Len() int { return len(s.tiles) }

// Keys returns the captured tile keys in first-touch order.
func (s *Stroke) Keys() []TileKey {
	keys := make([]TileKey, len(s.tiles))
	for i, t := range s.tiles {
		keys[i] = t.key
	}
	return keys
}

func (s *Stroke) capture(bmp Target, key TileKey) {
	if _, ok := s.index[key]; ok {
		return
	}
	pix, rect := bmp.CopyRect(key.Rect())
	if rect.Empty() {
		return
	}
	s.index[key] = len(s.tiles)
	s.tiles = append(s.tiles, tile{key: key, rect: rect, pix: pix})
}

// swap exchanges each saved tile with the target's current contents.
func (s *Stroke) swap(bmp Target) error {
	for i := range s.tiles {
		t := &s.tiles[i]
		cur, _ := bmp.CopyRect(t.rect)
		if err := bmp.PasteRect(t.rect, t.pix); err != nil {
			return fmt.Errorf("restore tile %v: %w", t.key, err)
		}
		t.pix = cur
	}
	return nil
}

// History is the undo and redo stack for one bitmap. It is safe for
// concurrent use.
type History struct {
	// Limit caps the number of undoable strokes; zero means no limit.
	Limit int

	mu   sync.Mutex
	open *Stroke
	undo []*Stroke
	redo []*Stroke
}

// Begin opens a new stroke.
func (h *History) Begin() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open != nil {
		return ErrStrokeOpen
	}
	h.open = newStroke()
	return nil
}

// Capture saves the tile containing (x, y) unless the open stroke already
// holds it. Call it before the first change to that tile.
func (h *History) Capture(bmp Target, x, y int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open == nil {
		return ErrNoStroke
	}
	h.open.capture(bmp, TileAt(x, y))
	return nil
}

// CaptureRect saves every tile overlapping r.
func (h *History) CaptureRect(bmp Target, r image.Rectangle) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.open == nil {
		return ErrNoStroke
	}
	r = r.Intersect(bmp.Bounds())
	if r.Empty() {
		return nil
	}
	lo := TileAt(r.Min.X, r.Min.Y)
	hi := TileAt(r.Max.X-1, r.Max.Y-1)
	for ty := lo.Y; ty <= hi.Y; ty++ {
		for tx := lo.X; tx <= hi.X; tx++ {
			h.open.capture(bmp, TileKey{tx, ty})
		}
	}
	return nil
}

// End closes the open stroke. A stroke that captured tiles becomes
// undoable and clears the redo stack. The closed stroke is returned, or
// nil if none was open.
func (h *History) End() *Stroke {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := h.open
	h.open = nil
	if s == nil || s.Len() == 0 {
		return s
	}
	h.undo = append(h.undo, s)
	if h.Limit > 0 && len(h.undo) > h.Limit {
		h.undo = h.undo[len(h.undo)-h.Limit:]
	}
	h.redo = nil
	return s
}

// Undo reverts the most recent stroke. It reports false when there is
// nothing to undo or a stroke is still open.
func (h *History) Undo(bmp Target) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return move(bmp, &h.undo, &h.redo, h.open)
}

// Redo reapplies the most recently undone stroke.
func (h *History) Redo(bmp Target) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return move(bmp, &h.redo, &h.undo, h.open)
}

func move(bmp Target, from, to *[]*Stroke, open *Stroke) bool {
	if open != nil || len(*from) == 0 {
		return false
	}
	s := (*from)[len(*from)-1]
	if err := s.swap(bmp); err != nil {
		return false
	}
	*from = (*from)[:len(*from)-1]
	*to = append(*to, s)
	return true
}

// CanUndo reports whether Undo would succeed.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open == nil && len(h.undo) > 0
}

// CanRedo reports whether Redo would succeed.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.open == nil && len(h.redo) > 0
}

// Clear drops all history, including an open stroke.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.open, h.undo, h.redo = nil, nil, nil
}
