package brush

import (
	"fmt"
	"sync"

	"github.com/taigrr/daub/pkg/pixel"
	"github.com/taigrr/daub/pkg/undo"
)

// Layer is a paintable bitmap with its own undo history. Painting and
// undo on one layer are serialized by its lock.
type Layer struct {
	Name    string
	Bitmap  *pixel.Bitmap
	History *undo.History

	mu sync.Mutex
}

// NewLayer creates a transparent layer.
func NewLayer(name string, width, height int, f pixel.Format) (*Layer, error) {
	bmp, err := pixel.NewBitmap(width, height, f)
	if err != nil {
		return nil, fmt.Errorf("new layer %q: %w", name, err)
	}
	return &Layer{Name: name, Bitmap: bmp, History: &undo.History{}}, nil
}

// Undo reverts the layer's last stroke.
func (l *Layer) Undo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.History.Undo(l.Bitmap)
}

// Redo reapplies the layer's last undone stroke.
func (l *Layer) Redo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.History.Redo(l.Bitmap)
}
