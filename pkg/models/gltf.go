package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/daub/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Normalize fits the mesh into a 2-unit cube at the origin.
	Normalize bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{Normalize: true}
}

// LoadGLB loads a binary GLTF (.glb) file.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh, err := l.Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", filepath.Base(path), err)
	}
	mesh.Name = filepath.Base(path)
	return mesh, nil
}

// Decode converts every triangle primitive in doc into one polygon per
// triangle. UVs keep the glTF convention of V=0 at the top, which matches
// bitmap rows.
func (l *GLTFLoader) Decode(doc *gltf.Document) (*Mesh, error) {
	mesh := NewMesh("")

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}
	if len(mesh.Polygons) == 0 {
		return nil, ErrNoGeometry
	}

	if l.Normalize {
		mesh.Normalize()
	} else {
		mesh.CalculateBounds()
	}
	return mesh, nil
}

// processMesh extracts polygons from a GLTF mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}
		uvAt := func(i int) math3d.Vec2 {
			if i < len(uvs) {
				return uvs[i]
			}
			return math3d.Vec2{}
		}

		base := len(mesh.Points)
		mesh.Points = append(mesh.Points, positions...)

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := indices[i], indices[i+1], indices[i+2]
			if max(a, b, c) >= len(positions) {
				return fmt.Errorf("index %d out of range (%d vertices)", max(a, b, c), len(positions))
			}
			mesh.Polygons = append(mesh.Polygons,
				Tri(base+a, base+b, base+c, uvAt(a), uvAt(b), uvAt(c)))
		}
	}

	return nil
}

// readVec3Accessor reads Vec3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	floats, err := readFloats(doc, accessorIdx, gltf.AccessorVec3, 3)
	if err != nil {
		return nil, err
	}
	result := make([]math3d.Vec3, len(floats)/3)
	for i := range result {
		f := floats[i*3:]
		result[i] = math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
	}
	return result, nil
}

// readVec2Accessor reads Vec2 data from a GLTF accessor.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	floats, err := readFloats(doc, accessorIdx, gltf.AccessorVec2, 2)
	if err != nil {
		return nil, err
	}
	result := make([]math3d.Vec2, len(floats)/2)
	for i := range result {
		result[i] = math3d.V2(float64(floats[i*2]), float64(floats[i*2+1]))
	}
	return result, nil
}

// accessorBytes resolves an accessor to its buffer data, start offset and
// element stride.
func accessorBytes(doc *gltf.Document, accessorIdx int, elemSize int) (*gltf.Accessor, []byte, int, int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) || doc.Accessors[accessorIdx] == nil {
		return nil, nil, 0, 0, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.BufferView == nil {
		return nil, nil, 0, 0, fmt.Errorf("accessor has no buffer view")
	}

	bufferView, buffer, err := bufferViewAt(doc, *accessor.BufferView)
	if err != nil {
		return nil, nil, 0, 0, err
	}
	if buffer.URI != "" && buffer.Data == nil {
		return nil, nil, 0, 0, fmt.Errorf("external buffer %q not loaded", buffer.URI)
	}
	if buffer.Data == nil {
		return nil, nil, 0, 0, fmt.Errorf("buffer has no data")
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if accessor.Count > 0 && start+(accessor.Count-1)*stride+elemSize > len(buffer.Data) {
		return nil, nil, 0, 0, fmt.Errorf("accessor %d overruns buffer", accessorIdx)
	}
	return accessor, buffer.Data, start, stride, nil
}

// readFloats reads a float accessor of the given type into a flat slice.
func readFloats(doc *gltf.Document, accessorIdx int, typ gltf.AccessorType, n int) ([]float32, error) {
	accessor, data, start, stride, err := accessorBytes(doc, accessorIdx, n*4)
	if err != nil {
		return nil, err
	}
	if accessor.Type != typ {
		return nil, fmt.Errorf("expected %v, got %v", typ, accessor.Type)
	}
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("unsupported component type %v", accessor.ComponentType)
	}

	out := make([]float32, 0, accessor.Count*n)
	for i := range accessor.Count {
		offset := start + i*stride
		for j := range n {
			out = append(out, readFloat32(data[offset+j*4:]))
		}
	}
	return out, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) || doc.Accessors[accessorIdx] == nil {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}

	var size int
	switch doc.Accessors[accessorIdx].ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", doc.Accessors[accessorIdx].ComponentType)
	}

	accessor, data, start, stride, err := accessorBytes(doc, accessorIdx, size)
	if err != nil {
		return nil, err
	}
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	result := make([]int, accessor.Count)
	for i := range accessor.Count {
		b := data[start+i*stride:]
		switch size {
		case 1:
			result[i] = int(b[0])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(b))
		case 4:
			result[i] = int(binary.LittleEndian.Uint32(b))
		}
	}
	return result, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

// bufferViewAt returns buffer view i and the buffer it points into.
func bufferViewAt(doc *gltf.Document, i int) (*gltf.BufferView, *gltf.Buffer, error) {
	if i < 0 || i >= len(doc.BufferViews) || doc.BufferViews[i] == nil {
		return nil, nil, fmt.Errorf("buffer view %d out of range", i)
	}
	bv := doc.BufferViews[i]
	if bv.Buffer < 0 || bv.Buffer >= len(doc.Buffers) || doc.Buffers[bv.Buffer] == nil {
		return nil, nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	return bv, doc.Buffers[bv.Buffer], nil
}

// LoadBaseTexture returns the first decodable image in a GLTF file, either
// embedded or next to the file, or nil when there is none. The daub CLI
// seeds its paint layer with it.
func LoadBaseTexture(path string) (image.Image, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	return baseImage(doc, filepath.Dir(path)), nil
}

// baseImage decodes the first usable image of doc. External images are
// resolved against dir; broken references are skipped.
func baseImage(doc *gltf.Document, dir string) image.Image {
	for _, img := range doc.Images {
		if img == nil {
			continue
		}
		var data []byte
		switch {
		case img.BufferView != nil:
			bv, buf, err := bufferViewAt(doc, *img.BufferView)
			if err != nil || buf.Data == nil || bv.ByteOffset < 0 || bv.ByteOffset+bv.ByteLength > len(buf.Data) {
				continue
			}
			data = buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
		case img.URI != "":
			var err error
			if data, err = os.ReadFile(filepath.Join(dir, img.URI)); err != nil {
				continue
			}
		}
		if decoded, _, err := image.Decode(bytes.NewReader(data)); err == nil {
			return decoded
		}
	}
	return nil
}
