package mesh

import (
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/soypat/glgl/math/ms3"
)

const (
	// VertexStride is the size in bytes of an encoded Vertex: position then normal,
	// each as 3 little-endian float32.
	VertexStride = 24
	// IndexStride is the size in bytes of an encoded little-endian uint32 index.
	IndexStride = 4
)

// AppendVertexBuffer appends the encoded vertex buffer to dst.
func (m *Mesh) AppendVertexBuffer(dst []byte) []byte {
	for _, v := range m.Vertices {
		var b [VertexStride]byte
		v.put(b[:])
		dst = append(dst, b[:]...)
	}
	return dst
}

// AppendIndexBuffer appends the encoded index buffer to dst.
func (m *Mesh) AppendIndexBuffer(dst []byte) []byte {
	for _, idx := range m.Indices {
		dst = binary.LittleEndian.AppendUint32(dst, idx)
	}
	return dst
}

const verticesInBuffer = 1 << 10

// WriteTo writes the vertex buffer followed by the index buffer to w.
// It writes no header: the caller knows the counts from the Mesh.
func (m *Mesh) WriteTo(w io.Writer) (n int64, err error) {
	buf := make([]byte, 0, VertexStride*verticesInBuffer)
	for i := 0; i < len(m.Vertices); i += verticesInBuffer {
		end := min(i+verticesInBuffer, len(m.Vertices))
		chunk := Mesh{Vertices: m.Vertices[i:end]}
		nw, err := w.Write(chunk.AppendVertexBuffer(buf[:0]))
		n += int64(nw)
		if err != nil {
			return n, err
		}
	}
	for i := 0; i < len(m.Indices); i += 6 * verticesInBuffer {
		end := min(i+6*verticesInBuffer, len(m.Indices))
		chunk := Mesh{Indices: m.Indices[i:end]}
		nw, err := w.Write(chunk.AppendIndexBuffer(buf[:0]))
		n += int64(nw)
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// DecodeVertexBuffer decodes a buffer produced by AppendVertexBuffer.
func DecodeVertexBuffer(b []byte) ([]Vertex, error) {
	if len(b)%VertexStride != 0 {
		return nil, errors.New("vertex buffer length not multiple of vertex stride")
	}
	vs := make([]Vertex, len(b)/VertexStride)
	for i := range vs {
		vs[i].get(b[i*VertexStride:])
	}
	return vs, nil
}

// DecodeIndexBuffer decodes a buffer produced by AppendIndexBuffer.
func DecodeIndexBuffer(b []byte) ([]uint32, error) {
	if len(b)%IndexStride != 0 {
		return nil, errors.New("index buffer length not multiple of index stride")
	}
	idx := make([]uint32, len(b)/IndexStride)
	for i := range idx {
		idx[i] = binary.LittleEndian.Uint32(b[i*IndexStride:])
	}
	return idx, nil
}

func (v Vertex) put(b []byte) {
	if len(b) < VertexStride {
		panic("need length 24 to marshal Vertex")
	}
	put3F32(b, v.Position)
	put3F32(b[12:], v.Normal)
}

func (v *Vertex) get(b []byte) {
	if len(b) < VertexStride {
		panic("need length 24 to unmarshal Vertex")
	}
	get3F32(b, &v.Position)
	get3F32(b[12:], &v.Normal)
}

func put3F32(b []byte, f ms3.Vec) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f.X))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f.Y))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f.Z))
}

func get3F32(b []byte, f *ms3.Vec) {
	_ = b[11] // early bounds check
	f.X = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f.Y = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f.Z = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}
