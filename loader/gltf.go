package loader

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/emberforge/emberforge/common"
)

// Trimmed glTF 2.0 JSON structures: only the fields DecodeGLTFMesh needs
// to resolve a document's first mesh primitive into position/normal/uv
// vertex data and an index buffer. Skeleton, animation, material, and
// node-hierarchy fields the teacher's gltf_types.go models are dropped —
// this package decodes static mesh geometry only, per SPEC_FULL.md's
// animation Non-goals. GLB binary container support is dropped too: only
// .gltf + external/data-URI buffers are accepted.
type gltfDocument struct {
	Buffers     []gltfBuffer     `json:"buffers"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Accessors   []gltfAccessor   `json:"accessors"`
	Meshes      []gltfMesh       `json:"meshes"`
}

type gltfBuffer struct {
	URI        string `json:"uri"`
	ByteLength int    `json:"byteLength"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
}

type gltfAccessor struct {
	BufferView    int    `json:"bufferView"`
	ByteOffset    int    `json:"byteOffset"`
	ComponentType int    `json:"componentType"`
	Count         int    `json:"count"`
	Type          string `json:"type"`
}

type gltfMesh struct {
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    *int           `json:"indices"`
}

// glTF accessor component type codes (glTF 2.0 spec §5.18).
const (
	componentTypeUnsignedByte  = 5121
	componentTypeUnsignedShort = 5123
	componentTypeUnsignedInt   = 5125
	componentTypeFloat         = 5126
)

// DecodeGLTFMesh parses a .gltf JSON document at path and decodes its
// first mesh's first primitive into interleaved position/normal/uv vertex
// data plus an index buffer. Grounded on the teacher's gltfParser and
// gltfMeshExtractor (engine/loader/gltf_parser.go,
// engine/loader/gltf_mesh_extractor.go): the same buffer-resolution and
// typed-accessor-read approach, condensed to the one attribute set a
// static render mesh needs.
func DecodeGLTFMesh(path string) (*MeshData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read gltf %q: %w", path, err)
	}
	var doc gltfDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("loader: parse gltf %q: %w", path, err)
	}
	if len(doc.Meshes) == 0 || len(doc.Meshes[0].Primitives) == 0 {
		return nil, fmt.Errorf("loader: gltf %q has no mesh primitives", path)
	}
	prim := doc.Meshes[0].Primitives[0]

	buffers := make([][]byte, len(doc.Buffers))
	baseDir := filepath.Dir(path)
	for i, buf := range doc.Buffers {
		data, err := loadGLTFBuffer(baseDir, buf)
		if err != nil {
			return nil, fmt.Errorf("loader: gltf %q buffer %d: %w", path, i, err)
		}
		buffers[i] = data
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("loader: gltf %q primitive missing POSITION attribute", path)
	}
	positions, err := readVec3Accessor(doc, buffers, posIdx)
	if err != nil {
		return nil, fmt.Errorf("loader: gltf %q POSITION: %w", path, err)
	}

	var normals [][3]float32
	if normIdx, ok := prim.Attributes["NORMAL"]; ok {
		normals, err = readVec3Accessor(doc, buffers, normIdx)
		if err != nil {
			return nil, fmt.Errorf("loader: gltf %q NORMAL: %w", path, err)
		}
	} else {
		normals = make([][3]float32, len(positions))
	}

	var uvs [][2]float32
	if uvIdx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err = readVec2Accessor(doc, buffers, uvIdx)
		if err != nil {
			return nil, fmt.Errorf("loader: gltf %q TEXCOORD_0: %w", path, err)
		}
	} else {
		uvs = make([][2]float32, len(positions))
	}

	vertexCount := len(positions)
	vertices := make([]byte, vertexCount*32)
	aabb := common.AABB{
		Min: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
	for i := 0; i < vertexCount; i++ {
		off := i * 32
		putFloat32(vertices[off+0:], positions[i][0])
		putFloat32(vertices[off+4:], positions[i][1])
		putFloat32(vertices[off+8:], positions[i][2])
		putFloat32(vertices[off+12:], normals[i][0])
		putFloat32(vertices[off+16:], normals[i][1])
		putFloat32(vertices[off+20:], normals[i][2])
		putFloat32(vertices[off+24:], uvs[i][0])
		putFloat32(vertices[off+28:], uvs[i][1])

		for axis := 0; axis < 3; axis++ {
			if positions[i][axis] < aabb.Min[axis] {
				aabb.Min[axis] = positions[i][axis]
			}
			if positions[i][axis] > aabb.Max[axis] {
				aabb.Max[axis] = positions[i][axis]
			}
		}
	}

	var indexBytes []byte
	indexCount := 0
	if prim.Indices != nil {
		idx, err := readIndexAccessor(doc, buffers, *prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("loader: gltf %q indices: %w", path, err)
		}
		indexCount = len(idx)
		indexBytes = make([]byte, indexCount*4)
		for i, v := range idx {
			binary.LittleEndian.PutUint32(indexBytes[i*4:], v)
		}
	}

	return &MeshData{
		Vertices:   vertices,
		Indices:    indexBytes,
		IndexCount: indexCount,
		LocalAABB:  aabb,
	}, nil
}

func loadGLTFBuffer(baseDir string, buf gltfBuffer) ([]byte, error) {
	if strings.HasPrefix(buf.URI, "data:") {
		comma := strings.IndexByte(buf.URI, ',')
		if comma < 0 {
			return nil, fmt.Errorf("malformed data URI")
		}
		return base64.StdEncoding.DecodeString(buf.URI[comma+1:])
	}
	return os.ReadFile(filepath.Join(baseDir, buf.URI))
}

func accessorBytes(doc gltfDocument, buffers [][]byte, accessorIndex int) (gltfAccessor, []byte, error) {
	if accessorIndex < 0 || accessorIndex >= len(doc.Accessors) {
		return gltfAccessor{}, nil, fmt.Errorf("accessor index %d out of range", accessorIndex)
	}
	acc := doc.Accessors[accessorIndex]
	if acc.BufferView < 0 || acc.BufferView >= len(doc.BufferViews) {
		return acc, nil, fmt.Errorf("bufferView index %d out of range", acc.BufferView)
	}
	view := doc.BufferViews[acc.BufferView]
	if view.Buffer < 0 || view.Buffer >= len(buffers) {
		return acc, nil, fmt.Errorf("buffer index %d out of range", view.Buffer)
	}
	start := view.ByteOffset + acc.ByteOffset
	end := start + view.ByteLength
	if end > len(buffers[view.Buffer]) {
		return acc, nil, fmt.Errorf("buffer view exceeds buffer length")
	}
	return acc, buffers[view.Buffer][start:], nil
}

func readVec3Accessor(doc gltfDocument, buffers [][]byte, accessorIndex int) ([][3]float32, error) {
	acc, data, err := accessorBytes(doc, buffers, accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != componentTypeFloat || acc.Type != "VEC3" {
		return nil, fmt.Errorf("unsupported accessor shape (componentType=%d type=%s)", acc.ComponentType, acc.Type)
	}
	out := make([][3]float32, acc.Count)
	for i := 0; i < acc.Count; i++ {
		off := i * 12
		out[i] = [3]float32{
			getFloat32(data[off:]),
			getFloat32(data[off+4:]),
			getFloat32(data[off+8:]),
		}
	}
	return out, nil
}

func readVec2Accessor(doc gltfDocument, buffers [][]byte, accessorIndex int) ([][2]float32, error) {
	acc, data, err := accessorBytes(doc, buffers, accessorIndex)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != componentTypeFloat || acc.Type != "VEC2" {
		return nil, fmt.Errorf("unsupported accessor shape (componentType=%d type=%s)", acc.ComponentType, acc.Type)
	}
	out := make([][2]float32, acc.Count)
	for i := 0; i < acc.Count; i++ {
		off := i * 8
		out[i] = [2]float32{getFloat32(data[off:]), getFloat32(data[off+4:])}
	}
	return out, nil
}

func readIndexAccessor(doc gltfDocument, buffers [][]byte, accessorIndex int) ([]uint32, error) {
	acc, data, err := accessorBytes(doc, buffers, accessorIndex)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, acc.Count)
	switch acc.ComponentType {
	case componentTypeUnsignedByte:
		for i := 0; i < acc.Count; i++ {
			out[i] = uint32(data[i])
		}
	case componentTypeUnsignedShort:
		for i := 0; i < acc.Count; i++ {
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case componentTypeUnsignedInt:
		for i := 0; i < acc.Count; i++ {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	default:
		return nil, fmt.Errorf("unsupported index componentType %d", acc.ComponentType)
	}
	return out, nil
}

func getFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}
