package loader

import (
	"sync"

	"github.com/emberforge/emberforge/common"
	"github.com/emberforge/emberforge/scheduler"
)

// MeshData is a decoded mesh's raw vertex/index buffers, ready for
// CreateGPUBuffer/CopyBufferImmediate upload through an rhi.Backend. The
// vertex layout is fixed (position, normal, uv interleaved as float32) —
// skeletal weights and multiple UV sets are out of scope here, matching
// SPEC_FULL.md's Non-goals around skeletal animation.
type MeshData struct {
	// Vertices is tightly packed float32 triples (position, normal) plus
	// a float32 pair (uv) per vertex: 8 float32s = 32 bytes/vertex.
	Vertices  []byte
	Indices   []byte
	IndexCount int
	LocalAABB common.AABB
}

// ImageData is a decoded image's pixel data in tightly packed RGBA8 rows,
// ready for CreateTexture + CopyBufferImmediate upload.
type ImageData struct {
	Width, Height int
	Pixels        []byte
}

// MeshDecodeFunc decodes a mesh file at path into a MeshData. Swappable so
// tests can inject a fake decoder without touching the filesystem.
type MeshDecodeFunc func(path string) (*MeshData, error)

// ImageDecodeFunc decodes an image file at path into an ImageData.
type ImageDecodeFunc func(path string) (*ImageData, error)

// AsyncLoader spawns scheduler fibers to decode mesh and image files off
// the calling thread, caching completed results by path so a second
// request for the same asset returns instantly instead of re-decoding.
// Grounded on the teacher's loader (engine/loader/loader.go)'s model
// cache, re-keyed by file path instead of an explicit cache name and
// backed by scheduler fibers instead of running synchronously on
// whatever goroutine calls Load.
type AsyncLoader struct {
	sched *scheduler.TaskScheduler

	decodeMesh  MeshDecodeFunc
	decodeImage ImageDecodeFunc

	mu         sync.Mutex
	meshCache  map[string]*Future[*MeshData]
	imageCache map[string]*Future[*ImageData]
}

// New constructs an AsyncLoader driven by sched. DecodeGLTFMesh and
// DecodeImageFile are used unless WithMeshDecoder/WithImageDecoder
// replace them.
func New(sched *scheduler.TaskScheduler, opts ...Option) *AsyncLoader {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &AsyncLoader{
		sched:       sched,
		decodeMesh:  cfg.decodeMesh,
		decodeImage: cfg.decodeImage,
		meshCache:   make(map[string]*Future[*MeshData]),
		imageCache:  make(map[string]*Future[*ImageData]),
	}
}

// LoadMeshAsync spawns a fiber decoding the mesh at path (or returns the
// in-flight/cached Future from a prior call for the same path) and
// returns immediately with a Future the caller waits on.
func (l *AsyncLoader) LoadMeshAsync(path string) *Future[*MeshData] {
	l.mu.Lock()
	if f, ok := l.meshCache[path]; ok {
		l.mu.Unlock()
		return f
	}
	f := newFuture[*MeshData]()
	l.meshCache[path] = f
	l.mu.Unlock()

	l.sched.Spawn("loader.mesh", func(ctx *scheduler.TaskContext) {
		f.value, f.err = l.decodeMesh(path)
	}, f.counter)
	return f
}

// LoadImageAsync spawns a fiber decoding the image at path (or returns the
// in-flight/cached Future from a prior call for the same path) and
// returns immediately with a Future the caller waits on.
func (l *AsyncLoader) LoadImageAsync(path string) *Future[*ImageData] {
	l.mu.Lock()
	if f, ok := l.imageCache[path]; ok {
		l.mu.Unlock()
		return f
	}
	f := newFuture[*ImageData]()
	l.imageCache[path] = f
	l.mu.Unlock()

	l.sched.Spawn("loader.image", func(ctx *scheduler.TaskContext) {
		f.value, f.err = l.decodeImage(path)
	}, f.counter)
	return f
}

// Forget evicts path from both the mesh and image caches so a subsequent
// Load*Async call decodes it again rather than returning a stale result.
func (l *AsyncLoader) Forget(path string) {
	l.mu.Lock()
	delete(l.meshCache, path)
	delete(l.imageCache, path)
	l.mu.Unlock()
}
