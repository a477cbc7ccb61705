package rhi

import "sync"

// resourceKey is the hashable shape of a TextureDesc, deliberately
// excluding Name: two passes asking for differently-named textures with
// identical physical requirements should still share a pooled allocation.
type resourceKey struct {
	width, height, depthOrArray, mipLevels uint32
	format                                 TextureFormat
	usage                                  TextureUsage
	sampleCount                            uint32
}

func keyOf(desc TextureDesc) resourceKey {
	return resourceKey{
		width:        desc.Width,
		height:       desc.Height,
		depthOrArray: desc.DepthOrArray,
		mipLevels:    desc.MipLevels,
		format:       desc.Format,
		usage:        desc.Usage,
		sampleCount:  desc.SampleCount,
	}
}

// ResourcePool is a free list of physical textures keyed by their
// description, used to back the render graph's transient resources
// (spec.md §6's "transient resources are pooled, not allocated fresh per
// frame" requirement). A texture released one pass is immediately
// eligible for reuse by any later pass requesting the same shape, even
// within the same frame.
type ResourcePool struct {
	mu   sync.Mutex
	free map[resourceKey][]TextureHandle
}

// NewResourcePool returns an empty pool.
func NewResourcePool() *ResourcePool {
	return &ResourcePool{free: make(map[resourceKey][]TextureHandle)}
}

// Acquire returns a pooled texture matching desc's shape, or creates a new
// one via backend.CreateTexture on a pool miss.
func (p *ResourcePool) Acquire(backend Backend, desc TextureDesc) (TextureHandle, error) {
	key := keyOf(desc)
	p.mu.Lock()
	if handles := p.free[key]; len(handles) > 0 {
		h := handles[len(handles)-1]
		p.free[key] = handles[:len(handles)-1]
		p.mu.Unlock()
		return h, nil
	}
	p.mu.Unlock()
	return backend.CreateTexture(desc)
}

// Release returns h to the free list for future Acquire calls matching
// desc's shape. Never destroys the underlying GPU resource.
func (p *ResourcePool) Release(desc TextureDesc, h TextureHandle) {
	key := keyOf(desc)
	p.mu.Lock()
	p.free[key] = append(p.free[key], h)
	p.mu.Unlock()
}

// Purge destroys every pooled texture via backend.DestroyTexture and
// empties the pool. Nothing in this module calls it automatically; the
// orchestrator's Shutdown and the backend's Resize leave the pool as is.
func (p *ResourcePool) Purge(backend Backend) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, handles := range p.free {
		for _, h := range handles {
			backend.DestroyTexture(h)
		}
	}
	p.free = make(map[resourceKey][]TextureHandle)
}
