package rendergraph

import (
	"fmt"

	"github.com/emberforge/emberforge/rhi"
)

// ExecuteContext is handed to every pass's ExecuteFunc. It resolves a
// ResourceHandle to the physical GPU resource the graph allocated for
// this frame and gives the pass access to the backend for recording
// commands.
type ExecuteContext struct {
	Backend rhi.Backend
	Token   rhi.FrameToken

	graph    *Graph
	physical map[int]rhi.TextureHandle
}

// Texture resolves h to its physical texture handle for this execution.
func (ctx *ExecuteContext) Texture(h ResourceHandle) rhi.TextureHandle {
	v := ctx.graph.versions[h.version]
	if v.imported {
		return v.importedHandle
	}
	return ctx.physical[v.base]
}

// Execute runs every pass in the order Compile derived, acquiring each
// transient resource from the backend's pool just before its first use,
// inserting the barriers Compile computed immediately before each pass,
// and releasing transient resources back to the pool immediately after
// their last use. Compile must have been called first.
func (g *Graph) Execute(backend rhi.Backend, tok rhi.FrameToken) error {
	if !g.compiled {
		return fmt.Errorf("rendergraph: Execute called before Compile")
	}

	pool := backend.ResourcePool()
	physical := map[int]rhi.TextureHandle{}

	for pos, p := range g.order {
		for base, lt := range g.lifetime {
			if lt.firstOrderPos != pos {
				continue
			}
			v := g.versions[base]
			h, err := pool.Acquire(backend, v.desc)
			if err != nil {
				return fmt.Errorf("rendergraph: acquiring resource %q: %w", v.name, err)
			}
			physical[base] = h
		}

		if pending := g.barriersFor[p]; len(pending) > 0 {
			barriers := make([]rhi.Barrier, len(pending))
			for i, pb := range pending {
				tex := physical[pb.base]
				if v := g.versions[pb.base]; v.imported {
					tex = v.importedHandle
				}
				barriers[i] = rhi.Barrier{
					Texture: tex,
					Before:  pb.before,
					After:   pb.after,
				}
			}
			backend.ResourceBarrier(tok, barriers)
		}

		pass := g.passes[p]
		backend.CmdBeginDebugLabel(tok, pass.name)
		pass.execute(&ExecuteContext{Backend: backend, Token: tok, graph: g, physical: physical})
		backend.CmdEndDebugLabel(tok)

		for base, lt := range g.lifetime {
			if lt.lastOrderPos != pos {
				continue
			}
			v := g.versions[base]
			pool.Release(v.desc, physical[base])
			delete(physical, base)
		}
	}
	return nil
}
