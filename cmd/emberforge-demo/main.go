// Command emberforge-demo wires the scheduler, logic scene, render graph,
// and wgpu backend together into a runnable scene: a grid of static mesh
// instances orbited by one directional light, rendered through a two-pass
// shadow-then-color graph every frame.
//
// Grounded on the teacher's many_cubes example (examples/many_cubes.go):
// same grid-spawn layout and orbiting-camera idea, rebuilt against the
// fiber scheduler, logic scene, and render graph instead of the teacher's
// engine/scene/game_object stack.
package main

import (
	"log"
	"math"

	"github.com/emberforge/emberforge/loader"
	"github.com/emberforge/emberforge/logicscene"
	"github.com/emberforge/emberforge/orchestrator"
	"github.com/emberforge/emberforge/rendergraph"
	"github.com/emberforge/emberforge/rhi"
	"github.com/emberforge/emberforge/rhi/wgpubackend"
	"github.com/emberforge/emberforge/scheduler"
	"github.com/emberforge/emberforge/snapshot"
	"github.com/emberforge/emberforge/window"
)

const (
	gridSide      = 16
	gridSpacing   = 3.0
	shadowMapSize = 2048
)

func main() {
	win := window.New(
		window.WithTitle("emberforge demo"),
		window.WithSize(1280, 720),
	)

	backend, err := wgpubackend.New(win.SurfaceDescriptor(), win.Width(), win.Height(), false)
	if err != nil {
		log.Fatalf("emberforge-demo: creating wgpu backend: %v", err)
	}
	win.SetResizeCallback(func(width, height int) {
		if err := backend.Resize(width, height); err != nil {
			log.Printf("emberforge-demo: resize failed: %v", err)
		}
	})

	sched := scheduler.New(scheduler.WithWorkerCount(8))

	assets := loader.New(sched)

	scene := buildScene(sched, assets)

	orch := orchestrator.New(sched, scene, backend, gridSide*gridSide,
		orchestrator.WithWindow(win),
		orchestrator.WithTickRate(60),
		orchestrator.WithShadowCascades(0.1, 500, 4, orchestrator.DefaultCascadeLambda),
		orchestrator.WithTickCallback(tickOrbitLight(scene)),
		orchestrator.WithGraphBuilder(buildFrameGraph(backend)),
	)
	orch.EnableProfiler()

	log.Println("emberforge-demo: starting")
	// Run's deferred Shutdown drains the in-flight render task, waits the
	// GPU backend idle, closes the window, and shuts the scheduler down —
	// in that order. No further cleanup belongs here.
	orch.Run()
}

// buildScene lays out a gridSide x gridSide grid of cube instances sharing
// one mesh, plus a camera and an initial directional light.
func buildScene(sched *scheduler.TaskScheduler, assets *loader.AsyncLoader) *logicscene.Scene {
	scene := logicscene.New("emberforge-demo")

	cam := logicscene.NewCamera(float32(60.0*math.Pi/180.0), 1280.0/720.0, 0.1, 1000)
	scene.SetCamera(cam)

	light := logicscene.NewDirectionalLight([3]float32{0, -1, 0}, [3]float32{1, 1, 0.95}, 1.0, true)
	scene.SetLight(light)

	meshFuture := assets.LoadMeshAsync("assets/cube.gltf")
	meshData, err := meshFuture.Wait(sched)
	if err != nil {
		log.Fatalf("emberforge-demo: loading cube mesh: %v", err)
	}
	mesh := logicscene.NewMesh(1, meshData.LocalAABB)

	var id uint64
	for row := 0; row < gridSide; row++ {
		for col := 0; col < gridSide; col++ {
			id++
			x := (float32(col) - float32(gridSide-1)/2.0) * gridSpacing
			z := (float32(row) - float32(gridSide-1)/2.0) * gridSpacing
			e := logicscene.NewEntity(id, mesh,
				logicscene.WithInitialTransform(
					[3]float32{x, 0, z},
					[3]float32{0, 0, 0},
					[3]float32{1, 1, 1},
				),
				logicscene.WithStatic(true),
			)
			scene.AddEntity(e)
		}
	}
	return scene
}

// tickOrbitLight returns a TickFunc that slowly rotates the scene's
// directional light around the Y axis, giving the shadow cascades
// something to react to frame over frame.
func tickOrbitLight(scene *logicscene.Scene) orchestrator.TickFunc {
	var elapsed float64
	return func(dt float32) {
		elapsed += float64(dt)
		angle := elapsed * 0.2
		dir := [3]float32{
			float32(math.Cos(angle)) * 0.5,
			-0.8,
			float32(math.Sin(angle)) * 0.5,
		}
		light := logicscene.NewDirectionalLight(dir, [3]float32{1, 1, 0.95}, 1.0, true)
		scene.SetLight(light)
	}
}

// buildFrameGraph returns a GraphBuilderFunc declaring a shadow pass
// (rendering the scene's depth into a per-cascade shadow map) followed by
// a color pass that reads it and writes the swapchain image. Pipeline and
// shader binding is outside rhi.Backend's abstract scope (see rhi's
// package doc), so each pass's ExecuteFunc only records the
// resource-state transitions the graph computed; actual draw submission
// is a concern of a higher layer not modeled here.
func buildFrameGraph(backend rhi.Backend) orchestrator.GraphBuilderFunc {
	return func(g *rendergraph.Graph, snap *snapshot.RenderSceneSnapshot, cascades []orchestrator.CascadeSplit) {
		swapchain := backend.CurrentSwapchainTexture()

		var shadowHandles []rendergraph.ResourceHandle
		for range cascades {
			g.AddPass("shadow_cascade", func(b *rendergraph.Builder) rendergraph.ExecuteFunc {
				h := b.CreateTexture("shadow_cascade", rhi.TextureDesc{
					Name:   "shadow_cascade",
					Width:  shadowMapSize,
					Height: shadowMapSize,
					Format: rhi.FormatDepth32Float,
					Usage:  rhi.UsageDepthStencil | rhi.UsageSampled,
				})
				h = b.Write(h, rhi.StateDepthWrite)
				shadowHandles = append(shadowHandles, h)
				return func(ctx *rendergraph.ExecuteContext) {
					// Depth-only draw submission for this cascade's instances
					// happens one layer up, outside the abstract backend
					// interface modeled here.
					_ = ctx.Texture(h)
				}
			})
		}

		g.AddPass("color", func(b *rendergraph.Builder) rendergraph.ExecuteFunc {
			target := b.ImportTexture("swapchain", swapchain, rhi.TextureDesc{
				Name:   "swapchain",
				Format: rhi.FormatBGRA8UnormSRGB,
				Usage:  rhi.UsageRenderTarget,
			})
			target = b.Write(target, rhi.StateRenderTarget)
			for _, h := range shadowHandles {
				b.Read(h, rhi.StateShaderRead)
			}
			return func(ctx *rendergraph.ExecuteContext) {
				// Lit draw submission against snap's instance list happens
				// one layer up, same as the shadow pass above.
				_ = ctx.Texture(target)
				_ = snap.InstanceCount.Load()
			}
		})

		g.AddPass("present", func(b *rendergraph.Builder) rendergraph.ExecuteFunc {
			return func(ctx *rendergraph.ExecuteContext) {}
		})
	}
}
