package loader

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/emberforge/emberforge/common"
	"github.com/emberforge/emberforge/scheduler"
)

func TestLoadMeshAsyncCachesByPath(t *testing.T) {
	sched := scheduler.New(scheduler.WithWorkerCount(4))
	defer sched.Shutdown()

	var calls atomic.Int32
	fake := func(path string) (*MeshData, error) {
		calls.Add(1)
		return &MeshData{IndexCount: 3, LocalAABB: common.AABB{}}, nil
	}

	l := New(sched, WithMeshDecoder(fake))

	f1 := l.LoadMeshAsync("mesh.gltf")
	f2 := l.LoadMeshAsync("mesh.gltf")

	m1, err := f1.Wait(sched)
	if err != nil {
		t.Fatalf("f1.Wait: %v", err)
	}
	m2, err := f2.Wait(sched)
	if err != nil {
		t.Fatalf("f2.Wait: %v", err)
	}
	if m1 != m2 {
		t.Fatalf("expected both calls to return the same cached MeshData pointer")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("decode calls = %d, want 1", got)
	}
}

func TestLoadImageAsyncCachesByPath(t *testing.T) {
	sched := scheduler.New(scheduler.WithWorkerCount(4))
	defer sched.Shutdown()

	var calls atomic.Int32
	fake := func(path string) (*ImageData, error) {
		calls.Add(1)
		return &ImageData{Width: 4, Height: 4, Pixels: make([]byte, 64)}, nil
	}

	l := New(sched, WithImageDecoder(fake))

	for i := 0; i < 5; i++ {
		l.LoadImageAsync("tex.png")
	}
	f := l.LoadImageAsync("tex.png")
	if _, err := f.Wait(sched); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("decode calls = %d, want 1", got)
	}
}

func TestLoadMeshAsyncPropagatesDecodeError(t *testing.T) {
	sched := scheduler.New(scheduler.WithWorkerCount(2))
	defer sched.Shutdown()

	wantErr := errors.New("malformed mesh")
	fake := func(path string) (*MeshData, error) {
		return nil, wantErr
	}

	l := New(sched, WithMeshDecoder(fake))
	f := l.LoadMeshAsync("broken.gltf")
	_, err := f.Wait(sched)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestForgetEvictsCacheEntry(t *testing.T) {
	sched := scheduler.New(scheduler.WithWorkerCount(2))
	defer sched.Shutdown()

	var calls atomic.Int32
	fake := func(path string) (*MeshData, error) {
		calls.Add(1)
		return &MeshData{}, nil
	}

	l := New(sched, WithMeshDecoder(fake))
	f1 := l.LoadMeshAsync("a.gltf")
	if _, err := f1.Wait(sched); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	l.Forget("a.gltf")
	f2 := l.LoadMeshAsync("a.gltf")
	if _, err := f2.Wait(sched); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if f1 == f2 {
		t.Fatalf("expected Forget to evict the cached future")
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("decode calls = %d, want 2", got)
	}
}

func TestFutureWaitInFromFiber(t *testing.T) {
	sched := scheduler.New(scheduler.WithWorkerCount(4))
	defer sched.Shutdown()

	fake := func(path string) (*MeshData, error) {
		return &MeshData{IndexCount: 6}, nil
	}
	l := New(sched, WithMeshDecoder(fake))

	done := scheduler.NewCounter(1)
	var result *MeshData
	var resultErr error
	sched.Spawn("", func(ctx *scheduler.TaskContext) {
		f := l.LoadMeshAsync("inner.gltf")
		result, resultErr = f.WaitIn(ctx)
	}, done)
	sched.Wait(done, nil)

	if resultErr != nil {
		t.Fatalf("WaitIn: %v", resultErr)
	}
	if result == nil || result.IndexCount != 6 {
		t.Fatalf("result = %+v, want IndexCount 6", result)
	}
}

func TestFutureDoneReflectsCompletion(t *testing.T) {
	sched := scheduler.New(scheduler.WithWorkerCount(2))
	defer sched.Shutdown()

	fake := func(path string) (*MeshData, error) {
		return &MeshData{}, nil
	}
	l := New(sched, WithMeshDecoder(fake))
	f := l.LoadMeshAsync("done-check.gltf")
	if _, err := f.Wait(sched); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !f.Done() {
		t.Fatalf("expected Done() == true after Wait returns")
	}
}
