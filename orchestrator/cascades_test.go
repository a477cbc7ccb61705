package orchestrator

import (
	"math"
	"testing"
)

func TestComputeCascadeSplitsCoversFullRangeContiguously(t *testing.T) {
	splits := ComputeCascadeSplits(0.1, 100, 4, DefaultCascadeLambda)
	if len(splits) != 4 {
		t.Fatalf("len(splits) = %d, want 4", len(splits))
	}
	if splits[0].Near != 0.1 {
		t.Fatalf("first split near = %v, want 0.1", splits[0].Near)
	}
	const epsilon = 1e-3
	if math.Abs(float64(splits[len(splits)-1].Far-100)) > epsilon {
		t.Fatalf("last split far = %v, want ~100", splits[len(splits)-1].Far)
	}
	for i := 1; i < len(splits); i++ {
		if splits[i].Near != splits[i-1].Far {
			t.Fatalf("split %d near (%v) != split %d far (%v), splits must be contiguous",
				i, splits[i].Near, i-1, splits[i-1].Far)
		}
		if splits[i].Far <= splits[i].Near {
			t.Fatalf("split %d is non-increasing: near=%v far=%v", i, splits[i].Near, splits[i].Far)
		}
	}
}

func TestComputeCascadeSplitsLambdaExtremesMatchFormulas(t *testing.T) {
	near, far := float32(1.0), float32(1000.0)

	logSplits := ComputeCascadeSplits(near, far, 3, 1.0)
	p := float32(1) / 3
	wantLog := near * float32(math.Pow(float64(far/near), float64(p)))
	if math.Abs(float64(logSplits[0].Far-wantLog)) > 1e-2 {
		t.Fatalf("lambda=1 split[0].Far = %v, want logarithmic %v", logSplits[0].Far, wantLog)
	}

	uniformSplits := ComputeCascadeSplits(near, far, 3, 0.0)
	wantUniform := near + (far-near)*p
	if math.Abs(float64(uniformSplits[0].Far-wantUniform)) > 1e-2 {
		t.Fatalf("lambda=0 split[0].Far = %v, want uniform %v", uniformSplits[0].Far, wantUniform)
	}
}

func TestComputeCascadeSplitsZeroCountReturnsNil(t *testing.T) {
	if got := ComputeCascadeSplits(0.1, 100, 0, 0.5); got != nil {
		t.Fatalf("ComputeCascadeSplits with 0 cascades = %v, want nil", got)
	}
}

func TestSnapTexelSizeRoundsUpToWholeTexels(t *testing.T) {
	got := SnapTexelSize(10.0, 1024)
	texel := float32(10.0) / 1024
	if got < 10.0 {
		t.Fatalf("SnapTexelSize(10.0, 1024) = %v, want >= 10.0", got)
	}
	if math.Mod(float64(got/texel), 1.0) > 1e-3 {
		t.Fatalf("SnapTexelSize result %v is not a whole multiple of the texel size %v", got, texel)
	}
}
