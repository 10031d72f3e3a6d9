package policy

import (
	"testing"

	"github.com/TrueV1sion/ai-roadtrip-storyteller-sub007/internal/model"
)

func BenchmarkEvaluate_AllowSimple(b *testing.B) {
	cfg := DefaultConfig()
	cmd := model.NewCommand("play", nil, 0.95)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Evaluate(cmd, model.LowSpeed, cfg)
	}
}

func BenchmarkEvaluate_Bypass(b *testing.B) {
	cfg := DefaultConfig()
	cmd := model.NewCommand("stop", nil, 0.95)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Evaluate(cmd, model.Critical, cfg)
	}
}

func BenchmarkEvaluate_ConfirmAtSpeed(b *testing.B) {
	cfg := DefaultConfig()
	cmd := model.NewCommand("navigate", []string{"downtown"}, 0.9)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Evaluate(cmd, model.Highway, cfg)
	}
}
