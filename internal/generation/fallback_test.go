package generation

import (
	"strings"
	"testing"
)

func TestFallbackPronunciation_WithinBandAndDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	first := FallbackPronunciation(cfg, "bonjour le monde")
	second := FallbackPronunciation(cfg, "bonjour le monde")

	if first.Accuracy < cfg.FallbackAccuracyMin || first.Accuracy > cfg.FallbackAccuracyMax {
		t.Fatalf("accuracy %v outside band [%v, %v]", first.Accuracy, cfg.FallbackAccuracyMin, cfg.FallbackAccuracyMax)
	}
	if first.Accuracy != second.Accuracy {
		t.Fatalf("fallback accuracy not deterministic: %v vs %v", first.Accuracy, second.Accuracy)
	}
}

func TestFallbackPronunciation_ShapeValidByConstruction(t *testing.T) {
	fb := FallbackPronunciation(DefaultConfig(), "bonjour le monde")

	if !strings.Contains(fb.Feedback, "bonjour le monde") {
		t.Fatalf("feedback does not reference the target phrase: %q", fb.Feedback)
	}
	if len(fb.Suggestions) < 2 || len(fb.Suggestions) > 3 {
		t.Fatalf("expected 2-3 suggestions, got %d", len(fb.Suggestions))
	}
	if len(fb.Phonemes) != 1 {
		t.Fatalf("expected exactly one phoneme entry, got %d", len(fb.Phonemes))
	}
	if fb.Phonemes[0].Sound != "bonjour" {
		t.Fatalf("phoneme should derive from the first word, got %q", fb.Phonemes[0].Sound)
	}
}

func TestFallbackPronunciation_EmptyPhrase(t *testing.T) {
	fb := FallbackPronunciation(DefaultConfig(), "")
	if len(fb.Phonemes) != 0 {
		t.Fatalf("expected no phoneme entry for empty phrase, got %d", len(fb.Phonemes))
	}
	if fb.Accuracy < 0 || fb.Accuracy > 1 {
		t.Fatalf("accuracy out of range: %v", fb.Accuracy)
	}
}

func TestFallbackPronunciation_CustomBand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FallbackAccuracyMin = 0.2
	cfg.FallbackAccuracyMax = 0.25
	fb := FallbackPronunciation(cfg, "hola")
	if fb.Accuracy < 0.2 || fb.Accuracy > 0.25 {
		t.Fatalf("accuracy %v outside configured band", fb.Accuracy)
	}
}

func TestFallbackConversation_DefaultsScenario(t *testing.T) {
	content := FallbackConversation("French", "  ")
	if !strings.Contains(content.Context, "a casual chat") {
		t.Fatalf("expected default scenario in context, got %q", content.Context)
	}
	if len(content.Script) == 0 {
		t.Fatalf("fallback script must not be empty")
	}
}
