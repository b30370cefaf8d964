package reflection

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Generator turns a payload into free text, typically through an LLM.
type Generator interface {
	Generate(ctx context.Context, p Payload) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, p Payload) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, p Payload) (string, error) {
	return f(ctx, p)
}

// Reflection is the result handed back to the UI.
type Reflection struct {
	Payload   Payload `json:"payload"`
	Text      string  `json:"text"`
	Generated bool    `json:"generated"`
	Cached    bool    `json:"cached"`
}

// Reflector builds a payload, asks the generator for a reflection and
// caches the answer. Generator and Cache are optional.
type Reflector struct {
	Builder   *Builder
	Generator Generator
	Cache     *Cache
	Logger    *zap.Logger
}

// Reflect always returns a usable reflection. When no generator is
// configured, or it fails, the text is a generic one built from the payload.
func (r *Reflector) Reflect(ctx context.Context, pending map[string]PendingChange, note string) Reflection {
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	payload := r.Builder.Build(ctx, pending, note)

	if r.Cache != nil {
		if text, ok := r.Cache.Get(payload); ok {
			log.Debug("reflection cache hit")
			return Reflection{Payload: payload, Text: text, Generated: true, Cached: true}
		}
	}

	if r.Generator == nil {
		return Reflection{Payload: payload, Text: FallbackText(payload)}
	}

	text, err := r.Generator.Generate(ctx, payload)
	if err != nil || text == "" {
		log.Warn("reflection generation failed, using fallback", zap.Error(err))
		return Reflection{Payload: payload, Text: FallbackText(payload)}
	}

	if r.Cache != nil {
		r.Cache.Put(payload, text)
	}
	return Reflection{Payload: payload, Text: text, Generated: true}
}

// FallbackText is the non-personalized reflection used when no generated
// text is available.
func FallbackText(p Payload) string {
	text := fmt.Sprintf("Thanks for checking in this %s.", p.TimeOfDay)

	best := HabitSnapshot{}
	for _, h := range p.Habits {
		if h.StreakDays > best.StreakDays {
			best = h
		}
	}
	if best.StreakDays > 1 {
		text += fmt.Sprintf(" %s is on a %d-day streak.", best.Name, best.StreakDays)
	}

	return text + " Small, steady steps add up. Keep going."
}
