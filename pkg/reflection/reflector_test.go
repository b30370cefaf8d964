package reflection

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/stefanpenner/habitual/pkg/store"
)

func streakSource() *fakeSource {
	return &fakeSource{
		logs: []store.LogEntry{
			entry("run", 0, store.StatusDone, ""),
			entry("run", 1, store.StatusDone, ""),
			entry("run", 2, store.StatusDone, ""),
		},
		habits: []store.Habit{{ID: "run", Name: "Run"}},
	}
}

var runDone = map[string]PendingChange{"run": {Name: "Run", Status: store.StatusDone}}

func TestReflectWithoutGeneratorFallsBack(t *testing.T) {
	b, _ := newTestBuilder(streakSource())
	r := &Reflector{Builder: b}

	got := r.Reflect(context.Background(), runDone, "")
	assert.False(t, got.Generated)
	assert.Equal(t, "Thanks for checking in this afternoon. Run is on a 3-day streak. Small, steady steps add up. Keep going.", got.Text)
}

func TestReflectGeneratorErrorFallsBack(t *testing.T) {
	b, _ := newTestBuilder(streakSource())
	core, logs := observer.New(zap.WarnLevel)
	r := &Reflector{
		Builder: b,
		Generator: GeneratorFunc(func(ctx context.Context, p Payload) (string, error) {
			return "", errors.New("quota exceeded")
		}),
		Cache:  NewCache(10, time.Minute),
		Logger: zap.New(core),
	}

	got := r.Reflect(context.Background(), runDone, "")
	assert.False(t, got.Generated)
	assert.True(t, strings.HasPrefix(got.Text, "Thanks for checking in"))
	assert.Equal(t, 0, r.Cache.Len())
	assert.Equal(t, 1, logs.Len())
}

func TestReflectCachesGeneratedText(t *testing.T) {
	b, _ := newTestBuilder(streakSource())
	calls := 0
	r := &Reflector{
		Builder: b,
		Generator: GeneratorFunc(func(ctx context.Context, p Payload) (string, error) {
			calls++
			require.Len(t, p.Habits, 1)
			return "You ran three days straight.", nil
		}),
		Cache: NewCache(10, time.Minute),
	}

	first := r.Reflect(context.Background(), runDone, "good day")
	assert.True(t, first.Generated)
	assert.False(t, first.Cached)

	second := r.Reflect(context.Background(), runDone, "good day")
	assert.True(t, second.Cached)
	assert.Equal(t, "You ran three days straight.", second.Text)
	assert.Equal(t, 1, calls)

	// a different note is a different payload
	r.Reflect(context.Background(), runDone, "other note")
	assert.Equal(t, 2, calls)

	r.Cache.Purge()
	r.Reflect(context.Background(), runDone, "good day")
	assert.Equal(t, 3, calls)
}

func TestCacheExpires(t *testing.T) {
	c := NewCache(0, 20*time.Millisecond)
	p := Payload{Date: "2026-03-10"}

	c.Put(p, "hello")
	text, ok := c.Get(p)
	require.True(t, ok)
	assert.Equal(t, "hello", text)
	assert.Equal(t, 20*time.Millisecond, c.TTL())

	time.Sleep(60 * time.Millisecond)
	_, ok = c.Get(p)
	assert.False(t, ok)
}

func TestCacheKeyStable(t *testing.T) {
	a := Payload{Date: "2026-03-10", Note: "x", Habits: []HabitSnapshot{{Name: "Run"}}}
	b := Payload{Date: "2026-03-10", Note: "x", Habits: []HabitSnapshot{{Name: "Run"}}}
	assert.Equal(t, CacheKey(a), CacheKey(b))

	b.Note = "y"
	assert.NotEqual(t, CacheKey(a), CacheKey(b))
}
