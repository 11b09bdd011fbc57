package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/keyrush/internal/model"
)

type fakeSource struct {
	text       string
	words      []string
	textCalls  int
	batchCalls int
	next       int
}

func (f *fakeSource) SampleText(model.Difficulty) string {
	f.textCalls++
	return f.text
}

func (f *fakeSource) WordBatch(_ model.Difficulty, count int) []string {
	f.batchCalls++
	out := make([]string, count)
	for i := range out {
		out[i] = f.words[(f.next+i)%len(f.words)]
	}
	f.next += count
	return out
}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1700000000, 0)}
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestEngine(t *testing.T, mode model.Mode, src *fakeSource, clock *fakeClock) *Engine {
	t.Helper()
	e, err := New(model.SessionConfig{Mode: mode, Difficulty: model.Easy}, src, WithClock(clock.now))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

func typeString(e *Engine, s string) []Effect {
	var effects []Effect
	for _, r := range s {
		effects = append(effects, e.HandleKey(string(r))...)
	}
	return effects
}

func results(effects []Effect) []model.Result {
	var out []model.Result
	for _, eff := range effects {
		if emit, ok := eff.(EmitResult); ok {
			out = append(out, emit.Result)
		}
	}
	return out
}

func TestCountersMatchTypedLog(t *testing.T) {
	e := newTestEngine(t, model.TimedMode(60), &fakeSource{text: "hello world"}, newFakeClock())
	keys := []string{"h", "x", "l", KeyBackspace, KeyBackspace, "e", "l", "L", KeyBackspace, "l", "o", " ", KeyBackspace}
	for i, key := range keys {
		e.HandleKey(key)
		if got, want := e.Correct()+e.Incorrect(), len([]rune(e.Typed())); got != want {
			t.Fatalf("step %d (%q): correct+incorrect=%d, typed=%d", i, key, got, want)
		}
	}
	if e.Typed() != "hello" {
		t.Fatalf("expected typed log %q, got %q", "hello", e.Typed())
	}
	if e.Correct() != 5 || e.Incorrect() != 0 {
		t.Fatalf("unexpected counters: correct=%d incorrect=%d", e.Correct(), e.Incorrect())
	}
}

func TestBackspaceRollsBackCounters(t *testing.T) {
	e := newTestEngine(t, model.Mode{Kind: model.Passage}, &fakeSource{text: "hey"}, newFakeClock())

	e.HandleKey("h")
	e.HandleKey(KeyBackspace)
	if e.Correct() != 0 {
		t.Fatalf("expected correct rolled back to 0, got %d", e.Correct())
	}

	e.HandleKey("X")
	if e.Incorrect() != 1 || e.KeyErrors()["h"] != 1 {
		t.Fatalf("expected one error on h, got incorrect=%d errors=%v", e.Incorrect(), e.KeyErrors())
	}
	e.HandleKey(KeyBackspace)
	if e.Incorrect() != 0 {
		t.Fatalf("expected incorrect rolled back to 0, got %d", e.Incorrect())
	}
	if e.KeyErrors()["h"] != 1 {
		t.Fatalf("backspace must not touch key errors: %v", e.KeyErrors())
	}

	e.HandleKey(KeyBackspace)
	if e.Correct() != 0 || e.Incorrect() != 0 || e.Typed() != "" {
		t.Fatalf("backspace on empty log should be a no-op")
	}
}

func TestIgnoresMultiCharacterKeys(t *testing.T) {
	e := newTestEngine(t, model.TimedMode(30), &fakeSource{text: "abc"}, newFakeClock())
	for _, key := range []string{"Shift", "Control", "", "ab"} {
		if effects := e.HandleKey(key); effects != nil {
			t.Fatalf("expected no effects for %q", key)
		}
	}
	if e.Phase() != Idle {
		t.Fatalf("expected Idle after ignored keys, got %s", e.Phase())
	}
	e.HandleKey("é")
	if e.Phase() != Typing || e.Incorrect() != 1 {
		t.Fatalf("expected single code point to be accepted")
	}
}

func TestSuddenDeathEndsOnFirstError(t *testing.T) {
	for _, prefix := range []string{"", "ab", "abcde"} {
		src := &fakeSource{text: "abcdefgh"}
		e := newTestEngine(t, model.Mode{Kind: model.SuddenDeath}, src, newFakeClock())
		typeString(e, prefix)
		got := results(e.HandleKey("?"))
		if e.Phase() != Finished {
			t.Fatalf("prefix %q: expected Finished, got %s", prefix, e.Phase())
		}
		if len(got) != 1 {
			t.Fatalf("prefix %q: expected one result, got %d", prefix, len(got))
		}
		if e.Typed() != prefix+"?" {
			t.Fatalf("prefix %q: wrong key should still be logged, got %q", prefix, e.Typed())
		}
		if got[0].IncorrectChars != 1 || got[0].CorrectChars != len(prefix) {
			t.Fatalf("prefix %q: unexpected result %+v", prefix, got[0])
		}
		if effects := e.HandleKey("x"); effects != nil || e.Typed() != prefix+"?" {
			t.Fatalf("keys after finish must be ignored")
		}
	}
}

func TestWordsModeAdvancesAndReplenishes(t *testing.T) {
	src := &fakeSource{words: []string{"go", "is", "fun"}}
	e := newTestEngine(t, model.Mode{Kind: model.Words}, src, newFakeClock())
	if e.SampleText() != "go" {
		t.Fatalf("expected first word, got %q", e.SampleText())
	}

	for i := 0; i < 120; i++ {
		word := e.SampleText()
		next := e.UpcomingWords(1)
		if effects := typeString(e, word); len(results(effects)) != 0 {
			t.Fatalf("word %d: completing a word must not finish the session", i)
		}
		if e.Phase() != Typing {
			t.Fatalf("word %d: expected Typing, got %s", i, e.Phase())
		}
		if e.Typed() != "" {
			t.Fatalf("word %d: typed log should reset, got %q", i, e.Typed())
		}
		if len(next) != 1 || e.SampleText() != next[0] {
			t.Fatalf("word %d: expected next word %v, got %q", i, next, e.SampleText())
		}
		if e.RemainingWords() < wordLookahead {
			t.Fatalf("word %d: queue dropped below lookahead: %d", i, e.RemainingWords())
		}
	}
	if src.batchCalls < 2 {
		t.Fatalf("expected the queue to be replenished, batch calls=%d", src.batchCalls)
	}
}

func TestWordsModeCountersAreCumulative(t *testing.T) {
	e := newTestEngine(t, model.Mode{Kind: model.Words}, &fakeSource{words: []string{"ab"}}, newFakeClock())
	typeString(e, "ax")
	typeString(e, "ab")
	if e.Correct() != 3 || e.Incorrect() != 1 {
		t.Fatalf("expected counters to persist across words, got correct=%d incorrect=%d", e.Correct(), e.Incorrect())
	}
	if e.Accuracy() != 75 {
		t.Fatalf("expected accuracy 75, got %d", e.Accuracy())
	}
}

func TestWordsModeEndsOnTimer(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, model.Mode{Kind: model.Words}, &fakeSource{words: []string{"a"}}, clock)
	e.HandleKey("a")
	if e.TimeRemaining() != model.WordsDuration {
		t.Fatalf("expected %d seconds, got %d", model.WordsDuration, e.TimeRemaining())
	}
	var emitted []model.Result
	for i := 0; i < model.WordsDuration; i++ {
		clock.advance(time.Second)
		emitted = append(emitted, results(e.Tick())...)
	}
	if e.Phase() != Finished || len(emitted) != 1 {
		t.Fatalf("expected one result at timer end, phase=%s results=%d", e.Phase(), len(emitted))
	}
}

func TestPassageFinishesOnLastCharacter(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, model.Mode{Kind: model.Passage}, &fakeSource{text: "abcde"}, clock)
	typeString(e, "abcd")
	clock.advance(6 * time.Second)
	got := results(e.HandleKey("e"))
	if len(got) != 1 || e.Phase() != Finished {
		t.Fatalf("expected finish on last character")
	}
	if got[0].WPM != 10 {
		t.Fatalf("expected final WPM 10 from 6s elapsed, got %d", got[0].WPM)
	}
	if effects := e.Tick(); effects != nil {
		t.Fatalf("tick after finish should not emit")
	}
	if effects := e.HandleKey(KeyBackspace); effects != nil || e.Typed() != "abcde" {
		t.Fatalf("backspace after finish should be ignored")
	}
}

func TestZenCountsUpWithoutFinishing(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, model.Mode{Kind: model.Zen}, &fakeSource{text: "abcdef"}, clock)
	if effects := e.Tick(); effects != nil || e.TimeRemaining() != 0 {
		t.Fatalf("tick while Idle should be a no-op")
	}
	e.HandleKey("a")
	for i := 0; i < 200; i++ {
		clock.advance(time.Second)
		if effects := e.Tick(); effects != nil {
			t.Fatalf("zen mode should not finish on ticks")
		}
	}
	if e.TimeRemaining() != 200 {
		t.Fatalf("expected 200 elapsed seconds, got %d", e.TimeRemaining())
	}
}

func TestStartIsIdempotent(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, model.TimedMode(15), &fakeSource{text: "abc"}, clock)
	e.Start()
	started := e.StartedAt()
	clock.advance(3 * time.Second)
	e.Start()
	e.HandleKey("a")
	if !e.StartedAt().Equal(started) {
		t.Fatalf("start timestamp moved: %v -> %v", started, e.StartedAt())
	}
	if e.Phase() != Typing {
		t.Fatalf("expected Typing, got %s", e.Phase())
	}
}

func TestTimedSixtySecondSession(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, model.TimedMode(60), &fakeSource{text: strings.Repeat("a", 400)}, clock)
	e.Start()
	typeString(e, strings.Repeat("a", 300))

	var emitted []model.Result
	for i := 0; i < 60; i++ {
		clock.advance(time.Second)
		emitted = append(emitted, results(e.Tick())...)
	}
	emitted = append(emitted, results(e.Tick())...)

	if len(emitted) != 1 {
		t.Fatalf("expected exactly one result, got %d", len(emitted))
	}
	res := emitted[0]
	if res.WPM != 60 || res.Accuracy != 100 {
		t.Fatalf("expected 60 WPM at 100%%, got %d WPM at %d%%", res.WPM, res.Accuracy)
	}
	if res.CorrectChars != 300 || res.IncorrectChars != 0 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if res.Mode.String() != "Timed (60s)" || res.Difficulty != model.Easy {
		t.Fatalf("unexpected config in result: %s %s", res.Mode, res.Difficulty)
	}
	if e.Phase() != Finished || e.TimeRemaining() != 0 {
		t.Fatalf("expected Finished at 0s, got %s at %d", e.Phase(), e.TimeRemaining())
	}
	if len(res.WPMSamples) != 60 {
		t.Fatalf("expected 60 samples, got %d", len(res.WPMSamples))
	}
}

func TestFinalWPMUsesClockNotTicks(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, model.TimedMode(15), &fakeSource{text: strings.Repeat("a", 100)}, clock)
	typeString(e, strings.Repeat("a", 50))

	var emitted []model.Result
	for i := 0; i < 15; i++ {
		clock.advance(1100 * time.Millisecond)
		emitted = append(emitted, results(e.Tick())...)
	}
	if len(emitted) != 1 {
		t.Fatalf("expected one result, got %d", len(emitted))
	}
	if live := e.WPM(); live != 40 {
		t.Fatalf("expected tick-based live WPM 40, got %d", live)
	}
	if emitted[0].WPM != 36 {
		t.Fatalf("expected clock-based final WPM 36, got %d", emitted[0].WPM)
	}
}

func TestZeroWPMSamplesAreDropped(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, model.TimedMode(15), &fakeSource{text: "abc"}, clock)
	e.HandleKey("x")
	for i := 0; i < 3; i++ {
		clock.advance(time.Second)
		e.Tick()
	}
	if samples := e.WPMSamples(); len(samples) != 0 {
		t.Fatalf("expected zero samples to be dropped, got %v", samples)
	}
}

func TestRestartFromAnyPhase(t *testing.T) {
	setups := map[string]func(e *Engine, clock *fakeClock){
		"idle": func(*Engine, *fakeClock) {},
		"typing": func(e *Engine, clock *fakeClock) {
			typeString(e, "ax")
			clock.advance(time.Second)
			e.Tick()
		},
		"finished": func(e *Engine, clock *fakeClock) {
			typeString(e, "abc")
		},
	}
	for name, setup := range setups {
		clock := newFakeClock()
		src := &fakeSource{text: "abc"}
		e := newTestEngine(t, model.TimedMode(30), src, clock)
		setup(e, clock)

		if err := e.Restart(nil); err != nil {
			t.Fatalf("%s: restart: %v", name, err)
		}
		if e.Phase() != Idle {
			t.Fatalf("%s: expected Idle, got %s", name, e.Phase())
		}
		if e.Correct() != 0 || e.Incorrect() != 0 || e.Typed() != "" {
			t.Fatalf("%s: counters not reset", name)
		}
		if len(e.KeyErrors()) != 0 || len(e.WPMSamples()) != 0 || !e.StartedAt().IsZero() {
			t.Fatalf("%s: diagnostics not reset", name)
		}
		if e.TimeRemaining() != 30 || e.Consistency() != 100 {
			t.Fatalf("%s: timer or consistency not reset", name)
		}
		if src.textCalls != 2 {
			t.Fatalf("%s: expected a fresh sample text, calls=%d", name, src.textCalls)
		}
		if _, ok := e.Result(); ok {
			t.Fatalf("%s: result should be cleared", name)
		}
	}
}

func TestRestartEmitsAgainForNewSession(t *testing.T) {
	e := newTestEngine(t, model.Mode{Kind: model.Passage}, &fakeSource{text: "ab"}, newFakeClock())
	if n := len(results(typeString(e, "ab"))); n != 1 {
		t.Fatalf("expected one result, got %d", n)
	}
	if err := e.Restart(nil); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if n := len(results(typeString(e, "ab"))); n != 1 {
		t.Fatalf("expected one result after restart, got %d", n)
	}
}

func TestRestartWithNewConfig(t *testing.T) {
	src := &fakeSource{text: "abc", words: []string{"one", "two"}}
	e := newTestEngine(t, model.TimedMode(15), src, newFakeClock())
	cfg := model.SessionConfig{Mode: model.Mode{Kind: model.Words}, Difficulty: model.Hard}
	if err := e.Restart(&cfg); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if e.Config() != cfg {
		t.Fatalf("expected new config, got %+v", e.Config())
	}
	if e.SampleText() != "one" || e.TimeRemaining() != model.WordsDuration {
		t.Fatalf("expected words session, got %q with %ds", e.SampleText(), e.TimeRemaining())
	}

	bad := model.SessionConfig{Mode: model.TimedMode(45), Difficulty: model.Easy}
	if err := e.Restart(&bad); err == nil {
		t.Fatalf("expected invalid duration to be rejected")
	}
	if e.Config() != cfg {
		t.Fatalf("failed restart must keep the previous config")
	}
}

func TestNewRejectsEmptyText(t *testing.T) {
	_, err := New(model.SessionConfig{Mode: model.Mode{Kind: model.Passage}, Difficulty: model.Easy}, &fakeSource{})
	if err != ErrNoText {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}
