// Package engine implements the typing session state machine.
//
// An Engine owns one session. Hosts feed it key events and one tick per second;
// every transition runs synchronously and returns the side effects the host must
// perform afterwards. The engine itself never persists anything.
package engine

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/verte-zerg/keyrush/internal/model"
	"github.com/verte-zerg/keyrush/internal/stats"
)

// KeyBackspace is the key value that rolls back the last typed character.
const KeyBackspace = "Backspace"

const (
	initialWordCount = 50
	wordBatchSize    = 20
	wordLookahead    = 5
)

// ErrNoText is returned when the text source produced nothing to type.
var ErrNoText = errors.New("text source returned no text")

// Phase is the coarse session state.
type Phase int

// Session phases.
const (
	Idle Phase = iota
	Typing
	Finished
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Typing:
		return "typing"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// TextSource supplies passages and word batches for a difficulty tier.
type TextSource interface {
	SampleText(d model.Difficulty) string
	WordBatch(d model.Difficulty, count int) []string
}

// Clock returns the current high-resolution time.
type Clock func() time.Time

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.now = c
		}
	}
}

// Effect is a side effect requested by a transition.
type Effect interface {
	isEffect()
}

// EmitResult asks the host to forward a finished session to its result sinks.
// It is produced exactly once per session.
type EmitResult struct {
	Result model.Result
}

func (EmitResult) isEffect() {}

type state struct {
	phase Phase

	sampleText []rune
	wordQueue  []string
	wordIndex  int
	typed      []rune

	correct   int
	incorrect int
	keyErrors map[string]int

	timeRemaining int
	wpmSamples    []int
	startedAt     time.Time

	consistency int
	finalized   bool
	result      model.Result
}

// Engine is a single-owner typing session. It is not safe for concurrent use.
type Engine struct {
	cfg    model.SessionConfig
	source TextSource
	now    Clock
	st     state
}

// New validates cfg and seeds an Idle session from source.
func New(cfg model.SessionConfig, source TextSource, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, source: source, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	st, err := e.seed(cfg)
	if err != nil {
		return nil, err
	}
	e.st = st
	return e, nil
}

// Restart throws the current session away and seeds a fresh Idle one.
// A nil cfg keeps the current configuration.
func (e *Engine) Restart(cfg *model.SessionConfig) error {
	next := e.cfg
	if cfg != nil {
		if err := cfg.Validate(); err != nil {
			return err
		}
		next = *cfg
	}
	st, err := e.seed(next)
	if err != nil {
		return err
	}
	e.cfg = next
	e.st = st
	return nil
}

func (e *Engine) seed(cfg model.SessionConfig) (state, error) {
	st := state{
		phase:         Idle,
		keyErrors:     map[string]int{},
		timeRemaining: cfg.Mode.Seconds(),
		consistency:   100,
	}
	if cfg.Mode.Kind == model.Words {
		st.wordQueue = nonEmpty(e.source.WordBatch(cfg.Difficulty, initialWordCount))
		if len(st.wordQueue) == 0 {
			return state{}, ErrNoText
		}
		st.sampleText = []rune(st.wordQueue[0])
		return st, nil
	}
	text := e.source.SampleText(cfg.Difficulty)
	if text == "" {
		return state{}, ErrNoText
	}
	st.sampleText = []rune(text)
	return st, nil
}

// Start moves an Idle session to Typing. It is a no-op in any other phase.
func (e *Engine) Start() {
	e.dispatch(startEvent{})
}

// HandleKey applies one keystroke: a single character or KeyBackspace.
func (e *Engine) HandleKey(key string) []Effect {
	return e.dispatch(keyEvent{key: key})
}

// Tick advances the timer by one second and samples the instantaneous WPM.
func (e *Engine) Tick() []Effect {
	return e.dispatch(tickEvent{})
}

type event interface {
	isEvent()
}

type startEvent struct{}

type keyEvent struct {
	key string
}

type tickEvent struct{}

func (startEvent) isEvent() {}
func (keyEvent) isEvent()   {}
func (tickEvent) isEvent()  {}

func (e *Engine) dispatch(ev event) []Effect {
	switch ev := ev.(type) {
	case startEvent:
		e.start()
		return nil
	case keyEvent:
		return e.key(ev.key)
	case tickEvent:
		return e.tick()
	default:
		return nil
	}
}

func (e *Engine) start() {
	if e.st.phase != Idle {
		return
	}
	e.st.phase = Typing
	if e.st.startedAt.IsZero() {
		e.st.startedAt = e.now()
	}
}

func (e *Engine) key(key string) []Effect {
	if e.st.phase == Finished {
		return nil
	}
	if key == KeyBackspace {
		e.backspace()
		return nil
	}
	if utf8.RuneCountInString(key) != 1 {
		return nil
	}
	r, _ := utf8.DecodeRuneInString(key)

	e.start()
	pos := len(e.st.typed)
	if pos >= len(e.st.sampleText) {
		return nil
	}
	expected := e.st.sampleText[pos]
	if r == expected {
		e.st.correct++
	} else {
		e.st.incorrect++
		e.st.keyErrors[strings.ToLower(string(expected))]++
		if e.cfg.Mode.Kind == model.SuddenDeath {
			e.st.typed = append(e.st.typed, r)
			return e.finish()
		}
	}
	e.st.typed = append(e.st.typed, r)

	if len(e.st.typed) < len(e.st.sampleText) {
		return nil
	}
	if e.cfg.Mode.Kind == model.Words {
		e.advanceWord()
		return nil
	}
	return e.finish()
}

func (e *Engine) backspace() {
	n := len(e.st.typed)
	if n == 0 {
		return
	}
	last := e.st.typed[n-1]
	e.st.typed = e.st.typed[:n-1]
	if last == e.st.sampleText[n-1] {
		e.st.correct = max(e.st.correct-1, 0)
	} else {
		e.st.incorrect = max(e.st.incorrect-1, 0)
	}
}

// advanceWord moves to the next queued word. Counters carry over; only the typed log resets.
func (e *Engine) advanceWord() {
	if e.st.wordIndex+1 >= len(e.st.wordQueue) {
		e.replenish()
	}
	e.st.wordIndex++
	e.st.typed = e.st.typed[:0]
	e.st.sampleText = []rune(e.st.wordQueue[e.st.wordIndex])
	if len(e.st.wordQueue)-e.st.wordIndex-1 < wordLookahead {
		e.replenish()
	}
}

func (e *Engine) replenish() {
	batch := nonEmpty(e.source.WordBatch(e.cfg.Difficulty, wordBatchSize))
	if len(batch) == 0 {
		// Keep the stream alive by recycling words already seen.
		batch = append(batch, e.st.wordQueue[:min(wordBatchSize, len(e.st.wordQueue))]...)
	}
	e.st.wordQueue = append(e.st.wordQueue, batch...)
}

func (e *Engine) tick() []Effect {
	if e.st.phase != Typing {
		return nil
	}
	if e.cfg.Mode.Countdown() {
		e.st.timeRemaining = max(e.st.timeRemaining-1, 0)
	} else {
		e.st.timeRemaining++
	}

	if elapsed := e.elapsed(); elapsed > 0 {
		if wpm := stats.WPM(e.st.correct, elapsed); wpm > 0 {
			e.st.wpmSamples = append(e.st.wpmSamples, wpm)
		}
	}

	if e.cfg.Mode.Countdown() && e.st.timeRemaining == 0 {
		return e.finish()
	}
	return nil
}

// finish is the only way into Finished and emits the result at most once.
func (e *Engine) finish() []Effect {
	if e.st.finalized {
		return nil
	}
	e.st.finalized = true
	e.st.phase = Finished
	e.st.consistency = stats.Consistency(e.st.wpmSamples)

	endedAt := e.now()
	e.st.result = model.Result{
		WPM:            stats.WPM(e.st.correct, e.elapsedAt(endedAt)),
		Accuracy:       stats.Accuracy(e.st.correct, e.st.incorrect),
		CorrectChars:   e.st.correct,
		IncorrectChars: e.st.incorrect,
		Consistency:    e.st.consistency,
		Mode:           e.cfg.Mode,
		Difficulty:     e.cfg.Difficulty,
		KeyErrors:      e.KeyErrors(),
		WPMSamples:     e.WPMSamples(),
		StartedAt:      e.st.startedAt,
		EndedAt:        endedAt,
	}
	return []Effect{EmitResult{Result: e.st.result}}
}

func (e *Engine) elapsed() float64 {
	return e.elapsedAt(e.now())
}

func (e *Engine) elapsedAt(t time.Time) float64 {
	if e.st.startedAt.IsZero() {
		return 0
	}
	return t.Sub(e.st.startedAt).Seconds()
}

func nonEmpty(words []string) []string {
	out := words[:0:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
