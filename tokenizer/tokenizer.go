// Package tokenizer converts text into token id sequences with a pretrained model.
//
// A Model is an explicitly owned handle: it starts Unloaded, becomes Loaded through Load
// or New and is Released by Close. Every operation on a handle that is not Loaded fails
// with ErrNotLoaded or ErrReleased. Sequences and batches returned by a Model are copies
// owned by the caller; the Model keeps no reference to them.
package tokenizer

import (
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrNotLoaded = fmt.Errorf("tokenizer model not loaded")
	ErrReleased  = fmt.Errorf("tokenizer resource already released")
	ErrEncode    = fmt.Errorf("tokenizer encode error")
)

// State is the lifecycle state of a Model.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateReleased:
		return "released"
	}
	return "unknown"
}

// Encoder is the backend performing the actual tokenization.
type Encoder interface {
	Encode(text string) ([]uint32, error)
}

// Model is a handle on a loaded tokenizer. The zero value is Unloaded.
type Model struct {
	lock  sync.RWMutex
	enc   Encoder
	cache *lru.Cache[string, []uint32]
	state State
}

// Option configures a Model.
type Option func(*Model)

// WithCache memoizes the sequences of up to size distinct texts.
func WithCache(size int) Option {
	return func(m *Model) {
		if size <= 0 {
			return
		}
		m.cache, _ = lru.New[string, []uint32](size)
	}
}

// New wraps a backend into a Loaded model.
func New(enc Encoder, opts ...Option) *Model {
	if enc == nil {
		return &Model{}
	}
	m := &Model{enc: enc, state: StateLoaded}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the lifecycle state of the model.
func (m *Model) State() State {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.state
}

func (m *Model) check() error {
	switch m.state {
	case StateLoaded:
		return nil
	case StateReleased:
		return ErrReleased
	default:
		return ErrNotLoaded
	}
}

// Encode tokenizes a single string.
func (m *Model) Encode(text string) ([]uint32, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	return m.encode(text)
}

func (m *Model) encode(text string) ([]uint32, error) {
	if m.cache != nil {
		if ids, ok := m.cache.Get(text); ok {
			return append([]uint32(nil), ids...), nil
		}
	}

	ids, err := m.enc.Encode(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	ids = append([]uint32(nil), ids...)

	if m.cache != nil {
		m.cache.Add(text, ids)
		return append([]uint32(nil), ids...), nil
	}
	return ids, nil
}

// EncodeBatch tokenizes every string. The batch is owned by the caller.
// An empty input yields an empty batch that still has to be released.
func (m *Model) EncodeBatch(texts []string) (*Batch, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	if err := m.check(); err != nil {
		return nil, err
	}

	ids := make([][]uint32, len(texts))
	for i, text := range texts {
		seq, err := m.encode(text)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		ids[i] = seq
	}
	return &Batch{ids: ids}, nil
}

// Close releases the model. Closing twice returns ErrReleased, closing an unloaded model ErrNotLoaded.
func (m *Model) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	if m.cache != nil {
		m.cache.Purge()
	}
	m.enc = nil
	m.state = StateReleased
	return nil
}

// Batch holds the sequences produced by one EncodeBatch call.
// Its shape (count and per-sequence length) is described by Len and Lengths.
type Batch struct {
	lock     sync.Mutex
	ids      [][]uint32
	released bool
}

// Len returns the number of sequences.
func (b *Batch) Len() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.ids)
}

// Lengths returns the length of every sequence.
func (b *Batch) Lengths() []int {
	b.lock.Lock()
	defer b.lock.Unlock()
	lengths := make([]int, len(b.ids))
	for i, seq := range b.ids {
		lengths[i] = len(seq)
	}
	return lengths
}

// Sequence returns the ids of the i-th input.
func (b *Batch) Sequence(i int) ([]uint32, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.released {
		return nil, ErrReleased
	}
	if i < 0 || i >= len(b.ids) {
		return nil, fmt.Errorf("sequence %d out of range [0, %d)", i, len(b.ids))
	}
	return slices.Clone(b.ids[i]), nil
}

// Release drops every sequence. Releasing twice returns ErrReleased.
func (b *Batch) Release() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.released {
		return ErrReleased
	}
	b.ids = nil
	b.released = true
	return nil
}
