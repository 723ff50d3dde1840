// Package topics holds the user's topic list and current selection.
package topics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	MinLength = 2
	MaxLength = 20

	// FallbackTopic is selected when the last topic is deleted.
	FallbackTopic = "AI"
)

var (
	DefaultTopics = []string{"AI", "Tech"}

	restrictedWords = []string{"hate", "nsfw", "xxx", "violence"}

	suggestions = []string{
		"Technology",
		"Science",
		"Health",
		"Business",
		"Sports",
		"Entertainment",
		"Politics",
		"Environment",
		"Education",
		"Food",
	}

	ErrInvalidTopic = errors.New("invalid topic")
	ErrDuplicate    = errors.New("topic already exists")
	ErrNotFound     = errors.New("topic not found")
)

// State is the persisted form of a topic list.
type State struct {
	Topics   []string `json:"topics"`
	Selected string   `json:"selected"`
}

// Repository persists State between runs.
type Repository interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, state State) error
}

// Manager is safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	state State
	repo  Repository
}

// NewManager starts from initial, or from DefaultTopics when it is empty.
// repo may be nil.
func NewManager(initial State, repo Repository) *Manager {
	if len(initial.Topics) == 0 {
		initial.Topics = append([]string(nil), DefaultTopics...)
	}
	if initial.Selected == "" || indexOf(initial.Topics, initial.Selected) < 0 {
		initial.Selected = initial.Topics[0]
	}
	return &Manager{state: initial, repo: repo}
}

// Open loads state from repo. An empty stored state falls back to fallback.
func Open(ctx context.Context, repo Repository, fallback State) (*Manager, error) {
	state, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load topics: %w", err)
	}
	if len(state.Topics) == 0 {
		state = fallback
	}
	return NewManager(state, repo), nil
}

func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.state.Topics...)
}

func (m *Manager) Selected() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Selected
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return State{Topics: append([]string(nil), m.state.Topics...), Selected: m.state.Selected}
}

func (m *Manager) Select(ctx context.Context, topic string) error {
	return m.update(ctx, func(s *State) error {
		if indexOf(s.Topics, topic) < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, topic)
		}
		s.Selected = topic
		return nil
	})
}

// Add validates topic, appends it and selects it.
func (m *Manager) Add(ctx context.Context, topic string) error {
	return m.update(ctx, func(s *State) error {
		if err := Validate(topic); err != nil {
			return err
		}
		if indexOf(s.Topics, topic) >= 0 {
			return fmt.Errorf("%w: %s", ErrDuplicate, topic)
		}
		s.Topics = append(s.Topics, topic)
		s.Selected = topic
		return nil
	})
}

// Rename replaces old in place. The selection follows the rename.
func (m *Manager) Rename(ctx context.Context, old, topic string) error {
	return m.update(ctx, func(s *State) error {
		i := indexOf(s.Topics, old)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, old)
		}
		if err := Validate(topic); err != nil {
			return err
		}
		if j := indexOf(s.Topics, topic); j >= 0 && j != i {
			return fmt.Errorf("%w: %s", ErrDuplicate, topic)
		}
		s.Topics[i] = topic
		if s.Selected == old {
			s.Selected = topic
		}
		return nil
	})
}

// Delete removes topic. Deleting the selected topic selects the first
// remaining one, or FallbackTopic when none remain.
func (m *Manager) Delete(ctx context.Context, topic string) error {
	return m.update(ctx, func(s *State) error {
		i := indexOf(s.Topics, topic)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, topic)
		}
		s.Topics = append(s.Topics[:i], s.Topics[i+1:]...)
		if s.Selected == topic {
			if len(s.Topics) > 0 {
				s.Selected = s.Topics[0]
			} else {
				s.Selected = FallbackTopic
			}
		}
		return nil
	})
}

// update applies fn to a copy of the state and commits it only if fn and
// the save both succeed.
func (m *Manager) update(ctx context.Context, fn func(s *State) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := State{Topics: append([]string(nil), m.state.Topics...), Selected: m.state.Selected}
	if err := fn(&next); err != nil {
		return err
	}

	if m.repo != nil {
		if err := m.repo.Save(ctx, next); err != nil {
			return fmt.Errorf("save topics: %w", err)
		}
	}

	m.state = next
	return nil
}

// Validate checks a user-entered topic.
func Validate(topic string) error {
	if len(topic) < MinLength {
		return fmt.Errorf("%w: topic must be at least %d characters long", ErrInvalidTopic, MinLength)
	}
	if len(topic) > MaxLength {
		return fmt.Errorf("%w: topic cannot exceed %d characters", ErrInvalidTopic, MaxLength)
	}

	lower := strings.ToLower(topic)
	for _, word := range restrictedWords {
		if strings.Contains(lower, word) {
			return fmt.Errorf("%w: topic contains restricted words", ErrInvalidTopic)
		}
	}

	for _, r := range topic {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == ' ' || r == '\t' || r == '\n') {
			return fmt.Errorf("%w: topic can only contain letters, numbers, and spaces", ErrInvalidTopic)
		}
	}

	return nil
}

// Suggest returns the built-in suggestions containing text, ignoring case.
func Suggest(text string) []string {
	if text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	var result []string
	for _, s := range suggestions {
		if strings.Contains(strings.ToLower(s), lower) {
			result = append(result, s)
		}
	}
	return result
}

func indexOf(list []string, topic string) int {
	for i, t := range list {
		if t == topic {
			return i
		}
	}
	return -1
}
