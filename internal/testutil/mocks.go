package testutil

import (
	"sync"

	"github.com/udisondev/tilepath/internal/transport"
)

// MockClient is an in-memory capability source for pathfinder tests.
// Zero levels and NotStarted quests unless set.
type MockClient struct {
	mu           sync.RWMutex
	loggedIn     bool
	clientThread bool
	levels       map[transport.Skill]int
	quests       map[string]transport.QuestState

	levelReads int
}

// NewMockClient creates a logged-in client whose calls count as the client thread.
func NewMockClient() *MockClient {
	return &MockClient{
		loggedIn:     true,
		clientThread: true,
		levels:       make(map[transport.Skill]int),
		quests:       make(map[string]transport.QuestState),
	}
}

// IsLoggedIn implements pathfinder.Client.
func (m *MockClient) IsLoggedIn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loggedIn
}

// IsClientThread implements pathfinder.Client.
func (m *MockClient) IsClientThread() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clientThread
}

// BoostedLevel implements pathfinder.Client.
func (m *MockClient) BoostedLevel(s transport.Skill) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.levelReads++
	return m.levels[s]
}

// QuestState implements pathfinder.Client.
func (m *MockClient) QuestState(name string) transport.QuestState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.quests[name]
}

// SetLoggedIn toggles the logged-in state.
func (m *MockClient) SetLoggedIn(v bool) *MockClient {
	m.mu.Lock()
	m.loggedIn = v
	m.mu.Unlock()
	return m
}

// SetClientThread toggles whether calls are treated as coming from the client thread.
func (m *MockClient) SetClientThread(v bool) *MockClient {
	m.mu.Lock()
	m.clientThread = v
	m.mu.Unlock()
	return m
}

// SetLevel sets the boosted level of a skill.
func (m *MockClient) SetLevel(s transport.Skill, level int) *MockClient {
	m.mu.Lock()
	m.levels[s] = level
	m.mu.Unlock()
	return m
}

// SetAllLevels sets every skill to level.
func (m *MockClient) SetAllLevels(level int) *MockClient {
	m.mu.Lock()
	for s := range transport.SkillCount {
		m.levels[s] = level
	}
	m.mu.Unlock()
	return m
}

// SetQuest sets the state of a prerequisite.
func (m *MockClient) SetQuest(name string, state transport.QuestState) *MockClient {
	m.mu.Lock()
	m.quests[name] = state
	m.mu.Unlock()
	return m
}

// LevelReads returns how many times BoostedLevel was called.
func (m *MockClient) LevelReads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.levelReads
}
