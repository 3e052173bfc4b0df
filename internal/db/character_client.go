package db

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/tilepath/internal/transport"
)

// CharacterClient serves the capabilities of one stored character to the
// pathfinder. Reads come from the last loaded record; Reload fetches a fresh
// one. Every caller counts as the client thread since the record is immutable
// between reloads.
type CharacterClient struct {
	repo *CharacterRepository
	name string

	mu     sync.RWMutex
	record *Character
}

// NewCharacterClient loads the character and returns a client for it.
func NewCharacterClient(ctx context.Context, repo *CharacterRepository, name string) (*CharacterClient, error) {
	c := &CharacterClient{repo: repo, name: name}
	if err := c.Reload(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload replaces the cached record with the stored one.
func (c *CharacterClient) Reload(ctx context.Context) error {
	rec, err := c.repo.Load(ctx, c.name)
	if err != nil {
		return fmt.Errorf("reloading character: %w", err)
	}

	c.mu.Lock()
	c.record = rec
	c.mu.Unlock()

	slog.Debug("character reloaded", "character", rec.Name, "logged_in", rec.LoggedIn, "quests", len(rec.Quests))
	return nil
}

// Name returns the normalized character name.
func (c *CharacterClient) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Name
}

func (c *CharacterClient) IsLoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.LoggedIn
}

func (c *CharacterClient) IsClientThread() bool {
	return true
}

func (c *CharacterClient) BoostedLevel(s transport.Skill) int {
	if s >= transport.SkillCount {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Levels[s]
}

func (c *CharacterClient) QuestState(name string) transport.QuestState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Quests[name]
}
