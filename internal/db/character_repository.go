package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/tilepath/internal/transport"
)

// ErrCharacterNotFound is returned when no row exists for a character name.
var ErrCharacterNotFound = errors.New("character not found")

// Character is the stored capability record of one character.
type Character struct {
	Name     string
	LoggedIn bool
	Levels   [transport.SkillCount]int
	Quests   map[string]transport.QuestState
}

// CharacterRepository persists character capabilities.
type CharacterRepository struct {
	pool *pgxpool.Pool
}

// NewCharacterRepository creates a new CharacterRepository.
func NewCharacterRepository(pool *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{pool: pool}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Upsert creates the character or updates its logged-in flag.
func (r *CharacterRepository) Upsert(ctx context.Context, name string, loggedIn bool) error {
	name = normalizeName(name)
	_, err := r.pool.Exec(ctx,
		`INSERT INTO characters (name, logged_in) VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET logged_in = EXCLUDED.logged_in, updated_at = NOW()`,
		name, loggedIn,
	)
	if err != nil {
		return fmt.Errorf("upserting character %q: %w", name, err)
	}
	return nil
}

// Load returns the full capability record of a character.
func (r *CharacterRepository) Load(ctx context.Context, name string) (*Character, error) {
	name = normalizeName(name)
	c := &Character{
		Name:   name,
		Quests: make(map[string]transport.QuestState),
	}

	err := r.pool.QueryRow(ctx,
		`SELECT logged_in FROM characters WHERE name = $1`, name,
	).Scan(&c.LoggedIn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrCharacterNotFound, name)
		}
		return nil, fmt.Errorf("querying character %q: %w", name, err)
	}

	if err := r.loadLevels(ctx, c); err != nil {
		return nil, err
	}
	if err := r.loadQuests(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CharacterRepository) loadLevels(ctx context.Context, c *Character) error {
	rows, err := r.pool.Query(ctx,
		`SELECT skill, boosted_level FROM character_skills WHERE character_name = $1`, c.Name)
	if err != nil {
		return fmt.Errorf("querying skills for %q: %w", c.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			name  string
			level int32
		)
		if err := rows.Scan(&name, &level); err != nil {
			return fmt.Errorf("scanning skill row: %w", err)
		}
		skill, ok := transport.ParseSkill(name)
		if !ok {
			return fmt.Errorf("character %q: unknown skill %q", c.Name, name)
		}
		c.Levels[skill] = int(level)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating skill rows: %w", err)
	}
	return nil
}

func (r *CharacterRepository) loadQuests(ctx context.Context, c *Character) error {
	rows, err := r.pool.Query(ctx,
		`SELECT quest, state FROM character_quests WHERE character_name = $1`, c.Name)
	if err != nil {
		return fmt.Errorf("querying quests for %q: %w", c.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var quest, state string
		if err := rows.Scan(&quest, &state); err != nil {
			return fmt.Errorf("scanning quest row: %w", err)
		}
		st, err := transport.ParseQuestState(state)
		if err != nil {
			return fmt.Errorf("character %q quest %q: %w", c.Name, quest, err)
		}
		c.Quests[quest] = st
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating quest rows: %w", err)
	}
	return nil
}

// SaveLevels replaces all stored levels of a character in one transaction.
func (r *CharacterRepository) SaveLevels(ctx context.Context, name string, levels map[transport.Skill]int) error {
	name = normalizeName(name)
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM character_skills WHERE character_name = $1`, name); err != nil {
		return fmt.Errorf("deleting skills of %q: %w", name, err)
	}

	batch := &pgx.Batch{}
	for skill, level := range levels {
		batch.Queue(
			`INSERT INTO character_skills (character_name, skill, boosted_level) VALUES ($1, $2, $3)`,
			name, skill.String(), level,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting skills of %q: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing skills of %q: %w", name, err)
	}
	return nil
}

// SetQuest stores the state of one quest.
func (r *CharacterRepository) SetQuest(ctx context.Context, name, quest string, state transport.QuestState) error {
	name = normalizeName(name)
	_, err := r.pool.Exec(ctx,
		`INSERT INTO character_quests (character_name, quest, state) VALUES ($1, $2, $3)
		 ON CONFLICT (character_name, quest) DO UPDATE SET state = EXCLUDED.state`,
		name, quest, state.String(),
	)
	if err != nil {
		return fmt.Errorf("saving quest %q of %q: %w", quest, name, err)
	}
	return nil
}

// Delete removes a character with all its levels and quests.
func (r *CharacterRepository) Delete(ctx context.Context, name string) error {
	name = normalizeName(name)
	if _, err := r.pool.Exec(ctx, `DELETE FROM characters WHERE name = $1`, name); err != nil {
		return fmt.Errorf("deleting character %q: %w", name, err)
	}
	return nil
}
