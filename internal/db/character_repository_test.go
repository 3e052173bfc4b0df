package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tilepath/internal/geo"
	"github.com/udisondev/tilepath/internal/testutil"
	"github.com/udisondev/tilepath/internal/transport"
)

func TestCharacterRepository(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := NewCharacterRepository(pool)
	ctx := context.Background()

	_, err := repo.Load(ctx, "Zezima")
	require.ErrorIs(t, err, ErrCharacterNotFound)

	require.NoError(t, repo.Upsert(ctx, " Zezima ", true))
	require.NoError(t, repo.SaveLevels(ctx, "zezima", map[transport.Skill]int{
		transport.Agility:  70,
		transport.Ranged:   80,
		transport.Strength: 75,
	}))
	require.NoError(t, repo.SetQuest(ctx, "ZEZIMA", "The Grand Tree", transport.Finished))
	require.NoError(t, repo.SetQuest(ctx, "zezima", "Fairytale II - Cure a Queen", transport.InProgress))

	c, err := repo.Load(ctx, "Zezima")
	require.NoError(t, err)
	assert.Equal(t, "zezima", c.Name)
	assert.True(t, c.LoggedIn)
	assert.Equal(t, 70, c.Levels[transport.Agility])
	assert.Equal(t, 80, c.Levels[transport.Ranged])
	assert.Equal(t, 0, c.Levels[transport.Prayer])
	assert.Equal(t, transport.Finished, c.Quests["The Grand Tree"])
	assert.Equal(t, transport.InProgress, c.Quests["Fairytale II - Cure a Queen"])

	// full overwrite
	require.NoError(t, repo.SaveLevels(ctx, "zezima", map[transport.Skill]int{transport.Prayer: 43}))
	require.NoError(t, repo.SetQuest(ctx, "zezima", "The Grand Tree", transport.NotStarted))
	require.NoError(t, repo.Upsert(ctx, "zezima", false))

	c, err = repo.Load(ctx, "zezima")
	require.NoError(t, err)
	assert.False(t, c.LoggedIn)
	assert.Equal(t, 0, c.Levels[transport.Agility])
	assert.Equal(t, 43, c.Levels[transport.Prayer])
	assert.Equal(t, transport.NotStarted, c.Quests["The Grand Tree"])

	require.NoError(t, repo.Delete(ctx, "zezima"))
	_, err = repo.Load(ctx, "zezima")
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestCharacterClient(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := NewCharacterRepository(pool)
	ctx := context.Background()

	_, err := NewCharacterClient(ctx, repo, "nobody")
	require.ErrorIs(t, err, ErrCharacterNotFound)

	require.NoError(t, repo.Upsert(ctx, "woox", true))
	require.NoError(t, repo.SaveLevels(ctx, "woox", map[transport.Skill]int{transport.Agility: 99}))

	client, err := NewCharacterClient(ctx, repo, "Woox")
	require.NoError(t, err)
	assert.Equal(t, "woox", client.Name())
	assert.True(t, client.IsLoggedIn())
	assert.True(t, client.IsClientThread())
	assert.Equal(t, 99, client.BoostedLevel(transport.Agility))
	assert.Equal(t, 0, client.BoostedLevel(transport.SkillCount))
	assert.Equal(t, transport.NotStarted, client.QuestState("The Grand Tree"))

	require.NoError(t, repo.SetQuest(ctx, "woox", "The Grand Tree", transport.Finished))
	assert.Equal(t, transport.NotStarted, client.QuestState("The Grand Tree"), "cached until reload")
	require.NoError(t, client.Reload(ctx))
	assert.Equal(t, transport.Finished, client.QuestState("The Grand Tree"))
}

func TestSearchLogRepository(t *testing.T) {
	pool := testutil.SetupTestDB(t)
	repo := NewSearchLogRepository(pool)
	ctx := context.Background()

	for i := range 3 {
		_, err := repo.Insert(ctx, SearchLogEntry{
			Character:    "Woox",
			Start:        uint32(geo.Pack(3222, 3218, 0)),
			Target:       uint32(geo.Pack(3222+i, 3218, 0)),
			State:        "done",
			PathLength:   i + 1,
			Reached:      true,
			NodesChecked: 10 * i,
			Elapsed:      time.Duration(i) * time.Millisecond,
		})
		require.NoError(t, err)
	}

	entries, err := repo.Recent(ctx, "woox", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(geo.Pack(3224, 3218, 0)), entries[0].Target)
	assert.Equal(t, 3, entries[0].PathLength)
	assert.Equal(t, 2*time.Millisecond, entries[0].Elapsed)
	assert.Equal(t, "woox", entries[0].Character)

	none, err := repo.Recent(ctx, "other", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}
