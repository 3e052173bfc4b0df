package pathfinder

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/udisondev/tilepath/internal/testutil"
	"github.com/udisondev/tilepath/internal/transport"
)

func TestUnrestrictedClient(t *testing.T) {
	var c Client = Unrestricted()

	assert.True(t, c.IsLoggedIn())
	assert.True(t, c.IsClientThread())
	assert.Equal(t, 99, c.BoostedLevel(transport.Agility))
	assert.Equal(t, 0, c.BoostedLevel(transport.SkillCount))
	assert.Equal(t, transport.Finished, c.QuestState(FairyRingQuest))
	assert.Equal(t, transport.NotStarted, c.QuestState("Dragon Slayer"))

	shortcut := transport.New(pt(10, 10, 0), pt(12, 10, 0), transport.General, 3)
	shortcut.Skills[transport.Agility] = 80
	cfg := NewConfig(testutil.NewGrid().Engine(t, 0), setOf(shortcut), c, DefaultSettings())
	assert.Equal(t, 1, cfg.Refresh().Usable())
}
