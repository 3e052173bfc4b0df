package pathfinder

import "github.com/udisondev/tilepath/internal/transport"

// FixedClient is a Client with constant capabilities, for use without a live
// character. It is always logged in and on the client thread.
type FixedClient struct {
	Levels [transport.SkillCount]int
	Quests map[string]transport.QuestState
}

// Unrestricted returns a FixedClient with every skill at 99 and every
// transport network unlocked.
func Unrestricted() *FixedClient {
	c := &FixedClient{
		Quests: map[string]transport.QuestState{
			FairyRingQuest:   transport.Finished,
			GnomeGliderQuest: transport.Finished,
			SpiritTreeQuest:  transport.Finished,
		},
	}
	for i := range c.Levels {
		c.Levels[i] = 99
	}
	return c
}

func (c *FixedClient) IsLoggedIn() bool     { return true }
func (c *FixedClient) IsClientThread() bool { return true }

func (c *FixedClient) BoostedLevel(s transport.Skill) int {
	if s >= transport.SkillCount {
		return 0
	}
	return c.Levels[s]
}

func (c *FixedClient) QuestState(name string) transport.QuestState {
	return c.Quests[name]
}
