package pathfinder

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/tilepath/internal/geo"
	"github.com/udisondev/tilepath/internal/transport"
)

// TickLength is the duration of one game tick.
const TickLength = 600 * time.Millisecond

// Prerequisites that unlock whole transport networks.
const (
	FairyRingQuest   = "Fairytale II - Cure a Queen"
	GnomeGliderQuest = "The Grand Tree"
	SpiritTreeQuest  = "Tree Gnome Village"
)

// Settings are the user toggles that shape a search.
type Settings struct {
	AvoidWilderness   bool `yaml:"avoid_wilderness"`
	CalculationCutoff int  `yaml:"calculation_cutoff"` // ticks

	UseAgilityShortcuts     bool `yaml:"use_agility_shortcuts"`
	UseGrappleShortcuts     bool `yaml:"use_grapple_shortcuts"`
	UseBoats                bool `yaml:"use_boats"`
	UseCanoes               bool `yaml:"use_canoes"`
	UseCharterShips         bool `yaml:"use_charter_ships"`
	UseShips                bool `yaml:"use_ships"`
	UseFairyRings           bool `yaml:"use_fairy_rings"`
	UseGnomeGliders         bool `yaml:"use_gnome_gliders"`
	UseSpiritTrees          bool `yaml:"use_spirit_trees"`
	UseTeleportationLevers  bool `yaml:"use_teleportation_levers"`
	UseTeleportationPortals bool `yaml:"use_teleportation_portals"`
	UseTeleports            bool `yaml:"use_teleports"`
}

// DefaultSettings enables every transport kind except grapple shortcuts and
// charter ships, avoids the wilderness and gives up after 5 ticks without progress.
func DefaultSettings() Settings {
	return Settings{
		AvoidWilderness:         true,
		CalculationCutoff:       5,
		UseAgilityShortcuts:     true,
		UseBoats:                true,
		UseCanoes:               true,
		UseShips:                true,
		UseFairyRings:           true,
		UseGnomeGliders:         true,
		UseSpiritTrees:          true,
		UseTeleportationLevers:  true,
		UseTeleportationPortals: true,
		UseTeleports:            true,
	}
}

// Client supplies live capabilities of the character a path is computed for.
type Client interface {
	IsLoggedIn() bool
	// IsClientThread reports whether the caller may read quest states and
	// rebuild the usable transport map.
	IsClientThread() bool
	BoostedLevel(transport.Skill) int
	QuestState(name string) transport.QuestState
}

// gatedSkills are the skills eligibility rules look at. Requirements in any
// other skill are kept on the transport but never block it; NewConfig warns
// when the loaded set has such requirements.
var gatedSkills = [...]transport.Skill{
	transport.Agility,
	transport.Ranged,
	transport.Strength,
	transport.Prayer,
	transport.Woodcutting,
}

// Config owns the shared collision map and transports and publishes immutable
// snapshots of what the current client can use.
type Config struct {
	engine     *geo.Engine
	transports *transport.Set
	client     Client

	settings atomic.Pointer[Settings]
	snapshot atomic.Pointer[Snapshot]
	mu       sync.Mutex // serializes Refresh
}

// NewConfig creates a config whose first snapshot has no usable transports.
// Call Refresh to evaluate eligibility.
func NewConfig(engine *geo.Engine, transports *transport.Set, client Client, settings Settings) *Config {
	if transports == nil {
		transports = transport.NewSet()
	}
	if n := UncheckedRequirements(transports); n > 0 {
		slog.Warn("transports have skill requirements that are never checked",
			"transports", n, "checked", gatedSkills[:])
	}
	c := &Config{
		engine:     engine,
		transports: transports,
		client:     client,
	}
	c.settings.Store(&settings)
	c.snapshot.Store(&Snapshot{
		engine:   engine,
		settings: settings,
		usable:   make(map[geo.Point][]*transport.Transport),
	})
	return c
}

// UncheckedRequirements counts transports requiring a level in a skill the
// eligibility rules ignore.
func UncheckedRequirements(set *transport.Set) int {
	n := 0
	for t := range set.All() {
		for skill, level := range t.Skills {
			if level > 0 && !isGated(skill) {
				n++
				break
			}
		}
	}
	return n
}

func isGated(skill transport.Skill) bool {
	for _, s := range gatedSkills {
		if s == skill {
			return true
		}
	}
	return false
}

// SetSettings replaces the toggles read by the next Refresh.
func (c *Config) SetSettings(s Settings) {
	c.settings.Store(&s)
}

// Snapshot returns the most recently published snapshot.
func (c *Config) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

// Transports returns every loaded transport.
func (c *Config) Transports() *transport.Set {
	return c.transports
}

// Refresh publishes a new snapshot. Settings are always re-read; levels only
// while logged in. The usable transport map is rebuilt only when the client
// reports the client thread, otherwise the previous map is kept.
func (c *Config) Refresh() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.snapshot.Load()
	next := &Snapshot{
		engine:   c.engine,
		settings: *c.settings.Load(),
		levels:   prev.levels,
		usable:   prev.usable,
		count:    prev.count,
	}

	if c.client.IsLoggedIn() {
		for _, s := range gatedSkills {
			next.levels[s] = c.client.BoostedLevel(s)
		}
		if c.client.IsClientThread() {
			c.rebuild(next)
		}
	}

	c.snapshot.Store(next)
	return next
}

func (c *Config) rebuild(s *Snapshot) {
	quests := make(map[string]transport.QuestState)
	questState := func(name string) transport.QuestState {
		st, ok := quests[name]
		if !ok {
			st = c.client.QuestState(name)
			quests[name] = st
		}
		return st
	}

	e := eligibility{
		settings: s.settings,
		levels:   s.levels,
		quest:    questState,
	}
	e.settings.UseFairyRings = e.settings.UseFairyRings && questState(FairyRingQuest) != transport.NotStarted
	e.settings.UseGnomeGliders = e.settings.UseGnomeGliders && questState(GnomeGliderQuest) == transport.Finished
	e.settings.UseSpiritTrees = e.settings.UseSpiritTrees && questState(SpiritTreeQuest) == transport.Finished

	usable := make(map[geo.Point][]*transport.Transport, c.transports.Origins())
	count := 0
	for t := range c.transports.All() {
		if e.use(t) {
			usable[t.Origin] = append(usable[t.Origin], t)
			count++
		}
	}
	s.usable = usable
	s.count = count
}

type eligibility struct {
	settings Settings
	levels   [transport.SkillCount]int
	quest    func(string) transport.QuestState
}

func (e *eligibility) use(t *transport.Transport) bool {
	s := &e.settings

	if t.IsAgilityShortcut() {
		if !s.UseAgilityShortcuts || e.levels[transport.Agility] < t.RequiredLevel(transport.Agility) {
			return false
		}
		if t.IsGrappleShortcut() && (!s.UseGrappleShortcuts ||
			e.levels[transport.Ranged] < t.RequiredLevel(transport.Ranged) ||
			e.levels[transport.Strength] < t.RequiredLevel(transport.Strength)) {
			return false
		}
	}

	switch t.Category {
	case transport.Boat:
		if !s.UseBoats {
			return false
		}
	case transport.Canoe:
		if !s.UseCanoes || e.levels[transport.Woodcutting] < t.RequiredLevel(transport.Woodcutting) {
			return false
		}
	case transport.CharterShip:
		if !s.UseCharterShips {
			return false
		}
	case transport.Ship:
		if !s.UseShips {
			return false
		}
	case transport.FairyRing:
		if !s.UseFairyRings {
			return false
		}
	case transport.GnomeGlider:
		if !s.UseGnomeGliders {
			return false
		}
	case transport.SpiritTree:
		if !s.UseSpiritTrees {
			return false
		}
	case transport.TeleportationLever:
		if !s.UseTeleportationLevers {
			return false
		}
	case transport.TeleportationPortal:
		if !s.UseTeleportationPortals {
			return false
		}
	case transport.Teleport:
		if !s.UseTeleports {
			return false
		}
	}

	if prayer := t.RequiredLevel(transport.Prayer); prayer > 1 && e.levels[transport.Prayer] < prayer {
		return false
	}

	if t.IsPrerequisiteLocked() {
		finished := true
		t.Prerequisites.Each(func(name string) {
			if e.quest(name) != transport.Finished {
				finished = false
			}
		})
		if !finished {
			return false
		}
	}
	return true
}

// Snapshot is an immutable view of the search configuration. Searches hold
// the snapshot they started with.
type Snapshot struct {
	engine   *geo.Engine
	settings Settings
	levels   [transport.SkillCount]int
	usable   map[geo.Point][]*transport.Transport
	count    int
}

// Map returns the collision map.
func (s *Snapshot) Map() *geo.Engine {
	return s.engine
}

// Settings returns the toggles the snapshot was built with.
func (s *Snapshot) Settings() Settings {
	return s.settings
}

// Level returns the level recorded for skill.
func (s *Snapshot) Level(skill transport.Skill) int {
	return s.levels[skill]
}

// TransportsFrom returns the usable transports departing from p.
func (s *Snapshot) TransportsFrom(p geo.Point) []*transport.Transport {
	return s.usable[p]
}

// Usable returns the number of usable transports.
func (s *Snapshot) Usable() int {
	return s.count
}

// Cutoff is the time a search may run without improving its best path.
func (s *Snapshot) Cutoff() time.Duration {
	return time.Duration(s.settings.CalculationCutoff) * TickLength
}

// AvoidWilderness reports whether wilderness avoidance is enabled.
func (s *Snapshot) AvoidWilderness() bool {
	return s.settings.AvoidWilderness
}

// AvoidWildernessEdge reports whether the move from -> to must be skipped:
// avoidance is on, the move enters the wilderness and the target is outside it.
func (s *Snapshot) AvoidWildernessEdge(from, to geo.Point, targetInWilderness bool) bool {
	return s.settings.AvoidWilderness && !InWilderness(from) && InWilderness(to) && !targetInWilderness
}
