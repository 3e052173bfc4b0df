package transport

import (
	"fmt"
	"strings"

	"github.com/zyedidia/generic/mapset"

	"github.com/udisondev/tilepath/internal/geo"
)

// Skill identifies an ability whose level can gate a transport.
type Skill uint8

const (
	Attack Skill = iota
	Defence
	Strength
	Hitpoints
	Ranged
	Prayer
	Magic
	Cooking
	Woodcutting
	Fletching
	Fishing
	Firemaking
	Crafting
	Smithing
	Mining
	Herblore
	Agility
	Thieving
	Slayer
	Farming
	Runecraft
	Hunter
	Construction

	SkillCount
)

var skillNames = [SkillCount]string{
	"Attack", "Defence", "Strength", "Hitpoints", "Ranged", "Prayer", "Magic",
	"Cooking", "Woodcutting", "Fletching", "Fishing", "Firemaking", "Crafting",
	"Smithing", "Mining", "Herblore", "Agility", "Thieving", "Slayer", "Farming",
	"Runecraft", "Hunter", "Construction",
}

func (s Skill) String() string {
	if s < SkillCount {
		return skillNames[s]
	}
	return fmt.Sprintf("Skill(%d)", uint8(s))
}

// ParseSkill resolves a skill name case-insensitively.
func ParseSkill(name string) (Skill, bool) {
	for i, n := range skillNames {
		if strings.EqualFold(n, name) {
			return Skill(i), true
		}
	}
	return 0, false
}

// QuestState is the completion state of a prerequisite.
type QuestState uint8

const (
	NotStarted QuestState = iota
	InProgress
	Finished
)

func (q QuestState) String() string {
	switch q {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("QuestState(%d)", uint8(q))
}

// ParseQuestState accepts the names produced by String.
func ParseQuestState(s string) (QuestState, error) {
	switch strings.ToLower(s) {
	case "not_started", "":
		return NotStarted, nil
	case "in_progress":
		return InProgress, nil
	case "finished":
		return Finished, nil
	}
	return NotStarted, fmt.Errorf("unknown quest state %q", s)
}

// Category tags the declaration source of a transport and selects the toggle
// that governs it.
type Category uint8

const (
	General Category = iota // walkable shortcuts, doors, stairs, agility obstacles
	Boat
	Canoe
	CharterShip
	Ship
	FairyRing
	GnomeGlider
	SpiritTree
	TeleportationLever
	TeleportationPortal
	Teleport

	CategoryCount
)

var categoryNames = [CategoryCount]string{
	"transport", "boat", "canoe", "charter_ship", "ship", "fairy_ring",
	"gnome_glider", "spirit_tree", "teleportation_lever", "teleportation_portal", "teleport",
}

func (c Category) String() string {
	if c < CategoryCount {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", uint8(c))
}

// ParseCategory resolves a category by its String form.
func ParseCategory(s string) (Category, error) {
	for i, n := range categoryNames {
		if n == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown transport category %q", s)
}

// IsNetwork reports whether declarations of this category list member
// positions of an all-to-all network instead of individual edges.
func (c Category) IsNetwork() bool {
	return c == FairyRing
}

// Transport is a directed edge between two tiles. Transports are immutable
// once loaded and owned by a Set.
type Transport struct {
	Origin      geo.Point
	Destination geo.Point
	Wait        int // ticks
	Category    Category
	Action      string
	Object      string

	Skills        map[Skill]int
	Prerequisites mapset.Set[string]
	Comment       string
}

// New creates an ungated transport.
func New(origin, destination geo.Point, category Category, wait int) *Transport {
	return &Transport{
		Origin:        origin,
		Destination:   destination,
		Wait:          wait,
		Category:      category,
		Skills:        make(map[Skill]int),
		Prerequisites: mapset.New[string](),
	}
}

// RequiredLevel returns the level required in skill (0 when ungated).
func (t *Transport) RequiredLevel(s Skill) int {
	return t.Skills[s]
}

// IsAgilityShortcut reports whether the transport needs more than the minimum agility level.
func (t *Transport) IsAgilityShortcut() bool {
	return t.RequiredLevel(Agility) > 1
}

// IsGrappleShortcut reports whether the transport is an agility shortcut that
// also needs ranged or strength.
func (t *Transport) IsGrappleShortcut() bool {
	return t.IsAgilityShortcut() && (t.RequiredLevel(Ranged) > 1 || t.RequiredLevel(Strength) > 1)
}

// IsPrerequisiteLocked reports whether any prerequisite must be completed.
func (t *Transport) IsPrerequisiteLocked() bool {
	return t.Prerequisites.Size() > 0
}

func (t *Transport) String() string {
	return fmt.Sprintf("%s %s -> %s (wait %d)", t.Category, t.Origin, t.Destination, t.Wait)
}
