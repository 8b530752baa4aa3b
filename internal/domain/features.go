package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Activity is the tag of an activity stream row.
type Activity string

const (
	QuestAcceptedActivity  Activity = "quest_accepted"
	QuestCompletedActivity Activity = "quest_completed"
	ItemPickupActivity     Activity = "item_pickup"
	LevelUpActivity        Activity = "level_up"
	BattleStartActivity    Activity = "battle_start"
	BattleEndActivity      Activity = "battle_end"
	DungeonEnterActivity   Activity = "dungeon_enter"
	DungeonExitActivity    Activity = "dungeon_exit"
	SkillLearnedActivity   Activity = "skill_learned"
	PartyJoinActivity      Activity = "party_join"
)

// Activities lists every tag in a stable order.
var Activities = []Activity{
	QuestAcceptedActivity,
	QuestCompletedActivity,
	ItemPickupActivity,
	LevelUpActivity,
	BattleStartActivity,
	BattleEndActivity,
	DungeonEnterActivity,
	DungeonExitActivity,
	SkillLearnedActivity,
	PartyJoinActivity,
}

// Valid reports whether a is a known tag.
func (a Activity) Valid() bool {
	for _, known := range Activities {
		if a == known {
			return true
		}
	}
	return false
}

// Features is the payload of an event. Each activity has exactly one
// implementation; field order is the serialized key order.
type Features interface {
	Activity() Activity
}

type QuestAccepted struct {
	QuestID    string `json:"quest_id"`
	QuestName  string `json:"quest_name"`
	Difficulty string `json:"difficulty"`
}

type QuestCompleted struct {
	QuestID    string `json:"quest_id"`
	RewardGold int    `json:"reward_gold"`
	XPGained   int    `json:"xp_gained"`
}

type ItemPickup struct {
	ItemID     string `json:"item_id"`
	ItemName   string `json:"item_name"`
	ItemRarity string `json:"item_rarity"`
}

type LevelUp struct {
	NewLevel int    `json:"new_level"`
	Class    string `json:"class"`
}

type BattleStart struct {
	EnemyType string `json:"enemy_type"`
	Location  string `json:"location"`
}

type BattleEnd struct {
	Outcome     string `json:"outcome"`
	DamageTaken int    `json:"damage_taken"`
}

type DungeonEnter struct {
	DungeonName string `json:"dungeon_name"`
	DungeonTier int    `json:"dungeon_tier"`
}

type DungeonExit struct {
	LootCount        int `json:"loot_count"`
	TimeSpentMinutes int `json:"time_spent_minutes"`
}

type SkillLearned struct {
	SkillName string `json:"skill_name"`
	SkillType string `json:"skill_type"`
}

type PartyJoin struct {
	PartyID   string `json:"party_id"`
	PartySize int    `json:"party_size"`
}

func (QuestAccepted) Activity() Activity  { return QuestAcceptedActivity }
func (QuestCompleted) Activity() Activity { return QuestCompletedActivity }
func (ItemPickup) Activity() Activity     { return ItemPickupActivity }
func (LevelUp) Activity() Activity        { return LevelUpActivity }
func (BattleStart) Activity() Activity    { return BattleStartActivity }
func (BattleEnd) Activity() Activity      { return BattleEndActivity }
func (DungeonEnter) Activity() Activity   { return DungeonEnterActivity }
func (DungeonExit) Activity() Activity    { return DungeonExitActivity }
func (SkillLearned) Activity() Activity   { return SkillLearnedActivity }
func (PartyJoin) Activity() Activity      { return PartyJoinActivity }

// MarshalFeatures encodes f as compact JSON without HTML escaping.
func MarshalFeatures(f Features) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("nil features")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("marshal %s features: %w", f.Activity(), err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeFeatures decodes raw JSON into the variant for activity. Unknown
// keys and anything after the object are rejected so a row can only decode
// into the shape it was written with. Missing keys decode as zero values;
// use schema.Validator.ValidateJSON on the raw text to require them.
func DecodeFeatures(activity Activity, raw []byte) (Features, error) {
	var target Features
	switch activity {
	case QuestAcceptedActivity:
		target = &QuestAccepted{}
	case QuestCompletedActivity:
		target = &QuestCompleted{}
	case ItemPickupActivity:
		target = &ItemPickup{}
	case LevelUpActivity:
		target = &LevelUp{}
	case BattleStartActivity:
		target = &BattleStart{}
	case BattleEndActivity:
		target = &BattleEnd{}
	case DungeonEnterActivity:
		target = &DungeonEnter{}
	case DungeonExitActivity:
		target = &DungeonExit{}
	case SkillLearnedActivity:
		target = &SkillLearned{}
	case PartyJoinActivity:
		target = &PartyJoin{}
	default:
		return nil, fmt.Errorf("unknown activity %q", activity)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return nil, fmt.Errorf("decode %s features: %w", activity, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s features: trailing data after object", activity)
	}
	return deref(target), nil
}

func deref(f Features) Features {
	switch v := f.(type) {
	case *QuestAccepted:
		return *v
	case *QuestCompleted:
		return *v
	case *ItemPickup:
		return *v
	case *LevelUp:
		return *v
	case *BattleStart:
		return *v
	case *BattleEnd:
		return *v
	case *DungeonEnter:
		return *v
	case *DungeonExit:
		return *v
	case *SkillLearned:
		return *v
	case *PartyJoin:
		return *v
	}
	return f
}
