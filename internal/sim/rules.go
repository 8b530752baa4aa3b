package sim

import (
	"fmt"

	"incentives/internal/config"
	"incentives/internal/domain"
)

// turn carries what the legality pass learned so effects can reuse it.
type turn struct {
	ready     []string
	unlearned []domain.Skill
}

// rule describes one activity: when it is legal, how likely it is to be
// drawn, and what it does to the hero.
type rule struct {
	activity domain.Activity
	legal    func(s *Simulator, st *HeroState, t *turn) bool
	// chance gates a legal action behind a random roll; nil means always.
	chance func(c config.Chances) float64
	weight func(w config.Weights, st *HeroState) int
	apply  func(s *Simulator, st *HeroState, t *turn)
}

var rules = []rule{
	{
		activity: domain.ItemPickupActivity,
		legal:    func(_ *Simulator, st *HeroState, _ *turn) bool { return !st.InBattle() },
		weight:   func(w config.Weights, _ *HeroState) int { return w.ItemPickup },
		apply:    (*Simulator).pickupItem,
	},
	{
		activity: domain.QuestAcceptedActivity,
		legal: func(s *Simulator, st *HeroState, _ *turn) bool {
			return len(st.ActiveQuests) < s.cfg.MaxActiveQuests && len(st.acceptable()) > 0 && !st.InBattle()
		},
		weight: func(w config.Weights, st *HeroState) int {
			if len(st.ActiveQuests) == 0 {
				return w.QuestAcceptedIdle
			}
			return w.QuestAccepted
		},
		apply: (*Simulator).acceptQuest,
	},
	{
		activity: domain.QuestCompletedActivity,
		legal: func(s *Simulator, st *HeroState, t *turn) bool {
			for _, q := range st.ActiveQuests {
				if st.minutesSince(q.Started) >= s.cfg.QuestReadyMinutes {
					t.ready = append(t.ready, q.ID)
				}
			}
			return len(t.ready) > 0
		},
		weight: func(w config.Weights, _ *HeroState) int { return w.QuestCompleted },
		apply:  (*Simulator).completeQuest,
	},
	{
		activity: domain.DungeonEnterActivity,
		legal: func(_ *Simulator, st *HeroState, _ *turn) bool {
			return !st.InDungeon() && !st.InBattle()
		},
		weight: func(w config.Weights, _ *HeroState) int { return w.DungeonEnter },
		apply:  (*Simulator).enterDungeon,
	},
	{
		activity: domain.DungeonExitActivity,
		legal: func(s *Simulator, st *HeroState, _ *turn) bool {
			return st.InDungeon() && st.minutesSince(st.Dungeon.Entered) >= s.cfg.DungeonMinMinutes
		},
		weight: func(w config.Weights, _ *HeroState) int { return w.DungeonExit },
		apply:  (*Simulator).exitDungeon,
	},
	{
		activity: domain.BattleStartActivity,
		legal:    func(_ *Simulator, st *HeroState, _ *turn) bool { return !st.InBattle() },
		weight: func(w config.Weights, st *HeroState) int {
			if st.InDungeon() {
				return w.BattleStartDungeon
			}
			return w.BattleStart
		},
		apply: (*Simulator).startBattle,
	},
	{
		activity: domain.BattleEndActivity,
		legal: func(s *Simulator, st *HeroState, _ *turn) bool {
			return st.InBattle() && st.minutesSince(st.Battle.Started) >= s.cfg.BattleMinMinutes
		},
		weight: func(w config.Weights, _ *HeroState) int { return w.BattleEnd },
		apply:  (*Simulator).endBattle,
	},
	{
		activity: domain.LevelUpActivity,
		legal:    func(_ *Simulator, _ *HeroState, _ *turn) bool { return true },
		chance:   func(c config.Chances) float64 { return c.LevelUp },
		weight:   func(w config.Weights, _ *HeroState) int { return w.LevelUp },
		apply:    (*Simulator).levelUp,
	},
	{
		activity: domain.SkillLearnedActivity,
		legal: func(s *Simulator, st *HeroState, t *turn) bool {
			for _, sk := range s.cat.SkillsForClass(st.Hero.Class) {
				if !st.LearnedSkills[sk.ID] {
					t.unlearned = append(t.unlearned, sk)
				}
			}
			return len(t.unlearned) > 0 && st.Level >= 2
		},
		chance: func(c config.Chances) float64 { return c.Skill },
		weight: func(w config.Weights, _ *HeroState) int { return w.SkillLearned },
		apply:  (*Simulator).learnSkill,
	},
	{
		activity: domain.PartyJoinActivity,
		legal:    func(_ *Simulator, st *HeroState, _ *turn) bool { return st.PartyID == "" },
		chance:   func(c config.Chances) float64 { return c.Party },
		weight:   func(w config.Weights, _ *HeroState) int { return w.PartyJoin },
		apply:    (*Simulator).joinParty,
	},
}

func (s *Simulator) pickupItem(st *HeroState, _ *turn) {
	item := pick(s, s.cat.Items)
	st.record(domain.ItemPickup{
		ItemID:     item.ID,
		ItemName:   item.Name,
		ItemRarity: item.Rarity,
	}, s.offset(domain.ItemPickupActivity))
}

func (s *Simulator) acceptQuest(st *HeroState, _ *turn) {
	quest := pick(s, st.acceptable())
	st.ActiveQuests = append(st.ActiveQuests, ActiveQuest{ID: quest.ID, Started: st.Clock})
	st.record(domain.QuestAccepted{
		QuestID:    quest.ID,
		QuestName:  quest.Name,
		Difficulty: quest.Difficulty,
	}, s.offset(domain.QuestAcceptedActivity))
}

func (s *Simulator) completeQuest(st *HeroState, t *turn) {
	id := pick(s, t.ready)
	quest, _ := s.cat.Quest(id)
	st.removeActive(id)
	if len(st.available) > s.cfg.MinAvailableQuests {
		st.removeAvailable(id)
	}
	st.record(domain.QuestCompleted{
		QuestID:    quest.ID,
		RewardGold: s.between(quest.RewardGold),
		XPGained:   s.between(quest.XP),
	}, s.offset(domain.QuestCompletedActivity))
}

func (s *Simulator) levelUp(st *HeroState, _ *turn) {
	st.Level++
	st.record(domain.LevelUp{
		NewLevel: st.Level,
		Class:    st.Hero.Class,
	}, s.offset(domain.LevelUpActivity))
}

func (s *Simulator) startBattle(st *HeroState, _ *turn) {
	var pool []domain.Enemy
	if st.InDungeon() {
		pool = enemiesForTier(s.cat.Enemies, st.Dungeon.Dungeon.Tier)
		if len(pool) == 0 {
			pool = s.cat.Enemies
		}
	} else {
		pool = enemiesByDifficulty(s.cat.Enemies, "easy", "medium")
	}
	enemy := pick(s, pool)
	location := pick(s, enemy.Locations)
	st.Battle = &Battle{Enemy: enemy, Location: location, Started: st.Clock}
	st.record(domain.BattleStart{
		EnemyType: enemy.Type,
		Location:  location,
	}, s.offset(domain.BattleStartActivity))
}

func (s *Simulator) endBattle(st *HeroState, _ *turn) {
	outcome, damage := "retreat", s.cfg.RetreatDamage
	if s.rng.Float64() < s.cfg.Chances.Victory {
		outcome, damage = "victory", s.cfg.VictoryDamage
	}
	st.record(domain.BattleEnd{
		Outcome:     outcome,
		DamageTaken: s.between(damage),
	}, s.offset(domain.BattleEndActivity))
	st.Battle = nil
}

func (s *Simulator) enterDungeon(st *HeroState, _ *turn) {
	d := pick(s, s.cat.Dungeons)
	st.Dungeon = &DungeonVisit{Dungeon: d, Entered: st.Clock}
	st.record(domain.DungeonEnter{
		DungeonName: d.Name,
		DungeonTier: d.Tier,
	}, s.offset(domain.DungeonEnterActivity))
}

func (s *Simulator) exitDungeon(st *HeroState, _ *turn) {
	spent := st.minutesSince(st.Dungeon.Entered)
	st.record(domain.DungeonExit{
		LootCount:        s.between(st.Dungeon.Dungeon.Loot),
		TimeSpentMinutes: spent,
	}, s.offset(domain.DungeonExitActivity))
	st.Dungeon = nil
}

func (s *Simulator) learnSkill(st *HeroState, t *turn) {
	skill := pick(s, t.unlearned)
	st.LearnedSkills[skill.ID] = true
	st.record(domain.SkillLearned{
		SkillName: skill.Name,
		SkillType: skill.Type,
	}, s.offset(domain.SkillLearnedActivity))
}

func (s *Simulator) joinParty(st *HeroState, _ *turn) {
	st.PartyID = fmt.Sprintf("party_%d", s.between(s.cfg.PartyNumber))
	st.record(domain.PartyJoin{
		PartyID:   st.PartyID,
		PartySize: s.between(s.cfg.PartySize),
	}, s.offset(domain.PartyJoinActivity))
}

// enemiesForTier maps dungeon tiers onto enemy difficulty bands.
func enemiesForTier(enemies []domain.Enemy, tier int) []domain.Enemy {
	switch {
	case tier <= 1:
		return enemiesByDifficulty(enemies, "easy")
	case tier == 2:
		return enemiesByDifficulty(enemies, "easy", "medium")
	case tier == 3:
		return enemiesByDifficulty(enemies, "medium", "hard")
	default:
		return enemiesByDifficulty(enemies, "hard", "legendary")
	}
}

func enemiesByDifficulty(enemies []domain.Enemy, difficulties ...string) []domain.Enemy {
	var out []domain.Enemy
	for _, e := range enemies {
		for _, d := range difficulties {
			if e.Difficulty == d {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
