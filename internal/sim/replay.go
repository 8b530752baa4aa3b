package sim

import (
	"fmt"
	"time"

	"incentives/internal/domain"
)

// ReplayError reports the first event that breaks a stream invariant.
type ReplayError struct {
	Index  int
	Entity string
	Reason string
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("event %d (%s): %s", e.Index, e.Entity, e.Reason)
}

type replayState struct {
	last      time.Time
	quests    map[string]bool
	inDungeon bool
	inBattle  bool
	party     string
}

// Replay walks a merged stream and checks that it is globally time ordered
// and that no hero ever holds more than maxQuests quests, more than one
// dungeon, more than one battle or more than one party. Completions and
// exits must match an open acceptance or entry.
func Replay(events []domain.Event, maxQuests int) error {
	heroes := map[string]*replayState{}
	var prev time.Time
	for i, e := range events {
		fail := func(format string, args ...any) error {
			return &ReplayError{Index: i, Entity: e.Entity, Reason: fmt.Sprintf(format, args...)}
		}
		if i > 0 && e.TS.Before(prev) {
			return fail("timestamp %s before previous %s", e.TS.Format(domain.TimestampLayout), prev.Format(domain.TimestampLayout))
		}
		prev = e.TS

		st, ok := heroes[e.Entity]
		if !ok {
			st = &replayState{quests: map[string]bool{}}
			heroes[e.Entity] = st
		}
		if e.TS.Before(st.last) {
			return fail("hero clock went backwards")
		}
		st.last = e.TS

		switch f := e.Features.(type) {
		case domain.QuestAccepted:
			if st.quests[f.QuestID] {
				return fail("quest %s accepted while already active", f.QuestID)
			}
			if len(st.quests) >= maxQuests {
				return fail("more than %d concurrent quests", maxQuests)
			}
			st.quests[f.QuestID] = true
		case domain.QuestCompleted:
			if !st.quests[f.QuestID] {
				return fail("quest %s completed without being accepted", f.QuestID)
			}
			delete(st.quests, f.QuestID)
		case domain.DungeonEnter:
			if st.inDungeon {
				return fail("entered %s while inside a dungeon", f.DungeonName)
			}
			st.inDungeon = true
		case domain.DungeonExit:
			if !st.inDungeon {
				return fail("dungeon exit without entry")
			}
			st.inDungeon = false
		case domain.BattleStart:
			if st.inBattle {
				return fail("battle with %s started during another battle", f.EnemyType)
			}
			st.inBattle = true
		case domain.BattleEnd:
			if !st.inBattle {
				return fail("battle end without start")
			}
			st.inBattle = false
		case domain.PartyJoin:
			if st.party != "" {
				return fail("joined %s while in %s", f.PartyID, st.party)
			}
			st.party = f.PartyID
		case nil:
			return fail("missing features")
		}
		if e.Features.Activity() != e.Activity {
			return fail("features for %s stored under %s", e.Features.Activity(), e.Activity)
		}
	}
	return nil
}
