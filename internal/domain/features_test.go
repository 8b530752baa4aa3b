package domain_test

import (
	"strings"
	"testing"

	"incentives/internal/domain"
)

func TestMarshalFeaturesKeepsFieldOrderAndQuotes(t *testing.T) {
	raw, err := domain.MarshalFeatures(domain.QuestAccepted{
		QuestID:    "quest_tower",
		QuestName:  "Climb the Wizard's Tower",
		Difficulty: "hard",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"quest_id":"quest_tower","quest_name":"Climb the Wizard's Tower","difficulty":"hard"}`
	if string(raw) != want {
		t.Fatalf("got %s, want %s", raw, want)
	}
}

func TestMarshalFeaturesDoesNotEscapeHTML(t *testing.T) {
	raw, err := domain.MarshalFeatures(domain.ItemPickup{ItemID: "x", ItemName: "Salt & <Pepper>", ItemRarity: "common"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), "Salt & <Pepper>") {
		t.Fatalf("html escaped: %s", raw)
	}
}

func TestDecodeFeaturesRoundTrip(t *testing.T) {
	all := []domain.Features{
		domain.QuestAccepted{QuestID: "quest_goblin", QuestName: "Clear the Goblin Camp", Difficulty: "easy"},
		domain.QuestCompleted{QuestID: "quest_goblin", RewardGold: 75, XPGained: 150},
		domain.ItemPickup{ItemID: "sword_flame", ItemName: "Flame Sword", ItemRarity: "rare"},
		domain.LevelUp{NewLevel: 4, Class: "Mage"},
		domain.BattleStart{EnemyType: "Goblin", Location: "Dark Forest"},
		domain.BattleEnd{Outcome: "victory", DamageTaken: 12},
		domain.DungeonEnter{DungeonName: "Shadow Keep", DungeonTier: 3},
		domain.DungeonExit{LootCount: 2, TimeSpentMinutes: 45},
		domain.SkillLearned{SkillName: "Fireball", SkillType: "offensive"},
		domain.PartyJoin{PartyID: "party_123", PartySize: 4},
	}
	if len(all) != len(domain.Activities) {
		t.Fatalf("test covers %d activities, want %d", len(all), len(domain.Activities))
	}
	for _, f := range all {
		raw, err := domain.MarshalFeatures(f)
		if err != nil {
			t.Fatalf("marshal %s: %v", f.Activity(), err)
		}
		got, err := domain.DecodeFeatures(f.Activity(), raw)
		if err != nil {
			t.Fatalf("decode %s: %v", f.Activity(), err)
		}
		if got != f {
			t.Fatalf("%s round trip: got %#v, want %#v", f.Activity(), got, f)
		}
	}
}

func TestDecodeFeaturesRejectsUnknownShapes(t *testing.T) {
	if _, err := domain.DecodeFeatures(domain.LevelUpActivity, []byte(`{"new_level":2,"class":"Rogue","extra":1}`)); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if _, err := domain.DecodeFeatures(domain.LevelUpActivity, []byte(`{"quest_id":"q"}`)); err == nil {
		t.Fatalf("expected error decoding quest payload as level_up")
	}
	if _, err := domain.DecodeFeatures("teleport", []byte(`{}`)); err == nil {
		t.Fatalf("expected unknown activity error")
	}
	for _, raw := range []string{
		`{"new_level":2,"class":"Rogue"} trailing`,
		`{"new_level":2,"class":"Rogue"}{}`,
	} {
		if _, err := domain.DecodeFeatures(domain.LevelUpActivity, []byte(raw)); err == nil {
			t.Fatalf("expected trailing data error for %s", raw)
		}
	}
	if _, err := domain.DecodeFeatures(domain.LevelUpActivity, []byte(`{"new_level":2,"class":"Rogue"}`+"\n")); err != nil {
		t.Fatalf("trailing whitespace should decode: %v", err)
	}
}

func TestActivityValid(t *testing.T) {
	for _, a := range domain.Activities {
		if !a.Valid() {
			t.Fatalf("%s should be valid", a)
		}
	}
	if domain.Activity("teleport").Valid() {
		t.Fatalf("teleport should be invalid")
	}
}

func TestCatalogLookups(t *testing.T) {
	cat := domain.Catalogs{
		Quests: []domain.Quest{{ID: "a"}, {ID: "b"}},
		Skills: []domain.Skill{
			{ID: "s1", Class: "Mage"},
			{ID: "s2", Class: "Rogue"},
			{ID: "s3", Class: "Mage"},
		},
	}
	if q, ok := cat.Quest("b"); !ok || q.ID != "b" {
		t.Fatalf("quest lookup: %v %v", q, ok)
	}
	if _, ok := cat.Quest("missing"); ok {
		t.Fatalf("expected missing quest")
	}
	skills := cat.SkillsForClass("Mage")
	if len(skills) != 2 || skills[0].ID != "s1" || skills[1].ID != "s3" {
		t.Fatalf("mage skills: %+v", skills)
	}
}
