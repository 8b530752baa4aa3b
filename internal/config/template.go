package config

const defaultTemplate = `seed:
  seed: 42
  start: "2025-06-01 06:00:00"
  end: "2025-06-07 23:59:59"
  start_jitter_hours: 4
  start_level: {min: 1, max: 3}
  max_events_per_hero: 60
  max_active_quests: 2
  min_available_quests: 2
  quest_ready_minutes: 20
  dungeon_min_minutes: 15
  battle_min_minutes: 2
  chances:
    level_up: 0.05
    skill: 0.10
    party: 0.03
    victory: 0.80
  weights:
    quest_accepted_idle: 3
    quest_accepted: 1
    quest_completed: 5
    item_pickup: 2
    level_up: 1
    battle_start_dungeon: 4
    battle_start: 2
    battle_end: 8
    dungeon_enter: 2
    dungeon_exit: 4
    skill_learned: 1
    party_join: 1
  offsets:
    quest_accepted: {min: 1, max: 10}
    quest_completed: {min: 5, max: 30}
    item_pickup: {min: 1, max: 5}
    level_up: {min: 1, max: 3}
    battle_start: {min: 1, max: 5}
    battle_end: {min: 2, max: 8}
    dungeon_enter: {min: 5, max: 20}
    dungeon_exit: {min: 2, max: 10}
    skill_learned: {min: 1, max: 3}
    party_join: {min: 5, max: 15}
  idle_step: {min: 5, max: 15}
  step: {min: 5, max: 30}
  rest:
    start_hour: 23
    end_hour: 6
    jump_hours: {min: 4, max: 8}
  victory_damage: {min: 5, max: 50}
  retreat_damage: {min: 30, max: 80}
  party_number: {min: 100, max: 999}
  party_size: {min: 2, max: 5}

catalogs:
  heroes:
    - {id: hero_001, name: "Aldric the Swift", class: Rogue}
    - {id: hero_002, name: "Brynn Ironshield", class: Warrior}
    - {id: hero_003, name: "Celeste Moonwhisper", class: Mage}
    - {id: hero_004, name: "Doran Stoneforge", class: Paladin}
    - {id: hero_005, name: "Elara Nightbloom", class: Ranger}

  quests:
    - {id: quest_goblin, name: "Clear the Goblin Camp", difficulty: easy, reward_gold: {min: 50, max: 100}, xp: {min: 100, max: 200}}
    - {id: quest_artifact, name: "Retrieve the Lost Artifact", difficulty: medium, reward_gold: {min: 150, max: 300}, xp: {min: 300, max: 500}}
    - {id: quest_dragon, name: "Slay the Dragon", difficulty: legendary, reward_gold: {min: 1000, max: 2000}, xp: {min: 2000, max: 3000}}
    - {id: quest_escort, name: "Escort the Merchant", difficulty: easy, reward_gold: {min: 30, max: 80}, xp: {min: 80, max: 150}}
    - {id: quest_curse, name: "Lift the Village Curse", difficulty: medium, reward_gold: {min: 200, max: 400}, xp: {min: 400, max: 700}}
    - {id: quest_undead, name: "Purge the Undead Crypt", difficulty: hard, reward_gold: {min: 400, max: 700}, xp: {min: 800, max: 1200}}
    - {id: quest_tower, name: "Climb the Wizard's Tower", difficulty: hard, reward_gold: {min: 350, max: 600}, xp: {min: 700, max: 1000}}
    - {id: quest_relic, name: "Find the Sacred Relic", difficulty: legendary, reward_gold: {min: 800, max: 1500}, xp: {min: 1500, max: 2500}}

  items:
    - {id: sword_flame, name: "Flame Sword", rarity: rare, type: weapon}
    - {id: bow_eagle, name: "Eagle Eye Bow", rarity: rare, type: weapon}
    - {id: staff_storm, name: "Stormcaller Staff", rarity: epic, type: weapon}
    - {id: helm_iron, name: "Iron Helm", rarity: common, type: armor}
    - {id: ring_health, name: "Ring of Vitality", rarity: uncommon, type: accessory}
    - {id: potion_heal, name: "Healing Potion", rarity: common, type: consumable}
    - {id: potion_mana, name: "Mana Elixir", rarity: common, type: consumable}
    - {id: scroll_fire, name: "Scroll of Fireball", rarity: uncommon, type: consumable}
    - {id: amulet_luck, name: "Lucky Amulet", rarity: rare, type: accessory}
    - {id: boots_swift, name: "Boots of Swiftness", rarity: uncommon, type: armor}
    - {id: shield_oak, name: "Oaken Shield", rarity: common, type: armor}
    - {id: gem_power, name: "Power Gem", rarity: epic, type: material}

  enemies:
    - {type: Goblin, locations: [Forest, Camp], difficulty: easy}
    - {type: Skeleton, locations: [Crypt, Ruins], difficulty: easy}
    - {type: Orc, locations: [Mountains, Fortress], difficulty: medium}
    - {type: Wraith, locations: [Crypt, Tower], difficulty: medium}
    - {type: Troll, locations: [Swamp, Cave], difficulty: hard}
    - {type: Demon, locations: [Tower, Abyss], difficulty: hard}
    - {type: Dragon, locations: [Lair, Mountains], difficulty: legendary}
    - {type: Lich, locations: [Crypt, Tower], difficulty: legendary}

  dungeons:
    - {id: dungeon_crypt, name: "The Sunken Crypt", tier: 1, loot: {min: 2, max: 4}}
    - {id: dungeon_cave, name: "Darkfang Cave", tier: 2, loot: {min: 3, max: 5}}
    - {id: dungeon_tower, name: "The Obsidian Tower", tier: 3, loot: {min: 4, max: 6}}
    - {id: dungeon_fortress, name: "Iron Fortress", tier: 3, loot: {min: 5, max: 7}}
    - {id: dungeon_abyss, name: "The Endless Abyss", tier: 4, loot: {min: 6, max: 10}}

  skills:
    - {id: skill_slash, name: "Power Slash", type: combat, class: Warrior}
    - {id: skill_stealth, name: "Shadow Step", type: utility, class: Rogue}
    - {id: skill_fireball, name: "Fireball", type: magic, class: Mage}
    - {id: skill_heal, name: "Divine Heal", type: support, class: Paladin}
    - {id: skill_track, name: "Hunter's Mark", type: utility, class: Ranger}
    - {id: skill_shield, name: "Shield Wall", type: defense, class: Warrior}
    - {id: skill_poison, name: "Venomous Strike", type: combat, class: Rogue}
    - {id: skill_frost, name: "Frost Nova", type: magic, class: Mage}
    - {id: skill_smite, name: "Holy Smite", type: combat, class: Paladin}
    - {id: skill_trap, name: "Bear Trap", type: utility, class: Ranger}

build:
  docker: docker
  platform: linux/amd64
  pandoc_image: pandoc/extra
  weasyprint_image: minidocks/weasyprint:latest
  css: /data/assets/pdf/kozlovski-pdf.css

publish:
  bucket: ""
  region: auto
  endpoint: ""
  prefix: incentives
`
