package domain

// WarSummary is the aggregated response for GET /war/{tag}. Which fields are
// populated depends on InWar: for "notInWar" and "private" only the base
// player/clan fields are present; pointer fields stay nil (and are omitted
// from the JSON) rather than being emitted as null placeholders.
type WarSummary struct {
	InWar    WarState      `json:"inWar"`
	Player   PlayerInfo    `json:"player"`
	Clan     ClanInfo      `json:"clan"`
	Opponent *OpponentInfo `json:"opponent,omitempty"`

	MaxStars         *int   `json:"maxStars,omitempty"`
	MaxAttacks       *int   `json:"maxAttacks,omitempty"`
	AttacksPerMember *int   `json:"attacksPerMember,omitempty"`
	StartTime        string `json:"startTime,omitempty"`
	EndTime          string `json:"endTime,omitempty"`

	// One entry per CWL round, only set when InWar is "cwl".
	RoundStatusSequence []RoundStatus `json:"roundStatusSequence,omitempty"`
}

type PlayerInfo struct {
	Tag           string `json:"tag"`
	Name          string `json:"name"`
	TownHallLevel int    `json:"townHallLevel"`

	// "yes" or "no" while a war context is active, empty otherwise.
	IsParticipating string           `json:"isParticipating,omitempty"`
	MapPosition     *int             `json:"mapPosition,omitempty"`
	Attacks         []EnrichedAttack `json:"attacks,omitempty"`
	Defense         *DefenseInfo     `json:"defense,omitempty"`
}

type ClanInfo struct {
	Name      string    `json:"name"`
	Tag       string    `json:"tag"`
	BadgeURLs BadgeURLs `json:"badgeUrls"`
	Attacks   *int      `json:"attacks,omitempty"`
	Stars     *int      `json:"stars,omitempty"`
}

type OpponentInfo struct {
	Name      string    `json:"name"`
	Tag       string    `json:"tag"`
	BadgeURLs BadgeURLs `json:"badgeUrls"`
	// War log entries carry no opponent attack count.
	Attacks               *int     `json:"attacks,omitempty"`
	Stars                 int      `json:"stars"`
	DestructionPercentage *float64 `json:"destructionPercentage,omitempty"`
	ClanLevel             *int     `json:"clanLevel,omitempty"`
}

type BadgeURLs struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

// EnrichedAttack is one of the acting player's attacks annotated with the
// defender's profile. The attacker tag and intra-war order are internal and
// stripped from the output.
type EnrichedAttack struct {
	Stars                 int     `json:"stars"`
	DestructionPercentage float64 `json:"destructionPercentage"`
	DefenderTag           string  `json:"defenderTag"`
	DefenderName          string  `json:"defenderName"`
	DefenderTownHallLevel int     `json:"defenderTownHallLevel"`
	DefenderMapPosition   int     `json:"defenderMapPosition"`
	NewStars              int     `json:"newStars"`
}

// DefenseInfo is the best opponent attack against the acting player,
// annotated with the attacker's profile.
type DefenseInfo struct {
	AttackerTag           string  `json:"attackerTag"`
	AttackerName          string  `json:"attackerName"`
	AttackerTownHallLevel int     `json:"attackerTownHallLevel"`
	AttackerMapPosition   int     `json:"attackerMapPosition"`
	Stars                 int     `json:"stars"`
	DestructionPercentage float64 `json:"destructionPercentage"`
}
