package api

import "time"

// Upstream timestamps come in a fixed non-ISO layout, e.g. 20250829T071212.000Z.
const TimeLayout = "20060102T150405.000Z"

// ParseTime parses a Clash of Clans timestamp as UTC.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

type BadgeURLs struct {
	Small  string `json:"small"`
	Medium string `json:"medium"`
	Large  string `json:"large"`
}

type Player struct {
	Tag           string      `json:"tag"`
	Name          string      `json:"name"`
	TownHallLevel int         `json:"townHallLevel"`
	Clan          *PlayerClan `json:"clan,omitempty"`
}

type PlayerClan struct {
	Tag       string    `json:"tag"`
	Name      string    `json:"name"`
	ClanLevel int       `json:"clanLevel"`
	BadgeURLs BadgeURLs `json:"badgeUrls"`
}

// War is the shared payload shape of /clans/{tag}/currentwar and
// /clanwarleagues/wars/{warTag}. CWL wars carry no attacksPerMember;
// every member gets a single attack there.
type War struct {
	State                string  `json:"state"`
	TeamSize             int     `json:"teamSize"`
	AttacksPerMember     int     `json:"attacksPerMember,omitempty"`
	PreparationStartTime string  `json:"preparationStartTime,omitempty"`
	StartTime            string  `json:"startTime,omitempty"`
	EndTime              string  `json:"endTime,omitempty"`
	Clan                 WarClan `json:"clan"`
	Opponent             WarClan `json:"opponent"`
}

type WarClan struct {
	Tag                   string      `json:"tag"`
	Name                  string      `json:"name"`
	BadgeURLs             BadgeURLs   `json:"badgeUrls"`
	ClanLevel             int         `json:"clanLevel"`
	Attacks               int         `json:"attacks"`
	Stars                 int         `json:"stars"`
	DestructionPercentage float64     `json:"destructionPercentage"`
	Members               []WarMember `json:"members,omitempty"`
}

type WarMember struct {
	Tag                string      `json:"tag"`
	Name               string      `json:"name"`
	TownhallLevel      int         `json:"townhallLevel"`
	MapPosition        int         `json:"mapPosition"`
	Attacks            []WarAttack `json:"attacks,omitempty"`
	OpponentAttacks    int         `json:"opponentAttacks"`
	BestOpponentAttack *WarAttack  `json:"bestOpponentAttack,omitempty"`
}

type WarAttack struct {
	AttackerTag           string  `json:"attackerTag"`
	DefenderTag           string  `json:"defenderTag"`
	Stars                 int     `json:"stars"`
	DestructionPercentage float64 `json:"destructionPercentage"`
	Order                 int     `json:"order"`
	Duration              int     `json:"duration"`
}

type LeagueGroup struct {
	State  string        `json:"state"`
	Season string        `json:"season"`
	Rounds []LeagueRound `json:"rounds"`
}

type LeagueRound struct {
	WarTags []string `json:"warTags"`
}

type Warlog struct {
	Items []WarlogEntry `json:"items"`
}

// WarlogEntry is a reduced war record: no member roster, no per-attack
// detail, no start time. CWL season entries have an empty result.
type WarlogEntry struct {
	Result           string     `json:"result"`
	EndTime          string     `json:"endTime"`
	TeamSize         int        `json:"teamSize"`
	AttacksPerMember int        `json:"attacksPerMember,omitempty"`
	Clan             WarlogClan `json:"clan"`
	Opponent         WarlogClan `json:"opponent"`
}

type WarlogClan struct {
	Tag                   string    `json:"tag,omitempty"`
	Name                  string    `json:"name,omitempty"`
	BadgeURLs             BadgeURLs `json:"badgeUrls"`
	ClanLevel             int       `json:"clanLevel"`
	Attacks               int       `json:"attacks,omitempty"`
	Stars                 int       `json:"stars"`
	DestructionPercentage float64   `json:"destructionPercentage"`
	ExpEarned             int       `json:"expEarned,omitempty"`
}
