package domain

// WarState is the outward `inWar` discriminator. For live regular wars it is
// the upstream state verbatim; "cwl" and "private" are derived locally.
type WarState string

const (
	WarStateNotInWar    WarState = "notInWar"
	WarStatePrivate     WarState = "private"
	WarStatePreparation WarState = "preparation"
	WarStateInWar       WarState = "inWar"
	WarStateEnded       WarState = "warEnded"
	WarStateCwl         WarState = "cwl"
)

// RoundStatus is the outcome of a single CWL round from the acting clan's
// point of view.
type RoundStatus string

const (
	RoundUnplayed RoundStatus = "unplayed"
	RoundInWar    RoundStatus = "inWar"
	RoundWon      RoundStatus = "won"
	RoundLost     RoundStatus = "lost"
	RoundDraw     RoundStatus = "draw"
)
