package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	RequestTimeout     = 30 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

const (
	// A war from the log still counts as "freshly ended" within this window.
	WarlogRecencyWindow = 24 * time.Hour
	WarlogFetchLimit    = 1

	// Upstream placeholder for a CWL round that has not been scheduled yet.
	PlaceholderWarTag = "#0"

	StarsPerAttack      = 3
	CwlAttacksPerMember = 1
)
