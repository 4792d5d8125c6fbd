package service

import (
	"context"
	"encoding/json"

	"clash-war-tracker/internal/api"
)

// CocAPI is the slice of the Clash of Clans client the services consume.
// *api.Client satisfies it; tests substitute a fake.
type CocAPI interface {
	FetchPlayer(ctx context.Context, tag string) (*api.Player, error)
	FetchPlayerRaw(ctx context.Context, tag string) (json.RawMessage, error)
	FetchCurrentWar(ctx context.Context, clanTag string) (*api.War, error)
	FetchLeagueGroup(ctx context.Context, clanTag string) (*api.LeagueGroup, error)
	FetchCwlWar(ctx context.Context, warTag string) (*api.War, error)
	FetchWarlog(ctx context.Context, clanTag string, limit int) ([]api.WarlogEntry, error)
}
