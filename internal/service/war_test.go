package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"clash-war-tracker/internal/api"
	"clash-war-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCoc struct {
	players        map[string]*api.Player
	currentWar     *api.War
	currentWarErr  error
	leagueGroup    *api.LeagueGroup
	leagueGroupErr error
	cwlWars        map[string]*api.War
	warlog         []api.WarlogEntry
	warlogErr      error

	mu    sync.Mutex
	calls []string
}

func (f *fakeCoc) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeCoc) countCalls(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeCoc) FetchPlayer(ctx context.Context, tag string) (*api.Player, error) {
	f.record("player " + tag)
	p, ok := f.players[tag]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeCoc) FetchPlayerRaw(ctx context.Context, tag string) (json.RawMessage, error) {
	p, err := f.FetchPlayer(ctx, tag)
	if err != nil {
		return nil, err
	}
	return json.Marshal(p)
}

func (f *fakeCoc) FetchCurrentWar(ctx context.Context, clanTag string) (*api.War, error) {
	f.record("currentwar " + clanTag)
	if f.currentWarErr != nil {
		return nil, f.currentWarErr
	}
	return f.currentWar, nil
}

func (f *fakeCoc) FetchLeagueGroup(ctx context.Context, clanTag string) (*api.LeagueGroup, error) {
	f.record("leaguegroup " + clanTag)
	if f.leagueGroupErr != nil {
		return nil, f.leagueGroupErr
	}
	return f.leagueGroup, nil
}

func (f *fakeCoc) FetchCwlWar(ctx context.Context, warTag string) (*api.War, error) {
	f.record("cwlwar " + warTag)
	w, ok := f.cwlWars[warTag]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

func (f *fakeCoc) FetchWarlog(ctx context.Context, clanTag string, limit int) ([]api.WarlogEntry, error) {
	f.record(fmt.Sprintf("warlog %s limit=%d", clanTag, limit))
	if f.warlogErr != nil {
		return nil, f.warlogErr
	}
	if limit < len(f.warlog) {
		return f.warlog[:limit], nil
	}
	return f.warlog, nil
}

const (
	playerTag   = "#PLAYER1"
	clanTag     = "#CLAN1"
	opponentTag = "#CLAN2"
)

func newTestPlayers() map[string]*api.Player {
	return map[string]*api.Player{
		playerTag: {
			Tag:           playerTag,
			Name:          "Rumpel",
			TownHallLevel: 14,
			Clan: &api.PlayerClan{
				Tag:       clanTag,
				Name:      "The Clan",
				BadgeURLs: api.BadgeURLs{Small: "s", Medium: "m", Large: "l"},
			},
		},
		"#DEF1": {Tag: "#DEF1", Name: "Defender One", TownHallLevel: 13},
		"#DEF2": {Tag: "#DEF2", Name: "Defender Two", TownHallLevel: 12},
		"#ATT1": {Tag: "#ATT1", Name: "Enemy Attacker", TownHallLevel: 14},
	}
}

func newService(f *fakeCoc) *WarService {
	return NewWarService(f, zerolog.Nop())
}

func warTime(t time.Time) string {
	return t.UTC().Format(api.TimeLayout)
}

func regularWar(state string) *api.War {
	return &api.War{
		State:            state,
		TeamSize:         15,
		AttacksPerMember: 2,
		StartTime:        warTime(time.Now().Add(-4 * time.Hour)),
		EndTime:          warTime(time.Now().Add(20 * time.Hour)),
		Clan: api.WarClan{
			Tag:       clanTag,
			Name:      "The Clan",
			BadgeURLs: api.BadgeURLs{Small: "s", Medium: "m", Large: "l"},
			ClanLevel: 12,
			Attacks:   11,
			Stars:     27,
			Members: []api.WarMember{
				{
					Tag:         "#MATE1",
					MapPosition: 1,
					Attacks: []api.WarAttack{
						{AttackerTag: "#MATE1", DefenderTag: "#DEF1", Stars: 2, DestructionPercentage: 71, Order: 1},
					},
				},
				{
					Tag:         playerTag,
					MapPosition: 3,
					Attacks: []api.WarAttack{
						{AttackerTag: playerTag, DefenderTag: "#DEF1", Stars: 3, DestructionPercentage: 100, Order: 5},
						{AttackerTag: playerTag, DefenderTag: "#DEF2", Stars: 1, DestructionPercentage: 48, Order: 7},
					},
					BestOpponentAttack: &api.WarAttack{
						AttackerTag: "#ATT1", DefenderTag: playerTag, Stars: 2, DestructionPercentage: 80, Order: 4,
					},
				},
			},
		},
		Opponent: api.WarClan{
			Tag:       opponentTag,
			Name:      "Enemies",
			BadgeURLs: api.BadgeURLs{Small: "os", Medium: "om", Large: "ol"},
			ClanLevel: 10,
			Attacks:   9,
			Stars:     22,
			Members: []api.WarMember{
				{Tag: "#DEF1", MapPosition: 2},
				{Tag: "#DEF2", MapPosition: 6},
				{Tag: "#ATT1", MapPosition: 1},
			},
		},
	}
}

func TestGetWarSummaryNoClan(t *testing.T) {
	f := &fakeCoc{players: map[string]*api.Player{
		"#LONER": {Tag: "#LONER", Name: "Solo", TownHallLevel: 9},
	}}

	_, err := newService(f).GetWarSummary(context.Background(), "#LONER")

	assert.ErrorIs(t, err, domain.ErrNotInClan)
	assert.Equal(t, []string{"player #LONER"}, f.calls)
}

func TestGetWarSummaryRegularWar(t *testing.T) {
	f := &fakeCoc{players: newTestPlayers(), currentWar: regularWar("inWar")}

	out, err := newService(f).GetWarSummary(context.Background(), playerTag)
	require.NoError(t, err)

	assert.Equal(t, domain.WarStateInWar, out.InWar)
	assert.Equal(t, "yes", out.Player.IsParticipating)
	require.NotNil(t, out.Player.MapPosition)
	assert.Equal(t, 3, *out.Player.MapPosition)

	require.NotNil(t, out.MaxAttacks)
	require.NotNil(t, out.MaxStars)
	require.NotNil(t, out.AttacksPerMember)
	assert.Equal(t, 30, *out.MaxAttacks)
	assert.Equal(t, 90, *out.MaxStars)
	assert.Equal(t, 2, *out.AttacksPerMember)
	assert.Equal(t, *out.MaxAttacks, 15*2)
	assert.Equal(t, *out.MaxStars, *out.MaxAttacks*3)

	require.NotNil(t, out.Opponent)
	assert.Equal(t, "Enemies", out.Opponent.Name)
	assert.Equal(t, 22, out.Opponent.Stars)

	require.Len(t, out.Player.Attacks, 2)
	first := out.Player.Attacks[0]
	assert.Equal(t, "Defender One", first.DefenderName)
	assert.Equal(t, 13, first.DefenderTownHallLevel)
	assert.Equal(t, 2, first.DefenderMapPosition)
	// clanmate already took 2 stars on #DEF1 at order 1
	assert.Equal(t, 1, first.NewStars)
	second := out.Player.Attacks[1]
	assert.Equal(t, "Defender Two", second.DefenderName)
	assert.Equal(t, 1, second.NewStars)

	require.NotNil(t, out.Player.Defense)
	assert.Equal(t, "Enemy Attacker", out.Player.Defense.AttackerName)
	assert.Equal(t, 1, out.Player.Defense.AttackerMapPosition)
	assert.Equal(t, 2, out.Player.Defense.Stars)

	// a live regular war never probes CWL or the war log
	assert.Zero(t, f.countCalls("leaguegroup"))
	assert.Zero(t, f.countCalls("warlog"))
}

func TestGetWarSummaryNotParticipating(t *testing.T) {
	war := regularWar("inWar")
	war.Clan.Members = war.Clan.Members[:1]
	f := &fakeCoc{players: newTestPlayers(), currentWar: war}

	out, err := newService(f).GetWarSummary(context.Background(), playerTag)
	require.NoError(t, err)

	assert.Equal(t, "no", out.Player.IsParticipating)
	assert.Nil(t, out.Player.MapPosition)
	assert.Empty(t, out.Player.Attacks)
	assert.Nil(t, out.Player.Defense)
	// only the initial player lookup, no enrichment fan-out
	assert.Equal(t, 1, f.countCalls("player"))
}

func TestGetWarSummaryPreparationSuppressesCwl(t *testing.T) {
	f := &fakeCoc{players: newTestPlayers(), currentWar: regularWar("preparation")}

	out, err := newService(f).GetWarSummary(context.Background(), playerTag)
	require.NoError(t, err)

	assert.Equal(t, domain.WarStatePreparation, out.InWar)
	assert.Zero(t, f.countCalls("leaguegroup"))
}

func cwlWar(state, clanA, clanB string, starsA, starsB int) *api.War {
	return &api.War{
		State:     state,
		TeamSize:  15,
		StartTime: warTime(time.Now().Add(-6 * time.Hour)),
		EndTime:   warTime(time.Now().Add(18 * time.Hour)),
		Clan: api.WarClan{
			Tag: clanA, Name: "A", Stars: starsA,
			Members: []api.WarMember{{Tag: "#NOBODY", MapPosition: 1}},
		},
		Opponent: api.WarClan{
			Tag: clanB, Name: "B", Stars: starsB,
			Members: []api.WarMember{{Tag: "#SOMEBODY", MapPosition: 1}},
		},
	}
}

func TestGetWarSummaryCwlRoundScan(t *testing.T) {
	group := &api.LeagueGroup{
		State: "inWar",
		Rounds: []api.LeagueRound{
			{WarTags: []string{"#W1"}},
			{WarTags: []string{"#WX", "#W2", "#W2B"}},
			{WarTags: []string{"#W3"}},
			{WarTags: []string{"#W4"}},
			{WarTags: []string{"#0"}},
			{WarTags: []string{"#0"}},
			{WarTags: []string{"#0"}},
		},
	}

	active := cwlWar("inWar", opponentTag, clanTag, 12, 19)
	active.Opponent.Members = []api.WarMember{
		{
			Tag:         playerTag,
			MapPosition: 5,
			Attacks: []api.WarAttack{
				{AttackerTag: playerTag, DefenderTag: "#DEF1", Stars: 3, DestructionPercentage: 100, Order: 2},
			},
		},
	}
	active.Clan.Members = []api.WarMember{
		{Tag: "#DEF1", MapPosition: 4},
	}

	f := &fakeCoc{
		players:     newTestPlayers(),
		currentWar:  &api.War{State: "notInWar"},
		leagueGroup: group,
		cwlWars: map[string]*api.War{
			"#W1": cwlWar("warEnded", clanTag, opponentTag, 30, 20),
			"#WX": cwlWar("warEnded", "#OTHER1", "#OTHER2", 10, 10),
			"#W2": cwlWar("warEnded", opponentTag, clanTag, 25, 15),
			"#W3": cwlWar("warEnded", clanTag, opponentTag, 18, 18),
			"#W4": active,
		},
	}

	out, err := newService(f).GetWarSummary(context.Background(), playerTag)
	require.NoError(t, err)

	assert.Equal(t, domain.WarStateCwl, out.InWar)
	assert.Equal(t, []domain.RoundStatus{
		domain.RoundWon,
		domain.RoundLost,
		domain.RoundDraw,
		domain.RoundInWar,
		domain.RoundUnplayed,
		domain.RoundUnplayed,
		domain.RoundUnplayed,
	}, out.RoundStatusSequence)

	// one attack per member in CWL
	require.NotNil(t, out.AttacksPerMember)
	require.NotNil(t, out.MaxAttacks)
	require.NotNil(t, out.MaxStars)
	assert.Equal(t, 1, *out.AttacksPerMember)
	assert.Equal(t, 15, *out.MaxAttacks)
	assert.Equal(t, 45, *out.MaxStars)

	// the clan was found on the opponent side of #W4
	assert.Equal(t, "yes", out.Player.IsParticipating)
	require.Len(t, out.Player.Attacks, 1)
	assert.Equal(t, "Defender One", out.Player.Attacks[0].DefenderName)
	assert.Equal(t, 4, out.Player.Attacks[0].DefenderMapPosition)

	// #W2B sits after the round's match and must never be fetched,
	// placeholder tags are skipped without a fetch
	assert.Zero(t, f.countCalls("cwlwar #W2B"))
	assert.Zero(t, f.countCalls("cwlwar #0"))
	assert.Equal(t, 1, f.countCalls("cwlwar #WX"))
}

func TestGetWarSummaryWarlogFresh(t *testing.T) {
	entry := api.WarlogEntry{
		Result:           "win",
		EndTime:          warTime(time.Now().Add(-10 * time.Hour)),
		TeamSize:         10,
		AttacksPerMember: 2,
		Clan: api.WarlogClan{
			Tag: clanTag, Name: "The Clan", Attacks: 18, Stars: 27,
			DestructionPercentage: 92.5, ClanLevel: 12,
		},
		Opponent: api.WarlogClan{
			Tag: opponentTag, Name: "Enemies", Stars: 21,
			DestructionPercentage: 80.1, ClanLevel: 10,
		},
	}
	f := &fakeCoc{
		players:        newTestPlayers(),
		currentWar:     &api.War{State: "notInWar"},
		leagueGroupErr: domain.ErrNotFound,
		warlog:         []api.WarlogEntry{entry},
	}

	out, err := newService(f).GetWarSummary(context.Background(), playerTag)
	require.NoError(t, err)

	assert.Equal(t, domain.WarStateEnded, out.InWar)
	assert.Equal(t, entry.EndTime, out.EndTime)
	// reduced field set: no start time, no participation detail
	assert.Empty(t, out.StartTime)
	assert.Empty(t, out.Player.IsParticipating)
	assert.Empty(t, out.Player.Attacks)

	require.NotNil(t, out.MaxAttacks)
	require.NotNil(t, out.MaxStars)
	assert.Equal(t, 20, *out.MaxAttacks)
	assert.Equal(t, 60, *out.MaxStars)

	require.NotNil(t, out.Opponent)
	assert.Nil(t, out.Opponent.Attacks)
	assert.Equal(t, 21, out.Opponent.Stars)

	assert.Equal(t, 1, f.countCalls("warlog"))
}

func TestGetWarSummaryWarlogStale(t *testing.T) {
	f := &fakeCoc{
		players:        newTestPlayers(),
		currentWar:     &api.War{State: "notInWar"},
		leagueGroupErr: domain.ErrNotFound,
		warlog: []api.WarlogEntry{{
			Result:  "lose",
			EndTime: warTime(time.Now().Add(-30 * time.Hour)),
		}},
	}

	out, err := newService(f).GetWarSummary(context.Background(), playerTag)
	require.NoError(t, err)

	assert.Equal(t, domain.WarStateNotInWar, out.InWar)
	assert.Nil(t, out.Opponent)
	assert.Nil(t, out.MaxAttacks)
	assert.Empty(t, out.EndTime)
}

func TestGetWarSummaryCwlSeasonEntryIgnored(t *testing.T) {
	// CWL season rows in the war log have an empty result and must not
	// qualify as a freshly ended war.
	f := &fakeCoc{
		players:        newTestPlayers(),
		currentWar:     &api.War{State: "notInWar"},
		leagueGroupErr: domain.ErrNotFound,
		warlog: []api.WarlogEntry{{
			Result:  "",
			EndTime: warTime(time.Now().Add(-2 * time.Hour)),
		}},
	}

	out, err := newService(f).GetWarSummary(context.Background(), playerTag)
	require.NoError(t, err)
	assert.Equal(t, domain.WarStateNotInWar, out.InWar)
}

func TestGetWarSummaryEverythingPrivate(t *testing.T) {
	f := &fakeCoc{
		players:       newTestPlayers(),
		currentWarErr: domain.ErrPrivate,
		leagueGroup:   &api.LeagueGroup{State: "notInWar"},
		warlogErr:     domain.ErrPrivate,
	}

	out, err := newService(f).GetWarSummary(context.Background(), playerTag)
	require.NoError(t, err)

	assert.Equal(t, domain.WarStatePrivate, out.InWar)
	assert.Equal(t, "Rumpel", out.Player.Name)
	assert.Equal(t, "The Clan", out.Clan.Name)
	assert.Nil(t, out.Opponent)
	assert.Empty(t, out.Player.IsParticipating)
}

func TestGetWarSummaryPrivateWarButActiveCwl(t *testing.T) {
	active := cwlWar("inWar", clanTag, opponentTag, 5, 3)
	f := &fakeCoc{
		players:       newTestPlayers(),
		currentWarErr: domain.ErrPrivate,
		leagueGroup: &api.LeagueGroup{
			State:  "inWar",
			Rounds: []api.LeagueRound{{WarTags: []string{"#W1"}}},
		},
		cwlWars: map[string]*api.War{"#W1": active},
	}

	out, err := newService(f).GetWarSummary(context.Background(), playerTag)
	require.NoError(t, err)
	assert.Equal(t, domain.WarStateCwl, out.InWar)
}

func TestGetWarSummaryUpstreamFailurePropagates(t *testing.T) {
	f := &fakeCoc{
		players:       newTestPlayers(),
		currentWarErr: &domain.UpstreamError{StatusCode: 503, Message: "maintenance"},
	}

	_, err := newService(f).GetWarSummary(context.Background(), playerTag)

	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 503, upstream.StatusCode)
}

func TestGetWarSummaryEnrichmentFailureFailsRequest(t *testing.T) {
	players := newTestPlayers()
	delete(players, "#DEF2")
	f := &fakeCoc{players: players, currentWar: regularWar("inWar")}

	_, err := newService(f).GetWarSummary(context.Background(), playerTag)
	assert.Error(t, err)
}
