package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clash-war-tracker/internal/api"
	"clash-war-tracker/internal/constants"
	"clash-war-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// WarContext is the single war state resolved for one request. Exactly one of
// the variant pointers is set for an active context; Kind alone describes the
// "notInWar" and "private" outcomes.
type WarContext struct {
	Kind domain.WarState

	// Regular is the live regular war, set when Kind is preparation, inWar
	// or warEnded (from the current-war endpoint).
	Regular *api.War

	// Cwl is the active CWL round, set when Kind is cwl.
	Cwl *CwlRound

	// RecentEnded is a freshly finished war recovered from the war log, set
	// when Kind is warEnded and Regular is nil.
	RecentEnded *api.WarlogEntry
}

// CwlRound carries the matched league war oriented to the acting clan, plus
// the per-round outcome sequence for the whole league group.
type CwlRound struct {
	War      *api.War
	Ours     *api.WarClan
	Opponent *api.WarClan
	Status   []domain.RoundStatus
}

type WarService struct {
	coc    CocAPI
	logger zerolog.Logger
}

func NewWarService(coc CocAPI, logger zerolog.Logger) *WarService {
	return &WarService{coc: coc, logger: logger}
}

// GetWarSummary fetches the player, resolves the clan's war context and
// builds the aggregated summary.
func (s *WarService) GetWarSummary(ctx context.Context, tag string) (*domain.WarSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	player, err := s.coc.FetchPlayer(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("fetch player: %w", err)
	}
	if player.Clan == nil {
		return nil, domain.ErrNotInClan
	}

	wctx, err := s.resolve(ctx, player.Clan.Tag)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("player_tag", player.Tag).
		Str("clan_tag", player.Clan.Tag).
		Str("war_state", string(wctx.Kind)).
		Msg("war context resolved")

	return s.buildSummary(ctx, player, wctx)
}

// resolve probes current-war, then CWL, then the war log, short-circuiting on
// the first conclusive state. All intermediate state is local.
func (s *WarService) resolve(ctx context.Context, clanTag string) (*WarContext, error) {
	warState := domain.WarStateNotInWar
	var regular *api.War

	cur, err := s.coc.FetchCurrentWar(ctx, clanTag)
	switch {
	case err == nil:
		warState = domain.WarState(cur.State)
		if warState != domain.WarStateNotInWar {
			regular = cur
		}
	case errors.Is(err, domain.ErrPrivate):
		// The war log is hidden; the clan may still be in CWL.
		warState = domain.WarStatePrivate
	default:
		return nil, fmt.Errorf("fetch current war: %w", err)
	}

	// A regular war in preparation, inWar or warEnded state suppresses the
	// CWL probe.
	var cwl *CwlRound
	if warState == domain.WarStateNotInWar || warState == domain.WarStatePrivate {
		cwl, err = s.resolveCwl(ctx, clanTag)
		if err != nil {
			return nil, err
		}
	}

	if regular != nil {
		return &WarContext{Kind: warState, Regular: regular}, nil
	}
	if cwl != nil && cwl.War != nil {
		return &WarContext{Kind: domain.WarStateCwl, Cwl: cwl}, nil
	}

	entry, err := s.recentWarlogEntry(ctx, clanTag)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return &WarContext{Kind: domain.WarStateEnded, RecentEnded: entry}, nil
	}

	if warState == domain.WarStatePrivate {
		return &WarContext{Kind: domain.WarStatePrivate}, nil
	}
	return &WarContext{Kind: domain.WarStateNotInWar}, nil
}

// resolveCwl scans the league group round by round. Within a round the first
// war tag whose pair contains the acting clan settles that round; remaining
// tags in the round are never fetched. Scanning continues through all rounds
// so the status sequence is always complete.
func (s *WarService) resolveCwl(ctx context.Context, clanTag string) (*CwlRound, error) {
	group, err := s.coc.FetchLeagueGroup(ctx, clanTag)
	if errors.Is(err, domain.ErrNotFound) {
		// Clan is not in a league season.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch league group: %w", err)
	}
	if group.State == string(domain.WarStateNotInWar) {
		return nil, nil
	}

	round := &CwlRound{Status: make([]domain.RoundStatus, len(group.Rounds))}
	for i := range round.Status {
		round.Status[i] = domain.RoundUnplayed
	}

	for i, r := range group.Rounds {
		for _, warTag := range r.WarTags {
			if warTag == constants.PlaceholderWarTag {
				continue
			}
			war, err := s.coc.FetchCwlWar(ctx, warTag)
			if err != nil {
				return nil, fmt.Errorf("fetch cwl war %s: %w", warTag, err)
			}

			var ours, opponent *api.WarClan
			switch clanTag {
			case war.Clan.Tag:
				ours, opponent = &war.Clan, &war.Opponent
			case war.Opponent.Tag:
				ours, opponent = &war.Opponent, &war.Clan
			default:
				continue
			}

			switch domain.WarState(war.State) {
			case domain.WarStateEnded:
				round.Status[i] = classifyRound(ours.Stars, opponent.Stars)
			case domain.WarStateInWar:
				round.Status[i] = domain.RoundInWar
				round.War, round.Ours, round.Opponent = war, ours, opponent
			}
			break
		}
	}
	return round, nil
}

func classifyRound(ourStars, theirStars int) domain.RoundStatus {
	switch {
	case ourStars > theirStars:
		return domain.RoundWon
	case ourStars < theirStars:
		return domain.RoundLost
	default:
		return domain.RoundDraw
	}
}

// recentWarlogEntry returns the most recent logged war if it finished within
// the recency window. A private war log yields nothing, silently.
func (s *WarService) recentWarlogEntry(ctx context.Context, clanTag string) (*api.WarlogEntry, error) {
	entries, err := s.coc.FetchWarlog(ctx, clanTag, constants.WarlogFetchLimit)
	if errors.Is(err, domain.ErrPrivate) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch war log: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	entry := entries[0]
	if entry.Result == "" || entry.EndTime == "" {
		return nil, nil
	}
	ended, err := api.ParseTime(entry.EndTime)
	if err != nil {
		s.logger.Debug().Str("end_time", entry.EndTime).Msg("unparseable war log end time")
		return nil, nil
	}
	elapsed := time.Since(ended)
	if elapsed < 0 || elapsed > constants.WarlogRecencyWindow {
		return nil, nil
	}
	return &entry, nil
}
