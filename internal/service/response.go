package service

import (
	"context"

	"clash-war-tracker/internal/api"
	"clash-war-tracker/internal/constants"
	"clash-war-tracker/internal/domain"
)

// buildSummary maps a resolved WarContext into the outward summary. War
// fields are only attached for an active context so that absent fields stay
// out of the JSON entirely.
func (s *WarService) buildSummary(ctx context.Context, player *api.Player, wctx *WarContext) (*domain.WarSummary, error) {
	out := baseSummary(player)
	out.InWar = wctx.Kind

	switch {
	case wctx.Regular != nil:
		w := wctx.Regular
		err := s.fillLiveWar(ctx, out, player.Tag, &w.Clan, &w.Opponent,
			w.TeamSize, w.AttacksPerMember, w.StartTime, w.EndTime)
		if err != nil {
			return nil, err
		}
	case wctx.Cwl != nil:
		w := wctx.Cwl
		err := s.fillLiveWar(ctx, out, player.Tag, w.Ours, w.Opponent,
			w.War.TeamSize, constants.CwlAttacksPerMember, w.War.StartTime, w.War.EndTime)
		if err != nil {
			return nil, err
		}
		out.RoundStatusSequence = w.Status
	case wctx.RecentEnded != nil:
		fillRecentlyEnded(out, wctx.RecentEnded)
	}
	return out, nil
}

func baseSummary(player *api.Player) *domain.WarSummary {
	return &domain.WarSummary{
		Player: domain.PlayerInfo{
			Tag:           player.Tag,
			Name:          player.Name,
			TownHallLevel: player.TownHallLevel,
		},
		Clan: domain.ClanInfo{
			Name:      player.Clan.Name,
			Tag:       player.Clan.Tag,
			BadgeURLs: badgeURLs(player.Clan.BadgeURLs),
		},
	}
}

// fillLiveWar attaches the full war field set shared by regular wars and CWL
// rounds, including the acting player's enriched attack and defense records
// when the player is on the roster.
func (s *WarService) fillLiveWar(ctx context.Context, out *domain.WarSummary, playerTag string, ours, opponent *api.WarClan, teamSize, attacksPerMember int, startTime, endTime string) error {
	out.Clan.Attacks = intPtr(ours.Attacks)
	out.Clan.Stars = intPtr(ours.Stars)
	out.Opponent = &domain.OpponentInfo{
		Name:                  opponent.Name,
		Tag:                   opponent.Tag,
		BadgeURLs:             badgeURLs(opponent.BadgeURLs),
		Attacks:               intPtr(opponent.Attacks),
		Stars:                 opponent.Stars,
		DestructionPercentage: floatPtr(opponent.DestructionPercentage),
		ClanLevel:             intPtr(opponent.ClanLevel),
	}

	maxAttacks := teamSize * attacksPerMember
	out.MaxAttacks = intPtr(maxAttacks)
	out.MaxStars = intPtr(maxAttacks * constants.StarsPerAttack)
	out.AttacksPerMember = intPtr(attacksPerMember)
	out.StartTime = startTime
	out.EndTime = endTime

	member := findMember(ours, playerTag)
	if member == nil {
		out.Player.IsParticipating = "no"
		return nil
	}
	out.Player.IsParticipating = "yes"
	out.Player.MapPosition = intPtr(member.MapPosition)

	attacks, err := s.enrichAttacks(ctx, member, ours, opponent)
	if err != nil {
		return err
	}
	out.Player.Attacks = attacks

	defense, err := s.enrichDefense(ctx, member, opponent)
	if err != nil {
		return err
	}
	out.Player.Defense = defense
	return nil
}

// fillRecentlyEnded attaches the reduced field set a war log entry supports:
// no start time, no participation detail, no opponent attack count.
func fillRecentlyEnded(out *domain.WarSummary, entry *api.WarlogEntry) {
	out.InWar = domain.WarStateEnded
	out.Clan.Attacks = intPtr(entry.Clan.Attacks)
	out.Clan.Stars = intPtr(entry.Clan.Stars)
	out.Opponent = &domain.OpponentInfo{
		Name:                  entry.Opponent.Name,
		Tag:                   entry.Opponent.Tag,
		BadgeURLs:             badgeURLs(entry.Opponent.BadgeURLs),
		Stars:                 entry.Opponent.Stars,
		DestructionPercentage: floatPtr(entry.Opponent.DestructionPercentage),
		ClanLevel:             intPtr(entry.Opponent.ClanLevel),
	}

	maxAttacks := entry.TeamSize * entry.AttacksPerMember
	out.MaxAttacks = intPtr(maxAttacks)
	out.MaxStars = intPtr(maxAttacks * constants.StarsPerAttack)
	out.AttacksPerMember = intPtr(entry.AttacksPerMember)
	out.EndTime = entry.EndTime
}

func badgeURLs(b api.BadgeURLs) domain.BadgeURLs {
	return domain.BadgeURLs{Small: b.Small, Medium: b.Medium, Large: b.Large}
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
