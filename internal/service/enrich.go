package service

import (
	"context"
	"fmt"

	"clash-war-tracker/internal/api"
	"clash-war-tracker/internal/domain"

	"golang.org/x/sync/errgroup"
)

// enrichAttacks annotates each of the member's attacks with the defender's
// profile, fetched in parallel. Output order follows input order regardless
// of completion order. Any failed lookup fails the whole request.
func (s *WarService) enrichAttacks(ctx context.Context, member *api.WarMember, ours, opponent *api.WarClan) ([]domain.EnrichedAttack, error) {
	if len(member.Attacks) == 0 {
		return nil, nil
	}

	enriched := make([]domain.EnrichedAttack, len(member.Attacks))
	g, gctx := errgroup.WithContext(ctx)
	for i, attack := range member.Attacks {
		i, attack := i, attack
		g.Go(func() error {
			defender, err := s.coc.FetchPlayer(gctx, attack.DefenderTag)
			if err != nil {
				return fmt.Errorf("fetch defender %s: %w", attack.DefenderTag, err)
			}
			position, ok := mapPosition(opponent, attack.DefenderTag)
			if !ok {
				// Upstream data inconsistency: the defender must be on the
				// opposing roster.
				return fmt.Errorf("defender %s missing from opponent roster", attack.DefenderTag)
			}
			enriched[i] = domain.EnrichedAttack{
				Stars:                 attack.Stars,
				DestructionPercentage: attack.DestructionPercentage,
				DefenderTag:           attack.DefenderTag,
				DefenderName:          defender.Name,
				DefenderTownHallLevel: defender.TownHallLevel,
				DefenderMapPosition:   position,
				NewStars:              newStars(ours, attack),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return enriched, nil
}

// enrichDefense annotates the best opponent attack against the member with
// the attacker's profile, if there is one.
func (s *WarService) enrichDefense(ctx context.Context, member *api.WarMember, opponent *api.WarClan) (*domain.DefenseInfo, error) {
	best := member.BestOpponentAttack
	if best == nil || best.AttackerTag == "" {
		return nil, nil
	}

	attacker, err := s.coc.FetchPlayer(ctx, best.AttackerTag)
	if err != nil {
		return nil, fmt.Errorf("fetch attacker %s: %w", best.AttackerTag, err)
	}
	position, ok := mapPosition(opponent, best.AttackerTag)
	if !ok {
		return nil, fmt.Errorf("attacker %s missing from opponent roster", best.AttackerTag)
	}
	return &domain.DefenseInfo{
		AttackerTag:           best.AttackerTag,
		AttackerName:          attacker.Name,
		AttackerTownHallLevel: attacker.TownHallLevel,
		AttackerMapPosition:   position,
		Stars:                 best.Stars,
		DestructionPercentage: best.DestructionPercentage,
	}, nil
}

// newStars is the marginal star gain over the best prior attack by any
// clanmate on the same defender, where prior means a strictly lower order.
// Never negative.
func newStars(side *api.WarClan, attack api.WarAttack) int {
	bestPrior := 0
	for _, m := range side.Members {
		for _, a := range m.Attacks {
			if a.DefenderTag == attack.DefenderTag && a.Order < attack.Order && a.Stars > bestPrior {
				bestPrior = a.Stars
			}
		}
	}
	if gained := attack.Stars - bestPrior; gained > 0 {
		return gained
	}
	return 0
}

func mapPosition(side *api.WarClan, tag string) (int, bool) {
	for _, m := range side.Members {
		if m.Tag == tag {
			return m.MapPosition, true
		}
	}
	return 0, false
}

func findMember(side *api.WarClan, tag string) *api.WarMember {
	for i := range side.Members {
		if side.Members[i].Tag == tag {
			return &side.Members[i]
		}
	}
	return nil
}
