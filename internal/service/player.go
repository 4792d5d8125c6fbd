package service

import (
	"context"
	"encoding/json"
	"fmt"

	"clash-war-tracker/internal/constants"

	"github.com/rs/zerolog"
)

// PlayerService serves the raw upstream player profile for the passthrough
// endpoint.
type PlayerService struct {
	coc    CocAPI
	logger zerolog.Logger
}

func NewPlayerService(coc CocAPI, logger zerolog.Logger) *PlayerService {
	return &PlayerService{coc: coc, logger: logger}
}

func (s *PlayerService) GetPlayer(ctx context.Context, tag string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	s.logger.Debug().Str("tag", tag).Msg("fetching player profile")

	body, err := s.coc.FetchPlayerRaw(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("fetch player: %w", err)
	}
	return body, nil
}
