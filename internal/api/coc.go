package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"clash-war-tracker/internal/config"
	"clash-war-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

// Client is a thin typed wrapper around the Clash of Clans REST API. Every
// call carries the bearer token and performs exactly one upstream request;
// there are no retries.
type Client struct {
	token   string
	baseURL string
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		token:   cfg.CocAPIToken,
		baseURL: cfg.CocAPIBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

func (c *Client) FetchPlayer(ctx context.Context, tag string) (*Player, error) {
	u := fmt.Sprintf("%s/players/%s", c.baseURL, url.PathEscape(tag))
	return doRequest[Player](ctx, c, u)
}

// FetchPlayerRaw returns the upstream player profile body verbatim, for the
// passthrough endpoint.
func (c *Client) FetchPlayerRaw(ctx context.Context, tag string) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/players/%s", c.baseURL, url.PathEscape(tag))
	raw, err := doRequest[json.RawMessage](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return *raw, nil
}

func (c *Client) FetchCurrentWar(ctx context.Context, clanTag string) (*War, error) {
	u := fmt.Sprintf("%s/clans/%s/currentwar", c.baseURL, url.PathEscape(clanTag))
	return doRequest[War](ctx, c, u)
}

func (c *Client) FetchLeagueGroup(ctx context.Context, clanTag string) (*LeagueGroup, error) {
	u := fmt.Sprintf("%s/clans/%s/currentwar/leaguegroup", c.baseURL, url.PathEscape(clanTag))
	return doRequest[LeagueGroup](ctx, c, u)
}

func (c *Client) FetchCwlWar(ctx context.Context, warTag string) (*War, error) {
	u := fmt.Sprintf("%s/clanwarleagues/wars/%s", c.baseURL, url.PathEscape(warTag))
	return doRequest[War](ctx, c, u)
}

func (c *Client) FetchWarlog(ctx context.Context, clanTag string, limit int) ([]WarlogEntry, error) {
	u := fmt.Sprintf("%s/clans/%s/warlog?limit=%d", c.baseURL, url.PathEscape(clanTag), limit)
	log, err := doRequest[Warlog](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return log.Items, nil
}

func doRequest[T any](ctx context.Context, c *Client, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := c.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusForbidden:
		c.logger.Debug().Str("url", url).Msg("upstream denied access")
		return nil, domain.ErrPrivate
	case status == fasthttp.StatusNotFound:
		return nil, domain.ErrNotFound
	case status != fasthttp.StatusOK:
		c.logger.Warn().Str("url", url).Int("status", status).Msg("upstream api failure")
		return nil, &domain.UpstreamError{StatusCode: status, Message: upstreamMessage(resp.Body())}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}
	return &result, nil
}

// upstreamMessage pulls the human-readable part of an upstream error body.
func upstreamMessage(body []byte) string {
	var e struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Message != "" {
			return e.Message
		}
		if e.Reason != "" {
			return e.Reason
		}
	}
	return "unexpected upstream response"
}
