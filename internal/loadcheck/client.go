package loadcheck

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/okian/talentflow/internal/domain/model"
	"github.com/okian/talentflow/internal/domain/types"
	"github.com/tidwall/gjson"
)

const codeSimulated = "simulated_failure"

// client is a thin resty wrapper over the routes the checks use.
type client struct {
	http *resty.Client
}

func newClient(cfg Config) *client {
	return &client{
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("User-Agent", "talentflow-loadcheck"),
	}
}

// health calls GET /healthz.
func (c *client) health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/healthz")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, resp.StatusCode())
	}
	return nil
}

// outcome classifies one response.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeSimulated
	outcomeOther
)

func classify(resp *resty.Response, err error) outcome {
	switch {
	case err != nil:
		return outcomeOther
	case resp.IsSuccess():
		return outcomeOK
	case resp.StatusCode() == http.StatusInternalServerError &&
		gjson.GetBytes(resp.Body(), "error").String() == codeSimulated:
		return outcomeSimulated
	default:
		return outcomeOther
	}
}

// reorder calls PATCH /jobs/{id}/reorder.
func (c *client) reorder(ctx context.Context, job string, to int) outcome {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", job).
		SetBody(map[string]int{"toOrder": to}).
		Patch("/jobs/{id}/reorder")
	return classify(resp, err)
}

type pageOf = types.Page[model.Meta]

// page fetches one page of path.
func (c *client) page(ctx context.Context, path string, page, limit int) (pageOf, outcome, error) {
	var out pageOf
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":  strconv.Itoa(page),
			"limit": strconv.Itoa(limit),
		}).
		SetResult(&out).
		Get(path)
	o := classify(resp, err)
	if o == outcomeOther {
		if err == nil {
			err = fmt.Errorf("%w: GET %s page %d: status %d", ErrUnexpected, path, page, resp.StatusCode())
		}
		return out, o, err
	}
	return out, o, nil
}
