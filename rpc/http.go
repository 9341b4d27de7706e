package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/chainwatch-io/tzindexer/xerrors"
)

// HTTPClient is the minimal concrete transport for Client. It exists so the
// engine has something real to run against; per spec.md §1 it is an
// external collaborator and is deliberately thin — one goroutine-safe
// *http.Client, one base URL, total (not partial) JSON validation.
type HTTPClient struct {
	base     *url.URL
	http     *http.Client
	validate *validator.Validate
}

// NewHTTPClient builds a client against baseURL (TEZOS_NODE_ENDPOINT).
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing node endpoint")
	}
	return &HTTPClient{
		base:     u,
		http:     &http.Client{Timeout: timeout},
		validate: validator.New(),
	}, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := *c.base
	u.Path = u.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return xerrors.Transient("rpc "+path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return xerrors.Transient("rpc "+path+" read body", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil // caller decides: "not yet produced" vs error
	}
	if resp.StatusCode >= 500 {
		return xerrors.Transient("rpc "+path, fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}
	if resp.StatusCode >= 400 {
		return xerrors.Validation(xerrors.TypeMismatch, path, 0, 0,
			fmt.Errorf("status %d: %s", resp.StatusCode, body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return xerrors.Validation(xerrors.TypeMismatch, path, 0, 0, errors.Wrap(err, "decoding response"))
	}
	if err := c.validateResponse(out); err != nil {
		return xerrors.Validation(xerrors.MissingField, path, 0, 0, errors.Wrap(err, "validating response"))
	}
	return nil
}

// validateResponse runs struct-tag validation over a decoded response.
// validator/v10's Struct only accepts a struct kind, but several endpoints
// here decode into a slice (baking/endorsing rights), so each element is
// validated individually; non-struct elements (none today, but cheap to
// allow) are left unchecked rather than erroring.
func (c *HTTPClient) validateResponse(out interface{}) error {
	v := reflect.ValueOf(out)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Struct:
		return c.validate.Struct(v.Interface())
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			elem := v.Index(i)
			if elem.Kind() != reflect.Struct {
				continue
			}
			if err := c.validate.Struct(elem.Interface()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *HTTPClient) GetHeader(ctx context.Context, level int64) (*Header, error) {
	var h Header
	path := fmt.Sprintf("/chains/main/blocks/%d/header", level)
	if err := c.get(ctx, path, nil, &h); err != nil {
		return nil, err
	}
	if h.Hash == "" {
		return nil, nil
	}
	return &h, nil
}

func (c *HTTPClient) GetBlock(ctx context.Context, level int64) (*Block, error) {
	var b Block
	path := fmt.Sprintf("/chains/main/blocks/%d", level)
	if err := c.get(ctx, path, nil, &b); err != nil {
		return nil, err
	}
	if b.Hash == "" {
		return nil, nil
	}
	return &b, nil
}

func (c *HTTPClient) GetBakingRights(ctx context.Context, cycle int64, maxPriority int) ([]BakingRight, error) {
	var rights []BakingRight
	q := url.Values{
		"cycle":        []string{strconv.FormatInt(cycle, 10)},
		"max_priority": []string{strconv.Itoa(maxPriority)},
		"all":          []string{"true"},
	}
	path := "/chains/main/blocks/head/helpers/baking_rights"
	if err := c.get(ctx, path, q, &rights); err != nil {
		return nil, err
	}
	return rights, nil
}

func (c *HTTPClient) GetBakingRightsAtLevel(ctx context.Context, level int64, maxPriority int) ([]BakingRight, error) {
	var rights []BakingRight
	q := url.Values{
		"level":        []string{strconv.FormatInt(level, 10)},
		"max_priority": []string{strconv.Itoa(maxPriority)},
		"all":          []string{"true"},
	}
	path := "/chains/main/blocks/head/helpers/baking_rights"
	if err := c.get(ctx, path, q, &rights); err != nil {
		return nil, err
	}
	return rights, nil
}

func (c *HTTPClient) GetEndorsingRights(ctx context.Context, cycle int64) ([]EndorsingRight, error) {
	var rights []EndorsingRight
	q := url.Values{"cycle": []string{strconv.FormatInt(cycle, 10)}}
	path := "/chains/main/blocks/head/helpers/endorsing_rights"
	if err := c.get(ctx, path, q, &rights); err != nil {
		return nil, err
	}
	return rights, nil
}

func (c *HTTPClient) GetConstants(ctx context.Context, level int64) (*Constants, error) {
	var cs Constants
	path := fmt.Sprintf("/chains/main/blocks/%d/context/constants", level)
	if err := c.get(ctx, path, nil, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

func (c *HTTPClient) GetVotingState(ctx context.Context, level int64) (*VotingState, error) {
	var vs VotingState
	path := fmt.Sprintf("/chains/main/blocks/%d/votes/listings", level)
	if err := c.get(ctx, path, nil, &vs); err != nil {
		return nil, err
	}
	return &vs, nil
}

var _ Client = (*HTTPClient)(nil)
