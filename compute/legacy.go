package compute

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/cosmian/scs/transport"
)

// LegacyMPC exposes the pre-coordination multi-party operations: the server
// runs the whole computation on a single call and hands back a dataset
// handle. New code should use the mpc package instead.
type LegacyMPC struct {
	ctx *transport.Context
}

// LegacyMPC returns the pre-coordination multi-party operations.
func (s *Server) LegacyMPC() *LegacyMPC { return &LegacyMPC{ctx: s.ctx} }

// RunIPMPC runs an inner-product computation across the given views and
// returns the result dataset.
func (m *LegacyMPC) RunIPMPC(views []string) (*Dataset, error) {
	encoded, err := json.Marshal(views)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"views":     {string(encoded)},
		"join_type": {"recurring"},
	}
	var resp handleResponse
	if err := m.ctx.Get("/merge_join", params, &resp,
		fmt.Sprintf("mpc:: failed to run mpc on %v", views)); err != nil {
		return nil, err
	}
	return &Dataset{ctx: m.ctx, handle: resp.Handle}, nil
}

// RegressionMode selects how a multi-view linear regression combines its
// inputs.
type RegressionMode string

const (
	// RegressionStack stacks the views' rows into one dataset.
	RegressionStack RegressionMode = "aggregate_datasets"
	// RegressionSplit treats each view as its own dimension.
	RegressionSplit RegressionMode = "split_dimensions"
)

// RunLinearRegression fits a linear regression over the given columns of
// the views, on the value range [rangeStart, rangeEnd], and returns the
// result dataset.
func (m *LegacyMPC) RunLinearRegression(views, columns []string, mode RegressionMode, rangeStart, rangeEnd int) (*Dataset, error) {
	encodedViews, err := json.Marshal(views)
	if err != nil {
		return nil, err
	}
	encodedColumns, err := json.Marshal(columns)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"views":       {string(encodedViews)},
		"columns":     {string(encodedColumns)},
		"mode":        {string(mode)},
		"range_start": {strconv.Itoa(rangeStart)},
		"range_end":   {strconv.Itoa(rangeEnd)},
	}
	var resp handleResponse
	if err := m.ctx.Get("/linear_regression", params, &resp,
		fmt.Sprintf("mpc:: failed to run mpc on %v", views)); err != nil {
		return nil, err
	}
	return &Dataset{ctx: m.ctx, handle: resp.Handle}, nil
}
