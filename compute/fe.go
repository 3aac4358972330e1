package compute

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/cosmian/scs/transport"
)

// FE computes joins over functionally-encrypted datasets.
type FE struct {
	ctx *transport.Context
}

type handleResponse struct {
	Handle string `json:"handle"`
}

// MergeJoin returns the dataset computed from the join of the two datasets
// referenced by the given views.
func (f *FE) MergeJoin(views []string, joinType, computeKey string) (*Dataset, error) {
	encoded, err := json.Marshal(views)
	if err != nil {
		return nil, err
	}
	params := url.Values{
		"views":       {string(encoded)},
		"join_type":   {joinType},
		"compute_key": {computeKey},
	}
	var resp handleResponse
	if err := f.ctx.Get("/merge_join", params, &resp,
		fmt.Sprintf("FE:: Error querying join on %v", views)); err != nil {
		return nil, err
	}
	return &Dataset{ctx: f.ctx, handle: resp.Handle}, nil
}

// BlindJoin joins two views without revealing the join keys to the server
// operators, using the given join algorithm.
func (f *FE) BlindJoin(viewLeft, viewRight, joinType, joinAlgo, joinKey string) (*Dataset, error) {
	payload := map[string]string{
		"view_left":  viewLeft,
		"view_right": viewRight,
		"join_type":  joinType,
		"join_algo":  joinAlgo,
		"join_key":   joinKey,
	}
	var resp handleResponse
	err := f.ctx.Post("/blind_join", payload, nil, &resp,
		fmt.Sprintf("Error querying join on %s, %s", viewLeft, viewRight))
	if err != nil {
		return nil, err
	}
	return &Dataset{ctx: f.ctx, handle: resp.Handle}, nil
}
