package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/indicompute/indicompute/internal/models"
)

const (
	PathLogin          = "/login"
	PathSignup         = "/signup"
	PathMe             = "/me"
	PathWalletBalance  = "/wallet/balance"
	PathTransactions   = "/wallet/transactions"
	PathTopUp          = "/wallet/topup"
	PathNodes          = "/gpu-nodes"
	PathNodeDetails    = "/gpu-nodes/details"
	PathRegisterNode   = "/gpu-nodes/register"
	PathPricing        = "/pricing/%d"
	PathSubmitJob      = "/submit-job"
	PathUserJobs       = "/user-jobs"
	PathSimulateFinish = "/simulate-job-complete/%d"
)

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.TokenResponse, error) {
	var resp models.TokenResponse
	if err := c.Request(ctx, http.MethodPost, PathLogin, req, &resp, Anonymous()); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (*models.TokenResponse, error) {
	var resp models.TokenResponse
	if err := c.Request(ctx, http.MethodPost, PathSignup, req, &resp, Anonymous()); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.Request(ctx, http.MethodGet, PathMe, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) WalletBalance(ctx context.Context) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := c.Request(ctx, http.MethodGet, PathWalletBalance, nil, &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Transactions returns the wallet history. A payload that is not a list is
// treated as an empty history.
func (c *Client) Transactions(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if err := c.Request(ctx, http.MethodGet, PathTransactions, nil, &listOf[models.Transaction]{&txs}); err != nil {
		return nil, err
	}
	return txs, nil
}

func (c *Client) TopUp(ctx context.Context, amount float64) error {
	return c.Request(ctx, http.MethodPost, PathTopUp, models.TopUpRequest{Amount: amount}, nil)
}

func (c *Client) Nodes(ctx context.Context) ([]models.GPUNode, error) {
	var nodes []models.GPUNode
	if err := c.Request(ctx, http.MethodGet, PathNodes, nil, &listOf[models.GPUNode]{&nodes}); err != nil {
		return nil, err
	}
	return nodes, nil
}

// NodeDetails is the public listing including pricing and node keys. It is
// always fetched without credentials.
func (c *Client) NodeDetails(ctx context.Context) ([]models.GPUNode, error) {
	var nodes []models.GPUNode
	if err := c.Request(ctx, http.MethodGet, PathNodeDetails, nil, &listOf[models.GPUNode]{&nodes}, Anonymous()); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (c *Client) RegisterNode(ctx context.Context, req models.RegisterNodeRequest) error {
	return c.Request(ctx, http.MethodPost, PathRegisterNode, req, nil)
}

func (c *Client) UpdatePrice(ctx context.Context, nodeID int64, req models.PriceUpdateRequest) error {
	return c.Request(ctx, http.MethodPost, fmt.Sprintf(PathPricing, nodeID), req, nil)
}

func (c *Client) SubmitJob(ctx context.Context, req models.SubmitJobRequest) (*models.Job, error) {
	var job models.Job
	if err := c.Request(ctx, http.MethodPost, PathSubmitJob, req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (c *Client) UserJobs(ctx context.Context) ([]models.Job, error) {
	var jobs []models.Job
	if err := c.Request(ctx, http.MethodGet, PathUserJobs, nil, &listOf[models.Job]{&jobs}); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (c *Client) SimulateJobComplete(ctx context.Context, jobID int64) (*models.SimulatedCompletion, error) {
	var done models.SimulatedCompletion
	if err := c.Request(ctx, http.MethodPost, fmt.Sprintf(PathSimulateFinish, jobID), nil, &done); err != nil {
		return nil, err
	}
	return &done, nil
}
