package apitest

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/indicompute/indicompute/internal/models"
)

type contextKey string

const userKey contextKey = "user"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeMissing answers the way a schema validator reports an absent field.
func writeMissing(w http.ResponseWriter, field string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{
			"type": "missing",
			"loc":  []string{"body", field},
			"msg":  "Field required",
		}},
	})
}

func (b *Backend) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		b.mu.Lock()
		userID, ok := b.tokens[token]
		b.mu.Unlock()
		if token == authHeader || !ok {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(userKey).(int64)
	return id
}

func pathID(r *http.Request, name string) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acct := range b.accounts {
		if acct.user.Email == req.Email && acct.password == req.Password {
			token := newToken()
			b.tokens[token] = acct.user.ID
			writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token})
			return
		}
	}
	writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Email == "" {
		writeMissing(w, "email")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acct := range b.accounts {
		if acct.user.Email == req.Email {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	_, token := b.addUserLocked(req.FullName, req.Email, req.Username, req.Password)
	writeJSON(w, http.StatusOK, models.TokenResponse{AccessToken: token})
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.accounts[userFromContext(r.Context())].user)
}

func (b *Backend) handleBalance(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	acct := b.accounts[userFromContext(r.Context())]
	writeJSON(w, http.StatusOK, models.Wallet{Username: acct.user.Username, WalletBalance: acct.balance})
}

func (b *Backend) handleTransactions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	txs := b.txs[userFromContext(r.Context())]
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (b *Backend) handleTopUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount *float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Amount == nil {
		writeMissing(w, "amount")
		return
	}
	if *req.Amount <= 0 {
		writeDetail(w, http.StatusBadRequest, "Amount must be positive")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	userID := userFromContext(r.Context())
	acct := b.accounts[userID]
	acct.balance += *req.Amount
	b.recordLocked(userID, models.TransactionCredit, *req.Amount, "Wallet top-up", "")
	writeJSON(w, http.StatusOK, models.Wallet{Username: acct.user.Username, WalletBalance: acct.balance})
}

func (b *Backend) handleNodeList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	nodes := make([]models.GPUNode, 0, len(b.nodes))
	for _, n := range b.nodes {
		listed := *n
		listed.NodeKey = ""
		listed.LastHeartbeat = listed.LastActive
		nodes = append(nodes, listed)
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (b *Backend) handleNodeDetails(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	nodes := make([]models.GPUNode, 0, len(b.nodes))
	for _, n := range b.nodes {
		nodes = append(nodes, *n)
	}
	writeJSON(w, http.StatusOK, nodes)
}

func (b *Backend) handleRegisterNode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Location     string   `json:"location"`
		GPUModel     string   `json:"gpu_model"`
		GPUCount     *float64 `json:"gpu_count"`
		PricePerHour *float64 `json:"price_per_hour"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.GPUCount == nil {
		writeMissing(w, "gpu_count")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	n := &models.GPUNode{
		ID:           b.id(),
		OwnerID:      userFromContext(r.Context()),
		Location:     req.Location,
		GPUModel:     req.GPUModel,
		GPUCount:     int(*req.GPUCount),
		IsOnline:     true,
		PricePerHour: req.PricePerHour,
		Currency:     "INR",
		NodeKey:      strings.ReplaceAll(newToken(), "-", "")[:12],
	}
	b.nodes = append(b.nodes, n)
	writeJSON(w, http.StatusOK, n)
}

func (b *Backend) handlePricing(w http.ResponseWriter, r *http.Request) {
	var req models.PriceUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.nodeLocked(pathID(r, "nodeId"))
	if n == nil {
		writeDetail(w, http.StatusNotFound, "Node not found")
		return
	}
	if n.OwnerID != userFromContext(r.Context()) {
		writeDetail(w, http.StatusForbidden, "Not the owner of this node")
		return
	}
	price := req.PricePerHour
	n.PricePerHour = &price
	n.Currency = req.Currency
	writeJSON(w, http.StatusOK, n)
}

func (b *Backend) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NodeID  *int64 `json:"node_id"`
		NodeKey string `json:"node_key"`
		Command string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.NodeID == nil {
		writeMissing(w, "node_id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.nodeLocked(*req.NodeID)
	if n == nil {
		writeDetail(w, http.StatusNotFound, "Node not found")
		return
	}
	if n.NodeKey != req.NodeKey {
		writeDetail(w, http.StatusForbidden, "Invalid node key")
		return
	}

	userID := userFromContext(r.Context())
	var price float64
	if n.PricePerHour != nil {
		price = *n.PricePerHour
	}
	acct := b.accounts[userID]
	if acct.balance < price {
		writeDetail(w, http.StatusBadRequest, "Insufficient balance")
		return
	}
	acct.balance -= price
	b.recordLocked(userID, models.TransactionDebit, price, "Job on node "+strconv.FormatInt(n.ID, 10), "")

	oj := &ownedJob{
		job:     models.Job{ID: b.id(), Command: req.Command, Status: "running"},
		ownerID: userID,
		nodeID:  n.ID,
		price:   price,
	}
	b.jobs = append(b.jobs, oj)
	writeJSON(w, http.StatusOK, oj.job)
}

func (b *Backend) handleUserJobs(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.jobsLocked(userFromContext(r.Context())))
}

func (b *Backend) handleSimulateComplete(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "jobId")

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, j := range b.jobs {
		if j.job.ID != id {
			continue
		}
		if j.job.Completed() {
			writeDetail(w, http.StatusBadRequest, "Job already completed")
			return
		}
		j.job.Status = models.JobStatusCompleted
		if n := b.nodeLocked(j.nodeID); n != nil && j.price > 0 {
			if owner, ok := b.accounts[n.OwnerID]; ok {
				owner.balance += j.price
				b.recordLocked(n.OwnerID, models.TransactionCredit, j.price, "Payout for job "+strconv.FormatInt(id, 10), "")
			}
		}
		writeJSON(w, http.StatusOK, j.job)
		return
	}
	writeDetail(w, http.StatusNotFound, "Job not found")
}
