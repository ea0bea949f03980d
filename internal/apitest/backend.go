// Package apitest is an in-memory stand-in for the IndiCompute backend. It
// serves the same endpoints and error shapes so client code can be tested
// against real HTTP round trips.
package apitest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/indicompute/indicompute/internal/models"
)

type account struct {
	user     models.User
	password string
	balance  float64
}

type ownedJob struct {
	job     models.Job
	ownerID int64
	nodeID  int64
	price   float64
}

type override struct {
	status int
	body   string
}

// Request is a request as the backend received it.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type Backend struct {
	mu        sync.Mutex
	accounts  map[int64]*account
	tokens    map[string]int64
	txs       map[int64][]models.Transaction
	nodes     []*models.GPUNode
	jobs      []*ownedJob
	overrides map[string]override
	latency   map[string]time.Duration
	requests  []Request
	nextID    int64

	server *httptest.Server
}

// New starts a backend that is shut down when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		accounts:  make(map[int64]*account),
		tokens:    make(map[string]int64),
		txs:       make(map[int64][]models.Transaction),
		overrides: make(map[string]override),
		latency:   make(map[string]time.Duration),
	}
	b.server = httptest.NewServer(b.Routes())
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/login", b.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/signup", b.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/gpu-nodes/details", b.handleNodeDetails).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(b.authMiddleware)
	authed.HandleFunc("/me", b.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/wallet/balance", b.handleBalance).Methods(http.MethodGet)
	authed.HandleFunc("/wallet/transactions", b.handleTransactions).Methods(http.MethodGet)
	authed.HandleFunc("/wallet/topup", b.handleTopUp).Methods(http.MethodPost)
	authed.HandleFunc("/gpu-nodes", b.handleNodeList).Methods(http.MethodGet)
	authed.HandleFunc("/gpu-nodes/register", b.handleRegisterNode).Methods(http.MethodPost)
	authed.HandleFunc("/pricing/{nodeId:[0-9]+}", b.handlePricing).Methods(http.MethodPost)
	authed.HandleFunc("/submit-job", b.handleSubmitJob).Methods(http.MethodPost)
	authed.HandleFunc("/user-jobs", b.handleUserJobs).Methods(http.MethodGet)
	authed.HandleFunc("/simulate-job-complete/{jobId:[0-9]+}", b.handleSimulateComplete).Methods(http.MethodPost)

	return b.withRecording(r)
}

// withRecording logs every request and applies configured failures and delays
// before routing.
func (b *Backend) withRecording(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		ov, failing := b.overrides[key]
		delay := b.latency[key]
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		if failing {
			if ov.body != "" {
				w.Header().Set("Content-Type", "application/json")
			}
			w.WriteHeader(ov.status)
			io.WriteString(w, ov.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Fail makes every subsequent method+path request answer status with body.
func (b *Backend) Fail(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overrides[method+" "+path] = override{status: status, body: body}
}

// Recover undoes Fail.
func (b *Backend) Recover(method, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.overrides, method+" "+path)
}

// Delay holds every subsequent method+path request for d or until the client
// gives up.
func (b *Backend) Delay(method, path string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latency[method+" "+path] = d
}

// Requests returns the recorded requests for method+path, or all requests
// when method is empty.
func (b *Backend) Requests(method, path string) []Request {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []Request
	for _, r := range b.requests {
		if method == "" || (r.Method == method && r.Path == path) {
			out = append(out, r)
		}
	}
	return out
}

func (b *Backend) Count(method, path string) int {
	return len(b.Requests(method, path))
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

func newToken() string {
	return uuid.New().String()
}

// AddUser registers an account and returns it with a valid token.
func (b *Backend) AddUser(fullName, email, username, password string) (models.User, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(fullName, email, username, password)
}

func (b *Backend) addUserLocked(fullName, email, username, password string) (models.User, string) {
	u := models.User{ID: b.id(), FullName: fullName, Email: email, Username: username}
	b.accounts[u.ID] = &account{user: u, password: password}
	token := newToken()
	b.tokens[token] = u.ID
	return u, token
}

func (b *Backend) SetBalance(userID int64, balance float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.accounts[userID].balance = balance
}

func (b *Backend) Balance(userID int64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.accounts[userID].balance
}

func (b *Backend) AddTransaction(userID int64, tx models.Transaction) models.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.recordLocked(userID, tx.Type, tx.Amount, tx.Description, tx.Timestamp)
}

func (b *Backend) recordLocked(userID int64, typ models.TransactionType, amount float64, desc, ts string) models.Transaction {
	if ts == "" {
		ts = time.Now().UTC().Format("2006-01-02T15:04:05")
	}
	tx := models.Transaction{ID: b.id(), Type: typ, Amount: amount, Description: desc, Timestamp: ts}
	b.txs[userID] = append(b.txs[userID], tx)
	return tx
}

// AddNode registers a node for ownerID. A node key is generated when n has none.
func (b *Backend) AddNode(ownerID int64, n models.GPUNode) models.GPUNode {
	b.mu.Lock()
	defer b.mu.Unlock()
	n.ID = b.id()
	n.OwnerID = ownerID
	if n.NodeKey == "" {
		n.NodeKey = strings.ReplaceAll(newToken(), "-", "")[:12]
	}
	b.nodes = append(b.nodes, &n)
	return n
}

// StripNodeKey removes the node key from the public listing of nodeID.
func (b *Backend) StripNodeKey(nodeID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := b.nodeLocked(nodeID); n != nil {
		n.NodeKey = ""
	}
}

func (b *Backend) Node(nodeID int64) (models.GPUNode, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := b.nodeLocked(nodeID); n != nil {
		return *n, true
	}
	return models.GPUNode{}, false
}

func (b *Backend) nodeLocked(id int64) *models.GPUNode {
	for _, n := range b.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func (b *Backend) AddJob(ownerID int64, job models.Job) models.Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	job.ID = b.id()
	b.jobs = append(b.jobs, &ownedJob{job: job, ownerID: ownerID})
	return job
}

func (b *Backend) Jobs(ownerID int64) []models.Job {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jobsLocked(ownerID)
}

func (b *Backend) jobsLocked(ownerID int64) []models.Job {
	out := []models.Job{}
	for _, j := range b.jobs {
		if j.ownerID == ownerID {
			out = append(out, j.job)
		}
	}
	return out
}
