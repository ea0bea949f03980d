package views

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/indicompute/indicompute/internal/api"
	"github.com/indicompute/indicompute/internal/models"
	"github.com/indicompute/indicompute/internal/ui"
)

// Filter narrows the transaction list locally.
type Filter string

const (
	FilterAll    Filter = "all"
	FilterCredit Filter = "credit"
	FilterDebit  Filter = "debit"
)

const DefaultExportFile = "wallet_transactions.csv"

var (
	// ErrNothingToExport means the filtered list is empty.
	ErrNothingToExport = errors.New("no transactions to export")

	csvHeader = []string{"Type", "Amount", "Description", "Timestamp"}
)

// ParseFilter accepts all, credit or debit. An empty value means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCredit, FilterDebit:
		return f, nil
	}
	return "", errors.Errorf("unknown filter %q (want all, credit or debit)", s)
}

func (f Filter) match(tx models.Transaction) bool {
	return f == FilterAll || f == "" || string(tx.Type) == string(f)
}

type Wallet struct {
	env *Env

	mu       sync.Mutex
	loaded   bool
	username string
	balance  float64
	txs      []models.Transaction
	filter   Filter
	message  ui.Toast
}

func NewWallet(env *Env) *Wallet {
	return &Wallet{env: env, filter: FilterAll}
}

func (v *Wallet) Title() string {
	return "My Wallet"
}

// Load fetches balance and history together. A failure of either clears both.
func (v *Wallet) Load(ctx context.Context) error {
	sess, err := v.env.Guard.Require(ctx)
	if err != nil {
		return err
	}

	var (
		wallet            *models.Wallet
		txs               []models.Transaction
		walletErr, txsErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		wallet, walletErr = v.env.API.WalletBalance(gctx)
		return walletErr
	})
	g.Go(func() error {
		txs, txsErr = v.env.API.Transactions(gctx)
		return txsErr
	})
	err = g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		if err := v.env.Guard.Check(ctx, firstUnauthorized(walletErr, txsErr)); isLoginRequired(err) {
			return err
		}
		v.env.Log.WithError(err).Warn("loading wallet")
		v.mu.Lock()
		v.loaded = false
		v.balance = 0
		v.txs = nil
		v.message = loadWalletFailed
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.loaded = true
	v.username = wallet.Username
	if v.username == "" {
		v.username = sess.Username
	}
	v.balance = wallet.WalletBalance
	v.txs = txs
	if v.message == loadWalletFailed {
		v.message = ui.Toast{}
	}
	return nil
}

var loadWalletFailed = ui.Warning("⚠️ Failed to load wallet data. Please retry.")

// Refresh is an explicit reload.
func (v *Wallet) Refresh(ctx context.Context) error {
	return v.Load(ctx)
}

// TopUp credits the wallet. Non-positive or non-numeric amounts are refused
// without a request.
func (v *Wallet) TopUp(ctx context.Context, input string) error {
	if _, err := v.env.Guard.Require(ctx); err != nil {
		return err
	}

	amount := models.CoerceNumber(strings.TrimSpace(input)).Float64()
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		v.setMessage(ui.Warning("⚠️ Please enter a valid positive amount."))
		return ErrInvalidInput
	}

	err := v.env.API.TopUp(ctx, amount)
	if err := v.env.Guard.Check(ctx, err); isLoginRequired(err) {
		return err
	}
	if err != nil {
		v.setMessage(v.env.failure(err, func(e *api.Error) ui.Toast {
			return ui.Error("❌ " + api.TopUpMessage(e.Body))
		}, ui.Warning("⚠️ Server not reachable. Please check your connection.")))
		return err
	}

	v.setMessage(ui.Success("✅ Wallet topped up successfully!"))
	if err := v.Load(ctx); isLoginRequired(err) {
		return err
	}
	return nil
}

func (v *Wallet) SetFilter(f Filter) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
}

func (v *Wallet) Filter() Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

func (v *Wallet) Balance() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balance
}

// Filtered returns the transactions matching the current filter.
func (v *Wallet) Filtered() []models.Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filteredLocked()
}

func (v *Wallet) filteredLocked() []models.Transaction {
	out := make([]models.Transaction, 0, len(v.txs))
	for _, tx := range v.txs {
		if v.filter.match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// ExportCSV writes the filtered transactions as CSV. With nothing to export
// it writes nothing and returns ErrNothingToExport.
func (v *Wallet) ExportCSV(w io.Writer) error {
	txs := v.Filtered()
	if len(txs) == 0 {
		v.setMessage(ui.Warning("No transactions to export!"))
		return ErrNothingToExport
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, tx := range txs {
		row := []string{
			string(tx.Type),
			formatNumber(tx.Amount),
			tx.Description,
			models.LocalTime(tx.Timestamp),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

func (v *Wallet) setMessage(t ui.Toast) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = t
}

func (v *Wallet) Message() ui.Toast {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.message
}

func (v *Wallet) Render(w io.Writer) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.username != "" {
		fmt.Fprintf(w, "User: %s\n", v.username)
	}
	fmt.Fprintf(w, "Balance: %s\n", ui.Money(v.balance))
	v.message.Render(w)
	if !v.loaded {
		return
	}

	fmt.Fprintf(w, "\nTransactions (filter: %s)\n", v.filter)
	txs := v.filteredLocked()
	if len(txs) == 0 {
		fmt.Fprintln(w, "No transactions yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, tx := range txs {
		fmt.Fprintf(tw, "%s — %s\t%s%s\t%s\n",
			strings.ToUpper(string(tx.Type)), tx.Description,
			ui.Currency, formatNumber(tx.Amount), models.LocalTime(tx.Timestamp))
	}
	tw.Flush()
}

// formatNumber prints the shortest decimal form, without exponent.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
