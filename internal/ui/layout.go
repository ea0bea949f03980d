package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	ProductName = "IndiCompute"
	Currency    = "₹"
)

type Link struct {
	Label   string
	Command string
}

var NavLinks = []Link{
	{"Dashboard", "indicompute dashboard"},
	{"Wallet", "indicompute wallet"},
	{"Marketplace", "indicompute marketplace"},
	{"Jobs", "indicompute jobs"},
}

// Header renders the navigation bar and the page title.
func Header(w io.Writer, title string) {
	labels := make([]string, len(NavLinks))
	for i, l := range NavLinks {
		labels[i] = l.Label
	}
	bar := fmt.Sprintf("%s  |  %s", ProductName, strings.Join(labels, "  ·  "))
	fmt.Fprintln(w, bar)
	fmt.Fprintln(w, strings.Repeat("─", len([]rune(bar))))
	if title != "" {
		fmt.Fprintf(w, "\n%s\n\n", title)
	}
}

func Footer(w io.Writer, now time.Time) {
	fmt.Fprintf(w, "\n© %d %s — Powered by AI Compute Network\n", now.Year(), ProductName)
}

// Links renders a list of follow-up commands.
func Links(w io.Writer, links []Link) {
	for _, l := range links {
		fmt.Fprintf(w, "  %-14s %s\n", l.Label, l.Command)
	}
}

// Money formats an amount in major units with two decimals.
func Money(amount float64) string {
	return fmt.Sprintf("%s%.2f", Currency, amount)
}

func OrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func OnlineStatus(online bool) string {
	if online {
		return "Online"
	}
	return "Offline"
}
