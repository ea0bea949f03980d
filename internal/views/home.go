package views

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/indicompute/indicompute/internal/ui"
)

var FeaturedGPUs = []string{"RTX 3090", "RTX 4090", "A100", "H100"}

type feature struct {
	name, blurb string
}

var features = []feature{
	{"🚀 Fast API", "Create users, launch jobs, manage GPU nodes instantly."},
	{"💰 Wallet System", "Deposit, withdraw & track compute billing in real-time."},
	{"🖥 GPU Nodes", "Connect your GPU globally and start earning."},
}

type plan struct {
	name, price, blurb string
}

var plans = []plan{
	{"Starter", "₹29/hr", "Run basic compute jobs."},
	{"Pro", "₹79/hr", "Heavy training & ML workloads."},
	{"Enterprise", "Custom", "For large GPU clusters & teams."},
}

var homeLinks = []ui.Link{
	{Label: "Login", Command: "indicompute login"},
	{Label: "Get Started", Command: "indicompute signup"},
}

// Home is the landing page. It fetches nothing.
type Home struct{}

func NewHome() *Home {
	return &Home{}
}

func (*Home) Title() string {
	return "Decentralized GPU Computing for AI Startups & Developers"
}

func (*Home) Load(context.Context) error {
	return nil
}

func (*Home) Render(w io.Writer) {
	fmt.Fprintln(w, "Rent GPU power globally, deploy Jobs, manage Wallets, all with the")
	fmt.Fprintf(w, "super-fast %s API. No complexity. Just compute.\n\n", ui.ProductName)
	ui.Links(w, homeLinks)

	fmt.Fprintln(w)
	for _, f := range features {
		fmt.Fprintf(w, "%s\n  %s\n", f.name, f.blurb)
	}

	fmt.Fprintln(w, "\nSupported GPU Models")
	for _, gpu := range FeaturedGPUs {
		fmt.Fprintf(w, "  %-10s Available worldwide\n", gpu)
	}

	fmt.Fprintln(w, "\nSimple Pricing")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, p := range plans {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.name, p.price, p.blurb)
	}
	tw.Flush()
}
