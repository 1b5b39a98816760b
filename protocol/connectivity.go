package protocol

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/perfgo/apibench/model"
	"github.com/perfgo/apibench/transport"
)

var (
	// ErrTimeout is returned when the preflight did not finish in time.
	ErrTimeout = errors.New("connectivity check timed out")
	// ErrUnreachable is returned when the preflight call failed.
	ErrUnreachable = errors.New("transport unreachable")
)

// CheckConnectivity issues products(1) on c, bounded by timeout.
func CheckConnectivity(ctx context.Context, c transport.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r := transport.Call(ctx, c, transport.ProductsRequest(1))
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if r.State != transport.StateSuccess {
		return fmt.Errorf("%w: %s", ErrUnreachable, r.Message)
	}
	return nil
}

// Expected entity counts of the database report.
const (
	reportProducts = 121
	reportPackages = 63
)

// CheckLine is one fetch of the database connectivity report.
type CheckLine struct {
	Transport model.Transport `json:"transport"`
	Entity    string          `json:"entity"`
	Expected  int             `json:"expected,omitempty"`
	Loaded    int             `json:"loaded"`
	Error     string          `json:"error,omitempty"`
}

func (l CheckLine) OK() bool {
	return l.Error == ""
}

// ConnectivityReport covers products, packages and resellers on every
// transport.
type ConnectivityReport struct {
	Lines []CheckLine `json:"lines"`
}

func (r ConnectivityReport) Counts() (succeeded, failed int) {
	for _, l := range r.Lines {
		if l.OK() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// SuccessRate is the integer percentage of successful fetches.
func (r ConnectivityReport) SuccessRate() int {
	ok, failed := r.Counts()
	if ok+failed == 0 {
		return 0
	}
	return ok * 100 / (ok + failed)
}

func (r ConnectivityReport) String() string {
	var sb strings.Builder
	var current model.Transport
	for _, l := range r.Lines {
		if l.Transport != current {
			if current != "" {
				sb.WriteString("\n")
			}
			current = l.Transport
			fmt.Fprintf(&sb, "=== %s ===\n", current)
		}
		switch {
		case !l.OK():
			fmt.Fprintf(&sb, "FAIL %s: %s\n", l.Entity, l.Error)
		case l.Expected > 0:
			fmt.Fprintf(&sb, "OK   %s: %d/%d loaded\n", l.Entity, l.Loaded, l.Expected)
		default:
			fmt.Fprintf(&sb, "OK   %s: %d loaded\n", l.Entity, l.Loaded)
		}
	}
	ok, failed := r.Counts()
	fmt.Fprintf(&sb, "\n=== SUMMARY ===\nTotal: %d\nSuccessful: %d\nFailed: %d\nSuccess rate: %d%%\n",
		ok+failed, ok, failed, r.SuccessRate())
	return sb.String()
}

// DatabaseReport fetches every entity kind through every client.
func DatabaseReport(ctx context.Context, clients []transport.Client) ConnectivityReport {
	checks := []struct {
		entity   string
		req      transport.Request
		expected int
	}{
		{entity: "Products", req: transport.ProductsRequest(reportProducts), expected: reportProducts},
		{entity: "Packages", req: transport.PackagesRequest(reportPackages), expected: reportPackages},
		{entity: "Resellers", req: transport.ResellersRequest()},
	}

	var report ConnectivityReport
	for _, c := range clients {
		for _, chk := range checks {
			line := CheckLine{Transport: c.Transport(), Entity: chk.entity, Expected: chk.expected}
			r := transport.Call(ctx, c, chk.req)
			if r.State == transport.StateSuccess {
				line.Loaded = r.Data.Count()
			} else {
				line.Error = r.Message
			}
			report.Lines = append(report.Lines, line)
		}
	}
	return report
}
