package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/otsembank/otsem/pkg/otsemsdk"
)

func cmdUsers(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "users")
	search := fs.String("search", "", "filter by name, email or tax number")
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 10, "page size")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := e.session(ctx)
	if err != nil {
		return err
	}

	res, err := s.client.ListUsers(ctx, otsemsdk.ListUsersParams{Page: *page, Limit: *limit, Search: *search})
	if err != nil {
		return err
	}

	return e.output(res, func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tKYC\tSTATUS\tBALANCE")
		for _, u := range res.Data {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				otsemsdk.ShortID(u.ID), u.Name, u.Email, u.KYCStatus, u.AccountStatus, otsemsdk.FormatBRL(u.BalanceBRL))
		}
		_ = tw.Flush()
		fmt.Fprintf(w, "page %d of %d, %d accounts\n", res.Page, res.TotalPages, res.Total)
	})
}

func cmdAdjust(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "adjust")
	account := fs.String("account", "", "account id")
	kind := fs.String("type", "", "CREDIT or DEBIT")
	amount := fs.Float64("amount", 0, "amount in BRL")
	reason := fs.String("reason", "", "why, at least 5 characters")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "account", "type", "reason"); err != nil {
		return err
	}

	s, err := e.session(ctx)
	if err != nil {
		return err
	}

	res, err := s.client.AdjustBalance(ctx, *account, otsemsdk.BalanceAdjustment{
		Type:   otsemsdk.AdjustmentType(strings.ToUpper(*kind)),
		Amount: *amount,
		Reason: *reason,
	})
	if err != nil {
		return err
	}

	return e.output(res, func(w io.Writer) {
		tx := res.Transaction
		fmt.Fprintf(w, "%s %s: %s -> %s\n",
			tx.Type, otsemsdk.FormatBRL(tx.Amount), otsemsdk.FormatBRL(tx.BalanceBefore), otsemsdk.FormatBRL(res.NewBalance))
		fmt.Fprintf(w, "transaction %s (%s)\n", tx.ID, tx.Status)
	})
}

func cmdReceipt(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "receipt")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(e.stderr, "usage: otsem receipt <transaction-id>")
		return errUsage
	}

	s, err := e.session(ctx)
	if err != nil {
		return err
	}

	r, err := s.client.Receipt(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	return e.output(r, func(w io.Writer) {
		fmt.Fprintln(w, r.Text())
	})
}

func cmdQuote(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet(e, "quote")
	watch := fs.Bool("watch", false, "keep polling until interrupted")
	interval := fs.Duration("interval", otsemsdk.DefaultQuoteInterval, "poll interval with -watch")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := e.session(ctx)
	if err != nil {
		return err
	}

	if !*watch {
		q, err := s.client.Quote(ctx)
		if err != nil {
			return err
		}
		snap := otsemsdk.QuoteSnapshot{Quote: *q, UpdatedAt: time.Now()}
		return e.output(snap, func(w io.Writer) { printQuote(w, snap) })
	}

	w := otsemsdk.NewQuoteWatcher(s.client, e.logger, *interval)
	w.OnUpdate = func(snap otsemsdk.QuoteSnapshot) {
		_ = e.output(snap, func(w io.Writer) { printQuote(w, snap) })
	}
	w.Start()
	<-ctx.Done()
	w.Stop()
	return nil
}

func printQuote(w io.Writer, snap otsemsdk.QuoteSnapshot) {
	rate := func(v *float64) string {
		if v == nil {
			return "--"
		}
		return otsemsdk.FormatBRL(*v)
	}
	fmt.Fprintf(w, "USDT buy %s  sell %s  (%s)\n",
		rate(snap.BuyRate), rate(snap.SellRate), snap.UpdatedAt.Format(time.TimeOnly))
}

func cmdHealth(ctx context.Context, e *env, args []string) error {
	if err := parse(newFlagSet(e, "health"), args); err != nil {
		return err
	}

	s, err := e.session(ctx)
	if err != nil {
		return err
	}

	m := otsemsdk.NewHealthMonitor(s.client, e.logger, 0)
	healthy := m.Check(ctx)
	st := m.Status()

	if err := e.output(st, func(w io.Writer) {
		if healthy {
			fmt.Fprintln(w, "API is up")
		} else {
			fmt.Fprintln(w, "API is unreachable")
		}
	}); err != nil {
		return err
	}
	if !healthy {
		return fmt.Errorf("api unreachable at %s", e.cfg.APIURL)
	}
	return nil
}
