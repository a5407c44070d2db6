package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_ytsum/internal/app"
	"github.com/anatolykoptev/go_ytsum/internal/cookies"
	"github.com/anatolykoptev/go_ytsum/internal/session"
)

// now is the clock used by cookie commands.
var now = time.Now

func newCookiesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Inspect and maintain the session cookie file",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "List cookies with their expiry (values are masked)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store := cookies.NewStore(opts.config().CookieFile)
				jar, err := store.Load()
				if err != nil {
					return err
				}
				return showJar(cmd.OutOrStdout(), jar, now())
			},
		},
		&cobra.Command{
			Use:   "rewrite",
			Short: "Recompute every cookie expiry from now and save (previous file kept as .backup)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store := cookies.NewStore(opts.config().CookieFile)
				jar, err := store.Load()
				if err != nil {
					return err
				}
				if err := store.Save(cookies.RewriteExpiries(jar, now())); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rewrote %d cookies in %s\n", jar.Len(), store.Path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "refresh",
			Short: "Acquire a fresh jar with SESSION_METHOD and save it",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg := opts.config()
				acq, err := app.NewAcquirer(cfg, nil)
				if err != nil {
					return err
				}
				store := cookies.NewStore(cfg.CookieFile)
				m := session.NewManager(store, acq, session.Credentials{Email: cfg.GoogleEmail, Password: cfg.GooglePassword})
				jar, err := m.RefreshAndSave(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "saved %d cookies from %s login to %s\n", jar.Len(), acq.Name(), store.Path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "restore",
			Short: "Replace the cookie file with its .backup generation",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store := cookies.NewStore(opts.config().CookieFile)
				if err := store.Restore(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", store.Path, store.BackupPath())
				return nil
			},
		},
	)
	return cmd
}

func showJar(w io.Writer, jar *cookies.Jar, at time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tNAME\tVALUE\tEXPIRES\tSTATUS")
	for _, c := range jar.Cookies() {
		expires, status := "session", "ok"
		if !c.Session() {
			expires = time.Unix(c.Expires, 0).UTC().Format(time.RFC3339)
			if c.Expired(at) {
				status = "expired"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Domain, c.Name, mask(c.Value), expires, status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	state := "usable"
	if jar.Stale(at) {
		state = "stale"
	}
	_, err := fmt.Fprintf(w, "%d cookies, jar %s\n", jar.Len(), state)
	return err
}

// mask keeps the first four characters of a cookie value.
func mask(v string) string {
	if len(v) <= 4 {
		return strings.Repeat("*", len(v))
	}
	return v[:4] + strings.Repeat("*", min(len(v)-4, 12))
}
