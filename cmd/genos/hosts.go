package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"genos/internal/console"
	"genos/internal/hostcmd"
	"genos/internal/i18n"
	"genos/internal/tui"
	"genos/internal/web"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			res, cleanup, err := opts.shell(ctx, "web", false, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			hub := web.NewHub(res.Logger.With("component", "web"))
			res.Render.SetSurface(hub)
			srv := web.NewServer(ctx, res.Orch, hub, res.Logger.With("component", "web"))
			res.Keys.SetPrompter(srv.PromptKey)

			listen := strings.TrimSpace(addr)
			if listen == "" {
				listen = res.Config.Server.Addr
			}
			out := cmd.OutOrStdout()
			return srv.ListenAndServe(ctx, listen, func(bound string) {
				fmt.Fprintln(out, i18n.T("startup.serve", bound))
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config server.addr)")
	return cmd
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			bridge := tui.NewBridge()
			res, cleanup, err := opts.shell(ctx, "tui", true, bridge)
			if err != nil {
				return err
			}
			defer cleanup()

			res.Orch.SetObserver(bridge.PublishState)
			res.Keys.SetPrompter(bridge.PromptKey)

			return tui.Run(ctx, bridge, tui.Options{
				Session:   hostcmd.NewSession(res.Orch),
				Apps:      res.Orch.Apps(),
				State:     res.Orch.Snapshot(),
				Model:     res.Kernel.Model(),
				SessionID: res.SessionID,
				KeyStatus: res.Keys.Masked,
			})
		},
	}
}

func newConsoleCmd(opts *rootOptions) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run the line-oriented shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			res, cleanup, err := opts.shell(ctx, "console", true, nil)
			if err != nil {
				return err
			}
			defer cleanup()

			in := console.NewLineInput(filepath.Join(res.Layout.BaseDir, "console.history"))
			defer in.Close()

			tty := term.IsTerminal(int(os.Stdout.Fd()))
			c := console.New(res.Orch, console.Options{
				In:       in,
				Out:      cmd.OutOrStdout(),
				Markdown: tty && !plain,
				Color:    tty && !plain,
				Logger:   res.Logger.With("component", "console"),
			})
			res.Keys.SetPrompter(c.PromptKey)
			fmt.Fprintln(cmd.OutOrStdout(), i18n.T("startup.welcome", res.SessionID))
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(hostcmd.HelpLines(), "\n"))
			return c.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Print raw Markdown without colors")
	return cmd
}
