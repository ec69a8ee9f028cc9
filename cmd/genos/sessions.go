package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"genos/internal/export"
	"genos/internal/storage"
	"genos/internal/textview"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

func newSessionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse and export recorded sessions",
		Long:  "Sessions are recorded while statefulness is on. Each completed turn stores the event and the generated content.",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			sessions, err := store.ListSessions(cmd.Context())
			if err != nil {
				return fmt.Errorf("list sessions: %w", err)
			}
			displaySessions(cmd.OutOrStdout(), sessions)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <session_id>",
		Short: "Print a session as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			session, err := export.Load(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			var b strings.Builder
			if err := (&export.MarkdownExporter{}).Export(session, &b); err != nil {
				return err
			}
			out := b.String()
			if f, ok := cmd.OutOrStdout().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
				out = textview.RenderMarkdown(out, 100)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	var (
		format string
		output string
	)
	exportCmd := &cobra.Command{
		Use:   "export <session_id>",
		Short: "Export a session to yaml, json, jsonl or md",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := export.NewExporter(strings.ToLower(strings.TrimSpace(format)))
			if err != nil {
				return err
			}
			store, layout, err := opts.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			session, err := export.Load(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}

			if output == "-" {
				return exporter.Export(session, cmd.OutOrStdout())
			}
			path := output
			if path == "" {
				path = filepath.Join(layout.ExportsDir, session.Meta.ID+"."+exporter.Extension())
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := exporter.Export(session, f); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d turn(s) to %s\n", len(session.Turns), path)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format: yaml, json, jsonl, md")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "Output file; - for stdout (default <base_dir>/exports/<id>.<ext>)")

	cmd.AddCommand(list, show, exportCmd)
	return cmd
}

func (o *rootOptions) openStore() (*storage.SQLiteStore, storage.Layout, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, storage.Layout{}, err
	}
	layout, err := storage.NewLayout(cfg.Storage.BaseDir)
	if err != nil {
		return nil, storage.Layout{}, fmt.Errorf("init data dir: %w", err)
	}
	store, err := storage.NewSQLiteStore(layout.DBPath())
	if err != nil {
		return nil, storage.Layout{}, err
	}
	return store, layout, nil
}

func displaySessions(out io.Writer, sessions []storage.SessionMeta) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, headerStyle.Render("No sessions found"))
		return
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("Found %d session(s)", len(sessions))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Host")+"\t"+titleStyle.Render("Model")+"\t"+titleStyle.Render("Turns")+"\t"+titleStyle.Render("Updated"))
	for _, s := range sessions {
		updated := s.UpdatedAt
		if updated == "" {
			updated = "-"
		}
		_, _ = fmt.Fprintln(w, idStyle.Render(s.ID)+"\t"+s.Host+"\t"+s.Model+"\t"+countStyle.Render(strconv.Itoa(s.TurnCount))+"\t"+dateStyle.Render(updated))
	}
	_ = w.Flush()
}
