package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"genos/internal/bootstrap"
	"genos/internal/config"
)

var (
	activeModelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	ownerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

func newModelsCmd(opts *rootOptions) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List configured models, or the provider's models with --remote",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !remote {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				for i, m := range normalizedModels(cfg.Provider.Models, cfg.Provider.Model) {
					line := fmt.Sprintf("%d. %s", i+1, m)
					if m == cfg.Provider.Model {
						line = activeModelStyle.Render(line + " *")
					}
					fmt.Fprintln(out, line)
				}
				return nil
			}

			res, cleanup, err := opts.shell(cmd.Context(), "cli", false, nil)
			if err != nil {
				return err
			}
			defer cleanup()
			if !res.Keys.HasCredential() {
				return errors.New("no API key configured (set GENOS_API_KEY or run a host and enter one)")
			}
			p := bootstrap.NewProvider(res.Config.Provider, res.Keys.APIKey())
			models, err := p.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models: %w", err)
			}
			for _, m := range models {
				name := m.ID
				if m.ID == p.CurrentModel() {
					name = activeModelStyle.Render(name + " *")
				}
				if m.OwnedBy != "" {
					name += " " + ownerStyle.Render(m.OwnedBy)
				}
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "Query the provider's model list")
	return cmd
}

// resolveModelTarget 接受模型名（大小写不敏感）、1 起始的序号或带引号的名字
// resolveModelTarget accepts a model name (case-insensitive), a 1-based index
// into availableModels, or a quoted name
func resolveModelTarget(input string, availableModels []string) (string, error) {
	raw := strings.TrimSpace(input)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	} else if len(raw) >= 2 {
		last := raw[len(raw)-1]
		if raw[0] == '\'' && last == '\'' {
			raw = strings.TrimSpace(raw[1 : len(raw)-1])
		}
	}
	if raw == "" {
		return "", fmt.Errorf("empty model")
	}
	for _, model := range availableModels {
		trimmed := strings.TrimSpace(model)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, raw) {
			return trimmed, nil
		}
	}
	if index, err := strconv.Atoi(raw); err == nil {
		if index < 1 || index > len(availableModels) {
			return "", fmt.Errorf("index out of range")
		}
		return strings.TrimSpace(availableModels[index-1]), nil
	}
	return raw, nil
}

// normalizedModels 去重去空，并保证当前模型在列表中
// normalizedModels drops blanks and duplicates and keeps current in the list
func normalizedModels(existing []string, current string) []string {
	out := make([]string, 0, len(existing)+1)
	seen := map[string]struct{}{}
	for _, model := range existing {
		trimmed := strings.TrimSpace(model)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	current = strings.TrimSpace(current)
	if current != "" {
		if _, ok := seen[current]; !ok {
			out = append([]string{current}, out...)
		}
	}
	return out
}

func setModel(cfg config.Config, target string) (string, error) {
	models := normalizedModels(cfg.Provider.Models, cfg.Provider.Model)
	model, err := resolveModelTarget(target, models)
	if err != nil {
		return "", err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if err := config.WriteProviderModel(cwd, model); err != nil {
		return "", fmt.Errorf("write project config: %w", err)
	}
	return model, nil
}
