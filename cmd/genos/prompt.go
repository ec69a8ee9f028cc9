package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"genos/internal/apps"
	"genos/internal/history"
	"genos/internal/kernel"
	"genos/internal/prefs"
	"genos/internal/tokens"
)

func newPromptCmd(opts *rootOptions) *cobra.Command {
	var (
		maxHistory int
		cacheOn    bool
		cacheSize  int
		showTokens bool
	)
	cmd := &cobra.Command{
		Use:   "prompt <app_id>",
		Short: "Print the prompt sent when an app opens",
		Long:  "Compose the kernel prompt for opening an app without contacting the model.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			app, ok := apps.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown app %q", args[0])
			}
			if !cmd.Flags().Changed("history") {
				maxHistory = cfg.Shell.MaxHistory
			}
			if !history.ValidLength(maxHistory) {
				return fmt.Errorf("history must be between 0 and %d", history.MaxLength)
			}
			cache := prefs.CacheConfig{Enabled: cacheOn, SizeGB: cacheSize}
			if err := cache.Validate(); err != nil {
				return err
			}

			k := kernel.New(kernel.Config{
				Model:  cfg.Provider.Model,
				Apps:   apps.Default(),
				Logger: quietLogger(),
			})
			ev := history.Bootstrap(app)
			text := k.Prompt(kernel.Request{
				History:    history.Reset(&ev),
				MaxHistory: maxHistory,
				Cache:      cache,
			})
			fmt.Fprintln(cmd.OutOrStdout(), text)
			if showTokens {
				counter := tokens.ForModel(k.Model())
				fmt.Fprintf(cmd.ErrOrStderr(), "tokens: %d (%s)\n", counter.CountPrompt(text), counter.EncodingName())
			}
			return nil
		},
	}
	def := prefs.DefaultCacheConfig()
	cmd.Flags().IntVar(&maxHistory, "history", 0, "Interaction history length (default from config)")
	cmd.Flags().BoolVar(&cacheOn, "cache", def.Enabled, "Describe the disk cache as enabled")
	cmd.Flags().IntVar(&cacheSize, "cache-size", def.SizeGB, "Cache size in GB (5-20)")
	cmd.Flags().BoolVar(&showTokens, "tokens", false, "Print the prompt token count to stderr")
	return cmd
}
