package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cardbot/internal/hint"
	"github.com/abhisek/cardbot/internal/llm"
)

var hintCmd = &cobra.Command{
	Use:   "hint <word> <translation>",
	Short: "Ask the configured LLM for a pronunciation hint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if !cfg.LLM.Enabled() {
			return errors.New("no LLM provider configured; set llm.provider or an API key variable")
		}
		log, err := newLogger(cfg, nil)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.LLM.Timeout)
		defer cancel()

		provider, err := llm.NewProvider(ctx, cfg.LLM, log)
		if err != nil {
			return fmt.Errorf("create provider: %w", err)
		}
		h, err := hint.NewSuggester(provider, hint.DefaultConfig()).Suggest(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if h == "" {
			fmt.Println("(no hint)")
			return nil
		}
		fmt.Printf("%s [%s] - %s\n", args[0], h, args[1])
		return nil
	},
}
