package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/cardbot/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		externalID, _ := cmd.Flags().GetInt64("user")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(cfg, nil)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		d, err := openDeps(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer d.Close()

		u, err := d.store.Users().GetByExternalID(ctx, externalID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no user with id %d", externalID)
		}
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}

		sum, err := d.stats.Summary(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("compute stats: %w", err)
		}
		fmt.Println(sum.Text())
		return nil
	},
}

func init() {
	statsCmd.Flags().Int64("user", 1, "Platform user id")
}
