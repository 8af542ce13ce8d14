package main

import (
	"fmt"
	"net/url"

	"github.com/Luismorlan/factfeed/model"
	"github.com/Luismorlan/factfeed/repository"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func sourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage feed sources",
	}
	cmd.AddCommand(sourceAddCmd())
	return cmd
}

func sourceAddCmd() *cobra.Command {
	var (
		feedURL  string
		category string
		disabled bool
	)
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a source or update the one with the same name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := url.Parse(feedURL)
			if err != nil || u.Host == "" {
				return errors.Errorf("invalid feed url %q", feedURL)
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			source := &model.Source{
				Name:     args[0],
				Domain:   u.Hostname(),
				FeedUrl:  feedURL,
				Category: category,
				Enabled:  !disabled,
			}
			if err := repository.NewSourceRepository(db).Upsert(cmd.Context(), source); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "source %s saved (%s)\n", source.Name, source.Id)
			return nil
		},
	}
	cmd.Flags().StringVar(&feedURL, "feed", "", "RSS or Atom feed url")
	cmd.Flags().StringVar(&category, "category", "general", "category of ingested articles")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "register the source without polling it")
	_ = cmd.MarkFlagRequired("feed")
	return cmd
}
