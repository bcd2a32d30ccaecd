package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/internal/seed"
)

func seedCmd() *cobra.Command {
	defaults := seed.DefaultOptions()
	opts := defaults

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the database with fake demo content",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closer, err := openStore()
			if err != nil {
				return err
			}
			defer closer()

			res, err := seed.Run(cmd.Context(), st, opts)
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %s (password %q)\n", res, opts.Password)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Users, "users", defaults.Users, "Number of users")
	cmd.Flags().IntVar(&opts.Groups, "groups", defaults.Groups, "Number of groups")
	cmd.Flags().IntVar(&opts.PostsPerUser, "posts", defaults.PostsPerUser, "Posts per user")
	cmd.Flags().IntVar(&opts.CommentsPerPost, "comments", defaults.CommentsPerPost, "Comments per post")
	cmd.Flags().IntVar(&opts.FollowsPerUser, "follows", defaults.FollowsPerUser, "Authors each user follows")
	cmd.Flags().StringVar(&opts.Password, "password", defaults.Password, "Password for every generated user")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed; 0 picks one")
	return cmd
}
