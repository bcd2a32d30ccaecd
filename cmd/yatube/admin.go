package main

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/beesaferoot/yatube/internal/accounts"
	"github.com/beesaferoot/yatube/internal/config"
	"github.com/beesaferoot/yatube/internal/database"
	"github.com/beesaferoot/yatube/internal/forms"
	"github.com/beesaferoot/yatube/internal/store"
	"github.com/beesaferoot/yatube/models"
)

// openStore is shared by the commands that only need data access.
func openStore() (*store.Store, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg.DatabaseURL, cfg.Debug)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return store.New(db), closer, nil
}

func groupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage community groups",
	}
	cmd.AddCommand(groupCreateCmd(), groupListCmd(), groupDeleteCmd())
	return cmd
}

func groupCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <slug> <title>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description, _ := cmd.Flags().GetString("description")

			st, closer, err := openStore()
			if err != nil {
				return err
			}
			defer closer()

			group := &models.Group{Slug: args[0], Title: args[1], Description: description}
			if err := st.CreateGroup(cmd.Context(), group); err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					return fmt.Errorf("group %q already exists", group.Slug)
				}
				return err
			}
			fmt.Printf("Created group %s (/group/%s/)\n", group.Title, group.Slug)
			return nil
		},
	}
	cmd.Flags().String("description", "", "Group description")
	return cmd
}

func groupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closer, err := openStore()
			if err != nil {
				return err
			}
			defer closer()

			groups, err := st.ListGroups(cmd.Context())
			if err != nil {
				return err
			}
			for _, g := range groups {
				fmt.Printf("%-20s  %s\n", g.Slug, g.Title)
			}
			return nil
		},
	}
}

func groupDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete a group; its posts are kept without a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closer, err := openStore()
			if err != nil {
				return err
			}
			defer closer()

			if err := st.DeleteGroup(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("group %q not found", args[0])
				}
				return err
			}
			fmt.Printf("Deleted group %s\n", args[0])
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(userCreateCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			firstName, _ := cmd.Flags().GetString("first-name")
			lastName, _ := cmd.Flags().GetString("last-name")

			st, closer, err := openStore()
			if err != nil {
				return err
			}
			defer closer()

			user, err := accounts.NewService(st).Register(cmd.Context(), accounts.SignupForm{
				Username:  args[0],
				FirstName: firstName,
				LastName:  lastName,
				Password1: password,
				Password2: password,
			})
			if err != nil {
				var errs forms.Errors
				if errors.As(err, &errs) {
					return fmt.Errorf("invalid user: %s", strings.TrimSpace(errs.Error()))
				}
				return err
			}
			fmt.Printf("Created user %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().String("password", "", "Account password")
	cmd.Flags().String("first-name", "", "First name")
	cmd.Flags().String("last-name", "", "Last name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
