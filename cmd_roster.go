package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage the contact roster used for notifications",
}

var rosterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List roster entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRoster()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, a := range r.List() {
			token := "-"
			if a.MessagingToken != "" {
				token = "set"
			}
			email := a.Email
			if email == "" {
				email = "-"
			}
			fmt.Fprintf(out, "%s\tLINE: %s\temail: %s\n", a.Name, token, email)
		}
		if missing := r.MissingContact(); len(missing) > 0 {
			fmt.Fprintf(out, "\n%d contact(s) without a channel cannot be notified.\n", len(missing))
		}
		return r.Save()
	},
}

var rosterSetFlags struct {
	token string
	email string
}

var rosterSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Add or update a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRoster()
		if err != nil {
			return err
		}
		a, _ := r.Get(args[0])
		a.Name = args[0]
		if cmd.Flags().Changed("token") {
			a.MessagingToken = rosterSetFlags.token
		}
		if cmd.Flags().Changed("email") {
			a.Email = rosterSetFlags.email
		}
		if err := r.Set(a); err != nil {
			return err
		}
		if err := r.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s.\n", a.Name)
		return nil
	},
}

var rosterRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a contact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRoster()
		if err != nil {
			return err
		}
		if !r.Remove(args[0]) {
			return fmt.Errorf("%s is not in the roster", args[0])
		}
		return r.Save()
	},
}

func init() {
	rosterSetCmd.Flags().StringVar(&rosterSetFlags.token, "token", "", "LINE Notify personal access token")
	rosterSetCmd.Flags().StringVar(&rosterSetFlags.email, "email", "", "email address")
	rosterCmd.AddCommand(rosterListCmd, rosterSetCmd, rosterRemoveCmd)
}

