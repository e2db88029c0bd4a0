package main

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/quidome/ecoquest-go/pkg/account"
	"github.com/quidome/ecoquest-go/pkg/hatching"
	"github.com/quidome/ecoquest-go/pkg/profile"
	"github.com/quidome/ecoquest-go/pkg/validate"
)

// userError replaces coded account errors and form validation errors with
// their friendly message.
func userError(err error) error {
	var coded validate.CodedError
	if errors.As(err, &coded) || validate.IsInputError(err) {
		return errors.New(validate.FriendlyError(err))
	}
	return err
}

func (e *env) accounts() (*account.Service, error) {
	store, err := e.profiles()
	if err != nil {
		return nil, err
	}
	return &account.Service{Store: store, Logger: e.log}, nil
}

func newSignUpCmd(opts *options) *cobra.Command {
	var email, password, name string

	signUpCmd := &cobra.Command{
		Use:   "signup",
		Short: "Create a player account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			svc, err := e.accounts()
			if err != nil {
				return err
			}
			p, err := svc.SignUp(cmd.Context(), email, password, name)
			if err != nil {
				cmd.SilenceUsage = true
				return userError(err)
			}

			cmd.Printf("Created account %s for %s (%s)\n", p.ID, p.DisplayName, p.Email)
			return nil
		},
	}

	signUpCmd.Flags().StringVar(&email, "email", "", "account email")
	signUpCmd.Flags().StringVar(&password, "password", "", "account password")
	signUpCmd.Flags().StringVar(&name, "name", "", "display name (defaults to the email local part)")

	return signUpCmd
}

func newSignInCmd(opts *options) *cobra.Command {
	var email, password string

	signInCmd := &cobra.Command{
		Use:   "signin",
		Short: "Check account credentials and show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			svc, err := e.accounts()
			if err != nil {
				return err
			}
			p, err := svc.SignIn(cmd.Context(), email, password)
			if err != nil {
				cmd.SilenceUsage = true
				return userError(err)
			}

			cmd.Printf("Welcome back, %s!\n", p.DisplayName)
			cmd.Printf("User ID: %s\n", p.ID)
			cmd.Printf("Level %d, %d XP, %d eco points, %d missions\n", p.Level, p.XP, p.EcoPoints, p.MissionsCompleted)
			return nil
		},
	}

	signInCmd.Flags().StringVar(&email, "email", "", "account email")
	signInCmd.Flags().StringVar(&password, "password", "", "account password")

	return signInCmd
}

func newHatchCmd(opts *options) *cobra.Command {
	var userID string
	var seed int64

	hatchCmd := &cobra.Command{
		Use:   "hatch",
		Short: "Hatch eggs whose incubation has finished",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user is required")
			}

			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			store, err := e.profiles()
			if err != nil {
				return err
			}

			now := time.Now()
			if seed == 0 {
				seed = now.UnixNano()
			}
			res, err := hatching.Process(cmd.Context(), store, userID, now, rand.New(rand.NewSource(seed)))
			if err != nil {
				if errors.Is(err, profile.ErrNotFound) {
					cmd.SilenceUsage = true
				}
				return err
			}

			if len(res.NewAnimals) == 0 {
				cmd.Printf("No eggs ready to hatch (%d still incubating)\n", len(res.Pending))
				return nil
			}
			for _, a := range res.NewAnimals {
				cmd.Printf("%s %s hatched! (%s, from %s)\n", hatching.Emoji(a.Name), a.Name, a.Rarity, a.FromEgg)
			}
			return nil
		},
	}

	hatchCmd.Flags().StringVar(&userID, "user", "", "player whose eggs to hatch")
	hatchCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")

	return hatchCmd
}

func newLeaderboardCmd(opts *options) *cobra.Command {
	var by string
	var limit int

	leaderboardCmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			store, err := e.profiles()
			if err != nil {
				return err
			}
			players, err := store.ListAll(cmd.Context(), by)
			if err != nil {
				if errors.Is(err, profile.ErrInvalidSortKey) {
					return fmt.Errorf("%w %q (valid: %v)", err, by, profile.SortKeys())
				}
				return err
			}

			if limit > 0 && len(players) > limit {
				players = players[:limit]
			}
			for i, p := range players {
				cmd.Printf("%d. %s  level %d  %d XP  %d eco points\n", i+1, p.DisplayName, p.Level, p.XP, p.EcoPoints)
			}
			return nil
		},
	}

	leaderboardCmd.Flags().StringVar(&by, "by", "xp", "sort key")
	leaderboardCmd.Flags().IntVar(&limit, "limit", 10, "number of players to show (0 = all)")

	return leaderboardCmd
}
