package cmd

import (
	"github.com/huangsam/pantry/core/auth"
	"github.com/huangsam/pantry/schema"
	"github.com/spf13/cobra"
)

// authCmd groups the session commands.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the local user session",
	Long: `Sign in, sign up, sign out and edit the local profile.

The session is a local placeholder identity: credentials are checked for
shape only and nothing is sent anywhere. Signing out clears favorites.`,
}

var authSignInCmd = &cobra.Command{
	Use:     "signin",
	Short:   "Sign in with an email and password",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		user, err := svc.Session.SignIn(rootCtx, email, password)
		if err != nil {
			return err
		}
		return writer.WriteUser(user, cfg)
	},
}

var authSignUpCmd = &cobra.Command{
	Use:     "signup",
	Short:   "Create an account and sign in",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		username, _ := cmd.Flags().GetString("username")
		user, err := svc.Session.SignUp(rootCtx, email, password, username)
		if err != nil {
			return err
		}
		return writer.WriteUser(user, cfg)
	},
}

var authSignOutCmd = &cobra.Command{
	Use:     "signout",
	Short:   "Sign out and clear favorites",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := svc.Session.SignOut(rootCtx); err != nil {
			return err
		}
		cmd.Println("Signed out.")
		return nil
	},
}

var authWhoAmICmd = &cobra.Command{
	Use:     "whoami",
	Short:   "Show the signed-in user",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return writer.WriteUser(svc.Session.Current(), cfg)
	},
}

var authUpdateCmd = &cobra.Command{
	Use:     "update",
	Short:   "Update the signed-in user's profile",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var updates schema.ProfileUpdate
		for name, field := range map[string]**string{
			"email":    &updates.Email,
			"username": &updates.Username,
			"avatar":   &updates.Avatar,
		} {
			if cmd.Flags().Changed(name) {
				v, _ := cmd.Flags().GetString(name)
				*field = &v
			}
		}
		user, err := svc.Session.UpdateProfile(rootCtx, updates)
		if err != nil {
			return err
		}
		return writer.WriteUser(user, cfg)
	},
}

// prefsCmd groups the preference commands.
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Read and change user preferences",
	Long: `Preferences: theme (light, dark), units (metric, imperial) and
notifications (yes, no).

Examples:
  pantry prefs set theme dark
  pantry prefs get --output json`,
}

var prefsGetCmd = &cobra.Command{
	Use:     "get",
	Short:   "Show preferences",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return writer.WritePreferences(auth.LoadPreferences(rootCtx, svc.Store, logger), cfg)
	},
}

var prefsSetCmd = &cobra.Command{
	Use:     "set <name> <value>",
	Short:   "Change one preference",
	Args:    cobra.ExactArgs(2),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		prefs, err := auth.ApplyPreference(auth.LoadPreferences(rootCtx, svc.Store, logger), args[0], args[1])
		if err != nil {
			return err
		}
		if err := auth.SavePreferences(rootCtx, svc.Store, prefs); err != nil {
			return err
		}
		return writer.WritePreferences(prefs, cfg)
	},
}
