// Package cmd defines the command-line interface for pantry.
package cmd

import (
	"os"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Command results go to stdout; errors and logs stay on stderr
	rootCmd.SetOut(os.Stdout)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(recipesCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	recipesCmd.AddCommand(recipesListCmd)
	recipesCmd.AddCommand(recipesGetCmd)
	recipesCmd.AddCommand(recipesSearchCmd)
	recipesCmd.AddCommand(recipesRandomCmd)
	recipesCmd.AddCommand(recipesCategoriesCmd)
	recipesCmd.AddCommand(recipesOfflineCmd)

	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesIDsCmd)
	favoritesCmd.AddCommand(favoritesCountCmd)
	favoritesCmd.AddCommand(favoritesStatusCmd)
	favoritesCmd.AddCommand(favoritesAddCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
	favoritesCmd.AddCommand(favoritesToggleCmd)
	favoritesCmd.AddCommand(favoritesClearCmd)
	favoritesCmd.AddCommand(favoritesRepairCmd)
	favoritesCmd.AddCommand(favoritesExportCmd)

	authCmd.AddCommand(authSignInCmd)
	authCmd.AddCommand(authSignUpCmd)
	authCmd.AddCommand(authSignOutCmd)
	authCmd.AddCommand(authWhoAmICmd)
	authCmd.AddCommand(authUpdateCmd)

	prefsCmd.AddCommand(prefsGetCmd)
	prefsCmd.AddCommand(prefsSetCmd)

	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or memory or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "Database connection string (SQLite file path, or e.g. user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all persistent flags of recipesCmd to Viper
	recipesCmd.PersistentFlags().IntP("page", "p", 1, "Page number starting at 1")
	recipesCmd.PersistentFlags().Int("page-size", contract.DefaultPageSize, "Recipes per page")
	recipesCmd.PersistentFlags().StringP("category", "c", "", "Comma-separated categories to include")
	recipesCmd.PersistentFlags().StringP("difficulty", "d", "", "Difficulty: easy or medium or hard")
	recipesCmd.PersistentFlags().String("max-cook", "", "Maximum cook time in minutes (45) or as a duration (1h30m)")
	recipesCmd.PersistentFlags().Float64("min-rating", 0, "Minimum average rating from 0 to 5")
	if err := viper.BindPFlags(recipesCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding recipes flags", err)
	}

	recipesOfflineCmd.Flags().Bool("prune", false, "Drop offline copies older than the retention window")

	authSignInCmd.Flags().String("email", "", "Account email")
	authSignInCmd.Flags().String("password", "", "Account password")
	authSignUpCmd.Flags().String("email", "", "Account email")
	authSignUpCmd.Flags().String("password", "", "Account password")
	authSignUpCmd.Flags().String("username", "", "Display name (defaults to the email's local part)")
	authUpdateCmd.Flags().String("email", "", "New email")
	authUpdateCmd.Flags().String("username", "", "New display name")
	authUpdateCmd.Flags().String("avatar", "", "New avatar URL")

	storeClearCmd.Flags().String("prefix", "", "Only delete keys under this prefix (e.g. favorites.)")

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
