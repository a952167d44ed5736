package cmd

import (
	"fmt"
	"os"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup(initialize bool) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get store-related config values
	backend, err := contract.ParseBackend(viper.GetString("store-backend"))
	if err != nil {
		return err
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr

	if !initialize {
		return nil
	}
	if err := iocache.InitStore(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	return nil
}

// sqliteFilePath returns the SQLite file the configured backend uses.
func sqliteFilePath() string {
	if cfg.StoreDBConnect != "" {
		return cfg.StoreDBConnect
	}
	return iocache.GetDBFilePath()
}

// storeCmd focused on store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup used by the recipe commands.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the key-value store",
	Long: `Manage the durable key-value store that holds favorites, the session,
preferences and offline recipes.

Supported backends: SQLite (default), MySQL, PostgreSQL, memory, or none

Subcommands:
  status  - Show store statistics and connection info
  clear   - Remove stored data
  migrate - Apply or roll back schema migrations`,
}

var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return storeSetup(true)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		store := storeManager.GetStore()
		if store == nil {
			return fmt.Errorf("store is not initialized")
		}
		status, err := store.GetStatus()
		if err != nil {
			return fmt.Errorf("failed to get store status: %w", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
		return nil
	},
}

var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove stored data",
	Long: `Delete stored data from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the store table
With --prefix: Deletes only the keys under the prefix

Examples:
  # Forget offline recipes only
  pantry store clear --prefix recipes.

  # Clear a MySQL store (set connection string via env variable)
  PANTRY_STORE_BACKEND=mysql PANTRY_STORE_DB_CONNECT="..." pantry store clear`,
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		prefix, _ := cmd.Flags().GetString("prefix")
		return storeSetup(prefix != "")
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if prefix, _ := cmd.Flags().GetString("prefix"); prefix != "" {
			n, err := iocache.ClearPrefix(rootCtx, storeManager.GetStore(), prefix)
			if err != nil {
				return fmt.Errorf("failed to clear prefix %q: %w", prefix, err)
			}
			cmd.Printf("Removed %d keys under %q.\n", n, prefix)
			return nil
		}
		if err := iocache.ClearStore(cfg.StoreBackend, sqliteFilePath(), cfg.StoreDBConnect); err != nil {
			return fmt.Errorf("failed to clear store: %w", err)
		}
		cmd.Println("Store cleared successfully.")
		return nil
	},
}

var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back store schema migrations",
	Long: `Migrate the store table of a SQL backend.

--target-version -1 migrates to the latest version, 0 rolls everything back,
and any other value migrates up or down to that version.`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return storeSetup(false)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return iocache.MigrateStore(os.Stdout, cfg.StoreBackend, cfg.StoreDBConnect, viper.GetInt("target-version"))
	},
}
