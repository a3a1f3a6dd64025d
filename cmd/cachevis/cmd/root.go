// Package cmd provides the command-line interface for cachevis.
package cmd

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachevis/cache"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "cachevis",
	Short: "Cachevis simulates cache address mapping and line replacement " +
		"and animates the result.",
	Long: `Cachevis simulates the address-translation and line-replacement ` +
		`behavior of direct-mapped, set-associative, and fully-associative ` +
		`caches. It can replay instruction traces on the command line or ` +
		`serve an interactive visualization dashboard.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// A .env file can override the built-in flag defaults.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().String("mode",
		envOr("CACHEVIS_MODE", "fully-associative"),
		"cache organization: direct, set-associative, or fully-associative")
	rootCmd.PersistentFlags().Int("cache-size",
		envIntOr("CACHEVIS_CACHE_SIZE", 8),
		"number of cache lines (power of two)")
	rootCmd.PersistentFlags().Int("block-size",
		envIntOr("CACHEVIS_BLOCK_SIZE", 16),
		"block size in bytes (power of two)")
	rootCmd.PersistentFlags().Int("assoc",
		envIntOr("CACHEVIS_ASSOC", 2),
		"lines per set in set-associative mode")
}

// newModel builds a cache model from the persistent flags.
func newModel(cmd *cobra.Command) (*cache.Cache, error) {
	modeName, _ := cmd.Flags().GetString("mode")
	cacheSize, _ := cmd.Flags().GetInt("cache-size")
	blockSize, _ := cmd.Flags().GetInt("block-size")
	assoc, _ := cmd.Flags().GetInt("assoc")

	mode, err := cache.ParseMode(modeName)
	if err != nil {
		return nil, err
	}

	return cache.New(mode, cache.Geometry{
		NumLines:  cacheSize,
		BlockSize: blockSize,
		Assoc:     assoc,
	})
}

func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}

	return fallback
}

func envIntOr(name string, fallback int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}

	return n
}
