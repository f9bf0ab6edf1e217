package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput     bool
	configFile     string
	serverOverride string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "veristream",
	Short: "Veristream CLI - A command line interface for the Veristream marketplace",
	Long: `Veristream CLI is a command line interface for the Veristream content marketplace.
It lets creators register content, anchor it on the ledger, and track registration
progress, and lets buyers purchase licenses and inspect their holdings.`,
	PersistentPreRun: preRunHandlePersistents,
}

func init() {
	// Set up persistent flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to configuration file to override default")
	rootCmd.PersistentFlags().StringVarP(&serverOverride, "server", "", "", "Market server URL, overriding the configured one")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")

	// Add commands
	rootCmd.AddCommand(newVersionCmd())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true // Prevent Cobra from printing the error
	rootCmd.SilenceUsage = true  // Prevent Cobra from printing usage on error

	err := rootCmd.Execute()
	if err != nil {
		if jsonOutput {
			kv := map[string]string{
				"error": err.Error(),
			}
			printJSON(kv)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// configFreeCommands run without a loaded config file: config manages the
// file itself and version is purely local.
var configFreeCommands = map[string]bool{
	"config":  true,
	"version": true,
}

func preRunHandlePersistents(cmd *cobra.Command, args []string) {
	// Flag wins over environment, environment over the default path.
	if configFile == "" {
		configFile = os.Getenv("VERISTREAM_CONFIG")
	}
	if configFile == "" {
		var err error
		configFile, err = GetDefaultConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	for c := cmd; c != nil; c = c.Parent() {
		if configFreeCommands[c.Name()] {
			return
		}
	}

	if err := LoadConfig(configFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("Veristream config file not found. Configure veristream with \"veristream config create\" first.")
			os.Exit(1)
		}
		fmt.Printf("Unable to load config file: %s\n", err.Error())
		os.Exit(1)
	}
	applyServerOverride(GetConfig(), serverOverride)
}

func applyServerOverride(cfg *Config, server string) {
	if server != "" {
		cfg.ServerPort = MorphServer(server)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of veristream-cli",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				kv := map[string]string{
					"version": "v0.1.0",
				}
				printJSON(kv)
			} else {
				cmd.Println("veristream-cli v0.1.0")
			}
		},
	}
}

// printJSON prints the given map as JSON to stdout
func printJSON(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}
