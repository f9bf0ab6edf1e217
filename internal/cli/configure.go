package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgServer  string
	cfgAddress string
)

// configCmd groups commands that manage the CLI configuration file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the veristream CLI configuration",
}

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create or overwrite the CLI configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgServer == "" {
			return fmt.Errorf("--server is required")
		}
		if cfgAddress == "" {
			return fmt.Errorf("--address is required")
		}

		cfg := &Config{
			Version:    "v1",
			ServerPort: MorphServer(cfgServer),
			Address:    cfgAddress,
		}
		if err := cfg.ValidateConfig(); err != nil {
			return err
		}

		if err := cfg.WriteConfig(configFile); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(map[string]string{"config": configFile})
		} else {
			fmt.Printf("Wrote config to %s\n", configFile)
		}
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show the current CLI configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := LoadConfig(configFile); err != nil {
			return err
		}
		cfg := GetConfig()
		if jsonOutput {
			printJSON(map[string]string{
				"server":  cfg.ServerPort,
				"address": cfg.Address,
			})
		} else {
			cfg.Print()
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configCreateCmd)
	configCmd.AddCommand(configViewCmd)
	rootCmd.AddCommand(configCmd)

	configCreateCmd.Flags().StringVarP(&cfgServer, "server", "s", "", "Market server host:port")
	configCreateCmd.Flags().StringVarP(&cfgAddress, "address", "a", "", "Wallet address to authenticate as")
}
