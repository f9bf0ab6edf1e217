package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// loginCmd fetches a bearer token for the configured wallet address and
// stores it in the CLI config file for subsequent commands.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Obtain an API token for the configured wallet address",
	Args:  cobra.NoArgs,
	RunE:  login,
}

func login(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	client := NewHTTPClient(cfg)

	reqBody, err := json.Marshal(map[string]string{"address": cfg.Address})
	if err != nil {
		return err
	}

	body, _, err := client.PostResource("auth/token", reqBody)
	if err != nil {
		return err
	}

	var rsp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if err := json.Unmarshal(body, &rsp); err != nil {
		return fmt.Errorf("failed to parse response: %v", err)
	}

	cfg.CurrentToken = rsp.Token
	cfg.TokenExpiry = rsp.ExpiresAt.Format(time.RFC3339)
	if err := cfg.WriteConfig(configFile); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]string{
			"address": cfg.Address,
			"expires": cfg.TokenExpiry,
		})
	} else {
		fmt.Printf("Logged in as %s (token valid until %s)\n", cfg.Address, cfg.TokenExpiry)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
