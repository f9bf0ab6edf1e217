package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	purchaseDuration string
	purchasePrice    string
	purchaseWait     bool
)

// purchaseCmd buys a license for a piece of content
var purchaseCmd = &cobra.Command{
	Use:   "purchase <contentId>",
	Short: "Purchase a license for a piece of content",
	Long: `Purchase a license for a piece of content. Issuing the license is
recorded on the ledger and requires confirming the transaction in your
wallet.

Durations: 1m (one month), 6m (six months), 1y (one year).

Example:
  veristream purchase 42 --duration 1y --price 19.99 --wait`,
	Args: cobra.ExactArgs(1),
	RunE: purchaseLicense,
}

var durationValues = map[string]int{
	"1m": 0,
	"6m": 1,
	"1y": 2,
}

func purchaseLicense(cmd *cobra.Command, args []string) error {
	contentID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || contentID <= 0 {
		return fmt.Errorf("invalid content id: %s", args[0])
	}

	duration, ok := durationValues[purchaseDuration]
	if !ok {
		return fmt.Errorf("invalid duration %q, expected 1m, 6m or 1y", purchaseDuration)
	}
	if purchasePrice == "" {
		return fmt.Errorf("--price is required")
	}

	reqBody, err := json.Marshal(map[string]any{
		"contentId": contentID,
		"duration":  duration,
		"price":     purchasePrice,
	})
	if err != nil {
		return err
	}

	client := NewHTTPClient(GetConfig())
	body, location, err := client.PostResource("licenses", reqBody)
	if err != nil {
		return err
	}

	handle := gjson.GetBytes(body, "handle").String()
	if handle == "" {
		// Issuance already completed, the response is the license record
		printResponse(body)
		return nil
	}

	if !purchaseWait {
		if jsonOutput {
			printResponse(body)
		} else {
			fmt.Printf("Purchase started: %s\n", location)
		}
		return nil
	}

	return waitForAttempt(client, "purchases/"+handle)
}

func init() {
	rootCmd.AddCommand(purchaseCmd)

	purchaseCmd.Flags().StringVarP(&purchaseDuration, "duration", "d", "1m", "License term (1m, 6m, 1y)")
	purchaseCmd.Flags().StringVarP(&purchasePrice, "price", "p", "", "License price, e.g. 19.99")
	purchaseCmd.Flags().BoolVarP(&purchaseWait, "wait", "w", false, "Wait for the purchase to finish")
}
