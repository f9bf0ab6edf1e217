package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	updateTitle       string
	updateDescription string
	anchorWait        bool
)

// deleteCmd removes a content record you own
var deleteCmd = &cobra.Command{
	Use:   "delete contents/<contentId>",
	Short: "Delete a content record you own",
	Long: `Delete a content record you own. Content with active licenses
cannot be deleted.`,
	Args: cobra.ExactArgs(1),
	RunE: deleteContent,
}

// updateCmd edits the catalog metadata of a content record
var updateCmd = &cobra.Command{
	Use:   "update contents/<contentId>",
	Short: "Update title or description of a content record you own",
	Args:  cobra.ExactArgs(1),
	RunE:  updateContent,
}

// anchorCmd anchors an existing content record on the ledger
var anchorCmd = &cobra.Command{
	Use:   "anchor contents/<contentId>",
	Short: "Anchor an existing content record on the ledger",
	Long: `Anchor an existing content record on the ledger. This requires
confirming the transaction in your wallet. Anchoring an already
anchored record is a no-op.`,
	Args: cobra.ExactArgs(1),
	RunE: anchorContent,
}

func contentPath(arg string) (string, error) {
	if !strings.HasPrefix(arg, "contents/") || strings.Count(arg, "/") != 1 {
		return "", fmt.Errorf("invalid resource format. Expected contents/<contentId>")
	}
	return arg, nil
}

func deleteContent(cmd *cobra.Command, args []string) error {
	path, err := contentPath(args[0])
	if err != nil {
		return err
	}

	client := NewHTTPClient(GetConfig())
	if err := client.DeleteResource(path); err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]string{"deleted": args[0]})
	} else {
		fmt.Printf("Deleted %s\n", args[0])
	}
	return nil
}

func updateContent(cmd *cobra.Command, args []string) error {
	path, err := contentPath(args[0])
	if err != nil {
		return err
	}
	if updateTitle == "" && updateDescription == "" {
		return fmt.Errorf("nothing to update, pass --title or --description")
	}

	fields := map[string]string{}
	if updateTitle != "" {
		fields["title"] = updateTitle
	}
	if updateDescription != "" {
		fields["description"] = updateDescription
	}
	reqBody, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	client := NewHTTPClient(GetConfig())
	body, err := client.UpdateResource(path, reqBody)
	if err != nil {
		return err
	}

	printResponse(body)
	return nil
}

func anchorContent(cmd *cobra.Command, args []string) error {
	path, err := contentPath(args[0])
	if err != nil {
		return err
	}

	client := NewHTTPClient(GetConfig())
	body, _, err := client.PostResource(path+"/anchor", nil)
	if err != nil {
		return err
	}

	handle := gjson.GetBytes(body, "handle").String()
	if handle != "" && anchorWait {
		return waitForAttempt(client, "registrations/"+handle)
	}

	printResponse(body)
	return nil
}

func init() {
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(anchorCmd)

	updateCmd.Flags().StringVarP(&updateTitle, "title", "t", "", "New title")
	updateCmd.Flags().StringVarP(&updateDescription, "description", "d", "", "New description")
	anchorCmd.Flags().BoolVarP(&anchorWait, "wait", "w", false, "Wait for anchoring to finish")
}
