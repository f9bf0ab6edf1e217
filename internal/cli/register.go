package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var (
	registerTitle       string
	registerDescription string
	registerContentType string
	registerAnchor      bool
	registerWait        bool
)

// registerCmd uploads a file and registers it as marketplace content
var registerCmd = &cobra.Command{
	Use:   "register <file>",
	Short: "Upload a file and register it as content",
	Long: `Upload a file and register it as marketplace content.

With --anchor the registration is recorded on the ledger, which requires
confirming the transaction in your wallet. Use --wait to poll the
registration until it completes.

Example:
  veristream register sunset.mp4 --title "Sunset Timelapse" --anchor --wait`,
	Args: cobra.ExactArgs(1),
	RunE: registerContent,
}

func registerContent(cmd *cobra.Command, args []string) error {
	if registerTitle == "" {
		return fmt.Errorf("--title is required")
	}

	client := NewHTTPClient(GetConfig())

	fields := map[string]string{
		"title":       registerTitle,
		"description": registerDescription,
		"contentType": registerContentType,
		"anchor":      strconv.FormatBool(registerAnchor),
	}
	body, location, err := client.UploadContent(args[0], fields)
	if err != nil {
		return err
	}

	handle := gjson.GetBytes(body, "handle").String()
	if handle == "" {
		// Registration already completed, the response is the content record
		printResponse(body)
		return nil
	}

	if !registerWait {
		if jsonOutput {
			printResponse(body)
		} else {
			fmt.Printf("Registration started: %s\n", location)
		}
		return nil
	}

	return waitForAttempt(client, "registrations/"+handle)
}

// waitForAttempt polls an in-flight attempt until it reaches a terminal
// state, echoing progress as it goes.
func waitForAttempt(client *HTTPClient, attemptPath string) error {
	lastMessage := ""
	for {
		body, err := client.GetResource(attemptPath, nil)
		if err != nil {
			return err
		}

		state := gjson.GetBytes(body, "state").String()
		progress := gjson.GetBytes(body, "progress").Int()
		message := gjson.GetBytes(body, "message").String()

		if !jsonOutput && message != lastMessage && message != "" {
			fmt.Printf("[%3d%%] %s\n", progress, message)
			lastMessage = message
		}

		if isTerminalState(state) {
			if jsonOutput {
				printResponse(body)
			} else if state == "ACTIVE" {
				fmt.Printf("Done: %s\n", state)
			} else {
				fmt.Printf("Finished with state %s\n", state)
			}
			if state != "ACTIVE" && state != "CANCELLED" {
				return fmt.Errorf("%s", message)
			}
			return nil
		}

		time.Sleep(time.Second)
	}
}

func isTerminalState(state string) bool {
	switch state {
	case "ACTIVE", "FAILED", "TIMED_OUT", "CANCELLED":
		return true
	}
	return false
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVarP(&registerTitle, "title", "t", "", "Content title")
	registerCmd.Flags().StringVarP(&registerDescription, "description", "d", "", "Content description")
	registerCmd.Flags().StringVarP(&registerContentType, "content-type", "c", "", "MIME type of the content (detected from the file name if omitted)")
	registerCmd.Flags().BoolVarP(&registerAnchor, "anchor", "a", false, "Anchor the registration on the ledger")
	registerCmd.Flags().BoolVarP(&registerWait, "wait", "w", false, "Wait for the registration to finish")
}

// printResponse prints a raw JSON response, pretty-printed
func printResponse(body []byte) {
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		fmt.Println(string(body))
		return
	}
	printJSON(data)
}
