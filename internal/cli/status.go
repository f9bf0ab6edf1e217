package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var statusWait bool

// statusCmd reports the state of an in-flight registration or purchase
var statusCmd = &cobra.Command{
	Use:   "status <registrations|purchases>/<handle>",
	Short: "Show the status of a registration or purchase attempt",
	Args:  cobra.ExactArgs(1),
	RunE:  attemptStatus,
}

// cancelCmd cancels a registration or purchase waiting on the wallet or ledger
var cancelCmd = &cobra.Command{
	Use:   "cancel <registrations|purchases>/<handle>",
	Short: "Cancel a registration or purchase attempt",
	Args:  cobra.ExactArgs(1),
	RunE:  cancelAttempt,
}

// resumeCmd retries the anchoring phase of a timed out registration
var resumeCmd = &cobra.Command{
	Use:   "resume registrations/<handle>",
	Short: "Retry anchoring for a timed out registration",
	Args:  cobra.ExactArgs(1),
	RunE:  resumeAttempt,
}

func attemptPath(arg string) (string, error) {
	parts := strings.SplitN(arg, "/", 2)
	if len(parts) != 2 || (parts[0] != "registrations" && parts[0] != "purchases") {
		return "", fmt.Errorf("invalid attempt format. Expected registrations/<handle> or purchases/<handle>")
	}
	return arg, nil
}

func attemptStatus(cmd *cobra.Command, args []string) error {
	path, err := attemptPath(args[0])
	if err != nil {
		return err
	}

	client := NewHTTPClient(GetConfig())

	if statusWait {
		return waitForAttempt(client, path)
	}

	body, err := client.GetResource(path, nil)
	if err != nil {
		return err
	}

	if jsonOutput {
		printResponse(body)
	} else {
		state := gjson.GetBytes(body, "state").String()
		progress := gjson.GetBytes(body, "progress").Int()
		message := gjson.GetBytes(body, "message").String()
		fmt.Printf("%s [%3d%%] %s\n", state, progress, message)
	}
	return nil
}

func cancelAttempt(cmd *cobra.Command, args []string) error {
	path, err := attemptPath(args[0])
	if err != nil {
		return err
	}

	client := NewHTTPClient(GetConfig())
	body, _, err := client.PostResource(path+"/cancel", nil)
	if err != nil {
		return err
	}

	if jsonOutput {
		printResponse(body)
	} else {
		fmt.Printf("Cancel requested for %s\n", args[0])
	}
	return nil
}

func resumeAttempt(cmd *cobra.Command, args []string) error {
	path, err := attemptPath(args[0])
	if err != nil {
		return err
	}
	if !strings.HasPrefix(path, "registrations/") {
		return fmt.Errorf("only registrations can be resumed")
	}

	client := NewHTTPClient(GetConfig())
	body, _, err := client.PostResource(path+"/resume", nil)
	if err != nil {
		return err
	}

	handle := gjson.GetBytes(body, "handle").String()
	if statusWait && handle != "" {
		return waitForAttempt(client, "registrations/"+handle)
	}

	if jsonOutput {
		printResponse(body)
	} else if handle != "" {
		fmt.Printf("Resumed as registrations/%s\n", handle)
	} else {
		fmt.Println("Registration already completed")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(resumeCmd)

	statusCmd.Flags().BoolVarP(&statusWait, "wait", "w", false, "Poll until the attempt finishes")
	resumeCmd.Flags().BoolVarP(&statusWait, "wait", "w", false, "Poll until the attempt finishes")
}
