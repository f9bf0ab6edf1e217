package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var listContentID string

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list <resourceType>",
	Short: "List resources of a given type",
	Long: `List resources of a given type.
Supported resource types include:
  - contents  (content you registered)
  - licenses  (licenses you hold, or licenses on one of your contents with --content)

Example:
  veristream list contents
  veristream list licenses --content 42`,
	Args: cobra.ExactArgs(1),
	RunE: listResources,
}

func listResources(cmd *cobra.Command, args []string) error {
	var path string
	switch args[0] {
	case "contents":
		path = "contents"
	case "licenses":
		if listContentID != "" {
			path = "contents/" + listContentID + "/licenses"
		} else {
			path = "licenses"
		}
	default:
		return fmt.Errorf("unsupported resource type: %s", args[0])
	}

	client := NewHTTPClient(GetConfig())

	response, err := client.GetResource(path, nil)
	if err != nil {
		return err
	}

	var responseData []map[string]any
	if err := json.Unmarshal(response, &responseData); err != nil {
		return fmt.Errorf("failed to parse response: %v", err)
	}

	if jsonOutput {
		printJSON(responseData)
	} else {
		yamlBytes, err := yaml.Marshal(responseData)
		if err != nil {
			return fmt.Errorf("failed to convert to YAML: %v", err)
		}
		fmt.Println(string(yamlBytes))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listContentID, "content", "c", "", "List licenses issued against this content id")
}
