package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <resourceType>/<resourceId>",
	Short: "Get a resource by type and id",
	Long: `Get a resource by type and id. The format is <resourceType>/<resourceId>.
Supported resource types include:
  - contents/<content-id>
  - licenses/<license-id>
  - registrations/<handle>
  - purchases/<handle>

Example:
  veristream get contents/42
  veristream get registrations/V1StGXR8Z5jd`,
	Args: cobra.ExactArgs(1),
	RunE: getResource,
}

func getResource(cmd *cobra.Command, args []string) error {
	parts := strings.SplitN(args[0], "/", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid resource format. Expected <resourceType>/<resourceId>")
	}

	resourceType := parts[0]
	switch resourceType {
	case "contents", "licenses", "registrations", "purchases":
	default:
		return fmt.Errorf("unsupported resource type: %s", resourceType)
	}

	client := NewHTTPClient(GetConfig())

	response, err := client.GetResource(args[0], nil)
	if err != nil {
		return err
	}

	var responseData map[string]any
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
	rootCmd.AddCommand(getCmd)
}
