package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ehsaniara/launchlet/pkg/version"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	var jsonOutput bool

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				showJSONVersion()
				return
			}
			fmt.Printf("launchlet %s\n", version.GetShortVersion())
		},
	}

	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return versionCmd
}

func showJSONVersion() {
	info := version.GetBuildInfo()

	data := map[string]interface{}{
		"version":    version.GetShortVersion(),
		"git_commit": info.GitCommit,
		"git_tag":    info.GitTag,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
		"platform":   fmt.Sprintf("%s/%s", info.Platform, info.Architecture),
	}

	jsonOutput, _ := json.MarshalIndent(data, "", "  ")
	fmt.Println(string(jsonOutput))
}
