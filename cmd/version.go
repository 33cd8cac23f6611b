package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/conneroisu/mdserve/internal/version"
	"github.com/spf13/cobra"
)

var (
	versionFormat string
	versionShort  bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information including the semantic version, git
commit hash, build timestamp, Go version, and target platform.

Examples:
  mdserve version                # Show version and commit
  mdserve version --short        # Version number only
  mdserve version --format json  # Output as JSON`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersion(cmd *cobra.Command, args []string) error {
	switch versionFormat {
	case "json":
		info := map[string]string{
			"version":  version.Get(),
			"commit":   version.Commit(),
			"built":    version.BuildTime,
			"go":       runtime.Version(),
			"platform": runtime.GOOS + "/" + runtime.GOARCH,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	case "text":
		if versionShort {
			fmt.Println(version.Get())
			return nil
		}
		fmt.Println(version.Detailed())
		return nil
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
}
