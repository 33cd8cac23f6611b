package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/conneroisu/mdserve/internal/config"
	"github.com/conneroisu/mdserve/internal/content"
	"github.com/conneroisu/mdserve/internal/selector"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration, templates, and content",
	Long: `Validate the site before serving it.

Checks that the content and template directories exist, that the
page.html fallback template is present, and that every Markdown
document in the content tree has well-formed frontmatter. The server
tolerates malformed frontmatter at runtime by serving the raw document;
check reports it so it can be fixed.

Examples:
  mdserve check
  mdserve check --content docs --templates layouts`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("content", "c", "", "Content directory (overrides config)")
	checkCmd.Flags().StringP("templates", "t", "", "Templates directory (overrides config)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if dir, _ := cmd.Flags().GetString("content"); dir != "" {
		cfg.Dirs.Content = dir
	}
	if dir, _ := cmd.Flags().GetString("templates"); dir != "" {
		cfg.Dirs.Templates = dir
	}

	var problems []string
	report := func(format string, a ...any) {
		problems = append(problems, fmt.Sprintf(format, a...))
	}

	if info, err := os.Stat(cfg.Dirs.Content); err != nil || !info.IsDir() {
		report("content directory %q does not exist", cfg.Dirs.Content)
	}
	templatesOK := true
	if info, err := os.Stat(cfg.Dirs.Templates); err != nil || !info.IsDir() {
		report("templates directory %q does not exist", cfg.Dirs.Templates)
		templatesOK = false
	}
	if templatesOK {
		fallback := filepath.Join(cfg.Dirs.Templates, selector.Fallback)
		if _, err := os.Stat(fallback); err != nil {
			report("fallback template %q is missing; every site needs one", fallback)
		}
	}

	documents := 0
	walkErr := filepath.WalkDir(cfg.Dirs.Content, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), content.Extension) {
			return nil
		}
		documents++
		raw, err := os.ReadFile(path)
		if err != nil {
			report("%s: %v", path, err)
			return nil
		}
		if _, _, err := content.ParseStrict(raw); err != nil {
			report("%s: %v", path, err)
		}
		return nil
	})
	if walkErr != nil && !os.IsNotExist(walkErr) {
		report("walking content tree: %v", walkErr)
	}

	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, "✗", p)
		}
		return fmt.Errorf("%d problem(s) found", len(problems))
	}

	fmt.Printf("✓ %d document(s) checked, no problems found\n", documents)
	return nil
}
