package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/denysvitali/photowall-server/pkg/assets"
	"github.com/denysvitali/photowall-server/pkg/config"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Write a static manifest of the asset directories",
	Long: `Scan every configured asset directory and write the file lists to a
manifest, so the photo wall can run without the server (for example when
index.html is opened directly). Missing directories are reported, not created.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "file-list.js", "Manifest path relative to the root, or - for stdout")
	scanCmd.Flags().StringP("format", "f", "js", "Manifest format (js, json, yaml)")
	scanCmd.Flags().Bool("all", false, "Include every regular file, not only known media types")
}

func runScan(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	formatName, _ := cmd.Flags().GetString("format")
	all, _ := cmd.Flags().GetBool("all")

	format, err := assets.ParseFormat(formatName)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	lib := assets.New(cfg, GetLogger())
	results, err := lib.ScanAll(cmd.Context(), cfg.Assets.Aliases, scanFilters(cfg, all))
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := assets.WriteManifest(&buf, format, urlPrefix(cfg), results); err != nil {
		return fmt.Errorf("failed to render manifest: %w", err)
	}

	out := cmd.OutOrStdout()
	if output == "-" {
		_, err := buf.WriteTo(out)
		return err
	}

	if !filepath.IsAbs(output) {
		output = filepath.Join(cfg.Server.Root, output)
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	count := color.New(color.FgGreen, color.Bold)
	missing := color.New(color.FgYellow)
	for _, r := range results {
		if r.Missing {
			missing.Fprintf(out, "%-8s directory not found: %s\n", r.Alias, lib.Dir(r.Alias))
			continue
		}
		fmt.Fprintf(out, "%-8s %s files\n", r.Alias, count.Sprint(len(r.Files)))
	}
	fmt.Fprintf(out, "Manifest written to %s\n", output)

	return nil
}

// scanFilters returns the extension filter per alias. Configured
// extensions take precedence over the built-in media types.
func scanFilters(cfg *config.Config, all bool) map[string][]string {
	if all {
		return nil
	}
	filters := make(map[string][]string, len(assets.DefaultScanExtensions)+len(cfg.Assets.Extensions))
	for alias, exts := range assets.DefaultScanExtensions {
		filters[alias] = exts
	}
	for alias, exts := range cfg.Assets.Extensions {
		filters[alias] = exts
	}
	return filters
}

// urlPrefix is the asset root as seen from the server root
func urlPrefix(cfg *config.Config) string {
	rel, err := filepath.Rel(cfg.Server.Root, cfg.AssetRoot())
	if err != nil {
		return filepath.ToSlash(cfg.Assets.Dir)
	}
	return filepath.ToSlash(rel)
}
