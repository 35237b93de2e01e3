package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/livefield/internal/config"
	"github.com/conneroisu/livefield/internal/content"
	"github.com/conneroisu/livefield/internal/partial"
)

var (
	inspectFlags    *StandardFlags
	inspectSelector string
)

var inspectCmd = &cobra.Command{
	Use:     "inspect <id>",
	Aliases: []string{"i"},
	Short:   "Show the exported state of a partial",
	Long: `Construct a partial and print the state a client would receive, along
with the capability required to preview it. Content types come from the content
file when one is given, otherwise the built-in post and page types are used.

Examples:
  livefield inspect 'record[post][1][title]'
  livefield inspect 'record[post][1][title][header]' -o json
  livefield inspect 'record[book][3]' -c site.yml -o yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectFlags = AddStandardFlags(inspectCmd, "output")
	inspectCmd.Flags().StringVarP(&inspectFlags.ContentFile, "content", "c", "", "Content file (YAML) providing content types")
	inspectCmd.Flags().StringVar(&inspectSelector, "selector", "", "DOM selector to export")
}

// Inspection is the output of the inspect command.
type Inspection struct {
	partial.Export `yaml:",inline"`

	ID         string `json:"id" yaml:"id"`
	Capability string `json:"capability" yaml:"capability"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := inspectFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	types := content.NewTypeRegistry(content.DefaultTypes()...)
	if inspectFlags.ContentFile != "" {
		types, _, err = loadContent(inspectFlags.ContentFile)
		if err != nil {
			return err
		}
	}

	p, err := partial.New(args[0], types,
		partial.WithSelector(inspectSelector),
		partial.WithDefaultCapability(cfg.Content.DefaultCapability))
	if err != nil {
		return err
	}

	info := Inspection{Export: p.Export(), ID: p.ID(), Capability: p.Capability()}
	return outputInspection(cmd.OutOrStdout(), inspectFlags.OutputFormat, info)
}

func outputInspection(w io.Writer, format string, info Inspection) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(info)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(info)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		defer tw.Flush()

		rows := [][2]string{
			{"ID", info.ID},
			{"TYPE", info.Type},
			{"POST TYPE", info.PostType},
			{"POST ID", strconv.FormatInt(info.PostID, 10)},
			{"FIELD", deref(info.FieldID)},
			{"PLACEMENT", deref(info.Placement)},
			{"CONTAINER INCLUSIVE", strconv.FormatBool(info.ContainerInclusive)},
			{"FALLBACK REFRESH", strconv.FormatBool(info.FallbackRefresh)},
			{"SETTINGS", strings.Join(info.Settings, ", ")},
			{"PRIMARY SETTING", info.PrimarySetting},
			{"SELECTOR", info.Selector},
			{"CAPABILITY", info.Capability},
		}
		for _, row := range rows {
			fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
