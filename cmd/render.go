package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/livefield/internal/authz"
	"github.com/conneroisu/livefield/internal/config"
	"github.com/conneroisu/livefield/internal/content"
	"github.com/conneroisu/livefield/internal/errors"
	"github.com/conneroisu/livefield/internal/partial"
	"github.com/conneroisu/livefield/internal/transform"
)

var renderFlags *StandardFlags

var renderCmd = &cobra.Command{
	Use:     "render <id>...",
	Aliases: []string{"r"},
	Short:   "Render partials against a content file",
	Long: `Render one or more partials against the records of a content file and
print the resulting HTML. Partials that abstain are reported as such.

Examples:
  livefield render 'record[post][1][title]'
  livefield render 'record[post][1][title]' --listing 1 -o json
  livefield render 'record[page][2][body]' --role author`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderFlags = AddStandardFlags(renderCmd, "content", "output")
}

// RenderResult is the outcome of rendering one partial.
type RenderResult struct {
	ID      string `json:"id" yaml:"id"`
	HTML    string `json:"html,omitempty" yaml:"html,omitempty"`
	Abstain bool   `json:"abstain" yaml:"abstain"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runRender(cmd *cobra.Command, args []string) error {
	if err := renderFlags.ValidateFlags(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if renderFlags.ContentFile != "" {
		cfg.Content.File = renderFlags.ContentFile
	}

	types, store, err := loadContent(cfg.Content.File)
	if err != nil {
		return err
	}

	var authorizer *authz.Authorizer
	if renderFlags.Role != "" {
		authorizer, err = authz.NewAuthorizer(cfg.Auth.Roles, authz.ModeEnforce)
		if err != nil {
			return err
		}
	}

	pipeline := transform.NewPipeline(cfg.Preview.ExcerptWords)
	pipeline.Autop = cfg.Preview.Autop

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rc := partial.RenderContext{
		Records:   store,
		Scope:     content.NewListingScope(renderFlags.Listing...),
		Transform: pipeline,
	}

	results := make([]RenderResult, 0, len(args))
	for _, id := range args {
		result := RenderResult{ID: id}

		p, err := partial.New(id, types, partial.WithDefaultCapability(cfg.Content.DefaultCapability))
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		if authorizer != nil {
			allowed, err := authorizer.Authorize(renderFlags.Role, p.Capability())
			if err != nil {
				return err
			}
			if !allowed {
				result.Error = errors.NewForbiddenError(id, p.Capability()).Error()
				results = append(results, result)
				continue
			}
		}

		html, ok := p.Render(ctx, rc)
		result.HTML = html
		result.Abstain = !ok
		results = append(results, result)
	}

	if renderFlags.Quiet {
		return nil
	}
	return outputRenderResults(cmd.OutOrStdout(), renderFlags.OutputFormat, results)
}

func loadContent(path string) (*content.TypeRegistry, *content.Store, error) {
	types := content.NewTypeRegistry(content.DefaultTypes()...)
	store := content.NewStore(types)

	file, err := content.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	file.Apply(types, store)

	return types, store, nil
}

func outputRenderResults(w io.Writer, format string, results []RenderResult) error {
	switch strings.ToLower(format) {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(results)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		defer tw.Flush()

		fmt.Fprintln(tw, "ID\tRESULT")
		fmt.Fprintln(tw, "--\t------")
		for _, r := range results {
			switch {
			case r.Error != "":
				fmt.Fprintf(tw, "%s\terror: %s\n", r.ID, r.Error)
			case r.Abstain:
				fmt.Fprintf(tw, "%s\t(abstain)\n", r.ID)
			default:
				fmt.Fprintf(tw, "%s\t%s\n", r.ID, strings.ReplaceAll(r.HTML, "\n", " "))
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
