package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testContent = `
types:
  - name: book
    label: Books
    public: true
    edit_capability: edit_books
records:
  - type: post
    id: 1
    slug: hello-world
    fields:
      title: Hello World
      body: First paragraph.
  - type: page
    id: 2
    password: secret
    fields:
      title: Members
  - type: book
    id: 3
    fields:
      title: Dune
`

func writeContent(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "content.yml")
	require.NoError(t, os.WriteFile(path, []byte(testContent), 0o600))
	return path
}

func testCommand() (*cobra.Command, *bytes.Buffer) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetOut(&buf)
	return cmd, &buf
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort("8080"))
	assert.Error(t, ValidatePort("0"))
	assert.Error(t, ValidatePort("70000"))
	assert.Error(t, ValidatePort("http"))
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, ValidateFormat("json"))
	assert.NoError(t, ValidateFormat("YAML"))
	assert.Error(t, ValidateFormat("csv"))
}

func TestValidateFileExists(t *testing.T) {
	assert.NoError(t, ValidateFileExists(""))
	assert.NoError(t, ValidateFileExists(writeContent(t)))
	assert.Error(t, ValidateFileExists(filepath.Join(t.TempDir(), "missing.yml")))
}

func TestStandardFlagsValidate(t *testing.T) {
	flags := &StandardFlags{Port: 8080, OutputFormat: "table", Listing: []int64{1, 2}}
	assert.NoError(t, flags.ValidateFlags())

	flags.Listing = []int64{0}
	assert.Error(t, flags.ValidateFlags())

	flags = &StandardFlags{Port: 99999}
	assert.Error(t, flags.ValidateFlags())
}

func TestFlagValidationRejectsBadValues(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	AddStandardFlags(cmd, "server", "output")

	assert.Error(t, cmd.Flags().Set("port", "0"))
	assert.NoError(t, cmd.Flags().Set("port", "3000"))
	assert.Error(t, cmd.Flags().Set("output", "xml"))
	assert.NoError(t, cmd.Flags().Set("output", "json"))

	port, err := cmd.Flags().GetInt("port")
	require.NoError(t, err)
	assert.Equal(t, 3000, port)
}

func TestRunRender(t *testing.T) {
	oldFlags := renderFlags
	defer func() { renderFlags = oldFlags }()

	renderFlags = &StandardFlags{
		ContentFile:  writeContent(t),
		Listing:      []int64{1},
		OutputFormat: "json",
	}

	cmd, out := testCommand()
	err := runRender(cmd, []string{
		"record[post][1][title]",
		"record[page][2][title]",
		"record[book][3][body]",
		"record[post][1]",
		"record[gallery][1][title]",
	})
	require.NoError(t, err)

	var results []RenderResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 5)

	assert.Equal(t, `<a href="/post/hello-world/" rel="bookmark">Hello World</a>`, results[0].HTML)
	assert.Contains(t, results[1].HTML, "Protected")
	assert.Equal(t, "", results[2].HTML)
	assert.False(t, results[2].Abstain)
	assert.True(t, results[3].Abstain)
	assert.Contains(t, results[4].Error, "unknown content type")
}

func TestRunRenderWithRole(t *testing.T) {
	oldFlags := renderFlags
	defer func() { renderFlags = oldFlags }()

	renderFlags = &StandardFlags{
		ContentFile:  writeContent(t),
		Role:         "author",
		OutputFormat: "yaml",
	}

	cmd, out := testCommand()
	require.NoError(t, runRender(cmd, []string{"record[post][1][title]", "record[page][2][title]"}))

	var results []RenderResult
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "Hello World", results[0].HTML)
	assert.Contains(t, results[1].Error, "forbidden")
}

func TestRunRenderMissingContent(t *testing.T) {
	oldFlags := renderFlags
	defer func() { renderFlags = oldFlags }()

	renderFlags = &StandardFlags{ContentFile: filepath.Join(t.TempDir(), "missing.yml"), OutputFormat: "table"}

	cmd, _ := testCommand()
	assert.Error(t, runRender(cmd, []string{"record[post][1][title]"}))
}

func TestOutputRenderResultsTable(t *testing.T) {
	var buf bytes.Buffer
	err := outputRenderResults(&buf, "table", []RenderResult{
		{ID: "record[post][1][title]", HTML: "Hello"},
		{ID: "record[post][1]", Abstain: true},
		{ID: "record[x]", Error: "malformed identifier"},
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "ID")
	assert.Contains(t, buf.String(), "Hello")
	assert.Contains(t, buf.String(), "(abstain)")
	assert.Contains(t, buf.String(), "error: malformed identifier")

	assert.Error(t, outputRenderResults(&buf, "csv", nil))
}

func TestRunInspect(t *testing.T) {
	oldFlags, oldSelector := inspectFlags, inspectSelector
	defer func() { inspectFlags, inspectSelector = oldFlags, oldSelector }()

	inspectFlags = &StandardFlags{OutputFormat: "json"}
	inspectSelector = ".entry-title"

	cmd, out := testCommand()
	require.NoError(t, runInspect(cmd, []string{"record[post][1][title][header]"}))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "record_field", got["type"])
	assert.Equal(t, "record[post][1][title][header]", got["id"])
	assert.Equal(t, "edit_posts", got["capability"])
	assert.Equal(t, ".entry-title", got["selector"])
	assert.Equal(t, "header", got["placement"])
	assert.Equal(t, true, got["containerInclusive"])
}

func TestRunInspectContentTypes(t *testing.T) {
	oldFlags := inspectFlags
	defer func() { inspectFlags = oldFlags }()

	inspectFlags = &StandardFlags{OutputFormat: "table"}
	cmd, _ := testCommand()
	assert.Error(t, runInspect(cmd, []string{"record[book][3]"}))

	inspectFlags = &StandardFlags{OutputFormat: "table", ContentFile: writeContent(t)}
	cmd, out := testCommand()
	require.NoError(t, runInspect(cmd, []string{"record[book][3]"}))
	assert.Contains(t, out.String(), "edit_books")
	assert.Contains(t, out.String(), "record[book][3]")
}

func TestRunInspectMalformed(t *testing.T) {
	oldFlags := inspectFlags
	defer func() { inspectFlags = oldFlags }()

	inspectFlags = &StandardFlags{OutputFormat: "yaml"}
	cmd, _ := testCommand()
	err := runInspect(cmd, []string{"record[post]"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed identifier")
}

func TestWriteVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeVersion(&buf, "text", false))
	assert.Contains(t, buf.String(), "livefield")

	buf.Reset()
	require.NoError(t, writeVersion(&buf, "json", false))
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &info))
	assert.Contains(t, info, "version")

	assert.Error(t, writeVersion(&buf, "xml", false))
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "render", "inspect", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}
