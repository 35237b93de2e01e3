// Package cmd provides the command-line interface for livefield.
//
// # Available Commands
//
//   - serve: run the preview host for a content file
//   - render: render partials once against a content file
//   - inspect: construct a partial and print its exported state
//   - version: print build information
//
// # Command Examples
//
//	// Start the preview host on port 3000
//	livefield serve --port 3000 --content site.yml
//
//	// Render a title as it appears inside the main listing
//	livefield render 'record[post][1][title]' --listing 1,2,3
//
//	// Show what a client would receive for a partial
//	livefield inspect 'record[post][1][title][header]' -o yaml
//
// Configuration is read from .livefield.yml, the file named by --config or
// LIVEFIELD_CONFIG_FILE, and LIVEFIELD_<SECTION>_<OPTION> environment variables.
package cmd
