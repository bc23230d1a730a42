// Package cli provides the headless command-line interface of promptpack.
//
// Commands mirror the service layer one to one: library listing and search,
// the validate-then-render pipeline, contract verification of agent output,
// template management and git synchronization. Output defaults to
// human-readable text with --format json available where tooling needs it.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dbod-pe/promptpack/internal/clipboard"
	"github.com/dbod-pe/promptpack/internal/conformance"
	"github.com/dbod-pe/promptpack/internal/errors"
	"github.com/dbod-pe/promptpack/internal/models"
	"github.com/dbod-pe/promptpack/internal/service"
	"github.com/dbod-pe/promptpack/internal/storage"
)

// CLI provides headless command-line interface functionality
type CLI struct {
	service      *service.Service
	errorHandler *errors.CLIErrorHandler
}

// NewCLI creates a new CLI instance
func NewCLI(svc *service.Service, errorHandler *errors.CLIErrorHandler) *CLI {
	return &CLI{service: svc, errorHandler: errorHandler}
}

// Run executes a CLI command with the given arguments
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	command := args[0]
	commandArgs := args[1:]

	var err error
	switch command {
	case "list", "ls":
		err = c.listTemplates(commandArgs)
	case "show", "get":
		err = c.showTemplate(commandArgs)
	case "search":
		err = c.searchTemplates(commandArgs)
	case "render":
		err = c.renderTemplate(commandArgs)
	case "verify":
		err = c.verifyOutput(commandArgs)
	case "import":
		err = c.importTemplate(commandArgs)
	case "delete", "rm":
		err = c.deleteTemplate(commandArgs)
	case "git":
		err = c.gitCommand(commandArgs)
	case "help":
		err = c.showHelp()
	default:
		err = errors.CommandNotFoundError(command)
	}

	if err != nil {
		return c.errorHandler.HandleError(err)
	}
	return nil
}

// listTemplates prints the library contents
func (c *CLI) listTemplates(args []string) error {
	format := parseFlag(args, "--format", "table")

	templates, err := c.service.ListTemplates()
	if err != nil {
		return err
	}

	return printTemplates(templates, format)
}

// showTemplate prints a single template with its content
func (c *CLI) showTemplate(args []string) error {
	if len(args) == 0 {
		return errors.InvalidCommandError("show", "template id required")
	}

	tmpl, err := c.service.GetTemplate(args[0])
	if err != nil {
		return err
	}

	if parseFlag(args, "--format", "text") == "json" {
		return printJSON(tmpl)
	}

	fmt.Printf("ID:          %s\n", tmpl.ID)
	fmt.Printf("Name:        %s\n", tmpl.Name)
	fmt.Printf("Version:     %s\n", tmpl.Version)
	if tmpl.Description != "" {
		fmt.Printf("Description: %s\n", tmpl.Description)
	}
	if tmpl.Contract != nil {
		fmt.Printf("Contract:    %s\n", tmpl.Contract.Kind)
	}
	fmt.Println("\nSlots:")
	for _, slot := range tmpl.Slots {
		line := fmt.Sprintf("  %s (%s)", slot.Name, slot.EffectiveType())
		if slot.Required {
			line += " [required]"
		}
		if slot.Default != "" {
			line += fmt.Sprintf(" default=%s", slot.Default)
		}
		if len(slot.Options) > 0 {
			line += fmt.Sprintf(" options=%s", strings.Join(slot.Options, "|"))
		}
		fmt.Println(line)
	}
	fmt.Println("\n" + tmpl.Content)

	return nil
}

// searchTemplates fuzzy-searches the library
func (c *CLI) searchTemplates(args []string) error {
	if len(args) == 0 {
		return errors.InvalidCommandError("search", "query required")
	}

	templates, err := c.service.SearchTemplates(args[0])
	if err != nil {
		return err
	}

	return printTemplates(templates, parseFlag(args, "--format", "table"))
}

// renderTemplate validates slot values and prints the rendered prompt
func (c *CLI) renderTemplate(args []string) error {
	if len(args) == 0 {
		return errors.InvalidCommandError("render", "template id required")
	}
	id := args[0]

	inputs, err := parseVars("render", args)
	if err != nil {
		return err
	}

	format := parseFlag(args, "--format", "text")
	if format == "json" {
		rendered, err := c.service.RenderJSON(id, inputs)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	}

	rendered, err := c.service.Render(id, inputs)
	if err != nil {
		return err
	}

	if hasFlag(args, "--copy") {
		if err := clipboard.Copy(rendered.Text); err != nil {
			return errors.Wrap(err, errors.ErrCodeCommandFailed, "Failed to copy to clipboard")
		}
		fmt.Println("✅ Rendered prompt copied to clipboard")
		return nil
	}

	fmt.Println(rendered.Text)
	return nil
}

// verifyOutput checks agent output against a template's contract. Output is
// read from --file, or from stdin when no file is given.
func (c *CLI) verifyOutput(args []string) error {
	if len(args) == 0 {
		return errors.InvalidCommandError("verify", "template id required")
	}
	id := args[0]

	output, err := readOutput(parseFlag(args, "--file", ""))
	if err != nil {
		return err
	}

	inputs, err := parseVars("verify", args)
	if err != nil {
		return err
	}

	tmpl, err := c.service.GetTemplate(id)
	if err != nil {
		return err
	}

	report, err := c.service.Verify(id, output, inputs)
	if err != nil {
		return err
	}

	if parseFlag(args, "--format", "text") == "json" {
		return printJSON(report)
	}

	printReport(report)
	if !report.Valid {
		return report.ToAppError(id)
	}

	if len(report.Commits) > 0 {
		fmt.Println("\nNormalized:")
		for i, msg := range report.NormalizedCommits(tmpl.Contract.BodyWrap()) {
			if i > 0 {
				fmt.Println("\n" + tmpl.Contract.Separator())
			}
			fmt.Println(msg)
		}
	}
	return nil
}

// importTemplate adds a template file to the library
func (c *CLI) importTemplate(args []string) error {
	if len(args) == 0 {
		return errors.InvalidCommandError("import", "file path required")
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		return errors.StorageError("read template file", err)
	}

	tmpl, err := storage.ParseTemplate(content)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeFileCorrupted, "Failed to parse template file")
	}

	if err := c.service.SaveTemplate(tmpl); err != nil {
		return err
	}

	fmt.Printf("✅ Template '%s' imported\n", tmpl.ID)
	return nil
}

// deleteTemplate removes a template from the library
func (c *CLI) deleteTemplate(args []string) error {
	if len(args) == 0 {
		return errors.InvalidCommandError("delete", "template id required")
	}

	if err := c.service.DeleteTemplate(args[0]); err != nil {
		return err
	}

	fmt.Printf("✅ Template '%s' deleted\n", args[0])
	return nil
}

// gitCommand handles git synchronization subcommands
func (c *CLI) gitCommand(args []string) error {
	if len(args) == 0 {
		return errors.InvalidCommandError("git", "subcommand required (setup, sync, status)")
	}

	switch args[0] {
	case "setup":
		if len(args) < 2 {
			return errors.InvalidCommandError("git setup", "repository URL required")
		}
		if err := c.service.SetupGitRepository(args[1]); err != nil {
			return err
		}
		fmt.Println("✅ Git repository configured")
		return nil

	case "sync":
		if err := c.service.SyncNow(context.Background()); err != nil {
			return err
		}
		fmt.Println("✅ Library synced")
		return nil

	case "status":
		fmt.Printf("Library: %s\n", c.service.BaseDir())
		fmt.Printf("Status:  %s\n", c.service.GitStatus())
		return nil

	default:
		return errors.InvalidCommandError("git", fmt.Sprintf("unknown subcommand '%s'", args[0]))
	}
}

func (c *CLI) showHelp() error {
	fmt.Println(`promptpack CLI commands:

  list, ls [--format table|json|ids]     List templates
  show <id> [--format text|json]         Show a template with its slots
  search <query>                         Fuzzy-search templates
  render <id> --var name=value ...       Validate inputs and render
         [--format text|json] [--copy]
  verify <id> [--file path]              Check agent output against the
         [--var name=value ...]          template's output contract
  import <file>                          Add a template file to the library
  delete, rm <id>                        Delete a template
  git setup <url> | sync | status        Library git synchronization
  help                                   Show this help`)
	return nil
}

// Helpers

// parseVars collects repeated "--var name=value" pairs into a slot value map
func parseVars(command string, args []string) (map[string]interface{}, error) {
	inputs := make(map[string]interface{})
	for i := 0; i < len(args); i++ {
		if args[i] != "--var" {
			continue
		}
		if i+1 >= len(args) {
			return nil, errors.InvalidCommandError(command, "--var requires name=value")
		}
		pair := args[i+1]
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			return nil, errors.InvalidCommandError(command, fmt.Sprintf("invalid --var '%s', expected name=value", pair))
		}
		inputs[pair[:idx]] = pair[idx+1:]
		i++
	}
	return inputs, nil
}

// parseFlag returns the value following a flag, or the fallback
func parseFlag(args []string, flag, fallback string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return fallback
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}

// readOutput reads agent output from a file or stdin
func readOutput(path string) (string, error) {
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", errors.StorageError("read output file", err)
		}
		return string(content), nil
	}

	content, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeCommandFailed, "Failed to read stdin")
	}
	return string(content), nil
}

func printTemplates(templates []*models.Template, format string) error {
	switch format {
	case "json":
		return printJSON(templates)
	case "ids":
		for _, t := range templates {
			fmt.Println(t.ID)
		}
	default:
		if len(templates) == 0 {
			fmt.Println("No templates found")
			return nil
		}
		fmt.Printf("%-22s %-9s %-30s %s\n", "ID", "VERSION", "NAME", "CONTRACT")
		for _, t := range templates {
			contract := "-"
			if t.Contract != nil {
				contract = string(t.Contract.Kind)
			}
			fmt.Printf("%-22s %-9s %-30s %s\n", t.ID, t.Version, truncate(t.Name, 30), contract)
		}
	}
	return nil
}

func printReport(report *conformance.Report) {
	if report.Valid {
		fmt.Println("✅ Output conforms to the contract")
	} else {
		fmt.Printf("❌ Output violates the contract (%d error(s))\n", report.ErrorCount())
	}

	for _, v := range report.Violations {
		icon := "❌"
		if v.Level == conformance.LevelWarning {
			icon = "⚠️ "
		}
		if v.Location != "" {
			fmt.Printf("  %s [%s] %s: %s\n", icon, v.Code, v.Location, v.Message)
		} else {
			fmt.Printf("  %s [%s] %s\n", icon, v.Code, v.Message)
		}
	}
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.InternalError("Failed to marshal JSON output")
	}
	fmt.Println(string(data))
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
