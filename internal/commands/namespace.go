package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/commentd/commentd/internal/output"
)

type subCmdFlag struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Default     string `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type subCmdEntry struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Flags       []subCmdFlag `json:"flags,omitempty"`
}

func commandFlags(cmd *cobra.Command) []subCmdFlag {
	flags := []subCmdFlag{}
	cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		required := false
		if ann, ok := f.Annotations[cobra.BashCompOneRequiredFlag]; ok && len(ann) > 0 {
			required = ann[0] == "true"
		}
		flags = append(flags, subCmdFlag{
			Name:        f.Name,
			Type:        f.Value.Type(),
			Description: f.Usage,
			Default:     f.DefValue,
			Required:    required,
		})
	})
	return flags
}

// namespaceIndex sets RunE on a parent command to emit a JSON subcommand index.
// Scripted callers invoking a bare namespace (e.g. `commentd comment`) get
// structured output instead of human help text.
func namespaceIndex(cmd *cobra.Command) {
	cmd.RunE = func(c *cobra.Command, args []string) error {
		type resp struct {
			Namespace   string        `json:"namespace"`
			Subcommands []subCmdEntry `json:"subcommands"`
		}
		subs := []subCmdEntry{}
		for _, child := range c.Commands() {
			if child.Hidden {
				continue
			}
			subs = append(subs, subCmdEntry{
				Name:        child.Name(),
				Description: child.Short,
				Flags:       commandFlags(child),
			})
		}
		return output.PrintSuccess(resp{
			Namespace:   c.CommandPath(),
			Subcommands: subs,
		})
	}
}
