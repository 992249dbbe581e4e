package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// resolveActorName resolves the actor recorded with idempotent mutations.
// Precedence: global flag --actor, then env var COMMENTD_ACTOR.
func resolveActorName(cmd *cobra.Command) string {
	if v, err := cmd.Flags().GetString("actor"); err == nil && v != "" {
		return v
	}
	return os.Getenv("COMMENTD_ACTOR")
}

func requireActorName(cmd *cobra.Command) (string, error) {
	actor := resolveActorName(cmd)
	if actor == "" {
		return "", fmt.Errorf("actor is required (set --actor or COMMENTD_ACTOR)")
	}
	return actor, nil
}
