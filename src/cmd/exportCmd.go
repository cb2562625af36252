package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/simivar/thol-objects-exporter/src/app"
	"github.com/spf13/cobra"
)

// runExport parses every object file in objectsDir and prints the result as
// one pretty JSON array on the command's stdout. Logs and the progress bar
// go to stderr, so stdout carries nothing but the JSON.
func runExport(cmd *cobra.Command, objectsDir string) error {
	objectsDir = app.ExpandPath(objectsDir)

	info, err := os.Stat(objectsDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s is an invalid objects directory", objectsDir)
	}

	log.Info().Str("dir", objectsDir).Msg("THOL objects export running")

	objects, err := app.CollectObjects(objectsDir)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(objects, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	log.Info().Int("objects", len(objects)).Msg("THOL objects export finished")
	return nil
}
