package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/simivar/thol-objects-exporter/src/app"
	"github.com/spf13/viper"
)

func preserveGlobals(t *testing.T) {
	t.Helper()
	origCfgFile := cfgFile
	origDebug := debugMode
	origHuman := humanReadableLogs
	origLogger := log.Logger
	origLevel := zerolog.GlobalLevel()

	t.Cleanup(func() {
		cfgFile = origCfgFile
		debugMode = origDebug
		humanReadableLogs = origHuman
		log.Logger = origLogger
		zerolog.SetGlobalLevel(origLevel)
	})
}

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	log.Logger = zerolog.New(buf).With().Timestamp().Logger()
	return buf
}

func runRoot(t *testing.T, args ...string) (stdout, stderr *bytes.Buffer, err error) {
	t.Helper()
	if args == nil {
		// SetArgs(nil) would make cobra fall back to os.Args.
		args = []string{}
	}
	stdout = &bytes.Buffer{}
	stderr = &bytes.Buffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs([]string{})
		// Flag values and SilenceUsage stick between Execute calls.
		rootCmd.SilenceUsage = false
		_ = rootCmd.PersistentFlags().Set("debug", "false")
		_ = rootCmd.PersistentFlags().Set("human", "false")
	})
	return stdout, stderr, rootCmd.Execute()
}

const validObject = `id=7
a round stone
person=0
male=0
clothing=n
clothingOffset=0.0,0.0
numSprites=0
headIndex=-1
bodyIndex=-1
backFootIndex=-1
frontFootIndex=-1`

func writeObjectFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
}

func TestRootCmdRequiresObjectsDirArgument(t *testing.T) {
	preserveGlobals(t)
	resetViper(t)
	captureLogs(t)

	_, stderr, err := runRoot(t)
	if err == nil {
		t.Fatalf("expected error when no argument is given")
	}
	if !strings.Contains(err.Error(), "accepts 1 arg") {
		t.Fatalf("error = %v, want argument-count failure", err)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Fatalf("usage not printed on stderr, got %q", stderr.String())
	}
}

func TestRootCmdRejectsNonDirectoryPath(t *testing.T) {
	preserveGlobals(t)
	resetViper(t)
	captureLogs(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "objects.txt")
	writeObjectFile(t, dir, "objects.txt", validObject)

	_, _, err := runRoot(t, file)
	if err == nil {
		t.Fatalf("expected error for non-directory path")
	}
	if !strings.Contains(err.Error(), file) {
		t.Fatalf("error = %v, want path named", err)
	}
}

func TestRootCmdExportsObjectsAsJSONArray(t *testing.T) {
	preserveGlobals(t)
	resetViper(t)
	captureLogs(t)

	dir := t.TempDir()
	writeObjectFile(t, dir, "7.txt", validObject)
	writeObjectFile(t, dir, "8.txt", "id=8\nnot a full object\n")

	stdout, _, err := runRoot(t, dir)
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	var objects []app.Object
	if err := json.Unmarshal(stdout.Bytes(), &objects); err != nil {
		t.Fatalf("stdout is not a JSON array: %v\n%s", err, stdout.String())
	}
	if len(objects) != 1 {
		t.Fatalf("got %d objects, want 1 (malformed file dropped)", len(objects))
	}
	if objects[0].ID != 7 || objects[0].Description != "a round stone" {
		t.Fatalf("object = %#v, want id 7", objects[0])
	}
}

func TestRootCmdDebugFlagRaisesLogLevel(t *testing.T) {
	preserveGlobals(t)
	resetViper(t)
	captureLogs(t)

	dir := t.TempDir()
	writeObjectFile(t, dir, "7.txt", validObject)

	if _, _, err := runRoot(t, "--debug", dir); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("global level = %v, want debug", zerolog.GlobalLevel())
	}
}
