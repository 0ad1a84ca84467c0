// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/geointel-engine/internal/store"
	"github.com/pdiddy/geointel-engine/pkg/types"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect or change the active scoring settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active scoring settings as YAML",
	RunE:  runSettingsShow,
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	st, err := store.NewStore(engineConfig(cmd).Datastore)
	if err != nil {
		return err
	}
	defer st.Close()

	settings, err := st.ActiveSettings(context.Background())
	if err == store.ErrNoSettings {
		fmt.Fprintln(os.Stderr, "No active settings in the datastore; showing compiled-in defaults.")
		settings = types.DefaultScoringSettings()
	} else if err != nil {
		return err
	}

	return yaml.NewEncoder(os.Stdout).Encode(settings)
}

var settingsSaveCmd = &cobra.Command{
	Use:   "save [file]",
	Short: "Save scoring settings from a YAML file",
	Long: `Save stores a named scoring-settings row from a YAML file. With
--activate the row becomes the active settings used by retrieve.`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsSave,
}

func runSettingsSave(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading settings %s: %w", args[0], err)
	}

	// Unknown fields keep their defaults so partial files work.
	settings := types.DefaultScoringSettings()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("parsing settings %s: %w", args[0], err)
	}

	st, err := store.NewStore(engineConfig(cmd).Datastore)
	if err != nil {
		return err
	}
	defer st.Close()

	activate, _ := cmd.Flags().GetBool("activate")
	if err := st.SaveSettings(context.Background(), settings, activate); err != nil {
		return err
	}

	fmt.Printf("Settings %q saved", settings.Name)
	if activate {
		fmt.Print(" and activated")
	}
	fmt.Println(".")
	return nil
}

func init() {
	settingsSaveCmd.Flags().Bool("activate", true, "make the saved settings active")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSaveCmd)

	rootCmd.AddCommand(settingsCmd)
}
