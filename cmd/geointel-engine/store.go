// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/geointel-engine/internal/store"
	"github.com/pdiddy/geointel-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the event datastore (seed, add-item, add-snapshot)",
	Long: `Store manages the local SQLite event datastore the engine retrieves
from. Use seed to bulk-load items, snapshots, and settings from YAML, or
add-item and add-snapshot for single entries.`,
}

// --- seed subcommand ---

var storeSeedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Bulk-load items, snapshots, and settings from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreSeed,
}

func runStoreSeed(cmd *cobra.Command, args []string) error {
	st, err := store.NewStore(engineConfig(cmd).Datastore)
	if err != nil {
		return err
	}
	defer st.Close()

	summary, err := st.SeedFromYAML(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d items, %d snapshots", summary.Items, summary.Snapshots)
	if summary.Settings {
		fmt.Print(", scoring settings activated")
	}
	fmt.Println()
	return nil
}

// --- add-item subcommand ---

var storeAddItemCmd = &cobra.Command{
	Use:   "add-item",
	Short: "Insert one global news item",
	RunE:  runStoreAddItem,
}

func runStoreAddItem(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		return fmt.Errorf("--title is required")
	}

	item := types.GlobalItem{Title: title, PublishedAt: time.Now().UTC()}
	item.Summary, _ = cmd.Flags().GetString("summary")
	item.Topic, _ = cmd.Flags().GetString("topic")
	item.SourceName, _ = cmd.Flags().GetString("source")
	item.URL, _ = cmd.Flags().GetString("url")

	if countries, _ := cmd.Flags().GetString("countries"); countries != "" {
		for _, c := range strings.Split(countries, ",") {
			item.Countries = append(item.Countries, strings.TrimSpace(c))
		}
	}
	if published, _ := cmd.Flags().GetString("published"); published != "" {
		t, err := time.Parse("2006-01-02", published)
		if err != nil {
			return fmt.Errorf("invalid --published %q: expected YYYY-MM-DD", published)
		}
		item.PublishedAt = t
	}

	st, err := store.NewStore(engineConfig(cmd).Datastore)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.AddGlobalItem(context.Background(), item); err != nil {
		return err
	}
	fmt.Println("Item added.")
	return nil
}

// --- add-snapshot subcommand ---

var storeAddSnapshotCmd = &cobra.Command{
	Use:   "add-snapshot [country]",
	Short: "Insert or update one country activity snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreAddSnapshot,
}

func runStoreAddSnapshot(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("activity")
	switch level {
	case "Critical", "High", "Medium", "Low":
	default:
		return fmt.Errorf("invalid --activity %q: use Critical, High, Medium, or Low", level)
	}

	snap := types.CountrySnapshot{
		Name:          args[0],
		ActivityLevel: level,
		UpdatedAt:     time.Now().UTC(),
	}
	if eventTitle, _ := cmd.Flags().GetString("event"); eventTitle != "" {
		summary, _ := cmd.Flags().GetString("event-summary")
		snap.Events = append(snap.Events, types.SnapshotEvent{Title: eventTitle, Summary: summary})
	}

	st, err := store.NewStore(engineConfig(cmd).Datastore)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.UpsertSnapshot(context.Background(), snap); err != nil {
		return err
	}
	fmt.Printf("Snapshot for %s updated.\n", snap.Name)
	return nil
}

func init() {
	storeAddItemCmd.Flags().String("title", "", "item title (required)")
	storeAddItemCmd.Flags().String("summary", "", "item summary")
	storeAddItemCmd.Flags().String("topic", "", "item topic (e.g. conflict, sanctions)")
	storeAddItemCmd.Flags().String("source", "", "source name (e.g. Reuters)")
	storeAddItemCmd.Flags().String("url", "", "item URL")
	storeAddItemCmd.Flags().String("countries", "", "comma-separated country tags")
	storeAddItemCmd.Flags().String("published", "", "publication date YYYY-MM-DD (default today)")

	storeAddSnapshotCmd.Flags().String("activity", "Medium", "activity level: Critical, High, Medium, Low")
	storeAddSnapshotCmd.Flags().String("event", "", "headline event title")
	storeAddSnapshotCmd.Flags().String("event-summary", "", "headline event summary")

	storeCmd.AddCommand(storeSeedCmd)
	storeCmd.AddCommand(storeAddItemCmd)
	storeCmd.AddCommand(storeAddSnapshotCmd)

	rootCmd.AddCommand(storeCmd)
}
