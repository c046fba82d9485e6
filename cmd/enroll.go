package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-sentry/internal/config"
	"github.com/kozaktomas/face-sentry/internal/database"
	"github.com/kozaktomas/face-sentry/internal/database/filestore"
	"github.com/kozaktomas/face-sentry/internal/extractor"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll a person from a directory of face captures",
	Long: `Enroll reads every JPEG in a directory, extracts one embedding per capture
and stores them under a single identity. Several captures per person (straight,
chin up, chin down) make recognition robust to head pose.

Examples:
  # Enroll with a generated identity ID
  face-sentry enroll --name "Jana Novakova" --dir ./captures/jana

  # Enroll under a fixed student ID
  face-sentry enroll --name "Jana Novakova" --id s-001 --dir ./captures/jana

  # Enroll into the local roster file used by offline checkpoints
  face-sentry enroll --name "Jana Novakova" --dir ./captures/jana --offline`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("name", "", "Display name of the person (required)")
	enrollCmd.Flags().String("id", "", "Identity ID (defaults to a generated UUID)")
	enrollCmd.Flags().String("dir", "", "Directory with face capture JPEGs (required)")
	enrollCmd.Flags().Bool("offline", false, "Store embeddings in a local roster file instead of a database")
	enrollCmd.Flags().String("identities", "identities.json", "Identity roster file used with --offline")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	name := mustGetString(cmd, "name")
	identityID := mustGetString(cmd, "id")
	dir := mustGetString(cmd, "dir")

	if name == "" {
		return errors.New("--name is required")
	}
	if dir == "" {
		return errors.New("--dir is required")
	}
	if identityID == "" {
		identityID = uuid.NewString()
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	captures, err := listCaptures(dir)
	if err != nil {
		return err
	}
	if len(captures) == 0 {
		return fmt.Errorf("no JPEG captures found in %s", dir)
	}

	ctx := context.Background()
	var identities database.IdentityStore
	if mustGetBool(cmd, "offline") {
		roster, err := filestore.Open(mustGetString(cmd, "identities"))
		if err != nil {
			return err
		}
		identities = roster
	} else {
		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		identities = st.identities
	}

	client := extractor.NewClient(cfg.Extractor.URL)
	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("extractor service is not reachable: %w", err)
	}

	bar := progressbar.NewOptions(len(captures),
		progressbar.OptionSetDescription("Enrolling "+name),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	var enrolled, skipped int
	for _, path := range captures {
		frame, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read capture %s: %w", path, err)
		}

		embedding, err := client.Embedding(ctx, frame)
		if err != nil {
			return fmt.Errorf("failed to extract embedding from %s: %w", path, err)
		}
		if embedding == nil {
			skipped++
			_ = bar.Add(1)
			continue
		}
		if err := database.ValidateVector(embedding, cfg.Extractor.Dim); err != nil {
			return fmt.Errorf("capture %s produced a bad embedding: %w", path, err)
		}

		err = identities.InsertIdentity(ctx, database.Identity{
			IdentityID:  identityID,
			DisplayName: name,
			Embedding:   embedding,
			CreatedAt:   time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to store embedding: %w", err)
		}
		enrolled++
		_ = bar.Add(1)
	}

	fmt.Printf("\nEnrolled %s (%s): %d embeddings stored", name, identityID, enrolled)
	if skipped > 0 {
		fmt.Printf(", %d captures without a detectable face skipped", skipped)
	}
	fmt.Println()
	return nil
}

func listCaptures(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		if strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
