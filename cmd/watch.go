package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-sentry/internal/config"
	"github.com/kozaktomas/face-sentry/internal/database"
	"github.com/kozaktomas/face-sentry/internal/database/filestore"
	"github.com/kozaktomas/face-sentry/internal/events"
	"github.com/kozaktomas/face-sentry/internal/evidence"
	"github.com/kozaktomas/face-sentry/internal/extractor"
	"github.com/kozaktomas/face-sentry/internal/frames"
	"github.com/kozaktomas/face-sentry/internal/liveness"
	"github.com/kozaktomas/face-sentry/internal/match"
	"github.com/kozaktomas/face-sentry/internal/pipeline"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the checkpoint pipeline on a camera frame feed",
	Long: `Watch consumes JPEG frames from a spool directory and runs the full
verification pipeline on each one: face matching, liveness analysis and
cooldown-gated event emission.

An entry checkpoint challenges every match with a blink before granting
access. An exit checkpoint usually runs with --passive, which only requires
the geometric pose check.

Examples:
  # Entry gate with blink liveness
  face-sentry watch --frames /var/spool/gate-1

  # Exit gate, passive liveness, spoof gate before matching
  face-sentry watch --frames /var/spool/gate-out --event exit --passive --spoof-gate

  # Without a database: identities from a local roster file, events to the log
  face-sentry watch --frames ./frames --offline --identities ./identities.json`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("frames", "", "Spool directory with incoming JPEG frames (required)")
	watchCmd.Flags().Duration("poll-interval", 100*time.Millisecond, "Spool poll interval when no frames are waiting")
	watchCmd.Flags().String("event", "", "Event type for this checkpoint: entry or exit (defaults to EVENT_TYPE)")
	watchCmd.Flags().Bool("passive", false, "Use the passive geometric check instead of the blink challenge")
	watchCmd.Flags().Bool("spoof-gate", false, "Run the geometric spoof check before matching on every frame")
	watchCmd.Flags().Bool("hnsw", false, "Match against an HNSW index instead of a linear scan")
	watchCmd.Flags().Bool("offline", false, "Run without a database: identities from a roster file, events to the log")
	watchCmd.Flags().String("identities", "identities.json", "Identity roster file used with --offline")
	watchCmd.Flags().Bool("no-evidence", false, "Skip evidence capture for negative verdicts")
}

func runWatch(cmd *cobra.Command, args []string) error {
	framesDir := mustGetString(cmd, "frames")
	if framesDir == "" {
		return errors.New("--frames is required")
	}
	pollInterval := mustGetDuration(cmd, "poll-interval")
	passive := mustGetBool(cmd, "passive")
	spoofGate := mustGetBool(cmd, "spoof-gate")
	useHNSW := mustGetBool(cmd, "hnsw")
	offline := mustGetBool(cmd, "offline")
	noEvidence := mustGetBool(cmd, "no-evidence")

	cfg := config.Load()
	if event := mustGetString(cmd, "event"); event != "" {
		cfg.Camera.EventType = event
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var identities database.IdentityStore
	var sink pipeline.EventSink
	if offline {
		roster, err := filestore.Open(mustGetString(cmd, "identities"))
		if err != nil {
			return err
		}
		identities = roster
		sink = events.LogSink{}
	} else {
		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		identities = st.identities
		sink = events.NewStoreSink(st.events)
	}

	db, err := database.Load(ctx, identities, cfg.Extractor.Dim)
	if err != nil {
		return fmt.Errorf("failed to load identity database: %w", err)
	}
	fmt.Printf("Loaded %d embedding rows for %d identities\n", db.Len(), db.IdentityCount())

	matcher, err := buildMatcher(db, cfg, useHNSW)
	if err != nil {
		return err
	}

	strategy := buildStrategy(cfg, passive)
	session := pipeline.NewSession(matcher, strategy, cfg.Thresholds.Liveness.Timeout())

	deps := pipeline.Collaborators{
		Extractor: extractor.NewClient(cfg.Extractor.URL),
		Events:    sink,
		Announcer: events.LogAnnouncer{},
	}
	if !noEvidence {
		store, err := evidence.NewStore(cfg.Evidence.Dir, nil)
		if err != nil {
			return err
		}
		deps.Evidence = store
	}

	var gateScorer *liveness.GeometricScorer
	if spoofGate {
		gateScorer = newScorer(cfg)
	}

	orch := pipeline.NewOrchestrator(pipeline.Config{
		CameraID:       cfg.Camera.ID,
		EventType:      cfg.Camera.EventType,
		CooldownWindow: cfg.Thresholds.Cooldown.Window(),
		SpoofGateFirst: spoofGate,
	}, session, deps, gateScorer)

	source, err := frames.NewDirSource(framesDir, pollInterval)
	if err != nil {
		return err
	}

	fmt.Printf("Watching %s (camera %s, %s, %s liveness)\n",
		framesDir, cfg.Camera.ID, cfg.Camera.EventType, strategy.Name())

	for {
		frame, err := source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nShutting down")
				return nil
			}
			return err
		}

		if _, err := orch.ProcessFrame(ctx, frame); err != nil {
			// Matching errors are frame-local; keep the loop alive.
			log.Printf("frame rejected: %v", err)
		}
	}
}

func buildMatcher(db *database.DB, cfg *config.Config, useHNSW bool) (match.Matcher, error) {
	threshold := cfg.Thresholds.Recognition.DistanceThreshold
	if !useHNSW {
		return match.NewLinear(db, threshold), nil
	}
	index, err := database.BuildHNSWIndex(db)
	if err != nil {
		return nil, fmt.Errorf("failed to build HNSW index: %w", err)
	}
	return match.NewHNSW(index, db.Dim(), threshold), nil
}

func buildStrategy(cfg *config.Config, passive bool) liveness.Strategy {
	if passive {
		return liveness.NewPassiveGeometric(newScorer(cfg))
	}
	blink := liveness.NewBlinkDetector(
		cfg.Thresholds.Blink.EARThreshold,
		cfg.Thresholds.Blink.ConsecutiveFrames,
	)
	return liveness.NewActiveChallenge(blink)
}

func newScorer(cfg *config.Config) *liveness.GeometricScorer {
	return liveness.NewGeometricScorer(
		cfg.Thresholds.Spoof.PitchThreshold,
		cfg.Thresholds.Spoof.DepthThreshold,
		cfg.Thresholds.Spoof.PassScore,
	)
}
