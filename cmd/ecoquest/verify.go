package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quidome/ecoquest-go/pkg/archive"
	"github.com/quidome/ecoquest-go/pkg/contenthash"
	"github.com/quidome/ecoquest-go/pkg/exifread"
	"github.com/quidome/ecoquest-go/pkg/message"
	"github.com/quidome/ecoquest-go/pkg/scan"
	"github.com/quidome/ecoquest-go/pkg/verify"
)

type verifyResult struct {
	Path    string         `json:"path"`
	Verdict verify.Verdict `json:"verdict"`
}

type target struct {
	path string
	blob *verify.Blob
}

// collectTargets expands directories into the photos below them.
func collectTargets(args []string, maxDepth int) ([]target, error) {
	var targets []target
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			blob, err := verify.BlobFromFile(os.DirFS(filepath.Dir(arg)), filepath.Base(arg))
			if err != nil {
				return nil, err
			}
			targets = append(targets, target{path: arg, blob: blob})
			continue
		}

		scanOpts := scan.DefaultOptions()
		scanOpts.MaxDepth = maxDepth
		scanOpts.Extensions = verify.Extensions()

		fsys := os.DirFS(arg)
		candidates, err := scan.Candidates(fsys, ".", scanOpts)
		if err != nil {
			return nil, err
		}
		for _, c := range candidates {
			blob, err := verify.BlobFromFile(fsys, c.Path)
			if err != nil {
				return nil, err
			}
			targets = append(targets, target{path: filepath.Join(arg, filepath.FromSlash(c.Path)), blob: blob})
		}
	}
	return targets, nil
}

func newVerifyCmd(opts *options) *cobra.Command {
	var (
		questID    string
		userID     string
		jsonOutput bool
		maxDepth   int
		archiveDir string
	)

	verifyCmd := &cobra.Command{
		Use:   "verify [photo|directory]...",
		Short: "Verify photos as quest proof",
		Long:  "Verify one or more photos (directories are scanned for photos) and print a verdict for each. Verified photos are recorded in the duplicate ledger.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targets, err := collectTargets(args, maxDepth)
			if err != nil {
				return err
			}

			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			v, err := e.verifier()
			if err != nil {
				return err
			}

			results := make([]verifyResult, 0, len(targets))
			failed := 0
			for _, t := range targets {
				verdict := v.Verify(cmd.Context(), t.blob, questID, userID)
				if !verdict.Verified {
					failed++
				}
				results = append(results, verifyResult{Path: t.path, Verdict: verdict})
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				for i, r := range results {
					if i > 0 {
						cmd.Println("")
					}
					if len(results) > 1 {
						cmd.Printf("== %s\n", r.Path)
					}
					cmd.Println(message.Format(r.Verdict))
				}
			}

			if archiveDir != "" {
				if err := archiveVerified(cmd, e, archiveDir, questID, results); err != nil {
					return err
				}
			}

			if failed > 0 {
				cmd.SilenceUsage = true
				return fmt.Errorf("%d of %d photos failed verification", failed, len(results))
			}
			return nil
		},
	}

	verifyCmd.Flags().StringVar(&questID, "quest", "", "quest the photo is submitted for")
	verifyCmd.Flags().StringVar(&userID, "user", "", "submitting user")
	verifyCmd.Flags().BoolVar(&jsonOutput, "json", false, "print verdicts as JSON")
	verifyCmd.Flags().IntVar(&maxDepth, "max-depth", -1, "maximum recursion depth for directories (0 = no recursion)")
	verifyCmd.Flags().StringVar(&archiveDir, "archive", "", "copy verified photos into this directory")

	return verifyCmd
}

// archiveVerified files verified photos by quest and capture day. Photos
// without a capture time are filed under today.
func archiveVerified(cmd *cobra.Command, e *env, root, questID string, results []verifyResult) error {
	loc, err := e.cfg.Location()
	if err != nil {
		return err
	}

	var items []archive.Item
	for _, r := range results {
		if !r.Verdict.Verified || r.Verdict.Hash == "" {
			continue
		}
		taken, ok := r.Verdict.Exif.CaptureTime(loc)
		if !ok {
			taken = time.Now().In(loc)
		}
		items = append(items, archive.Item{SourcePath: r.Path, Hash: r.Verdict.Hash, QuestID: questID, Taken: taken})
	}

	for _, res := range archive.Execute(archive.Plan(root, items)) {
		switch {
		case res.Error != nil:
			e.log.Error("archive failed", zap.String("file", res.Operation.SourcePath), zap.Error(res.Error))
			cmd.PrintErrf("archive failed: %s: %v\n", res.Operation.SourcePath, res.Error)
		case res.Existing:
			cmd.PrintErrf("already archived: %s\n", res.Operation.DestinationPath)
		default:
			cmd.PrintErrf("archived: %s -> %s\n", res.Operation.SourcePath, res.Operation.DestinationPath)
		}
	}
	return nil
}

func newExifCmd(opts *options) *cobra.Command {
	var jsonOutput bool

	exifCmd := &cobra.Command{
		Use:   "exif [photo]...",
		Short: "Print capture metadata of photos",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			extractor, err := exifread.Select(exifread.Mode(e.cfg.Verify.ExifDecoder))
			if err != nil {
				return err
			}

			type exifResult struct {
				Path string           `json:"path"`
				Exif *exifread.Record `json:"exif"`
			}
			var results []exifResult
			for _, p := range args {
				data, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				results = append(results, exifResult{Path: p, Exif: extractor.Extract(data)})
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(results)
			}

			for _, r := range results {
				if r.Exif.Empty() {
					cmd.Printf("%s: no EXIF metadata\n", r.Path)
					continue
				}
				cmd.Printf("%s:\n", r.Path)
				if r.Exif.CaptureTimestamp != "" {
					cmd.Printf("  taken:    %s\n", r.Exif.CaptureTimestamp)
				}
				if r.Exif.Make != "" || r.Exif.Model != "" {
					cmd.Printf("  device:   %s %s\n", r.Exif.Make, r.Exif.Model)
				}
				if r.Exif.Location != nil {
					cmd.Printf("  location: %.6f, %.6f\n", r.Exif.Location.Lat, r.Exif.Location.Lon)
				}
			}
			return nil
		},
	}

	exifCmd.Flags().BoolVar(&jsonOutput, "json", false, "print metadata as JSON")

	return exifCmd
}

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [file]...",
		Short: "Print content fingerprints",
		Long:  "Print the SHA-256 hex digest and the content identifier of each file.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				data, err := os.ReadFile(p)
				if err != nil {
					return err
				}
				id, err := contenthash.ContentID(data)
				if err != nil {
					return err
				}
				cmd.Printf("%s  %s  %s\n", contenthash.Sum(data), id, p)
			}
			return nil
		},
	}
}

func newLedgerCmd(opts *options) *cobra.Command {
	var jsonOutput bool

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "List recorded photo submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open()
			if err != nil {
				return err
			}
			defer e.Close()

			l, err := e.ledger()
			if err != nil {
				return err
			}
			entries, err := l.Entries(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			for _, entry := range entries {
				cmd.Printf("%s  %s  %s  %s\n", entry.Timestamp.Format(time.RFC3339), entry.Hash, entry.UserID, entry.QuestID)
			}
			return nil
		},
	}

	ledgerCmd.Flags().BoolVar(&jsonOutput, "json", false, "print entries as JSON")

	return ledgerCmd
}
