package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/kozaktomas/attendanced/internal/config"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Enroll an employee's face from a photo",
	Long: `Enroll an employee's face from a photo file.

The photo must contain exactly one face. The derived encoding replaces any
previous enrollment for the employee and the photo becomes their profile
picture.

Examples:
  attendanced enroll --id 42 --photo ./photos/budi.jpg`,
	RunE: runEnroll,
}

var enrollDirCmd = &cobra.Command{
	Use:   "enroll-dir",
	Short: "Batch-enroll employees from a directory of photos",
	Long: `Batch-enroll employees from a directory of photos.

Files must be named employee_<id>.jpg (or .jpeg/.png). Photos that fail the
capture gate (no face, multiple faces) are reported and skipped; the rest
are enrolled.

Examples:
  attendanced enroll-dir --dir ./photos`,
	RunE: runEnrollDir,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
	rootCmd.AddCommand(enrollDirCmd)

	enrollCmd.Flags().Int64("id", 0, "Employee ID to enroll")
	enrollCmd.Flags().String("photo", "", "Path to the photo file")

	enrollDirCmd.Flags().String("dir", "", "Directory with employee_<id>.jpg files")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	employeeID := mustGetInt64(cmd, "id")
	photoPath := mustGetString(cmd, "photo")

	if employeeID <= 0 {
		return errors.New("--id is required")
	}
	if photoPath == "" {
		return errors.New("--photo is required")
	}

	cfg := config.Load()
	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	stores := buildStores(pool)
	svc := buildService(cfg, stores)

	ctx := context.Background()
	if err := svc.RebuildDuplicateIndex(ctx); err != nil {
		fmt.Printf("Warning: failed to build duplicate-enrollment index: %v\n", err)
	}

	image, err := os.ReadFile(photoPath) //nolint:gosec // path from operator flag
	if err != nil {
		return fmt.Errorf("reading photo: %w", err)
	}

	warning, err := svc.Enroll(ctx, employeeID, image, true)
	if err != nil {
		return fmt.Errorf("enrolling employee %d: %w", employeeID, err)
	}

	fmt.Printf("Enrolled employee %d from %s\n", employeeID, photoPath)
	if warning != "" {
		fmt.Printf("Warning: %s\n", warning)
	}
	return nil
}

// enrollFilePattern matches employee_<id>.jpg/.jpeg/.png, case-insensitive
// on the extension.
var enrollFilePattern = regexp.MustCompile(`^employee_(\d+)\.(?i:jpe?g|png)$`)

func runEnrollDir(cmd *cobra.Command, args []string) error {
	dir := mustGetString(cmd, "dir")
	if dir == "" {
		return errors.New("--dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading directory: %w", err)
	}

	type candidate struct {
		employeeID int64
		path       string
	}
	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := enrollFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		candidates = append(candidates, candidate{employeeID: id, path: filepath.Join(dir, entry.Name())})
	}

	if len(candidates) == 0 {
		return fmt.Errorf("no employee_<id> photos found in %s", dir)
	}

	cfg := config.Load()
	pool, err := connect(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	stores := buildStores(pool)
	svc := buildService(cfg, stores)

	ctx := context.Background()
	if err := svc.RebuildDuplicateIndex(ctx); err != nil {
		fmt.Printf("Warning: failed to build duplicate-enrollment index: %v\n", err)
	}

	bar := progressbar.NewOptions(len(candidates),
		progressbar.OptionSetDescription("Enrolling faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionFullWidth(),
	)

	enrolled, failed := 0, 0
	var failures []string
	for _, c := range candidates {
		image, err := os.ReadFile(c.path) //nolint:gosec // paths enumerated from operator directory
		if err != nil {
			failed++
			failures = append(failures, fmt.Sprintf("%s: %v", c.path, err))
			bar.Add(1)
			continue
		}

		warning, err := svc.Enroll(ctx, c.employeeID, image, true)
		if err != nil {
			failed++
			failures = append(failures, fmt.Sprintf("%s: %v", c.path, err))
			bar.Add(1)
			continue
		}
		if warning != "" {
			failures = append(failures, fmt.Sprintf("%s: warning: %s", c.path, warning))
		}
		enrolled++
		bar.Add(1)
	}

	fmt.Printf("\nEnrolled %d employee(s), %d failed\n", enrolled, failed)
	for _, f := range failures {
		fmt.Printf("  %s\n", f)
	}
	if failed > 0 {
		return fmt.Errorf("%d photo(s) could not be enrolled", failed)
	}
	return nil
}
