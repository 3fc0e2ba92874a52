package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/scanlate/internal/export"
	"github.com/lehigh-university-libraries/scanlate/internal/images"
	"github.com/lehigh-university-libraries/scanlate/internal/models"
	"github.com/lehigh-university-libraries/scanlate/internal/storage"
	"github.com/lehigh-university-libraries/scanlate/internal/translation"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var format, title, line, name, output string
	var concurrency int
	var backend backendFlags
	var opts settingsFlags

	cmd := &cobra.Command{
		Use:   "export IMAGE...",
		Short: "Translate whole pages and export the result",
		Long: `Translates every page image given on the command line and writes a full
export of the translations, pages in natural filename order.

Title templates understand {fileName}, {imageName}, {aliasName} and
{orderNumber}; line templates understand {orderNumber}, {originalText} and
{translatedText}.`,
		Example: `  # Export a chapter as text next to the images
  scanlate export chapter1/*.png --to en

  # Write YAML to stdout
  scanlate export page1.png page2.png --format yaml --output -`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.NormalizeFormat(format)
			if err != nil {
				return err
			}
			if concurrency < 1 {
				return fmt.Errorf("concurrency must be at least 1")
			}

			uploads := make([]models.Upload, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				upload, err := images.NewUpload(filepath.Base(path), "", data)
				if err != nil {
					return err
				}
				uploads = append(uploads, upload)
			}

			translator, closeTranslator, err := backend.translator(cmd)
			if err != nil {
				return err
			}
			defer closeTranslator()

			store := storage.New()
			ids := store.AddImages(uploads...)
			orchestrator := translation.NewOrchestrator(store, translator)
			if err := orchestrator.SetSettings(opts.settings); err != nil {
				return err
			}

			failed := translatePages(cmd, orchestrator, ids, concurrency)
			if failed == len(ids) {
				return fmt.Errorf("failed to translate all %d images", len(ids))
			}

			doc := export.FullDocument(store.Snapshot(), export.Templates{Title: title, Line: line})

			if output == "-" {
				return export.Write(cmd.OutOrStdout(), doc, format)
			}
			if output == "" {
				output = export.SafeFileName(export.FileName(name, time.Now(), format))
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()
			if err := export.Write(f, doc, format); err != nil {
				return err
			}
			slog.Info("Export written", "file", output, "pages", len(doc.Pages), "failed", failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", export.FormatText, "Export format: txt, json, yaml or parquet")
	cmd.Flags().StringVar(&title, "title", export.DefaultTitleTemplate, "Page title template")
	cmd.Flags().StringVar(&line, "line", export.DefaultLineTemplate, "Zone line template")
	cmd.Flags().StringVar(&name, "name", "", "Base of the generated file name")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default: generated name)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 2, "Number of pages translated at once")
	backend.register(cmd)
	opts.register(cmd)

	return cmd
}

// translatePages translates the given images with at most concurrency
// requests in flight and returns how many failed. Pages without text are not
// failures.
func translatePages(cmd *cobra.Command, o *translation.Orchestrator, ids []string, concurrency int) int {
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0
	semaphore := make(chan struct{}, concurrency)

	for i, id := range ids {
		wg.Add(1)
		go func(idx int, id string) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Translating page", "image", id, "progress", fmt.Sprintf("%d/%d", idx+1, len(ids)))
			_, err := o.TranslateImage(cmd.Context(), id)
			if err != nil && !errors.Is(err, translation.ErrNoTextFound) {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(i, id)
	}
	wg.Wait()
	return failed
}
