package cmd

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lehigh-university-libraries/scanlate/internal/canvas"
	"github.com/lehigh-university-libraries/scanlate/internal/images"
	"github.com/lehigh-university-libraries/scanlate/internal/storage"
	"github.com/lehigh-university-libraries/scanlate/internal/translation"
	"github.com/spf13/cobra"
)

func newTranslateCmd() *cobra.Command {
	var rect string
	var output string
	var backend backendFlags
	var opts settingsFlags

	cmd := &cobra.Command{
		Use:   "translate IMAGE",
		Short: "Translate the text in a page image",
		Long: `Sends a page image, or a rectangle of it, to the translation backend and
prints every recognized text with its translation.`,
		Example: `  # Translate a whole page
  scanlate translate page1.png

  # Translate one balloon, given in image pixels as x,y,width,height
  scanlate translate page1.png --rect 120,40,300,180 --to en --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", output)
			}
			if err := opts.settings.Validate(); err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			upload, err := images.NewUpload(filepath.Base(args[0]), "", data)
			if err != nil {
				return err
			}

			crop := canvas.Crop{
				Data:        upload.Data,
				ContentType: upload.ContentType,
				Source:      image.Rect(0, 0, upload.Width, upload.Height),
			}
			if rect != "" {
				r, err := parseRect(rect)
				if err != nil {
					return err
				}
				crop, err = cropUpload(upload.Data, r)
				if err != nil {
					return err
				}
			}

			translator, closeTranslator, err := backend.translator(cmd)
			if err != nil {
				return err
			}
			defer closeTranslator()

			store := storage.New()
			store.AddImages(upload)
			orchestrator := translation.NewOrchestrator(store, translator)
			if err := orchestrator.SetSettings(opts.settings); err != nil {
				return err
			}

			if _, err := orchestrator.HandleSelection(cmd.Context(), upload.Name, crop); err != nil {
				return err
			}

			zones := store.Zones(upload.Name)
			out := cmd.OutOrStdout()
			if output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(zones)
			}
			for _, z := range zones {
				fmt.Fprintf(out, "%d. %s\n   %s\n", z.Order, z.OriginalText, z.TranslatedText)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rect, "rect", "", "Area to translate in image pixels: x,y,width,height")
	cmd.Flags().StringVarP(&output, "format", "f", "text", "Output format: text or json")
	backend.register(cmd)
	opts.register(cmd)

	return cmd
}

// parseRect parses "x,y,width,height".
func parseRect(s string) (image.Rectangle, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q: expected x,y,width,height", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("invalid rect %q: %w", s, err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("invalid rect %q: width and height must be positive", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// cropUpload cuts r out of the decoded image and encodes it the same way the
// canvas encodes a selection.
func cropUpload(data []byte, r image.Rectangle) (canvas.Crop, error) {
	img, err := canvas.Decode(data)
	if err != nil {
		return canvas.Crop{}, err
	}
	source := r.Intersect(img.Bounds())
	if source.Empty() {
		return canvas.Crop{}, fmt.Errorf("rect %v is outside the %dx%d image", r, img.Bounds().Dx(), img.Bounds().Dy())
	}

	encoded, contentType, err := canvas.DefaultEncoder().Encode(imaging.Crop(img, source))
	if err != nil {
		return canvas.Crop{}, err
	}
	return canvas.Crop{
		Data:        encoded,
		ContentType: contentType,
		Bounds:      image.Rect(0, 0, source.Dx(), source.Dy()),
		Source:      source,
	}, nil
}
