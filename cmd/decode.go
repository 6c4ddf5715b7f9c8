package cmd

import (
	"github.com/astrogo/fitsio"
	"github.com/mj1618/dslr-remote/internal/imaging"
	"github.com/mj1618/dslr-remote/internal/model"
	"github.com/mj1618/dslr-remote/internal/output"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <file>",
	Short: "Decode an image file offline",
	Long: `Run an image file through the same pipeline exposures use: decode it in
the configured --image-format, crop it to --roi and print its statistics.

Examples:
  dslr-remote decode DSC01234.ARW
  dslr-remote decode frame.fits --image-format debayered --out rgb.fits
  dslr-remote decode DSC01234.JPG --image-format jpg --preview small.png`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().String("roi", "", "Crop region x,y,w,h")
	decodeCmd.Flags().String("out", "", "Write the decoded image as FITS")
	decodeCmd.Flags().String("preview", "", "Write a PNG preview")
	decodeCmd.Flags().Int("preview-size", 1024, "Longest side of the preview (0 for full size)")
}

func runDecode(cmd *cobra.Command, args []string) error {
	roiStr, _ := cmd.Flags().GetString("roi")
	outPath, _ := cmd.Flags().GetString("out")
	previewPath, _ := cmd.Flags().GetString("preview")
	previewSize, _ := cmd.Flags().GetInt("preview-size")

	cat, err := loadCatalog(appConfig)
	if err != nil {
		return err
	}
	cam, err := cat.Camera(appConfig.Camera)
	if err != nil {
		return err
	}
	format := appConfig.Format()
	p := imaging.Pipeline{Format: format, Pattern: cam.Sensor.BayerPattern}
	img, err := p.Decode(args[0])
	if err != nil {
		return err
	}
	if roiStr != "" {
		roi, err := parseROI(roiStr)
		if err != nil {
			return err
		}
		if img, err = imaging.Crop(img, roi, img.Width, img.Height); err != nil {
			return err
		}
	}

	result := output.NewImageResult(args[0], format, img)
	if outPath != "" {
		cards := []fitsio.Card{{Name: "INSTRUME", Value: cam.ID}}
		if format == model.FormatCFA {
			cards = append(cards, fitsio.Card{Name: "BAYERPAT", Value: "RGGB"})
		}
		if err := writeFITSFile(outPath, img, cards); err != nil {
			return err
		}
		result.FITS = outPath
	}
	if previewPath != "" {
		if err := writePreviewFile(previewPath, img, previewSize); err != nil {
			return err
		}
		result.Preview = previewPath
	}
	return output.Print(result)
}
