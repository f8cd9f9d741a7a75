// cmd_preprocess.go - preprocess Command
// Hauptfunktionen: PreprocessHandler
package cmd

import (
	"fmt"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/adaptor/envconfig"
	"github.com/ollama/adaptor/ml"
	"github.com/ollama/adaptor/vision"
)

// PreprocessHandler - Laedt Bilder, verarbeitet sie fuer ein Backbone und
// zeigt Statistiken pro Kanal
func PreprocessHandler(cmd *cobra.Command, args []string) error {
	tag, _ := cmd.Flags().GetString("vision-model-type")
	if tag == "" {
		tag = envconfig.VisionModelType()
	}

	size, _ := cmd.Flags().GetInt("size")
	p, err := vision.ForBackbone(tag, vision.WithSize(size))
	if err != nil {
		return err
	}

	images := make([]*vision.ImageInput, len(args))
	for i, path := range args {
		if images[i], err = vision.LoadImage(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	b, err := newBackend(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	ctx := b.NewContext()
	defer ctx.Close()

	pixels, err := p.Preprocess(ctx, images...)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "pixel values %v\n", pixels.Shape())

	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		fmt.Fprintln(w, ml.Dump(ctx, pixels, ml.DumpWithPrecision(2)))
	}

	plane := pixels.Dim(0) * pixels.Dim(1)
	channels := pixels.Dim(2)
	values := pixels.Floats()

	var data [][]string
	for n, path := range args {
		for c := range channels {
			offset := (n*channels + c) * plane
			lo, hi, mean := channelStats(values[offset : offset+plane])
			data = append(data, []string{
				path,
				strconv.Itoa(c),
				strconv.FormatFloat(float64(lo), 'f', 3, 32),
				strconv.FormatFloat(float64(hi), 'f', 3, 32),
				strconv.FormatFloat(mean, 'f', 3, 64),
			})
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"IMAGE", "CHANNEL", "MIN", "MAX", "MEAN"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()

	return nil
}

func channelStats(values []float32) (lo, hi float32, mean float64) {
	lo, hi = math.MaxFloat32, -math.MaxFloat32
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
		mean += float64(v)
	}
	return lo, hi, mean / float64(len(values))
}

// newPreprocessCmd - Erstellt den preprocess Command
func newPreprocessCmd() *cobra.Command {
	preprocessCmd := &cobra.Command{
		Use:   "preprocess IMAGE [IMAGE...]",
		Short: "Convert images into pixel values for a vision backbone",
		Args:  cobra.MinimumNArgs(1),
		RunE:  PreprocessHandler,
	}

	preprocessCmd.Flags().String("vision-model-type", "", "Vision backbone selecting the preprocessing")
	preprocessCmd.Flags().Int("size", 224, "Edge length of the output images")
	preprocessCmd.Flags().Bool("dump", false, "Print the pixel values")

	return preprocessCmd
}
