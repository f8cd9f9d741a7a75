// cmd_run.go - run Command
// Hauptfunktionen: RunHandler, syntheticBatch, printLogits
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/adaptor/ml"
	"github.com/ollama/adaptor/model/models/adaptor"
)

// syntheticBatch - Zufaellige Encoder-Ausgaben mit aufgefuellten Captions.
// Caption i hat textLen-i gueltige Tokens (mindestens eines).
type syntheticBatch struct {
	text, image, mask ml.Tensor
}

func newSyntheticBatch(ctx ml.Context, c adaptor.Config, backbone adaptor.Backbone, seed uint64, batch, textLen, imageLen int) syntheticBatch {
	rng := rand.New(rand.NewPCG(seed, seed^0x5bd1e995))
	normal := func(n int) []float32 {
		values := make([]float32, n)
		for i := range values {
			values[i] = float32(rng.NormFloat64())
		}
		return values
	}

	mask := make([]int32, textLen*batch)
	for b := range batch {
		valid := max(1, textLen-b)
		for l := range valid {
			mask[b*textLen+l] = 1
		}
	}

	var image ml.Tensor
	switch backbone {
	case adaptor.BackboneAutoencoder:
		// Feature-Map (breite, hoehe, kanaele, batch)
		image = ctx.Input().FromFloats(normal(imageLen*c.VisionOutputDim*batch), imageLen, 1, c.VisionOutputDim, batch)
	case adaptor.BackboneConvolutional:
		// gepoolte Ausgabe (kanaele, batch)
		image = ctx.Input().FromFloats(normal(c.VisionOutputDim*batch), c.VisionOutputDim, batch)
	default:
		image = ctx.Input().FromFloats(normal(c.VisionOutputDim*imageLen*batch), c.VisionOutputDim, imageLen, batch)
	}

	return syntheticBatch{
		text:  ctx.Input().FromFloats(normal(c.TextEmbedDim*textLen*batch), c.TextEmbedDim, textLen, batch),
		image: image,
		mask:  ctx.Input().FromInts(mask, textLen, batch),
	}
}

// RunHandler - Fuehrt einen Forward-Pass ueber zufaellige Einbettungen aus
func RunHandler(cmd *cobra.Command, _ []string) error {
	c := modelConfig(cmd)
	if c.TextEmbedDim == 0 {
		c.TextEmbedDim = 512
	}
	if c.VisionOutputDim == 0 {
		c.VisionOutputDim = c.ProjectionDim
	}

	batch, _ := cmd.Flags().GetInt("batch")
	textLen, _ := cmd.Flags().GetInt("text-len")
	imageLen, _ := cmd.Flags().GetInt("image-len")
	if batch <= 0 || textLen <= 0 || imageLen <= 0 {
		return fmt.Errorf("batch, text-len and image-len must be positive")
	}

	b, err := newBackend(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	backbone, err := adaptor.ParseBackbone(c.VisionModelType)
	if err != nil {
		return err
	}

	seed, _ := cmd.Flags().GetUint64("seed")
	ctx := b.NewContext()
	defer ctx.Close()

	data := newSyntheticBatch(ctx, c, backbone, seed+1, batch, textLen, imageLen)
	m, err := adaptor.New(b, c, &adaptor.PrecomputedText{Embeds: data.text}, &adaptor.PrecomputedVision{
		Output: data.image,
		Dim:    c.VisionOutputDim,
		Pooled: backbone == adaptor.BackboneConvolutional,
	})
	if err != nil {
		return err
	}

	returnLoss, _ := cmd.Flags().GetBool("return-loss")
	maskPadding, _ := cmd.Flags().GetBool("mask-padding")

	id := uuid.New()
	slog.Info("run", "id", id, "backbone", m.Backbone(), "batch", batch, "text_len", textLen, "image_len", imageLen)

	out, err := m.Forward(ctx, adaptor.Batch{
		TextInput: adaptor.TextInput{AttentionMask: data.mask},
		ForwardOptions: adaptor.ForwardOptions{
			ReturnLoss:      returnLoss,
			MaskTextPadding: maskPadding,
		},
	})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if dump, _ := cmd.Flags().GetBool("dump"); dump {
		fmt.Fprintln(w, "text_embeds", ml.Dump(ctx, out.TextEmbeds, ml.DumpWithPrecision(4)))
		fmt.Fprintln(w, "image_embeds", ml.Dump(ctx, out.ImageEmbeds, ml.DumpWithPrecision(4)))
	}

	printLogits(w, out.LogitsPerText, isTerminal(cmd))
	if out.Loss != nil {
		fmt.Fprintf(w, "loss: %.6f\n", *out.Loss)
	}

	return nil
}

// printLogits - Gibt die Logits pro Text als Tabelle aus, ohne Terminal als
// tabulatorgetrennte Zeilen
func printLogits(w io.Writer, logits ml.Tensor, terminal bool) {
	images, texts := logits.Dim(0), logits.Dim(1)
	values := logits.Floats()

	header := []string{"TEXT"}
	for j := range images {
		header = append(header, "IMAGE "+strconv.Itoa(j))
	}

	data := make([][]string, texts)
	for i := range texts {
		row := []string{strconv.Itoa(i)}
		for j := range images {
			row = append(row, strconv.FormatFloat(float64(values[i*images+j]), 'f', 4, 32))
		}
		data[i] = row
	}

	if !terminal {
		for _, row := range append([][]string{header}, data...) {
			for i, cell := range row {
				if i > 0 {
					fmt.Fprint(w, "\t")
				}
				fmt.Fprint(w, cell)
			}
			fmt.Fprintln(w)
		}
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

// newRunCmd - Erstellt den run Command
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Align a batch of random encoder outputs and print the logits",
		Args:  cobra.ExactArgs(0),
		RunE:  RunHandler,
	}

	runCmd.Flags().Int("batch", 4, "Number of caption/image pairs")
	runCmd.Flags().Int("text-len", 8, "Caption length in tokens")
	runCmd.Flags().Int("image-len", 16, "Image sequence length (spatial size for autoencoder)")
	runCmd.Flags().Bool("return-loss", true, "Compute the contrastive loss")
	runCmd.Flags().Bool("mask-padding", false, "Mask padded caption tokens inside the fusion encoder")
	runCmd.Flags().Bool("dump", false, "Print the normalized embeddings")
	addModelFlags(runCmd)

	return runCmd
}
