// cmd_align.go - align Command
// Hauptfunktionen: AlignHandler, printMatrix
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/adaptor/api"
)

// AlignHandler - Sendet eine Align-Anfrage aus einer JSON-Datei an den Server.
// "-" liest von stdin.
func AlignHandler(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var req api.AlignRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return fmt.Errorf("couldn't read request: %w", err)
	}

	if cmd.Flags().Changed("return-loss") {
		returnLoss, _ := cmd.Flags().GetBool("return-loss")
		req.ReturnLoss = &returnLoss
	}

	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	resp, err := client.Align(cmd.Context(), &req)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return json.NewEncoder(w).Encode(resp)
	}

	printMatrix(w, resp.LogitsPerText)
	if resp.Loss != nil {
		fmt.Fprintf(w, "loss: %.6f\n", *resp.Loss)
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		fmt.Fprintf(os.Stderr, "total duration: %v\n", resp.TotalDuration)
	}

	return nil
}

// printMatrix - Gibt Logits [text][bild] als Tabelle aus
func printMatrix(w io.Writer, logits [][]float32) {
	var data [][]string
	for i, row := range logits {
		cells := []string{strconv.Itoa(i)}
		for _, v := range row {
			cells = append(cells, strconv.FormatFloat(float64(v), 'f', 4, 32))
		}
		data = append(data, cells)
	}

	header := []string{"TEXT"}
	if len(logits) > 0 {
		for j := range logits[0] {
			header = append(header, "IMAGE "+strconv.Itoa(j))
		}
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

// newAlignCmd - Erstellt den align Command
func newAlignCmd() *cobra.Command {
	alignCmd := &cobra.Command{
		Use:     "align FILE",
		Short:   "Score precomputed embeddings against the running server",
		Args:    cobra.ExactArgs(1),
		PreRunE: checkServerHeartbeat,
		RunE:    AlignHandler,
	}

	alignCmd.Flags().Bool("return-loss", false, "Request the contrastive loss")
	alignCmd.Flags().Bool("json", false, "Print the raw response")
	alignCmd.Flags().Bool("verbose", false, "Show timings for response")

	return alignCmd
}
