// cmd_show.go - show Command
// Hauptfunktionen: ShowHandler, showInfo
package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ollama/adaptor/api"
	"github.com/ollama/adaptor/model/models/adaptor"
)

// ShowHandler - Zeigt Konfiguration und Parameter des lokalen oder
// laufenden Modells
func ShowHandler(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	if remote, _ := cmd.Flags().GetBool("remote"); remote {
		if err := checkServerHeartbeat(cmd, args); err != nil {
			return err
		}

		client, err := api.ClientFromEnvironment()
		if err != nil {
			return err
		}

		resp, err := client.Show(cmd.Context())
		if err != nil {
			return err
		}
		return showInfo(resp, verbose, cmd.OutOrStdout())
	}

	c := modelConfig(cmd)

	b, err := newBackend(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	m, err := adaptor.New(b, c, nil, nil)
	if err != nil {
		return err
	}

	return showInfo(showResponse(m), verbose, cmd.OutOrStdout())
}

// showInfo - Gibt Modell-Informationen als Tabellen aus
func showInfo(resp *api.ShowResponse, verbose bool, w io.Writer) error {
	tableRender := func(header string, rows func() [][]string) {
		fmt.Fprintln(w, " ", header)
		table := tablewriter.NewWriter(w)
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		table.SetBorder(false)
		table.SetNoWhiteSpace(true)
		table.SetTablePadding("    ")
		table.AppendBulk(rows())
		table.Render()
		fmt.Fprintln(w)
	}

	c := resp.Config
	tableRender("Model", func() (rows [][]string) {
		rows = append(rows, []string{"", "backbone", resp.Backbone})
		rows = append(rows, []string{"", "parameters", strconv.Itoa(resp.TotalElements())})
		rows = append(rows, []string{"", "projection dim", strconv.Itoa(c.ProjectionDim)})
		rows = append(rows, []string{"", "text embed dim", strconv.Itoa(c.TextEmbedDim)})
		rows = append(rows, []string{"", "vision output dim", strconv.Itoa(c.VisionOutputDim)})
		rows = append(rows, []string{"", "logit scale init", strconv.FormatFloat(float64(c.LogitScaleInitValue), 'f', -1, 32)})
		return
	})

	tableRender("Fusion", func() (rows [][]string) {
		f := c.Fusion
		rows = append(rows, []string{"", "layers", strconv.Itoa(f.NumHiddenLayers)})
		rows = append(rows, []string{"", "hidden size", strconv.Itoa(f.HiddenSize)})
		rows = append(rows, []string{"", "attention heads", strconv.Itoa(f.NumAttentionHeads)})
		rows = append(rows, []string{"", "intermediate size", strconv.Itoa(f.IntermediateSize)})
		rows = append(rows, []string{"", "layer norm eps", strconv.FormatFloat(float64(f.LayerNormEps), 'g', -1, 32)})
		return
	})

	if verbose {
		tableRender("Parameters", func() (rows [][]string) {
			for _, p := range resp.Parameters {
				shape := make([]string, len(p.Shape))
				for i, d := range p.Shape {
					shape[i] = strconv.Itoa(d)
				}
				rows = append(rows, []string{"", p.Name, "(" + strings.Join(shape, ", ") + ")", strconv.Itoa(p.Elements)})
			}
			return
		})
	}

	return nil
}

// newShowCmd - Erstellt den show Command
func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show configuration and parameters of the adaptor",
		Args:  cobra.ExactArgs(0),
		RunE:  ShowHandler,
	}

	showCmd.Flags().Bool("remote", false, "Show the model of the running server")
	showCmd.Flags().BoolP("verbose", "v", false, "List every parameter")
	addModelFlags(showCmd)

	return showCmd
}
