// cmd_utils.go - Hilfsfunktionen fuer Commands
// Hauptfunktionen: addModelFlags, modelConfig, newBackend, checkServerHeartbeat
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ollama/adaptor/api"
	"github.com/ollama/adaptor/envconfig"
	"github.com/ollama/adaptor/ml"
	_ "github.com/ollama/adaptor/ml/backend"
	"github.com/ollama/adaptor/model/models/adaptor"
)

// addModelFlags - Registriert Flags, die die Modell-Konfiguration ueberlagern
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("vision-model-type", "", "Vision backbone ("+strings.Join(adaptor.BackboneTags(), ", ")+")")
	cmd.Flags().Int("projection-dim", 0, "Width of the shared embedding space")
	cmd.Flags().Int("layers", 0, "Number of fusion encoder layers")
	cmd.Flags().Int("text-dim", 0, "Width of the text encoder output")
	cmd.Flags().Int("vision-dim", 0, "Width of the vision encoder output")
	cmd.Flags().Uint64("seed", 0, "Seed for parameter initialization (default ADAPTOR_SEED)")
}

// modelConfig - Default-Konfiguration, Umgebung und Flags in dieser Reihenfolge.
// Geprueft wird erst in adaptor.New.
func modelConfig(cmd *cobra.Command) adaptor.Config {
	c := adaptor.DefaultConfig().FromEnv()

	if s, _ := cmd.Flags().GetString("vision-model-type"); s != "" {
		c.VisionModelType = s
	}
	if n, _ := cmd.Flags().GetInt("projection-dim"); n > 0 {
		c.ProjectionDim = n
		c.Fusion.HiddenSize = 0
	}
	if n, _ := cmd.Flags().GetInt("layers"); n > 0 {
		c.NumFusionLayers = n
		c.Fusion.NumHiddenLayers = 0
	}
	if n, _ := cmd.Flags().GetInt("text-dim"); n > 0 {
		c.TextEmbedDim = n
	}
	if n, _ := cmd.Flags().GetInt("vision-dim"); n > 0 {
		c.VisionOutputDim = n
	}

	return c
}

// newBackend - Baut das Rechen-Backend im Prozess, ohne Server
func newBackend(cmd *cobra.Command) (ml.Backend, error) {
	seed := envconfig.Seed()
	if cmd.Flags().Changed("seed") {
		seed, _ = cmd.Flags().GetUint64("seed")
	}

	return ml.NewBackend(envconfig.Backend(), ml.BackendParams{
		NumThreads: int(envconfig.NumThreads()),
		Seed:       seed,
	})
}

// showResponse - Wandelt ein lokales Modell in die Server-Antwort
func showResponse(m *adaptor.Adaptor) *api.ShowResponse {
	params := m.Parameters()
	resp := &api.ShowResponse{
		Config:     m.Config(),
		Backbone:   m.Backbone().String(),
		Parameters: make([]api.ParameterInfo, len(params)),
	}

	for i, p := range params {
		resp.Parameters[i] = api.ParameterInfo{Name: p.Name, Shape: p.Shape, Elements: p.Elements()}
	}
	return resp
}

// isTerminal - Prueft ob stdout ein Terminal ist
func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// checkServerHeartbeat - Prueft ob der Server laeuft
func checkServerHeartbeat(cmd *cobra.Command, _ []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}
	if err := client.Heartbeat(cmd.Context()); err != nil {
		if strings.Contains(err.Error(), " refused") || strings.Contains(err.Error(), "could not connect") {
			return fmt.Errorf("adaptor server not responding, start it with 'adaptor serve': %w", err)
		}
		return err
	}
	return nil
}
