// cmd.go - Haupt-CLI Setup und Root Command
// Hauptfunktionen: NewCLI, appendEnvDocs, versionHandler
package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/ollama/adaptor/api"
	"github.com/ollama/adaptor/envconfig"
	"github.com/ollama/adaptor/logutil"
	"github.com/ollama/adaptor/version"
)

// appendEnvDocs - Fuegt Umgebungsvariablen-Dokumentation zum Command hinzu
func appendEnvDocs(cmd *cobra.Command, envs []envconfig.EnvVar) {
	if len(envs) == 0 {
		return
	}

	envUsage := `
Environment Variables:
`
	for _, e := range envs {
		envUsage += fmt.Sprintf("      %-26s   %s\n", e.Name, e.Description)
	}

	cmd.SetUsageTemplate(cmd.UsageTemplate() + envUsage)
}

// versionHandler - Zeigt Client- und Server-Version an
func versionHandler(cmd *cobra.Command, _ []string) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return
	}

	serverVersion, err := client.Version(cmd.Context())
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Warning: could not connect to a running adaptor instance")
	}

	if serverVersion != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "adaptor version is %s\n", serverVersion)
	}

	if serverVersion != version.Version {
		fmt.Fprintf(cmd.OutOrStdout(), "Warning: client version is %s\n", version.Version)
	}
}

// NewCLI - Erstellt das Haupt-CLI mit allen Commands
func NewCLI() *cobra.Command {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "adaptor",
		Short:         "Cross-modal fusion adaptor for text and image encoders",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logutil.Install(os.Stderr, envconfig.LogLevel())
		},
		Run: func(cmd *cobra.Command, args []string) {
			if version, _ := cmd.Flags().GetBool("version"); version {
				versionHandler(cmd, args)
				return
			}

			cmd.Print(cmd.UsageString())
		},
	}

	rootCmd.Flags().BoolP("version", "v", false, "Show version information")

	serveCmd := newServeCmd()
	showCmd := newShowCmd()
	runCmd := newRunCmd()
	alignCmd := newAlignCmd()
	preprocessCmd := newPreprocessCmd()

	// Environment-Dokumentation hinzufuegen
	envVars := envconfig.AsMap()
	modelEnvs := []envconfig.EnvVar{
		envVars["ADAPTOR_VISION_MODEL_TYPE"],
		envVars["ADAPTOR_PROJECTION_DIM"],
		envVars["ADAPTOR_NUM_FUSION_LAYERS"],
		envVars["ADAPTOR_TEXT_EMBED_DIM"],
		envVars["ADAPTOR_VISION_OUTPUT_DIM"],
		envVars["ADAPTOR_NUM_THREADS"],
		envVars["ADAPTOR_SEED"],
	}

	for _, cmd := range []*cobra.Command{serveCmd, showCmd, runCmd, alignCmd, preprocessCmd} {
		switch cmd {
		case serveCmd:
			appendEnvDocs(cmd, append([]envconfig.EnvVar{
				envVars["ADAPTOR_DEBUG"],
				envVars["ADAPTOR_HOST"],
				envVars["ADAPTOR_ORIGINS"],
				envVars["ADAPTOR_BACKEND"],
				envVars["ADAPTOR_RETURN_LOSS"],
			}, modelEnvs...))
		case showCmd, runCmd:
			appendEnvDocs(cmd, modelEnvs)
		case alignCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{envVars["ADAPTOR_HOST"]})
		case preprocessCmd:
			appendEnvDocs(cmd, []envconfig.EnvVar{envVars["ADAPTOR_VISION_MODEL_TYPE"]})
		}
	}

	rootCmd.AddCommand(
		serveCmd,
		showCmd,
		runCmd,
		alignCmd,
		preprocessCmd,
	)

	return rootCmd
}
