package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/harun/browseragent/pkg/llm"
	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List supported model providers",
	Long: `List the model providers LLM_PROVIDER accepts, with their default model and
the environment variable that must hold the credential.`,
	Args: cobra.NoArgs,
	RunE: runProviders,
}

func init() {
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tNAME\tDEFAULT MODEL\tCREDENTIAL")
	for _, info := range llm.SupportedProviders() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Provider, info.Label, info.DefaultModel, info.KeyEnv)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nDefault provider: %s (set %s)\n", llm.DefaultProvider, llm.EnvProvider)
	fmt.Fprintf(out, "Azure also needs %s and %s; %s defaults to %s\n",
		llm.EnvAzureEndpoint, llm.EnvAzureDeployment, llm.EnvAzureAPIVersion, llm.DefaultAzureAPIVersion)
	return nil
}
