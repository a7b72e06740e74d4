// Command greenscreen runs the virtual greenscreen filter on still images
// using the software host, and inspects the configured providers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/greenscreen/filter"
	"github.com/kbukum/greenscreen/logger"
	"github.com/kbukum/greenscreen/process"
	"github.com/kbukum/greenscreen/version"
)

type rootFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "greenscreen",
		Short:         "Virtual greenscreen filter",
		Long:          "Replaces the background of video frames using a segmentation provider.",
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file (default: search ./config.yml, ./config/config.yml)")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file loaded before the config")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newRunCommand(flags),
		newProbeCommand(flags),
		newManualCommand(flags),
		newVersionCommand(),
	)
	return root
}

func newProbeCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Probe every registered provider and print its availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}
			return a.runTask(cmd.Context(), func(ctx context.Context) error {
				a.providerTable()
				fmt.Fprintln(a.out)
				a.summary(ctx)
				if !a.factory.Registered() {
					return fmt.Errorf("no provider available")
				}
				return nil
			})
		},
	}
}

func newManualCommand(flags *rootFlags) *cobra.Command {
	var open bool
	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Print the filter manual URL, or open it in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opener filter.Opener
			if open {
				opener = (&process.Opener{Log: logger.WithComponent("opener")}).Open
			}
			a, err := newApp(cmd.Context(), flags, cmd.OutOrStdout(), opener)
			if err != nil {
				return err
			}
			defer a.telemetry.Shutdown(context.Background())
			return a.factory.OpenManual()
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "open the manual in the default browser")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
		},
	}
}
