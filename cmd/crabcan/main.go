package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/austinnorris/crabcan/internal/crabcan"
	"github.com/austinnorris/crabcan/internal/crablog"
)

var (
	flagDebug    bool
	flagCommand  string
	flagUID      uint32
	flagMount    string
	flagHostname string
	flagAdd      []string
)

func main() {
	// The re-exec'd child process is detected before cobra ever sees the
	// argument list: it carries crabcan.ChildMagic as its first argument,
	// which is not a flag cobra would know what to do with.
	if len(os.Args) > 1 && os.Args[1] == crabcan.ChildMagic {
		os.Exit(crabcan.RunChild())
	}

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "crabcan",
		Short:         "crabcan launches a command inside a minimal Linux container",
		SilenceUsage:  false,
		SilenceErrors: true,
		RunE:          runLaunch,
	}

	// cobra auto-registers a --help flag with shorthand -h unless one
	// already exists; spec.md §6 claims -h for --hostname, so we claim
	// "help" ourselves first, with no shorthand, to avoid the collision.
	cmd.Flags().Bool("help", false, "help for crabcan")

	cmd.Flags().BoolVarP(&flagDebug, "debug", "d", false, "debug log level")
	cmd.Flags().StringVarP(&flagCommand, "command", "c", "", "command to run inside the container")
	cmd.Flags().Uint32VarP(&flagUID, "uid", "u", 0, "target uid/gid inside the container")
	cmd.Flags().StringVarP(&flagMount, "mount", "m", "", "directory to become the container root")
	cmd.Flags().StringVarP(&flagHostname, "hostname", "h", "", "container hostname (random if unset)")
	cmd.Flags().StringArrayVarP(&flagAdd, "add", "a", nil, "HOST_PATH:CONTAINER_PATH bind mount, repeatable")

	cmd.MarkFlagRequired("command")
	cmd.MarkFlagRequired("uid")
	cmd.MarkFlagRequired("mount")

	return cmd
}

func runLaunch(cmd *cobra.Command, args []string) error {
	crablog.Init(flagDebug)

	container, err := crabcan.NewContainer(flagCommand, int(flagUID), flagMount, flagHostname, flagAdd)
	if err != nil {
		crablog.Error("%v", err)
		return fmt.Errorf("%v", err)
	}

	if err := container.Run(); err != nil {
		crablog.Error("%v", err)
		return fmt.Errorf("%v", err)
	}
	return nil
}
