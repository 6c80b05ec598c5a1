package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ProbeResult is the output of the probe command.
type ProbeResult struct {
	Online bool   `json:"online"`
	Target string `json:"target"`
}

// NewProbeCommand creates the probe command.
func NewProbeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check backend reachability",
		Long: `Run the connectivity probe once and report online or offline.
Exits with status 1 when offline.

Example:
  offsync probe`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(rootOpts, cmd)
		},
	}
	return cmd
}

func runProbe(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer a.Close()

	probeErr := a.prober.Probe(cmd.Context())
	res := ProbeResult{Online: probeErr == nil, Target: a.cfg.Probe.Target}

	formatter := newFormatter(opts, cmd)
	if err := formatter.Emit(res, func(w io.Writer) {
		if res.Online {
			fmt.Fprintf(w, "%s (%s)\n", okColor.Sprint("online"), res.Target)
			return
		}
		fmt.Fprintf(w, "%s (%s)\n", failColor.Sprint("offline"), res.Target)
	}); err != nil {
		return err
	}
	if probeErr != nil {
		formatter.VerboseLog("probe error: %v", probeErr)
	}

	if !res.Online {
		return NewExitError(ExitFailure, "backend unreachable")
	}
	return nil
}
