package cli

import (
	"fmt"
	"time"

	"github.com/alekostrader/alkadmin/internal/licensectl/bulk"
	"github.com/alekostrader/alkadmin/pkg/licensesdk"
	"github.com/spf13/cobra"
)

type keyAction struct {
	use   string
	short string
	long  string
	call  func(*licensesdk.Session) bulk.Action
}

var (
	activateAction = keyAction{
		use:   "activate",
		short: "Activate licenses",
		long:  `Mark one or more licenses active.`,
		call:  func(s *licensesdk.Session) bulk.Action { return s.ActivateLicense },
	}

	deactivateAction = keyAction{
		use:   "deactivate",
		short: "Deactivate (revoke) licenses",
		long: `Mark one or more licenses inactive. The request is sent even when a
license is already inactive.`,
		call: func(s *licensesdk.Session) bulk.Action { return s.DeactivateLicense },
	}

	resetHardwareAction = keyAction{
		use:   "reset-hardware",
		short: "Reset the hardware binding of licenses",
		long: `Clear the device binding of one or more licenses so they can be activated
on new hardware.`,
		call: func(s *licensesdk.Session) bulk.Action { return s.ResetHardwareBinding },
	}
)

func (s *state) actionCommand(a keyAction) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   a.use + " <license key>...",
		Short: a.short,
		Long: a.long + `

Keys are processed one at a time at LICENSECTL_BULK_RATE requests per second.
A failure on one key does not stop the others; the command fails if any key
failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			keys := bulk.UniqueKeys(args)
			if len(keys) == 0 {
				return bulk.ErrNoKeys
			}
			if err := s.requireLogin(cmd); err != nil {
				return err
			}

			results := s.app.Bulk().Run(cmd.Context(), a.use, keys, a.call(s.app.Session()))

			if err := renderResults(cmd.OutOrStdout(), output, results, time.Now()); err != nil {
				return err
			}

			if failed := bulk.Failed(results); failed > 0 {
				return fmt.Errorf("%s failed for %d of %d licenses", a.use, failed, len(results))
			}
			return nil
		},
	}

	outputFlag(cmd, &output)
	return cmd
}
