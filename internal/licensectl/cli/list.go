package cli

import (
	"time"

	"github.com/alekostrader/alkadmin/pkg/licensesdk"
	"github.com/spf13/cobra"
)

func (s *state) listCommand() *cobra.Command {
	var output, status string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List licenses",
		Long: `List every license in server order.

Status is derived locally: revoked when inactive, expired when past its expiry,
active otherwise. --status filters on it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}

			var want licensesdk.LicenseStatus
			if status != "" {
				var err error
				if want, err = licensesdk.ParseLicenseStatus(status); err != nil {
					return err
				}
			}

			if err := s.requireLogin(cmd); err != nil {
				return err
			}

			licenses, err := s.app.Session().GetAllLicenses(cmd.Context())
			if err != nil {
				return err
			}

			views := viewsOf(licenses, time.Now())
			if want != "" {
				filtered := views[:0]
				for _, v := range views {
					if v.Status == want {
						filtered = append(filtered, v)
					}
				}
				views = filtered
			}

			return renderLicenses(cmd.OutOrStdout(), output, views)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "only show active, expired or revoked licenses")
	outputFlag(cmd, &output)

	return cmd
}
