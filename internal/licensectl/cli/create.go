package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alekostrader/alkadmin/pkg/licensesdk"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
)

type createInput struct {
	Tier   string `validate:"required,tier"`
	Email  string `validate:"required,email"`
	Months int    `validate:"gte=1,lte=1200"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("tier", func(fl validator.FieldLevel) bool {
		_, err := licensesdk.ParseTier(fl.Field().String())
		return err == nil
	})
	return v
}

func (s *state) createCommand() *cobra.Command {
	var (
		in     createInput
		output string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a license",
		Long: `Create a license for an owner. The expiry is the given number of calendar
months from now (UTC); a day that does not exist in the target month rolls over
into the next one.

Example:
  licensectl create --tier pro --email trader@example.com --months 12`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			if err := validateInput(in); err != nil {
				return err
			}
			if err := s.requireLogin(cmd); err != nil {
				return err
			}

			tier, _ := licensesdk.ParseTier(in.Tier)
			license, err := s.app.Session().CreateLicense(cmd.Context(), tier, in.Email, in.Months)
			if err != nil {
				return err
			}

			s.app.Logger().Info("license created",
				"license", licensesdk.MaskLicenseKey(license.LicenseKey),
				"tier", license.Tier,
			)

			return renderLicenses(cmd.OutOrStdout(), output, viewsOf([]licensesdk.License{*license}, time.Now()))
		},
	}

	cmd.Flags().StringVarP(&in.Tier, "tier", "t", "", "license tier: trader, pro or enterprise")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "owner email")
	cmd.Flags().IntVarP(&in.Months, "months", "m", 12, "duration in calendar months")
	outputFlag(cmd, &output)

	return cmd
}

func validateInput(in createInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatValidationError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatValidationError(fe validator.FieldError) string {
	flag := strings.ToLower(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("--%s is required", flag)
	case "tier":
		return fmt.Sprintf("--%s must be trader, pro or enterprise, got %q", flag, fe.Value())
	case "email":
		return fmt.Sprintf("--%s must be a valid email address, got %q", flag, fe.Value())
	case "gte", "lte":
		return fmt.Sprintf("--%s must be between 1 and 1200, got %v", flag, fe.Value())
	default:
		return fmt.Sprintf("--%s is invalid", flag)
	}
}
