package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/checkout"
)

// FormResult is the outcome of validating a checkout form.
type FormResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// NewValidateCardFormCommand creates the validate-card-form command.
func NewValidateCardFormCommand() *cobra.Command {
	var (
		fields []string
		format string
	)

	cmd := &cobra.Command{
		Use:   "validate-card-form",
		Short: "Check a checkout form against the storefront rules",
		Long: `Validate contact and payment fields with the same rules the checkout
form applies. Fields not given are treated as empty.

Example:
  storefront validate-card-form --field email=jane@example.com --field cvv=123`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateCardForm(fields, format, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringArrayVar(&fields, "field", nil, "form field as name=value (repeatable)")
	cmd.Flags().StringVar(&format, "format", FormatTable, "output format (table|json)")

	return cmd
}

func runValidateCardForm(pairs []string, format string, w io.Writer) error {
	if format != FormatTable && format != FormatJSON {
		return WrapExitError(ExitCommandError, fmt.Sprintf("invalid format %q", format), nil)
	}

	var form checkout.Form
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return WrapExitError(ExitCommandError, fmt.Sprintf("field %q is not name=value", pair), nil)
		}
		field := checkout.Field(name)
		if !checkout.IsField(field) {
			return WrapExitError(ExitCommandError, fmt.Sprintf("unknown field %q", name), nil)
		}
		form.Set(field, value)
	}

	errs := checkout.ValidateForm(form)
	result := FormResult{Valid: len(errs) == 0}
	if !result.Valid {
		result.Errors = make(map[string]string, len(errs))
		for f, msg := range errs {
			result.Errors[string(f)] = msg
		}
	}

	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		for _, f := range checkout.Fields {
			status := "ok"
			if msg, bad := errs[f]; bad {
				status = msg
			}
			fmt.Fprintf(w, "%-11s %s\n", f, status)
		}
	}

	if !result.Valid {
		return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%d field(s) invalid", len(errs))}
	}
	return nil
}
