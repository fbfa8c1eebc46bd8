package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alekostrader/alkadmin/internal/licensectl/bulk"
	"github.com/alekostrader/alkadmin/pkg/licensesdk"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// licenseView is a License with its derived status, as printed by the CLI.
type licenseView struct {
	licensesdk.License
	Status licensesdk.LicenseStatus `json:"status"`
}

func viewsOf(licenses []licensesdk.License, now time.Time) []licenseView {
	views := make([]licenseView, 0, len(licenses))
	for _, l := range licenses {
		views = append(views, licenseView{License: l, Status: l.Status(now)})
	}
	return views
}

var licenseHeader = table.Row{
	"License Key",
	"Tier",
	"Owner",
	"Expires",
	"Status",
}

func renderLicenses(w io.Writer, format string, views []licenseView) error {
	if format == OutputJSON {
		return writeJSON(w, views)
	}

	t := newTable(w)
	t.AppendHeader(licenseHeader)
	for _, v := range views {
		t.AppendRow(table.Row{
			v.LicenseKey,
			v.Tier,
			v.OwnerEmail,
			formatExpiry(v.ExpiresAt),
			statusText(v.Status),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(views)})
	t.Render()
	return nil
}

var resultHeader = table.Row{
	"License Key",
	"Result",
	"Status",
}

type resultView struct {
	LicenseKey string                   `json:"licenseKey"`
	OK         bool                     `json:"ok"`
	Error      string                   `json:"error,omitempty"`
	Status     licensesdk.LicenseStatus `json:"status,omitempty"`
}

func renderResults(w io.Writer, format string, results []bulk.Result, now time.Time) error {
	views := make([]resultView, 0, len(results))
	for _, res := range results {
		v := resultView{LicenseKey: res.Key, OK: res.Err == nil}
		if res.Err != nil {
			v.Error = res.Err.Error()
		} else if res.License != nil {
			v.Status = res.License.Status(now)
		}
		views = append(views, v)
	}

	if format == OutputJSON {
		return writeJSON(w, views)
	}

	t := newTable(w)
	t.AppendHeader(resultHeader)
	for _, v := range views {
		result := text.FgGreen.Sprint("ok")
		if !v.OK {
			result = text.FgRed.Sprint(v.Error)
		}
		t.AppendRow(table.Row{v.LicenseKey, result, statusText(v.Status)})
	}
	t.Render()
	return nil
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.Style().Format.Footer = text.FormatDefault
	return t
}

func statusText(st licensesdk.LicenseStatus) string {
	switch st {
	case licensesdk.StatusActive:
		return text.FgGreen.Sprint(st)
	case licensesdk.StatusExpired:
		return text.FgYellow.Sprint(st)
	case licensesdk.StatusRevoked:
		return text.FgRed.Sprint(st)
	default:
		return string(st)
	}
}

func formatExpiry(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.DateOnly)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
