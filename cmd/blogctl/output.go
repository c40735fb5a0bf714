package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/RaduPandor/Blog-Web-App/internal/models"
	"github.com/RaduPandor/Blog-Web-App/internal/service"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	rejectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	transientStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	warningStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// render writes v as JSON or YAML, or calls table for the table format.
func render(w io.Writer, format string, v any, table func(tw *tabwriter.Writer)) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatTable, "":
		if table == nil {
			return render(w, formatJSON, v, nil)
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func postsTable(posts []models.PostPreview) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tMODIFIED\tPREVIEW")
		for _, p := range posts {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Author, p.LastModifiedDate.Display(), p.ContentPreview)
		}
	}
}

func usersTable(users []models.UserAccount) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "ID\tUSERNAME\tDISPLAY NAME\tROLE")
		for _, u := range users {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName, u.Role)
		}
	}
}

func identityTable(id *models.Identity) func(*tabwriter.Writer) {
	return func(tw *tabwriter.Writer) {
		if id == nil {
			fmt.Fprintln(tw, dimStyle.Render("not signed in"))
			return
		}
		fmt.Fprintf(tw, "ID\t%s\n", id.ID)
		fmt.Fprintf(tw, "Username\t%s\n", id.UserName)
		fmt.Fprintf(tw, "Display name\t%s\n", id.DisplayName)
		fmt.Fprintf(tw, "Role\t%s\n", id.PrimaryRole())
	}
}

// formError is a failed post write as recorded in the coordinator's error
// slot.
type formError struct {
	failure service.Failure
}

func (e *formError) Error() string { return e.failure.Message }

func (e *formError) Unwrap() error { return e.failure.Err }

// mutationFailed returns err as the coordinator's slot entry when the slot
// holds this failure, so the banner shows the form message.
func mutationFailed(m *service.PostMutations, err error) error {
	f := m.LastFailure()
	if f == nil || !errors.Is(err, f.Err) {
		return err
	}
	return &formError{failure: *f}
}

func styled(severity models.Severity, msg string) string {
	switch severity {
	case models.SeverityTransient:
		return transientStyle.Render("retry later:") + " " + msg
	case models.SeverityWarning:
		return warningStyle.Render("warning:") + " " + msg
	default:
		return rejectedStyle.Render("error:") + " " + msg
	}
}

// errorBanner formats err for the terminal, colored by severity.
func errorBanner(err error) string {
	var fe *formError
	if errors.As(err, &fe) {
		msg := fe.failure.Message
		if detail := models.UserMessage(fe.failure.Err, ""); detail != "" && detail != msg {
			msg += " " + detail
		}
		return styled(fe.failure.Severity, msg)
	}
	if models.CodeOf(err) == "" {
		return rejectedStyle.Render("error:") + " " + err.Error()
	}
	return styled(models.SeverityOf(err), models.UserMessage(err, err.Error()))
}
