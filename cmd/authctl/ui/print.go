package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/redmonkez12/signup-api/internal/user"
)

// PrintUser prints the fields of a user view. The session token is never shown.
func PrintUser(w io.Writer, title string, v *user.View) {
	fmt.Fprintln(w, headerStyle.Render(title))
	row(w, "Username", v.Username)
	row(w, "Name", v.FirstName+" "+v.LastName)
	row(w, "Email", v.Email)
	if v.IsConfirmed {
		row(w, "Status", confirmedBadge.Render("✓ confirmed"))
	} else {
		row(w, "Status", pendingBadge.Render("… awaiting email confirmation"))
	}
	if !v.CreatedAt.IsZero() {
		row(w, "Joined", v.CreatedAt.Local().Format(time.RFC1123))
	}
	fmt.Fprintln(w)
}

func PrintSuccess(w io.Writer, msg string) {
	fmt.Fprintln(w, okStyle.Render("✓ "+msg))
}

func PrintHint(w io.Writer, msg string) {
	fmt.Fprintln(w, hintStyle.Render(msg))
}

func PrintError(w io.Writer, msg string) {
	fmt.Fprintln(w, failStyle.Render("✗ "+msg))
}

func row(w io.Writer, label, value string) {
	fmt.Fprintln(w, fieldStyle.Render(label)+value)
}
