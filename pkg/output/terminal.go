package output

import (
	"errors"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/sdejongh/doccompare/pkg/models"
	"github.com/sdejongh/doccompare/pkg/render"
)

// TerminalWidth returns the width of w when it is a terminal, else render.DefaultWidth
func TerminalWidth(w io.Writer) int {
	if file, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return render.DefaultWidth
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// New creates the formatter named by format ("human" or "json")
func New(format string, w io.Writer, color bool) Formatter {
	if format == "json" {
		return NewJSONFormatter(w)
	}
	return NewHumanFormatter(w, render.NewTerminal(TerminalWidth(w), color && IsTerminal(w)))
}

// errorText is the user-facing text of an error
func errorText(err error) string {
	var svcErr *models.ServiceError
	var selErr *models.SelectionError
	switch {
	case errors.As(err, &svcErr), errors.As(err, &selErr),
		errors.Is(err, models.ErrUnauthenticated), errors.Is(err, models.ErrSelectExactlyTwo):
		return models.UserMessage(err)
	}
	return err.Error()
}
