package hxnavecho

import (
	"context"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/pthm/hxnav"
)

// Flash levels for toast notifications.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash is a one-time toast shown after a dispatch.
//
// The dispatch handler adds an error flash for every loadError or
// transitionError event it collects, so a failed handler is visible even
// when the page has no listener for the HX-Trigger events.
type Flash struct {
	Level   string // success, error, warning, info
	Message string

	// State and TransitionID tie an error toast to the failed dispatch.
	// They render as data-state and data-transition-id when set.
	State        string
	TransitionID string
}

// flashFor builds the toast for a loadError or transitionError event.
func flashFor(ev hxnav.Event, message string) Flash {
	return Flash{
		Level:        FlashError,
		Message:      message,
		State:        ev.State,
		TransitionID: ev.TransitionID,
	}
}

// RenderFlashesOOB renders flashes as an out-of-band swap appending to the
// #toasts container. Returns "" for no flashes.
//
// data-auto-dismiss is the delay in milliseconds before the toast is removed
// client side.
func RenderFlashesOOB(flashes []Flash) string {
	if len(flashes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<div id="toasts" hx-swap-oob="beforeend">`)

	for _, f := range flashes {
		sb.WriteString(`<div class="toast toast-`)
		sb.WriteString(html.EscapeString(f.Level))
		sb.WriteString(`" data-auto-dismiss="3000"`)
		writeDataAttr(&sb, "data-state", f.State)
		writeDataAttr(&sb, "data-transition-id", f.TransitionID)
		sb.WriteString(`>`)
		sb.WriteString(html.EscapeString(f.Message))
		sb.WriteString(`</div>`)
	}

	sb.WriteString(`</div>`)
	return sb.String()
}

func writeDataAttr(sb *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	sb.WriteString(" ")
	sb.WriteString(name)
	sb.WriteString(`="`)
	sb.WriteString(html.EscapeString(value))
	sb.WriteString(`"`)
}

// ToastContainer returns the container flashes are swapped into. Put it in
// the layout, typically near the end of <body>:
//
//	@hxnavecho.ToastContainer()
func ToastContainer() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<div id="toasts" class="toast-container"></div>`)
		return err
	})
}
