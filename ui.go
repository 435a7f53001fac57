// ui.go
package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jroimartin/gocui"

	"chatrelay/internal"
)

// ChatUI wraps the driver's plain line console in a gocui terminal:
// driver output lands in the messages view, input-view lines are fed
// to the driver as console input.
type ChatUI struct {
	gui        *gocui.Gui
	input      *io.PipeWriter
	msgView    string
	inputView  string
	statusView string
	showHelp   bool
	helpView   string
}

// RunWithUI runs the operator driver behind the terminal UI until the
// operator quits.
func RunWithUI(cfg internal.Config, activity *internal.ActivityLog) error {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return err
	}
	defer g.Close()

	pr, pw := io.Pipe()
	ui := &ChatUI{
		gui:        g,
		input:      pw,
		msgView:    "messages",
		inputView:  "input",
		statusView: "status",
		helpView:   "help",
	}

	g.SetManagerFunc(ui.layout)
	if err := ui.keybindings(); err != nil {
		return err
	}

	driver := internal.NewDriver(pr, &viewWriter{gui: g, view: ui.msgView}, cfg, activity)
	done := make(chan struct{})
	go func() {
		driver.Run()
		g.Update(func(*gocui.Gui) error {
			return gocui.ErrQuit
		})
		close(done)
	}()

	err = g.MainLoop()
	// Unblock the driver's console read so its goroutine can finish.
	pw.Close()
	<-done
	if err != nil && err != gocui.ErrQuit {
		return err
	}
	return nil
}

// viewWriter delivers driver console output into a gocui view.
type viewWriter struct {
	gui  *gocui.Gui
	view string

	mu  sync.Mutex
	buf strings.Builder
}

func (w *viewWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.buf.Write(p)
	w.mu.Unlock()
	w.gui.Update(func(g *gocui.Gui) error {
		v, err := g.View(w.view)
		if err != nil {
			return nil
		}
		w.mu.Lock()
		text := w.buf.String()
		w.buf.Reset()
		w.mu.Unlock()
		fmt.Fprint(v, text)
		return nil
	})
	return len(p), nil
}

func (ui *ChatUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	msgHeight := maxY - 5

	if v, err := g.SetView(ui.msgView, 0, 0, maxX-1, msgHeight); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Messages"
		v.Wrap = true
		v.Autoscroll = true
	}

	if v, err := g.SetView(ui.statusView, 0, msgHeight+1, maxX-1, msgHeight+3); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Status"
		v.Wrap = true
		fmt.Fprint(v, "Type a command and press Enter | Ctrl-C: quit | Ctrl-H: help")
	}

	if v, err := g.SetView(ui.inputView, 0, msgHeight+3, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "Input"
		v.Editable = true
		v.Wrap = true

		if _, err := g.SetCurrentView(ui.inputView); err != nil {
			return err
		}
	}

	if ui.showHelp {
		helpX1 := maxX / 6
		helpY1 := maxY / 6
		helpX2 := maxX * 5 / 6
		helpY2 := maxY * 5 / 6
		if v, err := g.SetView(ui.helpView, helpX1, helpY1, helpX2, helpY2); err != nil {
			if err != gocui.ErrUnknownView {
				return err
			}
			v.Title = "Help"
			internal.PrintHelp(v)
		}
	} else {
		g.DeleteView(ui.helpView)
	}

	return nil
}

func (ui *ChatUI) keybindings() error {
	if err := ui.gui.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone,
		func(*gocui.Gui, *gocui.View) error {
			return gocui.ErrQuit
		}); err != nil {
		return err
	}

	if err := ui.gui.SetKeybinding("", gocui.KeyCtrlH, gocui.ModNone,
		func(*gocui.Gui, *gocui.View) error {
			ui.showHelp = !ui.showHelp
			return nil
		}); err != nil {
		return err
	}

	if err := ui.gui.SetKeybinding(ui.inputView, gocui.KeyEnter, gocui.ModNone,
		ui.handleInput); err != nil {
		return err
	}

	return nil
}

func (ui *ChatUI) handleInput(_ *gocui.Gui, v *gocui.View) error {
	line := strings.TrimRight(v.Buffer(), "\n")
	v.Clear()
	v.SetCursor(0, 0)
	if strings.TrimSpace(line) == "" {
		return nil
	}

	// Feed the line to the driver without stalling the UI loop.
	go fmt.Fprintf(ui.input, "%s\n", line)
	return nil
}
