package app

import (
	"bufio"
	"context"
	"errors"
	"strings"

	"github.com/dshills/keyscope/internal/command"
	"github.com/dshills/keyscope/internal/key"
	"github.com/dshills/keyscope/internal/keymap"
	"github.com/dshills/keyscope/internal/watcher"
)

// eventLoop serves input lines and watcher events until the input ends,
// the client quits or ctx is done.
func (app *Application) eventLoop(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go app.readInput(lines, readErr)

	var events <-chan watcher.Event
	if app.watcher != nil {
		events = app.watcher.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-app.ctx.Done():
			return nil
		case err := <-readErr:
			return err
		case line := <-lines:
			if err := app.handleLine(line); err != nil {
				if errors.Is(err, command.ErrQuit) {
					return nil
				}
				return err
			}
		case ev := <-events:
			if err := app.handleWatchEvent(ev); errors.Is(err, command.ErrQuit) {
				return nil
			}
		}
	}
}

// readInput feeds lines until the input ends. The goroutine may outlive
// the loop while blocked in a read.
func (app *Application) readInput(lines chan<- string, readErr chan<- error) {
	scanner := bufio.NewScanner(app.opts.Input)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-app.ctx.Done():
			return
		}
	}
	readErr <- scanner.Err()
}

// handleLine answers a pending menu or executes line as commands.
func (app *Application) handleLine(line string) error {
	h := app.client.Context().InputHandler()
	if h.Mode() == keymap.ModeMenu {
		index, ok := app.ui.menuChoice(line)
		if !ok {
			return app.feed(h.HandleKey, key.Escape)
		}
		var keys []key.Key
		for i := app.ui.selected; i < index; i++ {
			keys = append(keys, key.Tab)
		}
		for i := app.ui.selected; i > index; i-- {
			keys = append(keys, key.Up)
		}
		return app.feed(h.HandleKey, append(keys, key.Return)...)
	}

	if strings.TrimSpace(line) == "" {
		return nil
	}
	return app.execute(line)
}

func (app *Application) feed(handle func(key.Key) error, keys ...key.Key) error {
	for _, k := range keys {
		if err := handle(k); err != nil {
			return app.report("", err)
		}
	}
	return app.redraw()
}

// execute runs text in the client context. Failures are reported to the
// client; only control signals are returned.
func (app *Application) execute(text string) error {
	err := app.commands.Evaluate(app.client.Context(), text)
	if err != nil {
		return app.report(text, err)
	}
	return app.redraw()
}

func (app *Application) report(text string, err error) error {
	if command.IsControlSignal(err) {
		return err
	}
	app.logger.WithComponent("app").Warn("command failed", "command", text, "err", err)
	app.client.Context().PrintStatus(err.Error(), "Error")
	return nil
}

func (app *Application) redraw() error {
	if err := app.client.Redraw(); err != nil {
		return app.report("", err)
	}
	return nil
}

// handleWatchEvent re-sources a changed rc file.
func (app *Application) handleWatchEvent(ev watcher.Event) error {
	log := app.logger.WithComponent("app")
	if ev.Op&watcher.OpRemove != 0 {
		log.Info("rc file removed", "path", ev.Path)
		return nil
	}
	log.Info("reloading rc file", "path", ev.Path)
	return app.execute("source " + quote(ev.Path))
}
