package app

import (
	"context"
	"log/slog"
	"sync"

	"github.com/eiannone/keyboard"
)

// CommandKind enumerates the operator controls.
type CommandKind int

const (
	CommandQuit CommandKind = iota
	CommandPause
	CommandClear
	CommandWindowDown
	CommandWindowUp
	CommandCycleScheme
	CommandReloadCalibration
	CommandToggleChannel
	CommandShowAll
	CommandOrbitLeft
	CommandOrbitRight
	CommandOrbitUp
	CommandOrbitDown
	CommandZoomIn
	CommandZoomOut
	CommandResetCamera
)

// Command is one decoded operator key press.
type Command struct {
	Kind    CommandKind
	Channel int // CommandToggleChannel only
}

// StartKeys opens the keyboard and decodes key presses into commands
// until ctx is canceled. When no keyboard is available (no controlling
// terminal) it logs once and returns nil; selecting on a nil channel
// never fires, so the viewer simply runs without operator controls.
func StartKeys(ctx context.Context, logger *slog.Logger) <-chan Command {
	if err := keyboard.Open(); err != nil {
		logger.Warn("keyboard input disabled", slog.String("error", err.Error()))
		return nil
	}

	commands := make(chan Command, 16)

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(commands)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}

			cmd, ok := decodeKey(char, key)
			if !ok {
				continue
			}
			if cmd.Kind == CommandQuit {
				// Quit must not be shed, but the loop may already be
				// gone on a concurrent cancel.
				select {
				case commands <- cmd:
				case <-ctx.Done():
				}
				return
			}
			// Repeatable commands never block the reader; a full queue
			// just sheds the extra presses.
			select {
			case commands <- cmd:
			default:
			}
		}
	}()

	return commands
}

func decodeKey(char rune, key keyboard.Key) (Command, bool) {
	switch key {
	case keyboard.KeyEsc, keyboard.KeyCtrlC:
		return Command{Kind: CommandQuit}, true
	case keyboard.KeySpace:
		return Command{Kind: CommandPause}, true
	case keyboard.KeyArrowLeft:
		return Command{Kind: CommandOrbitLeft}, true
	case keyboard.KeyArrowRight:
		return Command{Kind: CommandOrbitRight}, true
	case keyboard.KeyArrowUp:
		return Command{Kind: CommandOrbitUp}, true
	case keyboard.KeyArrowDown:
		return Command{Kind: CommandOrbitDown}, true
	}

	switch char {
	case 'q', 'Q':
		return Command{Kind: CommandQuit}, true
	case ' ':
		return Command{Kind: CommandPause}, true
	case 'c', 'C':
		return Command{Kind: CommandClear}, true
	case '[':
		return Command{Kind: CommandWindowDown}, true
	case ']':
		return Command{Kind: CommandWindowUp}, true
	case 'l', 'L':
		return Command{Kind: CommandCycleScheme}, true
	case 'o', 'O':
		return Command{Kind: CommandReloadCalibration}, true
	case 'a', 'A':
		return Command{Kind: CommandShowAll}, true
	case '+', '=':
		return Command{Kind: CommandZoomIn}, true
	case '-', '_':
		return Command{Kind: CommandZoomOut}, true
	case 'r', 'R':
		return Command{Kind: CommandResetCamera}, true
	}

	if char >= '1' && char <= '9' {
		return Command{Kind: CommandToggleChannel, Channel: int(char - '1')}, true
	}
	return Command{}, false
}
