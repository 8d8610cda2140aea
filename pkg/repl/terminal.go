package repl

import (
	"errors"
	"fmt"
	"os"

	"github.com/peterh/liner"
)

// Terminal is a LineReader backed by a line editor with persistent
// history.
type Terminal struct {
	ln          *liner.State
	historyPath string
}

// NewTerminal opens the terminal and loads history from historyPath. An
// empty historyPath disables history.
func NewTerminal(historyPath string) (*Terminal, error) {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)

	t := &Terminal{ln: ln, historyPath: historyPath}
	if historyPath == "" {
		return t, nil
	}
	f, err := os.Open(historyPath)
	if errors.Is(err, os.ErrNotExist) {
		return t, nil
	}
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("opening history: %w", err)
	}
	defer f.Close()
	if _, err := ln.ReadHistory(f); err != nil {
		ln.Close()
		return nil, fmt.Errorf("reading history: %w", err)
	}
	return t, nil
}

func (t *Terminal) Prompt(prompt string) (string, error) {
	return t.ln.Prompt(prompt)
}

func (t *Terminal) AppendHistory(item string) {
	t.ln.AppendHistory(item)
}

// Close saves the history and restores the terminal.
func (t *Terminal) Close() error {
	var saveErr error
	if t.historyPath != "" {
		if f, err := os.Create(t.historyPath); err != nil {
			saveErr = fmt.Errorf("saving history: %w", err)
		} else {
			if _, err := t.ln.WriteHistory(f); err != nil {
				saveErr = fmt.Errorf("saving history: %w", err)
			}
			f.Close()
		}
	}
	if err := t.ln.Close(); err != nil {
		return err
	}
	return saveErr
}
