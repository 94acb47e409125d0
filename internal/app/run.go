package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/symptomchat/triage"
)

const (
	fyneAppID  = "studio.yashubu.symptomchat"
	configFile = "config.json"
	logLimit   = 300
)

// Run loads the configuration and reference table and starts the desktop UI.
func Run() error {
	a := fyneapp.NewWithID(fyneAppID)
	win := a.NewWindow("Symptom Checker")
	win.Resize(fyne.NewSize(760, 820))

	logBind := binding.NewString()
	capture := newLogCapture(logBind, logLimit)
	logger := log.New(io.MultiWriter(os.Stdout, capture), "", log.LstdFlags)

	cfg, err := triage.LoadConfig(configFile)
	if err != nil {
		showFatalError(win, fmt.Errorf("load config: %w", err))
		return err
	}
	assistant, err := triage.NewAssistant(context.Background(), cfg, logger)
	if err != nil {
		logger.Printf("[ERROR] %v", err)
		showFatalError(win, fmt.Errorf("start assistant: %w", err))
		return err
	}
	defer assistant.Close()
	logger.Printf("reference table %s loaded (%d rows)", cfg.ReferencePath, assistant.Resolver().Size())

	u := buildUI(win, assistant, logger, logBind)
	u.w.ShowAndRun()
	return nil
}

func showFatalError(win fyne.Window, err error) {
	content := widget.NewLabel(err.Error())
	content.Wrapping = fyne.TextWrapWord
	win.SetContent(content)
	dialog.ShowError(err, win)
	win.ShowAndRun()
}
