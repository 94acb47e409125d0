package app

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/google/uuid"

	"yashubustudio/symptomchat/triage"
)

type uiState struct {
	assistant *triage.Assistant
	session   *triage.Session
	logger    *log.Logger

	w          fyne.Window
	transcript *fyne.Container
	scroll     *container.Scroll
	input      *widget.Entry
	statusBind binding.String

	sendBtn    *widget.Button
	restartBtn *widget.Button
	exportBtn  *widget.Button
}

func buildUI(win fyne.Window, assistant *triage.Assistant, logger *log.Logger, logBind binding.String) *uiState {
	u := &uiState{assistant: assistant, logger: logger, w: win}

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Ready")

	u.transcript = container.NewVBox()
	u.scroll = container.NewVScroll(u.transcript)
	u.scroll.SetMinSize(fyne.NewSize(600, 480))

	u.input = widget.NewEntry()
	u.input.SetPlaceHolder("Describe your symptoms and press Enter")
	u.input.OnSubmitted = func(string) { u.onSend() }

	u.sendBtn = widget.NewButtonWithIcon("Send", theme.MailSendIcon(), func() { u.onSend() })
	u.restartBtn = widget.NewButtonWithIcon("Start Over", theme.ViewRefreshIcon(), func() { u.onRestart() })
	u.exportBtn = widget.NewButtonWithIcon("Save Transcript", theme.DocumentSaveIcon(), func() { u.onExport() })
	settingsBtn := widget.NewButtonWithIcon("Settings", theme.SettingsIcon(), func() { u.openSettings() })

	logLabel := widget.NewLabelWithData(logBind)
	logLabel.Wrapping = fyne.TextWrapWord
	logScroll := container.NewVScroll(logLabel)
	logScroll.SetMinSize(fyne.NewSize(200, 100))

	inputRow := container.NewBorder(nil, nil, nil, u.sendBtn, u.input)
	controls := container.NewHBox(u.restartBtn, u.exportBtn, settingsBtn, widget.NewLabelWithData(u.statusBind))
	chat := container.NewBorder(nil, container.NewVBox(inputRow, controls), nil, nil, u.scroll)

	split := container.NewVSplit(chat, container.NewBorder(
		widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}), nil, nil, nil, logScroll))
	split.Offset = 0.8

	win.SetContent(split)
	u.startSession()
	win.Canvas().Focus(u.input)
	return u
}

func (u *uiState) startSession() {
	u.session = u.assistant.NewSession(uuid.NewString())
	u.renderHistory()
	u.logf("session %s started", u.session.ID)
}

func (u *uiState) renderHistory() {
	u.transcript.RemoveAll()
	for _, turn := range u.session.History() {
		u.transcript.Add(turnBubble(turn))
	}
	u.transcript.Refresh()
	u.scroll.ScrollToBottom()
}

func turnBubble(turn triage.Turn) fyne.CanvasObject {
	prefix := "**Assistant:** "
	if turn.Role == triage.RoleUser {
		prefix = "**You:** "
	}
	rt := widget.NewRichTextFromMarkdown(prefix + turn.Text)
	rt.Wrapping = fyne.TextWrapWord
	return rt
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		if b {
			u.sendBtn.Disable()
			u.restartBtn.Disable()
			u.input.Disable()
		} else {
			u.sendBtn.Enable()
			u.restartBtn.Enable()
			u.input.Enable()
			u.w.Canvas().Focus(u.input)
		}
	})
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) onSend() {
	text := u.input.Text
	u.input.SetText("")
	u.transcript.Add(turnBubble(triage.Turn{Role: triage.RoleUser, Text: text}))
	u.scroll.ScrollToBottom()
	u.setBusy(true)
	u.setStatus("Thinking...")

	sess := u.session
	go func() {
		start := time.Now()
		turn, reply, err := sess.SubmitUtterance(context.Background(), text)
		u.setBusy(false)
		if err != nil {
			u.logf("[ERROR] %v", err)
			u.setStatus("Error")
		} else if reply.Resolved {
			u.logf("recommended %s (%.2fs)", reply.Department, time.Since(start).Seconds())
			u.setStatus("Recommended " + reply.Department)
		} else {
			u.setStatus("Ready")
		}
		fyne.Do(func() {
			if sess != u.session {
				return
			}
			u.transcript.Add(turnBubble(turn))
			u.scroll.ScrollToBottom()
		})
	}()
}

func (u *uiState) onRestart() {
	u.session.Restart()
	u.renderHistory()
	u.setStatus("Ready")
	u.logf("session %s restarted", u.session.ID)
}

func (u *uiState) onExport() {
	rows := triage.HistoryRows(u.session.ID, u.session.History())
	if len(rows) == 0 {
		dialog.ShowInformation("Save Transcript", "Nothing to save yet", u.w)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if uc == nil {
			return
		}
		defer uc.Close()
		if err := triage.WriteTranscript(uc, rows); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logf("transcript saved to %s (%d rows)", uc.URI().Name(), len(rows))
	}, u.w)
	fd.SetFileName("transcript.csv")
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv"}))
	fd.Show()
}

var policyChoices = []struct {
	Label string
	Value triage.SeverityPolicy
}{
	{Label: "Mild / Moderate / Severe", Value: triage.PolicyStrict},
	{Label: "Any severity answer", Value: triage.PolicyPermissive},
	{Label: "Ask for pain type", Value: triage.PolicyPainType},
}

func (u *uiState) openSettings() {
	cfg := u.assistant.Config()

	labels := make([]string, len(policyChoices))
	active := policyChoices[0].Label
	for i, c := range policyChoices {
		labels[i] = c.Label
		if c.Value == cfg.SeverityPolicy {
			active = c.Label
		}
	}
	policySel := widget.NewSelect(labels, nil)
	policySel.SetSelected(active)

	altSel := widget.NewSelect([]string{"0", "1", "2", "3"}, nil)
	altSel.SetSelected(strconv.Itoa(cfg.Alternatives))

	guardCheck := widget.NewCheck("Reject repeated answers", nil)
	guardCheck.SetChecked(cfg.GuardDuplicates())

	form := &widget.Form{Items: []*widget.FormItem{
		{Text: "Last question", Widget: policySel},
		{Text: "Other departments", Widget: altSel},
		{Text: "Duplicates", Widget: guardCheck},
	}}

	dialog.NewCustomConfirm("Settings", "OK", "Cancel", form, func(ok bool) {
		if !ok {
			return
		}
		newCfg := cfg
		for _, c := range policyChoices {
			if c.Label == policySel.Selected {
				newCfg.SeverityPolicy = c.Value
			}
		}
		if v, err := strconv.Atoi(altSel.Selected); err == nil {
			newCfg.Alternatives = v
		}
		guard := guardCheck.Checked
		newCfg.DuplicateGuard = &guard

		applied, err := u.assistant.Reconfigure(newCfg)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if err := triage.SaveConfig(configFile, applied); err != nil {
			u.logf("save config: %v", err)
		}
		u.startSession()
		u.setStatus("Settings updated")
	}, u.w).Show()
}

func (u *uiState) logf(format string, args ...any) {
	if u.logger != nil {
		u.logger.Printf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
