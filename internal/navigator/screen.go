package navigator

// Button is one labelled choice.
type Button struct {
	Label string
	Token string
}

// Screen is what the transport renders: a text body and rows of buttons.
// A Screen with only a Notice acknowledges the press without redrawing.
type Screen struct {
	Text     string
	Keyboard [][]Button
	// Notice is a short popup shown with the callback answer.
	Notice string
	// Markdown marks Text as Telegram legacy Markdown.
	Markdown bool
}

// Buttons flattens the keyboard in display order.
func (s Screen) Buttons() []Button {
	var out []Button
	for _, row := range s.Keyboard {
		out = append(out, row...)
	}
	return out
}

// NoticeOnly reports whether the screen leaves the current message as is.
func (s Screen) NoticeOnly() bool {
	return s.Text == "" && len(s.Keyboard) == 0
}

func button(label string, a Action) Button {
	return Button{Label: label, Token: a.Token()}
}

func row(buttons ...Button) []Button { return buttons }

func mainMenuRow() []Button {
	return row(button(btnMainMenu, MainMenu{}))
}

func AccessDeniedScreen() Screen {
	return Screen{
		Text:     txtAccessDenied,
		Keyboard: [][]Button{row(button(btnBackToMainMenu, MainMenu{}))},
	}
}

func InvalidActionScreen() Screen {
	return Screen{Text: txtInvalidAction, Keyboard: [][]Button{mainMenuRow()}}
}

func FailureScreen() Screen {
	return Screen{Text: txtFailure, Keyboard: [][]Button{mainMenuRow()}}
}
