package cli

import (
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/buger/goterm"
	"github.com/fatih/color"
)

var (
	// Colors for different types of output
	titleColor     = color.New(color.FgMagenta, color.Bold) // Bold magenta for titles
	separatorColor = color.New(color.FgHiBlack)             // Dark grey for separators
	infoColor      = color.New(color.FgCyan)                // Cyan for informational output
	successColor   = color.New(color.FgGreen)               // Green for success messages
	errorColor     = color.New(color.FgRed, color.Bold)     // Bold red for errors
	mutedColor     = color.New(color.FgHiBlack)             // Dark grey for secondary text

	width = goterm.Width()
)

// Separator printed to cli.
func Separator() {
	separator := strings.Repeat("-", width)
	separatorColor.Println(separator)
}

// Title printed to cli.
func Title(text string, args ...any) {
	titleColor.Printf(text+"\n", args...)
}

// Info printed to cli.
func Info(text string, args ...any) {
	infoColor.Printf(text+"\n", args...)
}

// Success printed to cli.
func Success(text string, args ...any) {
	successColor.Printf(text+"\n", args...)
}

// Error printed to cli.
func Error(text string, args ...any) {
	errorColor.Printf(text+"\n", args...)
}

// Muted printed to cli.
func Muted(text string, args ...any) {
	mutedColor.Printf(text+"\n", args...)
}

// PromptInput asks the user for a single line of input.
func PromptInput(label string) (string, error) {
	var value string
	err := survey.AskOne(&survey.Input{Message: label}, &value, survey.WithValidator(survey.Required))
	return value, err
}

// PromptPassword asks the user for a password without echoing it.
func PromptPassword(label string) (string, error) {
	var value string
	err := survey.AskOne(&survey.Password{Message: label}, &value, survey.WithValidator(survey.Required))
	return value, err
}

// QueryUser a yes/no question.
func QueryUser(question string) bool {
	surveyQuestion := &survey.Confirm{
		Message: question,
	}
	confirm := false
	survey.AskOne(surveyQuestion, &confirm)
	return confirm
}
