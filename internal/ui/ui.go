// Package ui holds the terminal styling helpers shared by the commands.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// RenderAccent highlights identifiers like order codes and amounts.
func RenderAccent(s string) string { return accentStyle.Render(s) }

// RenderPass marks a successful or synced state.
func RenderPass(s string) string { return passStyle.Render(s) }

// RenderWarn marks offline or queued states.
func RenderWarn(s string) string { return warnStyle.Render(s) }

// RenderError marks failures.
func RenderError(s string) string { return errorStyle.Render(s) }

// RenderMuted de-emphasizes secondary detail.
func RenderMuted(s string) string { return mutedStyle.Render(s) }

// RenderHeader styles section and table headers.
func RenderHeader(s string) string { return headerStyle.Render(s) }
