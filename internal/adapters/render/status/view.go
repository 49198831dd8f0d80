package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/nodekeeper/internal/application"
	"github.com/bnema/nodekeeper/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

type RenderOptions struct {
	Now time.Time
	// StaleAfter marks a session whose last ping is older than this.
	StaleAfter time.Duration
}

func renderSessions(statuses []application.SessionStatus, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Node Sessions"),
		s.header.Render(fmt.Sprintf("nodes: %d", len(statuses))),
	}

	if len(statuses) == 0 {
		lines = append(lines, s.empty.Render("No sessions were started."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, status := range statuses {
		lines = append(lines, s.section.Render(renderSession(status, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderSession(status application.SessionStatus, opts RenderOptions, s styles) string {
	state := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.key.Render("state:"),
		" ",
		connectionStyle(status.Connection, s).Render(status.Connection.String()),
		s.detail.Render(fmt.Sprintf("  phase: %s  retries: %d", status.Phase, status.Retries)),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		s.node.Render(nodeTitle(status.NodeID, status.IPAddress)),
		s.detail.Render(fmt.Sprintf("user: %s  proxy: %s", valueOrNA(status.UserID), status.ProxyKind)),
		state,
		lastPingLine(status, opts, s),
	)
}

func lastPingLine(status application.SessionStatus, opts RenderOptions, s styles) string {
	label := s.key.Render("last ping:")
	if status.LastPingAt.IsZero() {
		return label + " " + s.empty.Render("never")
	}

	when := status.LastPingAt.Format(time.RFC3339)
	if !opts.Now.IsZero() {
		when = formatAge(opts.Now.Sub(status.LastPingAt))
	}

	line := lipgloss.JoinHorizontal(
		lipgloss.Top,
		label,
		" ",
		lipgloss.NewStyle().Foreground(ageColor(status.LastPingAt, opts)).Render(when),
		" ",
		s.detail.Render(fmt.Sprintf("(%s)", status.LastOutcome)),
	)

	if !opts.Now.IsZero() && opts.StaleAfter > 0 && opts.Now.Sub(status.LastPingAt) > opts.StaleAfter {
		line += " " + s.warning.Render("[stale]")
	}

	return line
}

func renderAccounts(accounts []application.AccountView, s styles) string {
	lines := []string{
		s.title.Render("Node Accounts"),
		s.header.Render(fmt.Sprintf("accounts: %d", len(accounts))),
	}

	if len(accounts) == 0 {
		lines = append(lines, s.empty.Render("No accounts configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, account := range accounts {
		parts := []string{
			s.node.Render(accountTitle(account)),
			s.detail.Render(fmt.Sprintf("hardware: %s  token: %s", account.HardwareID, account.MaskedToken)),
			s.detail.Render(fmt.Sprintf("user: %s  proxy: %s", valueOrNA(account.UserID), account.ProxyKind)),
		}
		if account.Problem != "" {
			parts = append(parts, s.warning.Render("problem: "+account.Problem))
		}
		lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderProbe(results []application.ProbeResult, s styles) string {
	lines := []string{
		s.title.Render("Node Registration"),
		s.header.Render(fmt.Sprintf("nodes: %d", len(results))),
	}

	for _, result := range results {
		var verdict string
		switch {
		case result.Err != nil:
			verdict = s.loggedOut.Render("error: " + result.Err.Error())
		case result.Registered:
			verdict = s.connected.Render("registered")
		default:
			verdict = s.disconnected.Render("not registered")
		}

		lines = append(lines, lipgloss.JoinHorizontal(
			lipgloss.Top,
			s.node.Render(nodeTitle(result.NodeID, result.IPAddress)),
			"  ",
			verdict,
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func nodeTitle(id domain.NodeID, ip string) string {
	if ip == "" {
		return fmt.Sprintf("%s (no proxy)", id.Short())
	}
	return fmt.Sprintf("%s (%s)", id.Short(), ip)
}

func accountTitle(account application.AccountView) string {
	name := strings.TrimSpace(account.Name)
	if name == "" {
		return nodeTitle(account.NodeID, account.IPAddress)
	}
	return fmt.Sprintf("%s: %s", name, nodeTitle(account.NodeID, account.IPAddress))
}

func connectionStyle(state domain.ConnectionState, s styles) lipgloss.Style {
	switch state {
	case domain.ConnectionConnected:
		return s.connected
	case domain.ConnectionDisconnected:
		return s.disconnected
	default:
		return s.loggedOut
	}
}

func valueOrNA(v string) string {
	if v == "" {
		return "n/a"
	}
	return v
}

func formatAge(age time.Duration) string {
	if age < 0 {
		age = 0
	}

	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	default:
		hours := int(math.Floor(age.Hours()))
		return fmt.Sprintf("%dh%02dm ago", hours, int(age.Minutes())%60)
	}
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// ANSI 256 greyscale ramp, 240 faded to 255 bright.
	baseColor := 240.0
	targetColor := 255.0
	colorCode := int(baseColor + (targetColor-baseColor)*normalized)

	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}

// ageColor fades from bright for a fresh ping to grey at StaleAfter.
func ageColor(lastPing time.Time, opts RenderOptions) lipgloss.Color {
	if opts.Now.IsZero() || opts.StaleAfter <= 0 {
		return lipgloss.Color("255")
	}

	remaining := opts.StaleAfter.Seconds() - opts.Now.Sub(lastPing).Seconds()
	return interpolateColor(remaining, 0, opts.StaleAfter.Seconds())
}
