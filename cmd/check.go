// Package cmd implements the command-line interface for anilust.
package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/anilust-cli/anilust/color"
	"github.com/anilust-cli/anilust/constant"
	"github.com/anilust-cli/anilust/icon"
	"github.com/anilust-cli/anilust/key"
	"github.com/anilust-cli/anilust/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
)

// CheckDependencies verifies the availability of required system dependencies.
// The current implementation validates the presence of the configured playback
// binary in the system PATH.
func CheckDependencies() {
	player := viper.GetString(key.PlaybackPlayer)
	if player == "" {
		player = "mpv"
	}

	_, err := exec.LookPath(player)
	if err != nil {
		printMissingDependencyError(player)
		os.Exit(1)
	}
}

func printMissingDependencyError(dep string) {
	var installCmd string
	switch runtime.GOOS {
	case constant.Darwin:
		installCmd = "brew install " + dep
	case constant.Linux:
		installCmd = "sudo apt install " + dep
	case constant.Windows:
		installCmd = "scoop install " + dep
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(color.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(color.White).Render(fmt.Sprintf("The required dependency '%s' was not found in your PATH.", dep))

	suggestion := ""
	if installCmd != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(color.Cyan).Bold(true).Render(installCmd))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
