//go:build linux

package executor

import (
	"errors"
	"os"
	"slices"
	"strings"

	"github.com/genricoloni/walltz/internal/domain"
	"go.uber.org/zap"
)

// Ordered list of wallpaper commands to try (highest priority first)
var wallpaperCommands = []Command{
	// Hyprland - swww (recommended)
	{Name: "swww", Program: "swww", Args: []string{"img", PathToken}},
	// Hyprland - hyprpaper, empty monitor name means all monitors
	{Name: "hyprpaper", Program: "hyprctl", Args: []string{"hyprpaper", "wallpaper", PathToken}, PathPrefix: ","},
	// swaybg (Sway/Wayland)
	{Name: "swaybg", Program: "swaybg", Args: []string{"-i", PathToken, "-m", "fill"}},
	// GNOME (dark theme)
	{Name: "gnome", Program: "gsettings", Args: []string{"set", "org.gnome.desktop.background", "picture-uri-dark", PathToken}, PathPrefix: "file://"},
	// Generic X11 - feh
	{Name: "feh", Program: "feh", Args: []string{"--bg-fill", PathToken}},
	// Generic X11 - nitrogen
	{Name: "nitrogen", Program: "nitrogen", Args: []string{"--set-zoom-fill", PathToken}},
}

// detectCommand analyzes the environment to choose the best wallpaper command
func detectCommand(logger *zap.Logger) (Command, error) {
	desktop := os.Getenv("XDG_CURRENT_DESKTOP")
	session := os.Getenv("XDG_SESSION_TYPE")
	wayland := os.Getenv("WAYLAND_DISPLAY")
	hyprland := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")

	logger.Debug("Detecting wallpaper command",
		zap.String("desktop", desktop),
		zap.String("session", session),
		zap.String("wayland", wayland),
		zap.String("hyprland", hyprland))

	var preferred []string
	switch {
	case hyprland != "":
		preferred = []string{"swww", "hyprpaper"}
	case strings.Contains(strings.ToLower(desktop), "gnome"):
		preferred = []string{"gnome"}
	case wayland != "" || session == "wayland":
		preferred = []string{"swww", "swaybg"}
	}

	for _, cmd := range wallpaperCommands {
		if slices.Contains(preferred, cmd.Name) && commandExists(cmd.Program) {
			return cmd, nil
		}
	}

	// Fallback: try all commands in order
	for _, cmd := range wallpaperCommands {
		if commandExists(cmd.Program) {
			logger.Debug("Using fallback wallpaper command", zap.String("name", cmd.Name))
			return cmd, nil
		}
	}

	return Command{}, domain.E(domain.KindConfig, "executor.detect", errors.New("no supported wallpaper command found on this system"))
}

