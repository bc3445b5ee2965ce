package browser

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
)

// SystemLauncher opens the authorize URL in the operating system's default
// browser. The system browser cannot be closed programmatically, so its
// controller's Close is a no-op; desktop hosts end flows through the redirect
// callback or explicit cancellation.
type SystemLauncher struct{}

func (SystemLauncher) Open(ctx context.Context, authorizeURL string) (Controller, error) {
	name, args := openCommand(runtime.GOOS, authorizeURL)
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("browser: open system browser: %w", err)
	}
	return systemController{}, nil
}

func openCommand(goos, authorizeURL string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{authorizeURL}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", authorizeURL}
	default:
		return "xdg-open", []string{authorizeURL}
	}
}

type systemController struct{}

func (systemController) Close() {}

var _ Launcher = SystemLauncher{}
