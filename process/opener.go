package process

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/kbukum/greenscreen/logger"
)

// DefaultOpenTimeout bounds the launcher process.
const DefaultOpenTimeout = 10 * time.Second

// BrowserCommand returns the platform launcher that opens url in the
// default browser.
func BrowserCommand(url string) Command {
	switch runtime.GOOS {
	case "darwin":
		return Command{Binary: "open", Args: []string{url}}
	case "windows":
		return Command{Binary: "rundll32", Args: []string{"url.dll,FileProtocolHandler", url}}
	default:
		return Command{Binary: "xdg-open", Args: []string{url}}
	}
}

// Opener launches a command for a URL, by default the system browser.
type Opener struct {
	// Command builds the launcher; nil means BrowserCommand.
	Command func(url string) Command
	Timeout time.Duration
	Log     *logger.Logger
}

// Open runs the launcher for url and waits for it to exit.
func (o *Opener) Open(url string) error {
	build := o.Command
	if build == nil {
		build = BrowserCommand
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultOpenTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := build(url)
	res, err := Run(ctx, cmd)
	if err != nil {
		if res != nil && len(res.Stderr) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(res.Stderr)))
		}
		return err
	}
	if o.Log != nil {
		o.Log.Debug("opened url", logger.Fields(
			"url", url,
			"launcher", cmd.Binary,
			logger.FieldDuration, res.Duration.Milliseconds(),
		))
	}
	return nil
}
