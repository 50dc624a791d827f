package monitor

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/progress"
)

const stopPrompt = "Exit the app? (Y/N): "

// askStop prompts until the operator answers yes or no. There is no timeout;
// only a closed input or a cancelled ctx ends the wait.
func askStop(ctx context.Context, s *progress.Session) (bool, error) {
	for {
		s.Print(s.Styles().Prompt.Render(stopPrompt))

		line, err := s.ReadLine(ctx)
		if err != nil {
			s.Println("")
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return false, common.ErrInputClosed
			}
			return false, common.WrapError(err, "reading operator answer")
		}

		if stop, ok := parseAnswer(line); ok {
			return stop, nil
		}
	}
}

// parseAnswer maps y/yes to stop and n/no to continue, case-insensitively
func parseAnswer(line string) (stop bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, true
	case "n", "no":
		return false, true
	default:
		return false, false
	}
}
