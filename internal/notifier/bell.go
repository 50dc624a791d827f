package notifier

import (
	"context"
	"io"
	"os"

	"github.com/aleister1102/sitewatch/internal/models"
)

// BellNotifier rings the terminal bell
type BellNotifier struct {
	out io.Writer
}

// NewBellNotifier creates a bell writing to out, or to stdout when out is nil
func NewBellNotifier(out io.Writer) *BellNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &BellNotifier{out: out}
}

func (b *BellNotifier) Name() string { return "bell" }

func (b *BellNotifier) Remote() bool { return false }

// Notify writes the BEL control character
func (b *BellNotifier) Notify(context.Context, models.NotificationEvent) error {
	_, err := io.WriteString(b.out, "\a")
	return err
}
