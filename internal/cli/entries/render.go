package entries

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/perfassist/internal/cli"
	"github.com/julianstephens/perfassist/internal/datemath"
	"github.com/julianstephens/perfassist/internal/locale"
	"github.com/julianstephens/perfassist/internal/models"
	"github.com/julianstephens/perfassist/internal/richtext"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	weekStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dateStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

var kindLabels = map[models.Kind]string{
	models.KindPlan: "Plan",
	models.KindFact: "Fact",
}

// renderDay prints both slots of a date. Absent and blank slots render as
// placeholders.
func renderDay(ctx *cli.Context, d time.Time, pair models.DayPair, loc locale.Locale) {
	ctx.Println(dateStyle.Render(datemath.FormatHuman(d, loc)))
	for _, k := range models.Kinds {
		ctx.Printf("  %s\n", labelStyle.Render(kindLabels[k]+":"))
		e := pair.Get(k)
		text := ""
		if e != nil {
			text = richtext.PlainText(e.Text)
		}
		if text == "" {
			ctx.Printf("    %s\n", emptyStyle.Render(placeholder(e)))
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			ctx.Printf("    %s\n", line)
		}
	}
}

func placeholder(e *models.Entry) string {
	if e == nil {
		return "(no entry)"
	}
	return "(empty)"
}

func warn(ctx *cli.Context, msg string) {
	ctx.Println(warnStyle.Render(msg))
}
