package notify

import (
	"fmt"
	"strings"

	"github.com/okian/pwnwatch/internal/domain/model"
	"github.com/okian/pwnwatch/internal/domain/ranking"
)

const fortressSuffix = "Cyber Attack Simulation"

// Message describes what a notification's member completed.
func Message(it model.NotificationItem) string {
	ev := it.Event
	var parts []string
	switch ev.Kind {
	case model.KindMachine:
		parts = []string{"Owned", strings.ToUpper(ev.SubType), ev.ObjectName, "machine"}
	case model.KindChallenge:
		parts = []string{"Owned", ev.ObjectName, ev.Category, "challenge"}
	case model.KindFortress:
		name := strings.TrimSpace(strings.Replace(ev.ObjectName, fortressSuffix, "", 1))
		parts = []string{"Owned", ev.FlagTitle, name, "fortress"}
	case model.KindEndgame:
		parts = []string{"Owned", ev.FlagTitle, ev.ObjectName, "endgame"}
	default:
		parts = []string{"Owned", ev.ObjectName, string(ev.Kind)}
	}
	return joinNonEmpty(parts)
}

// Headline is the one-line text of a notification.
func Headline(it model.NotificationItem) string {
	return it.MemberName + " " + Message(it)
}

func joinNonEmpty(parts []string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// Cell renders a value and its change; no change is written as (0).
func Cell(value, change int) string {
	if change == 0 {
		return fmt.Sprintf("%d (0)", value)
	}
	return fmt.Sprintf("%d (%+d)", value, change)
}

var (
	memberHeader = []string{"NAME", "RNK", "PNT", "USR", "SYS", "CHL", "FRT", "END", "PRO"}
	teamHeader   = []string{"RANK", "POINTS", "USER", "SYSTEM", "CHALLENGE", "RESPECTS"}
)

// RankingTable renders member deltas as a fixed-width table.
func RankingTable(members []ranking.Delta) string {
	rows := [][]string{memberHeader}
	for _, d := range members {
		c, ch := d.Current, d.Change
		rows = append(rows, []string{
			d.Name,
			Cell(c.Rank, ch.Rank),
			Cell(c.Points, ch.Points),
			Cell(c.UserOwns, ch.UserOwns),
			Cell(c.SystemOwns, ch.SystemOwns),
			Cell(c.ChallengeOwns, ch.ChallengeOwns),
			Cell(c.FortressOwns, ch.FortressOwns),
			Cell(c.EndgameOwns, ch.EndgameOwns),
			Cell(c.ProlabOwns, ch.ProlabOwns),
		})
	}
	return table(rows)
}

// TeamTable renders the team delta as a header and a value row.
func TeamTable(d ranking.Delta) string {
	c, ch := d.Current, d.Change
	return table([][]string{teamHeader, {
		Cell(c.Rank, ch.Rank),
		Cell(c.Points, ch.Points),
		Cell(c.UserOwns, ch.UserOwns),
		Cell(c.SystemOwns, ch.SystemOwns),
		Cell(c.ChallengeOwns, ch.ChallengeOwns),
		Cell(c.Respects, ch.Respects),
	}})
}

// SummaryText renders a whole summary as a code block.
func SummaryText(s ranking.Summary) string {
	var b strings.Builder
	b.WriteString("```\n")
	if s.Team != nil {
		name := s.Team.Name
		if name == "" {
			name = "TEAM"
		}
		fmt.Fprintf(&b, "%s\n%s\n", name, TeamTable(*s.Team))
	}
	if len(s.Members) > 0 {
		b.WriteString(RankingTable(s.Members))
		b.WriteString("\n")
	}
	b.WriteString("```")
	return b.String()
}

// table left-aligns every column, two spaces apart.
func table(rows [][]string) string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], len([]rune(cell)))
		}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		for i, cell := range row {
			b.WriteString(cell)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-len([]rune(cell))+2))
			}
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
