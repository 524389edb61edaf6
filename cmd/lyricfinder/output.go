package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"lyricfinder/internal/lyrics"
	"lyricfinder/internal/pipeline"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const statusLabelWidth = 20

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", statusText)
	if !colorize {
		return base
	}
	c := statusKindColor(kind)
	c.EnableColor()
	return c.Sprint(base)
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) *color.Color {
	switch kind {
	case statusOK:
		return color.New(color.FgGreen)
	case statusWarn:
		return color.New(color.FgYellow)
	case statusError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgBlue)
	}
}

func stateKind(s pipeline.State) statusKind {
	switch s {
	case pipeline.StateFound:
		return statusOK
	case pipeline.StateChoices:
		return statusWarn
	case pipeline.StateNotFound, pipeline.StateError:
		return statusError
	default:
		return statusInfo
	}
}

// printOutcome writes a short report of a lookup cycle.
func printOutcome(w io.Writer, out pipeline.Outcome, colorize bool) {
	track := "-"
	if out.Track.Title != "" {
		track = out.Track.String()
	}
	fmt.Fprintln(w, renderStatusLine("Track", statusInfo, track, colorize))

	message := ""
	switch out.State {
	case pipeline.StateFound:
		message = fmt.Sprintf("%s (%s)", out.Candidate.Source, out.Candidate.URI)
	case pipeline.StateChoices:
		message = fmt.Sprintf("%d candidates, rerun with --pick <uri>", len(out.Ranked))
	}
	if out.Err != nil {
		message = out.Err.Error()
	}
	fmt.Fprintln(w, renderStatusLine("Lyrics", stateKind(out.State), strings.TrimSpace(string(out.State)+" "+message), colorize))

	if len(out.Failed) > 0 {
		fmt.Fprintln(w, renderStatusLine("Unavailable", statusWarn, strings.Join(out.Failed, ", "), colorize))
	}

	if len(out.Ranked) > 0 && out.State != pipeline.StateFound {
		fmt.Fprintln(w, renderCandidates(out.Ranked))
	}
}

func renderCandidates(ranked lyrics.Ranked) string {
	rows := make([][]string, len(ranked))
	for i, c := range ranked {
		rows[i] = []string{
			fmt.Sprintf("%d", i+1),
			c.Source,
			c.Artist,
			c.Title,
			c.Tier().String(),
			fmt.Sprintf("%.2f", c.Score),
			c.URI,
		}
	}
	return renderTable(
		[]string{"#", "Source", "Artist", "Title", "Match", "Score", "URI"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
