// Package report renders journey plans as plain-text console reports.
package report

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/homescout/homescout/internal/transit"
)

const ruleWidth = 80

// Journeys writes every journey of plan to w. Times are shown in loc
// (UTC when nil).
func Journeys(w io.Writer, plan *transit.JourneyPlan, fromName, toName string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	bw := bufio.NewWriter(w)

	if plan == nil || len(plan.Journeys) == 0 {
		fmt.Fprintln(bw, "\nNo journeys found.")
		return bw.Flush()
	}

	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(bw, "\n%s\nJourney from %q to %q\n%s\n\n", rule, fromName, toName, rule)

	for i := range plan.Journeys {
		writeJourney(bw, plan, i, loc)
	}

	return bw.Flush()
}

func writeJourney(w io.Writer, plan *transit.JourneyPlan, index int, loc *time.Location) {
	journey := plan.Journeys[index]

	var departure, arrival, duration string
	if jt := transit.CalculateJourneyTime(plan, index); jt != nil {
		departure = clock(jt.StartTime, loc)
		arrival = clock(jt.EndTime, loc)
		duration = jt.Formatted
	}

	fmt.Fprintf(w, "Trip %d:\n", index+1)
	fmt.Fprintf(w, "  Departure: %s\n", departure)
	fmt.Fprintf(w, "  Arrival:   %s\n", arrival)
	fmt.Fprintf(w, "  Duration:  %s\n", duration)
	fmt.Fprintf(w, "  Changes:   %d\n", journey.NoOfChanges)

	if len(journey.RouteLinks) > 0 {
		fmt.Fprintln(w, "  Route:")
		for i, link := range journey.RouteLinks {
			writeLeg(w, i+1, link, loc)
		}
	}
	fmt.Fprintln(w)
}

func writeLeg(w io.Writer, n int, link transit.RouteLink, loc *time.Location) {
	minutes := int(math.Round(link.Duration().Minutes()))

	if link.Line.IsWalk() {
		fmt.Fprintf(w, "    %d. Walk %s (%s)\n", n, walkDistance(link), transit.FormatMinutes(minutes))
		return
	}

	name := link.Line.Name
	if name == "" {
		name = "Transit"
	}
	if link.Line.No != "" {
		name += " " + link.Line.No
	}
	if link.Line.Towards != "" {
		name += " " + link.Line.Towards
	}

	fmt.Fprintf(w, "    %d. %s\n", n, name)
	fmt.Fprintf(w, "       %s %s → %s %s\n",
		clock(link.From.Time, loc), link.From.Name,
		clock(link.To.Time, loc), link.To.Name)
}

// walkDistance prefers the planner's distance text and falls back to the
// measured leg geometry.
func walkDistance(link transit.RouteLink) string {
	if link.Line.Distance != "" {
		return link.Line.Distance
	}
	if meters := link.PathLengthMeters(); meters > 0 {
		return fmt.Sprintf("%d m", int(math.Round(meters)))
	}
	return ""
}

func clock(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("15:04")
}
