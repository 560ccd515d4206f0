package report_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homescout/homescout/internal/report"
	"github.com/homescout/homescout/internal/transit"
)

func at(hhmm string) time.Time {
	t, err := time.Parse(time.RFC3339, "2025-12-23T"+hhmm+":00Z")
	if err != nil {
		panic(err)
	}
	return t
}

func samplePlan() *transit.JourneyPlan {
	return &transit.JourneyPlan{Journeys: []transit.Journey{{
		NoOfChanges: 0,
		RouteLinks: []transit.RouteLink{
			{
				From: transit.Stop{Name: "Malmö Hyllie", Time: at("17:30")},
				To:   transit.Stop{Name: "Malmö Hyllie Vattenpark", Time: at("17:34")},
				Line: transit.Line{Type: transit.LineWalk, Name: "Gång", Distance: "41 m"},
			},
			{
				From: transit.Stop{Name: "Malmö Hyllie Vattenpark", Time: at("17:34")},
				To:   transit.Stop{Name: "Malmö Tenorgatan", Time: at("17:43")},
				Line: transit.Line{Type: transit.LineBus, Name: "Stadsbuss", No: "9", Towards: "mot Östra hamnen via Jägersro"},
			},
			{
				From: transit.Stop{Name: "Malmö Tenorgatan", Time: at("17:43")},
				To:   transit.Stop{Name: "Vald position", Time: at("17:47")},
				Line: transit.Line{Type: transit.LineWalk, Name: "Gång"},
				Path: "_p~iF~ps|U_ulLnnqC",
			},
		},
	}}}
}

func TestJourneys(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Journeys(&buf, samplePlan(), "Malmö Hyllie", "Tenorgatan", nil))
	out := buf.String()

	assert.Contains(t, out, `Journey from "Malmö Hyllie" to "Tenorgatan"`)
	assert.Contains(t, out, "Trip 1:")
	assert.Contains(t, out, "  Departure: 17:30\n")
	assert.Contains(t, out, "  Arrival:   17:47\n")
	assert.Contains(t, out, "  Duration:  17m\n")
	assert.Contains(t, out, "  Changes:   0\n")
	assert.Contains(t, out, "    1. Walk 41 m (4m)\n")
	assert.Contains(t, out, "    2. Stadsbuss 9 mot Östra hamnen via Jägersro\n")
	assert.Contains(t, out, "       17:34 Malmö Hyllie Vattenpark → 17:43 Malmö Tenorgatan\n")
	assert.Regexp(t, `3\. Walk \d+ m \(4m\)`, out)
}

func TestJourneys_Location(t *testing.T) {
	stockholm := time.FixedZone("CET", 3600)

	var buf bytes.Buffer
	require.NoError(t, report.Journeys(&buf, samplePlan(), "A", "B", stockholm))
	assert.Contains(t, buf.String(), "  Departure: 18:30\n")
}

func TestJourneys_Empty(t *testing.T) {
	for _, plan := range []*transit.JourneyPlan{nil, {}} {
		var buf bytes.Buffer
		require.NoError(t, report.Journeys(&buf, plan, "A", "B", nil))
		assert.Equal(t, "\nNo journeys found.\n", buf.String())
	}
}

func TestJourneys_UnnamedLineAndNoLegs(t *testing.T) {
	plan := &transit.JourneyPlan{Journeys: []transit.Journey{
		{RouteLinks: []transit.RouteLink{{
			From: transit.Stop{Name: "Lund C", Time: at("08:00")},
			To:   transit.Stop{Name: "Malmö C", Time: at("08:12")},
			Line: transit.Line{Type: transit.LineTrain},
		}}},
		{NoOfChanges: 1},
	}}

	var buf bytes.Buffer
	require.NoError(t, report.Journeys(&buf, plan, "Lund C", "Malmö C", nil))
	out := buf.String()

	assert.Contains(t, out, "    1. Transit\n")
	assert.Contains(t, out, "Trip 2:\n  Departure: \n")
	assert.Contains(t, out, "  Changes:   1\n")
}
