package gateway

import (
	"fmt"
	"strings"

	"github.com/rahul/outing/internal/agent"
	"github.com/rahul/outing/internal/integrations/openmeteo"
	"github.com/rahul/outing/internal/normalize"
	"github.com/rahul/outing/internal/orchestrator"
	"github.com/rahul/outing/internal/outing"
)

const listedRestaurants = 5

// FormatPlan renders a plan response as plain chat text.
func FormatPlan(resp *orchestrator.Response) string {
	var b strings.Builder
	b.WriteString("Plan for " + resp.Location.Label())
	if label := resp.EventDate.Label(); label != "" {
		b.WriteString(" on " + label)
	}
	b.WriteString("\n")

	for _, r := range resp.Results {
		b.WriteString("\n")
		if !r.OK() {
			fmt.Fprintf(&b, "%s: unavailable (%s)\n", r.Agent, r.Error)
			continue
		}
		switch p := r.Data.(type) {
		case *agent.MoviePlan:
			formatMovie(&b, p)
		case *agent.RestaurantPlan:
			formatRestaurants(&b, p)
		case *agent.WebSearchPlan:
			formatWebSearch(&b, p)
		case *agent.WeatherPlan:
			formatWeather(&b, p)
		default:
			fmt.Fprintf(&b, "%s: done\n", r.Agent)
		}
		writeSource(&b, r.Data.Provenance())
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeSource(b *strings.Builder, a outing.Attribution) {
	fmt.Fprintf(b, "(source: %s, %s)\n", a.Source, a.Origin)
}

func formatMovie(b *strings.Builder, p *agent.MoviePlan) {
	fmt.Fprintf(b, "Movie: %s\n%s\n", p.Title, p.Overview)
	where := p.Venue
	if p.Showtime != nil {
		where += " at " + *p.Showtime
	}
	b.WriteString("Where: " + where + "\n")
	if p.BookingLink != nil {
		b.WriteString("Book: " + *p.BookingLink + "\n")
	}
}

func formatRestaurants(b *strings.Builder, p *agent.RestaurantPlan) {
	if len(p.Restaurants) == 0 {
		b.WriteString("Restaurants: no suggestions\n")
		return
	}
	b.WriteString("Restaurants:\n")
	for i, r := range p.Restaurants {
		if i == listedRestaurants {
			fmt.Fprintf(b, "  and %d more\n", len(p.Restaurants)-i)
			break
		}
		b.WriteString("- " + restaurantLine(r) + "\n")
	}
}

func restaurantLine(r normalize.Restaurant) string {
	parts := []string{r.Name}
	if len(r.Cuisines) > 0 {
		parts = append(parts, strings.Join(r.Cuisines, ", "))
	}
	if r.Rating != nil {
		parts = append(parts, fmt.Sprintf("%.1f★", *r.Rating))
	}
	if r.VegStatus != "" && r.VegStatus != normalize.VegUnknown {
		parts = append(parts, string(r.VegStatus))
	}
	return strings.Join(parts, " · ")
}

func formatWebSearch(b *strings.Builder, p *agent.WebSearchPlan) {
	b.WriteString("Around town: " + p.Summary + "\n")
	for _, f := range p.Results {
		line := "- " + f.Title
		if f.Link != "" {
			line += " " + f.Link
		}
		b.WriteString(line + "\n")
	}
}

func formatWeather(b *strings.Builder, p *agent.WeatherPlan) {
	b.WriteString("Weather:\n")
	for _, part := range openmeteo.DayParts {
		if v, ok := p.Forecast[part]; ok {
			fmt.Fprintf(b, "- %s: %s\n", part, v)
		}
	}
	if len(p.Forecast) == 0 && p.Raw != "" {
		b.WriteString(p.Raw + "\n")
	}
}
