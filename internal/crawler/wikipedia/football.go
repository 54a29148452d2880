package wikipedia

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bogoinsight/internal/crawler"
	"bogoinsight/internal/extract"
	"bogoinsight/internal/normalizer"
	"bogoinsight/internal/table"
)

var footballInfo = crawler.Info{
	Topic:             "Football Knockout Matches",
	Description:       "Match results for knockout stages of major football tournaments.",
	Tags:              []string{"sports", "football"},
	SourceDescription: "Wikipedia pages on various football tournaments",
}

// Game is one edition of a tournament.
type Game struct {
	Tournament string
	Year       int
	Name       string
	Article    string
}

// Games are crawled in this order.
var Games = []Game{
	{Tournament: "FIFA World Cup", Year: 2022, Name: "Qatar 2022", Article: "2022_FIFA_World_Cup"},
	{Tournament: "FIFA World Cup", Year: 2018, Name: "Russia 2018", Article: "2018_FIFA_World_Cup"},
	{Tournament: "FIFA World Cup", Year: 2014, Name: "Brazil 2014", Article: "2014_FIFA_World_Cup"},
	{Tournament: "FIFA World Cup", Year: 2010, Name: "South Africa 2010", Article: "2010_FIFA_World_Cup"},
	{Tournament: "FIFA World Cup", Year: 2006, Name: "Germany 2006", Article: "2006_FIFA_World_Cup"},
	{Tournament: "FIFA World Cup", Year: 2002, Name: "Korea/Japan 2002", Article: "2002_FIFA_World_Cup"},
	{Tournament: "FIFA World Cup", Year: 1998, Name: "France 1998", Article: "1998_FIFA_World_Cup"},
	{Tournament: "UEFA Euro", Year: 2021, Name: "Euro 2020", Article: "UEFA_Euro_2020"},
	{Tournament: "UEFA Euro", Year: 2016, Name: "France 2016", Article: "UEFA_Euro_2016"},
	{Tournament: "UEFA Euro", Year: 2012, Name: "Poland/Ukraine 2012", Article: "UEFA_Euro_2012"},
	{Tournament: "UEFA Euro", Year: 2008, Name: "Austria/Switzerland 2008", Article: "UEFA_Euro_2008"},
	{Tournament: "UEFA Euro", Year: 2004, Name: "Portugal 2004", Article: "UEFA_Euro_2004"},
	{Tournament: "UEFA Euro", Year: 2000, Name: "Netherlands/Belgium 2000", Article: "UEFA_Euro_2000"},
}

var knockoutSections = []string{"Knockout_stage", "Knockout_phase"}

// Raw match grid header.
var matchHeader = []string{"tournament", "year", "game", "round", "date", "home", "score", "away", "penalties", "report"}

// Output columns, after the match key.
var matchColumns = []string{
	"date", "tournament", "year", "game", "round",
	"home_team", "away_team", "home_score", "away_score",
	"has_extra_time", "has_penalties", "pen_home_score", "pen_away_score",
	"report_link",
}

// FootballKnockout collects knockout match results of several tournaments.
type FootballKnockout struct {
	fetcher crawler.Fetcher
	base    string
	games   []Game
}

// NewFootballKnockout creates a new FootballKnockout instance. An empty
// base uses BaseURL.
func NewFootballKnockout(f crawler.Fetcher, base string) *FootballKnockout {
	return newFootballKnockout(f, base, Games)
}

func newFootballKnockout(f crawler.Fetcher, base string, games []Game) *FootballKnockout {
	if base == "" {
		base = BaseURL
	}

	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	return &FootballKnockout{fetcher: f, base: base, games: games}
}

// Info returns the static description of the dataset.
func (c *FootballKnockout) Info() crawler.Info { return footballInfo }

// Crawl reads every match box of every knockout round into one grid.
func (c *FootballKnockout) Crawl(ctx context.Context) (*crawler.RawData, error) {
	g := &extract.Grid{Source: "knockout matches", Header: matchHeader}

	for _, game := range c.games {
		doc, err := page(ctx, c.fetcher, c.base+game.Article)
		if err != nil {
			return nil, err
		}

		rows, err := knockoutMatches(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", game.Name, err)
		}

		for _, row := range rows {
			g.Rows = append(g.Rows, append([]string{game.Tournament, strconv.Itoa(game.Year), game.Name}, row...))
		}
	}

	if g.Len() == 0 {
		return nil, extract.ErrEmptyTable
	}

	return &crawler.RawData{Grids: []*extract.Grid{g}}, nil
}

// knockoutMatches walks the rounds under the knockout heading. Each row is
// round, date, home, score, away, penalties, report.
func knockoutMatches(doc *goquery.Document) ([][]string, error) {
	heading, err := extract.Section(doc, knockoutSections...)
	if err != nil {
		return nil, err
	}

	level := extract.HeadingLevel(heading)
	round := ""

	var rows [][]string

	heading.NextAll().EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if l := extract.HeadingLevel(s); l > 0 {
			if l <= level {
				return false
			}

			if l == level+1 {
				round = extract.HeadingText(s)
				if strings.Contains(round, "Bracket") {
					round = ""
				}
			}

			return true
		}

		if round == "" {
			return true
		}

		s.Filter(".footballbox").AddSelection(s.Find(".footballbox")).Each(func(_ int, box *goquery.Selection) {
			rows = append(rows, append([]string{round}, matchBox(box)...))
		})

		return true
	})

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no match boxes under %s", extract.ErrTableNotFound, strings.Join(knockoutSections, "/"))
	}

	return rows, nil
}

// matchBox returns date, home, score, away, penalties and report link.
func matchBox(box *goquery.Selection) []string {
	date := box.Find(".fdate").First()
	date.Find(`[style*="display:none"], [style*="display: none"]`).Remove()

	penalties := ""

	box.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if !strings.Contains(th.Text(), "Penalties") {
			return true
		}

		penalties = th.ParentsFiltered("tr").First().Next().Find("th").First().Text()

		return false
	})

	report := ""

	box.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		if !strings.Contains(td.Text(), "Report") {
			return true
		}

		report, _ = td.Find("a").First().Attr("href")

		return false
	})

	return []string{
		date.Text(),
		box.Find("th.fhome").First().Text(),
		box.Find("th.fscore").First().Text(),
		box.Find("th.faway").First().Text(),
		penalties,
		report,
	}
}

// Process parses dates and scores and keys each match by its fixture.
func (c *FootballKnockout) Process(raw *crawler.RawData, _ *normalizer.Report) (*table.Table, error) {
	if err := raw.GridCount(1); err != nil {
		return nil, err
	}

	g, _ := raw.Grid(0)
	if err := g.Require(matchHeader...); err != nil {
		return nil, err
	}

	t := table.New("match")

	for _, row := range g.Maps() {
		rec, err := match(row)
		if err != nil {
			return nil, err
		}

		key := table.Text(fmt.Sprintf("%s %s %s: %s v %s",
			row["tournament"], row["year"], rec["round"].String(), rec["home_team"].String(), rec["away_team"].String()))

		values := make([]table.Value, len(matchColumns))
		for i, col := range matchColumns {
			values[i] = rec[col]
		}

		if err := t.AppendValues(key, matchColumns, values); err != nil {
			return nil, err
		}
	}

	return t, nil
}

func match(row map[string]string) (table.Record, error) {
	date, err := normalizer.ParseDate("date", row["date"])
	if err != nil {
		return nil, err
	}

	year, err := normalizer.ParseNumber("year", row["year"])
	if err != nil {
		return nil, err
	}

	score := normalizer.Clean(row["score"])
	extraTime := strings.Contains(score, "(")
	score, _, _ = strings.Cut(score, " (")

	home, away, err := goals("score", score)
	if err != nil {
		return nil, err
	}

	rec := table.Record{
		"date":           date,
		"tournament":     table.Text(row["tournament"]),
		"year":           year,
		"game":           table.Text(row["game"]),
		"round":          table.Text(normalizer.Clean(row["round"])),
		"home_team":      table.Text(normalizer.Clean(row["home"])),
		"away_team":      table.Text(normalizer.Clean(row["away"])),
		"home_score":     home,
		"away_score":     away,
		"has_extra_time": table.Bool(extraTime),
		"has_penalties":  table.Bool(false),
		"pen_home_score": table.Missing(),
		"pen_away_score": table.Missing(),
		"report_link":    table.Missing(),
	}

	if pen := normalizer.Clean(row["penalties"]); pen != "" {
		ph, pa, err := goals("penalties", pen)
		if err != nil {
			return nil, err
		}

		rec["has_penalties"] = table.Bool(true)
		rec["pen_home_score"] = ph
		rec["pen_away_score"] = pa
	}

	if link := strings.TrimSpace(row["report"]); link != "" {
		rec["report_link"] = table.Text(link)
	}

	return rec, nil
}

// goals splits a cleaned "3-1" score.
func goals(field, score string) (table.Value, table.Value, error) {
	h, a, ok := strings.Cut(score, "-")
	if !ok {
		return table.Missing(), table.Missing(), &normalizer.CoercionError{Field: field, Raw: score, Kind: "score"}
	}

	home, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return table.Missing(), table.Missing(), &normalizer.CoercionError{Field: field, Raw: score, Kind: "score"}
	}

	away, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return table.Missing(), table.Missing(), &normalizer.CoercionError{Field: field, Raw: score, Kind: "score"}
	}

	return table.Number(float64(home)), table.Number(float64(away)), nil
}
