// Package bcl decodes pages served by volleyball.businesschampions.ru (the
// business champions league). Identifiers ride in URL paths
// (/season-N/matches/M); markup is class-based and UTF-8.
//
// One site quirk drives the season decoder: requesting a season that does
// not exist silently serves the current season's content. Season identity
// therefore comes only from the navigation link whose href is exactly
// /season-N, never from the page title or an ordinal.
package bcl

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/vbstat/volleycrawl/internal/record"
	"github.com/vbstat/volleycrawl/internal/source"
)

// DefaultBaseURL is where the site lives.
const DefaultBaseURL = "https://volleyball.businesschampions.ru"

// Tournament types a season carries.
const (
	TournamentChampionship = "championship"
	TournamentCup          = "cup"
)

// SeasonURL builds the season landing page URL.
func SeasonURL(baseURL string, seasonNum int) string {
	return fmt.Sprintf("%s/season-%d", baseURL, seasonNum)
}

// ScheduleURL builds a schedule page URL for one tournament of a season.
func ScheduleURL(baseURL string, seasonNum int, tournamentType string) string {
	return fmt.Sprintf("%s/season-%d/%s/schedule", baseURL, seasonNum, tournamentType)
}

// MatchURL builds a match detail page URL.
func MatchURL(baseURL string, seasonNum int, matchID int64) string {
	return fmt.Sprintf("%s/season-%d/matches/%d", baseURL, seasonNum, matchID)
}

// PlayerURL builds a player detail page URL.
func PlayerURL(baseURL string, seasonNum int, playerID int64) string {
	return fmt.Sprintf("%s/season-%d/players/%d", baseURL, seasonNum, playerID)
}

// TeamsURL builds the teams listing page URL.
func TeamsURL(baseURL string, seasonNum int) string {
	return fmt.Sprintf("%s/season-%d/teams", baseURL, seasonNum)
}

// RefereesURL builds the referees listing page URL.
func RefereesURL(baseURL string, seasonNum int) string {
	return fmt.Sprintf("%s/season-%d/referees", baseURL, seasonNum)
}

// TeamRef is a team reference as linked on a page.
type TeamRef struct {
	NativeID int64
	Name     string
}

// SeasonPage is the decoded season landing page.
type SeasonPage struct {
	Number int
	Label  string
}

// ScheduleRow is one match stub from a schedule table.
type ScheduleRow struct {
	NativeID int64

	Kickoff     *time.Time
	KickoffText string
	Venue       string

	DivisionName   string
	RoundName      string
	TournamentType string

	Home TeamRef
	Away TeamRef

	HomeScore *int
	AwayScore *int

	Status record.MatchStatus
}

// BestPlayer is one side's player of the match, hyperlinked on this source.
type BestPlayer struct {
	PlayerNativeID int64
	PlayerName     string
}

// StatRow is one row of a team's per-player statistics table. Absent
// counters stay nil.
type StatRow struct {
	PlayerNativeID int64
	PlayerName     string
	JerseyNumber   *int
	Points         *int
	Attacks        *int
	Serves         *int
	Blocks         *int
}

// RefereeRef is a match official as linked on a page.
type RefereeRef struct {
	NativeID int64
	Name     record.NameParts
	PhotoURL string
}

// MatchPage is the decoded match detail page.
type MatchPage struct {
	NativeID     int64
	SeasonNumber int

	Home TeamRef
	Away TeamRef

	HomeScore       *int
	AwayScore       *int
	SetScores       string
	HomeTotalPoints *int
	AwayTotalPoints *int

	DivisionName string
	RoundName    string
	Kickoff      *time.Time

	BestPlayers []BestPlayer
	HomeStats   []StatRow
	AwayStats   []StatRow
	Referees    []RefereeRef

	Status record.MatchStatus
}

// PlayerPage is the decoded player detail page.
type PlayerPage struct {
	NativeID int64
	Name     record.NameParts
	PhotoURL string

	TeamNativeID int64
	TeamName     string

	Position  string
	Height    *int
	Weight    *int
	BirthDate string // dd.mm.yyyy as printed
}

// TeamListing is one entry of the teams listing page.
type TeamListing struct {
	NativeID int64
	Name     string
	Women    bool
}

var (
	pathIDRe   = regexp.MustCompile(`/(teams|matches|players|referees)/(\d+)`)
	seasonRe   = regexp.MustCompile(`/season-(\d+)`)
	scoreRe    = regexp.MustCompile(`^(\d+)\s*[-:]\s*(\d+)`)
	dmyTimeRe  = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})\s*(?:\([^)]*\))?\s*-?\s*(\d{2}):(\d{2})`)
	dmyRe      = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})`)
	longTimeRe = regexp.MustCompile(`^(\d{1,2})\s+([^\s]+)\s+(\d{4})\s+года\s+[^\s,]+,?\s*(\d{2}):(\d{2})`)
	longRe     = regexp.MustCompile(`^(\d{1,2})\s+([^\s]+)\s+(\d{4})`)
	dateHintRe = regexp.MustCompile(`\d{4}\s+года|\d{2}:\d{2}\s*мск`)
)

var russianMonths = map[string]time.Month{
	"января": time.January, "февраля": time.February, "марта": time.March,
	"апреля": time.April, "мая": time.May, "июня": time.June,
	"июля": time.July, "августа": time.August, "сентября": time.September,
	"октября": time.October, "ноября": time.November, "декабря": time.December,
}

// ParseDate understands the three date shapes the site prints:
// "11.10.2025 (Сб) - 10:00", "11.10.2025" and
// "26 Октября 2025 года Вс, 11:00 мск".
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if g := dmyTimeRe.FindStringSubmatch(s); g != nil {
		if t, err := time.ParseInLocation("02.01.2006 15:04",
			fmt.Sprintf("%s.%s.%s %s:%s", g[1], g[2], g[3], g[4], g[5]), time.Local); err == nil {
			return &t
		}
	}
	if g := longTimeRe.FindStringSubmatch(s); g != nil {
		if month, ok := russianMonths[strings.ToLower(g[2])]; ok {
			day, _ := strconv.Atoi(g[1])
			year, _ := strconv.Atoi(g[3])
			hour, _ := strconv.Atoi(g[4])
			min, _ := strconv.Atoi(g[5])
			t := time.Date(year, month, day, hour, min, 0, 0, time.Local)
			return &t
		}
	}
	if g := dmyRe.FindStringSubmatch(s); g != nil {
		if t, err := time.ParseInLocation("02.01.2006",
			fmt.Sprintf("%s.%s.%s", g[1], g[2], g[3]), time.Local); err == nil {
			return &t
		}
	}
	if g := longRe.FindStringSubmatch(s); g != nil {
		if month, ok := russianMonths[strings.ToLower(g[2])]; ok {
			day, _ := strconv.Atoi(g[1])
			year, _ := strconv.Atoi(g[3])
			t := time.Date(year, month, day, 0, 0, 0, 0, time.Local)
			return &t
		}
	}
	return nil
}

func pathID(href, entity string) int64 {
	g := pathIDRe.FindStringSubmatch(href)
	if g == nil || g[1] != entity {
		return 0
	}
	id, _ := strconv.ParseInt(g[2], 10, 64)
	return id
}

// DecodeSeason parses the season landing page for season seasonNum. When no
// navigation link carries href /season-N, the season does not exist (the
// server echoed another season's page) and the result is source.ErrEmpty.
func DecodeSeason(raw []byte, seasonNum int) (*SeasonPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, source.Malformed("season", "parse html: %w", err)
	}

	want := fmt.Sprintf("/season-%d", seasonNum)
	var label string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		href = strings.TrimRight(href, "/")
		if href != want && !strings.HasSuffix(href, want) {
			return true
		}
		text := source.CleanText(a.Text())
		if len(text) > 2 && len(text) < 50 {
			label = text
			return false
		}
		return true
	})
	if label == "" {
		return nil, fmt.Errorf("season %d: %w", seasonNum, source.ErrEmpty)
	}
	return &SeasonPage{Number: seasonNum, Label: label}, nil
}

// DecodeSchedule parses a schedule page into match stubs, in document order.
// Divisions are plain articles with a header; rounds are nested articles
// with class "option".
func DecodeSchedule(raw []byte, tournamentType string) ([]ScheduleRow, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, source.Malformed("schedule", "parse html: %w", err)
	}

	content := doc.Find("div.content").First()
	var root *goquery.Selection
	if content.Length() > 0 {
		root = content
	} else {
		root = doc.Selection
	}

	var rows []ScheduleRow
	division, round := "", ""

	root.Find("article").Each(func(_ int, article *goquery.Selection) {
		header := article.ChildrenFiltered("header").First()
		if header.Length() == 0 {
			return
		}
		headerText := source.CleanText(header.Text())

		if article.HasClass("option") {
			round = headerText
		} else {
			hasTable := article.ChildrenFiltered("table").Length() > 0
			hasRounds := article.ChildrenFiltered("article.option").Length() > 0
			if !hasTable && !hasRounds {
				return
			}
			division = headerText
		}

		table := article.ChildrenFiltered("table").First()
		if table.Length() == 0 {
			if inner := article.ChildrenFiltered("div.content").First(); inner.Length() > 0 {
				table = inner.Find("table").First()
			}
		}
		if table.Length() == 0 {
			return
		}

		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			if row, ok := decodeScheduleRow(tr, division, round, tournamentType); ok {
				rows = append(rows, row)
			}
		})
	})
	return rows, nil
}

func decodeScheduleRow(tr *goquery.Selection, division, round, tournamentType string) (ScheduleRow, bool) {
	tds := tr.Find("td")
	if tds.Length() < 5 {
		return ScheduleRow{}, false
	}

	row := ScheduleRow{
		DivisionName:   division,
		RoundName:      round,
		TournamentType: tournamentType,
	}

	row.KickoffText = source.CleanText(tds.Eq(0).Text())
	row.Kickoff = ParseDate(row.KickoffText)
	row.Venue = source.CleanText(tds.Eq(1).Text())

	var homeLink, awayLink, scoreLink *goquery.Selection
	tds.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		switch {
		case strings.Contains(href, "/teams/"):
			if homeLink == nil {
				homeLink = a
			} else if awayLink == nil {
				awayLink = a
			}
		case strings.Contains(href, "/matches/"):
			scoreLink = a
		}
	})
	if homeLink == nil || awayLink == nil || scoreLink == nil {
		return ScheduleRow{}, false
	}

	homeHref, _ := homeLink.Attr("href")
	awayHref, _ := awayLink.Attr("href")
	row.Home = TeamRef{NativeID: pathID(homeHref, "teams"), Name: source.CleanText(homeLink.Text())}
	row.Away = TeamRef{NativeID: pathID(awayHref, "teams"), Name: source.CleanText(awayLink.Text())}

	scoreHref, _ := scoreLink.Attr("href")
	row.NativeID = pathID(scoreHref, "matches")
	if row.NativeID == 0 {
		return ScheduleRow{}, false
	}

	if g := scoreRe.FindStringSubmatch(source.CleanText(scoreLink.Text())); g != nil {
		row.HomeScore = source.ParseInt(g[1])
		row.AwayScore = source.ParseInt(g[2])
		row.Status = record.StatusPlayed
	} else {
		row.Status = record.StatusScheduled
	}
	return row, true
}

// DecodeMatch parses a match detail page. A 404 title is source.ErrEmpty.
func DecodeMatch(raw []byte, seasonNum int, matchID int64) (*MatchPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, source.Malformed("match", "parse html: %w", err)
	}
	if pageNotFound(doc) {
		return nil, fmt.Errorf("match %d: %w", matchID, source.ErrEmpty)
	}

	m := &MatchPage{NativeID: matchID, SeasonNumber: seasonNum, Status: record.StatusUnknown}

	decodeMatchHeader(doc, m)
	decodeSetScores(doc, m)
	m.BestPlayers = decodeBestPlayers(doc)
	m.HomeStats, m.AwayStats = decodeTeamStats(doc)
	m.Referees = decodeMatchReferees(doc)

	if m.Home.NativeID == 0 && m.Away.NativeID == 0 && m.HomeScore == nil {
		return nil, source.Malformed("match", "match %d: no teams or score found", matchID)
	}
	return m, nil
}

func pageNotFound(doc *goquery.Document) bool {
	title := doc.Find("title").First().Text()
	return strings.Contains(title, "404") || strings.Contains(strings.ToLower(title), "не найден")
}

func decodeMatchHeader(doc *goquery.Document, m *MatchPage) {
	scoreSpans := doc.Find("div.score span")
	if scoreSpans.Length() >= 2 {
		home := source.ParseInt(source.CleanText(scoreSpans.Eq(0).Text()))
		away := source.ParseInt(source.CleanText(scoreSpans.Eq(1).Text()))
		if home != nil && away != nil {
			m.HomeScore, m.AwayScore = home, away
			m.Status = record.StatusPlayed
		}
	}

	teamLinks := collectTeamLinks(doc)
	if len(teamLinks) >= 2 {
		m.Home = teamRefFromLink(teamLinks[0])
		m.Away = teamRefFromLink(teamLinks[1])
	}

	// "Кварц - Тур 3" style division/round line.
	doc.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		class, _ := div.Attr("class")
		if !strings.Contains(class, "bold") || !strings.Contains(class, "clear") {
			return true
		}
		text := source.CleanText(div.Text())
		if before, after, found := strings.Cut(text, " - "); found {
			m.DivisionName = strings.TrimSpace(before)
			m.RoundName = strings.TrimSpace(after)
		} else {
			m.DivisionName = text
		}
		return false
	})

	doc.Find("div.text-center").EachWithBreak(func(_ int, div *goquery.Selection) bool {
		text := source.CleanText(div.Text())
		if dateHintRe.MatchString(text) {
			m.Kickoff = ParseDate(text)
			return false
		}
		return true
	})
}

func collectTeamLinks(doc *goquery.Document) []*goquery.Selection {
	var links []*goquery.Selection
	doc.Find("div.team-name").Each(func(_ int, div *goquery.Selection) {
		if a := div.Find("a[href]").First(); a.Length() > 0 {
			links = append(links, a)
		}
	})
	if len(links) >= 2 {
		return links
	}

	links = links[:0]
	doc.Find("div.command-block").Each(func(_ int, div *goquery.Selection) {
		a := div.Find("a[href]").First()
		if a.Length() == 0 {
			return
		}
		if href, _ := a.Attr("href"); strings.Contains(href, "/teams/") {
			links = append(links, a)
		}
	})
	if len(links) >= 2 {
		return links
	}

	links = links[:0]
	doc.Find("div.title a[href]").Each(func(_ int, a *goquery.Selection) {
		if href, _ := a.Attr("href"); strings.Contains(href, "/teams/") {
			links = append(links, a)
		}
	})
	return links
}

func teamRefFromLink(a *goquery.Selection) TeamRef {
	href, _ := a.Attr("href")
	return TeamRef{NativeID: pathID(href, "teams"), Name: source.CleanText(a.Text())}
}

// decodeSetScores reads the two rows of the score-table: per-set cells plus a
// final-score cell carrying the summed points.
func decodeSetScores(doc *goquery.Document, m *MatchPage) {
	table := doc.Find("div.score-table table").First()
	if table.Length() == 0 {
		return
	}
	rows := table.Find("tr")
	if rows.Length() < 2 {
		return
	}

	var homeSets, awaySets []int
	for i := 0; i < 2; i++ {
		var sets []int
		rows.Eq(i).Find("td").Each(func(_ int, td *goquery.Selection) {
			if td.Find("a").Length() > 0 || td.HasClass("name") {
				return
			}
			n := source.ParseInt(source.CleanText(td.Text()))
			if n == nil {
				return
			}
			if td.HasClass("final-score") {
				if i == 0 {
					m.HomeTotalPoints = n
				} else {
					m.AwayTotalPoints = n
				}
				return
			}
			sets = append(sets, *n)
		})
		if i == 0 {
			homeSets = sets
		} else {
			awaySets = sets
		}
	}

	if len(homeSets) > 0 && len(homeSets) == len(awaySets) {
		parts := make([]string, len(homeSets))
		for i := range homeSets {
			parts[i] = fmt.Sprintf("%d:%d", homeSets[i], awaySets[i])
		}
		m.SetScores = strings.Join(parts, ", ")
	}
}

func decodeBestPlayers(doc *goquery.Document) []BestPlayer {
	var best []BestPlayer
	doc.Find("section").EachWithBreak(func(_ int, section *goquery.Selection) bool {
		header := section.Find("header").First()
		if header.Length() == 0 || !strings.Contains(strings.ToLower(header.Text()), "лучши") {
			return true
		}
		section.Find("div.bordered").Each(func(_ int, div *goquery.Selection) {
			a := div.Find("a.blue").First()
			if a.Length() == 0 {
				a = div.Find("a[href*='/players/']").First()
			}
			if a.Length() == 0 {
				return
			}
			href, _ := a.Attr("href")
			best = append(best, BestPlayer{
				PlayerNativeID: pathID(href, "players"),
				PlayerName:     source.CleanText(a.Text()),
			})
		})
		return false
	})
	return best
}

func decodeTeamStats(doc *goquery.Document) (home, away []StatRow) {
	var tables []*goquery.Selection
	doc.Find("section").Each(func(_ int, section *goquery.Selection) {
		header := section.Find("header").First()
		if header.Length() == 0 ||
			!strings.Contains(strings.ToLower(header.Text()), "статистика команды") {
			return
		}
		if table := section.Find("table.ruler").First(); table.Length() > 0 {
			tables = append(tables, table)
		}
	})
	if len(tables) > 2 {
		tables = tables[:2]
	}

	for idx, table := range tables {
		var rows []StatRow
		table.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
			tds := tr.Find("td")
			if tds.Length() < 5 {
				return
			}
			row := StatRow{
				JerseyNumber: source.ParseInt(source.CleanText(tds.Eq(0).Text())),
			}
			if a := tds.Eq(1).Find("a[href]").First(); a.Length() > 0 {
				href, _ := a.Attr("href")
				row.PlayerNativeID = pathID(href, "players")
				row.PlayerName = source.CleanText(a.Text())
			} else {
				row.PlayerName = source.CleanText(tds.Eq(1).Text())
			}
			row.Points = source.ParseInt(source.CleanText(tds.Eq(2).Text()))
			row.Attacks = source.ParseInt(source.CleanText(tds.Eq(3).Text()))
			row.Serves = source.ParseInt(source.CleanText(tds.Eq(4).Text()))
			if tds.Length() > 5 {
				row.Blocks = source.ParseInt(source.CleanText(tds.Eq(5).Text()))
			}
			rows = append(rows, row)
		})
		if idx == 0 {
			home = rows
		} else {
			away = rows
		}
	}
	return home, away
}

func decodeMatchReferees(doc *goquery.Document) []RefereeRef {
	var refs []RefereeRef
	doc.Find("section").EachWithBreak(func(_ int, section *goquery.Selection) bool {
		header := section.Find("header").First()
		if header.Length() == 0 || !strings.Contains(strings.ToLower(header.Text()), "судей") {
			return true
		}
		section.Find("a[href*='/referees/']").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			id := pathID(href, "referees")
			name := source.CleanText(a.Text())
			if id == 0 || name == "" {
				return
			}
			refs = append(refs, RefereeRef{NativeID: id, Name: record.SplitName(name)})
		})
		return false
	})
	return refs
}

// DecodePlayer parses a player detail page: h1 name, bordered-image photo and
// the values-table bio rows.
func DecodePlayer(raw []byte, playerID int64) (*PlayerPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, source.Malformed("player", "parse html: %w", err)
	}
	if pageNotFound(doc) {
		return nil, fmt.Errorf("player %d: %w", playerID, source.ErrEmpty)
	}

	p := &PlayerPage{NativeID: playerID}

	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		p.Name = record.SplitName(source.CleanText(h1.Text()))
	}
	if p.Name.Last == "" {
		return nil, fmt.Errorf("player %d: %w", playerID, source.ErrEmpty)
	}

	img := doc.Find("img.bordered-image").First()
	if img.Length() == 0 {
		img = doc.Find("div.bordered-image img").First()
	}
	if src, ok := img.Attr("src"); ok && src != "" {
		if !strings.HasPrefix(src, "http") {
			src = DefaultBaseURL + src
		}
		p.PhotoURL = src
	}

	doc.Find("table.values-table tr").Each(func(_ int, tr *goquery.Selection) {
		th := tr.Find("th").First()
		td := tr.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return
		}
		key := strings.ToLower(strings.TrimRight(source.CleanText(th.Text()), ":"))
		val := source.CleanText(td.Text())

		switch {
		case strings.Contains(key, "команд"):
			if a := td.Find("a[href]").First(); a.Length() > 0 {
				href, _ := a.Attr("href")
				p.TeamNativeID = pathID(href, "teams")
				p.TeamName = source.CleanText(a.Text())
			}
		case strings.Contains(key, "должност"), strings.Contains(key, "позици"):
			p.Position = val
		case strings.Contains(key, "рожд"):
			p.BirthDate = val
		case strings.Contains(key, "рост"):
			p.Height = source.FirstInt(val)
		case strings.Contains(key, "вес"):
			p.Weight = source.FirstInt(val)
		}
	})
	return p, nil
}

// DecodeTeams parses the teams listing page. A "(ж)" suffix marks a women's
// team and is stripped from the stored name.
func DecodeTeams(raw []byte) ([]TeamListing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, source.Malformed("teams", "parse html: %w", err)
	}

	root := doc.Find("div.content").First()
	if root.Length() == 0 {
		root = doc.Selection.Find("body")
	}

	seen := map[int64]bool{}
	var teams []TeamListing
	root.Find("a[href*='/teams/']").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id := pathID(href, "teams")
		if id == 0 || seen[id] {
			return
		}
		name := source.CleanText(a.Text())
		if len([]rune(name)) < 2 {
			return
		}
		seen[id] = true
		women := strings.Contains(name, "(ж)")
		teams = append(teams, TeamListing{
			NativeID: id,
			Name:     strings.TrimSpace(strings.ReplaceAll(name, "(ж)", "")),
			Women:    women,
		})
	})
	return teams, nil
}

// DecodeReferees parses the referees listing page.
func DecodeReferees(raw []byte) ([]RefereeRef, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, source.Malformed("referees", "parse html: %w", err)
	}

	seen := map[int64]bool{}
	var refs []RefereeRef
	doc.Find("a[href*='/referees/']").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		id := pathID(href, "referees")
		if id == 0 || seen[id] {
			return
		}
		name := source.CleanText(a.Text())
		if len([]rune(name)) < 2 {
			return
		}
		seen[id] = true

		ref := RefereeRef{NativeID: id, Name: record.SplitName(name)}
		if img := a.Parent().Find("img").First(); img.Length() > 0 {
			if src, ok := img.Attr("src"); ok && src != "" {
				if !strings.HasPrefix(src, "http") {
					src = DefaultBaseURL + src
				}
				ref.PhotoURL = src
			}
		}
		refs = append(refs, ref)
	})
	return refs, nil
}

// SeasonNumberFromURL extracts the season ordinal from any site URL.
func SeasonNumberFromURL(u string) int {
	g := seasonRe.FindStringSubmatch(u)
	if g == nil {
		return 0
	}
	n, _ := strconv.Atoi(g[1])
	return n
}
