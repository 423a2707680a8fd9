// Package volleymsk decodes pages served by volleymsk.ru. The site is
// table-soup PHP: the match page is a pair of bgcolor="#CCCCCC" tables, and
// player identity travels only in roster photo paths
// (/uploads/player/t/<id>), never in hyperlinks.
package volleymsk

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
const DefaultBaseURL = "https://volleymsk.ru"

// MatchURL builds the match page URL for a native match id.
func MatchURL(baseURL string, matchID int64) string {
	return fmt.Sprintf("%s/ap/match.php?match_id=%d", baseURL, matchID)
}

// RosterURL builds the roster page URL (members.php) for a roster id.
func RosterURL(baseURL string, rosterID int64) string {
	return fmt.Sprintf("%s/ap/members.php?id=%d", baseURL, rosterID)
}

// TeamRef is a team as it appears on a page: native id plus current name.
type TeamRef struct {
	NativeID int64
	Name     string
}

// RosterPlayer is one row of a match roster or members page.
type RosterPlayer struct {
	NativeID  int64
	Name      record.NameParts
	PhotoURL  string
	Height    *int
	BirthYear *int
	Position  string
}

// BestPlayer names the player of the match for one side. The site prints a
// bare name next to the team, with no link.
type BestPlayer struct {
	TeamName string
	Name     record.NameParts
}

// MatchPage is the decoded match.php page.
type MatchPage struct {
	NativeID int64

	Home TeamRef
	Away TeamRef

	HomeScore *int
	AwayScore *int
	SetScores string

	Kickoff        *time.Time
	TournamentPath string

	RefereeName           record.NameParts
	RefereeRatingHome     *int
	RefereeRatingAway     *int
	RefereeRatingHomeText string
	RefereeRatingAwayText string

	BestPlayers []BestPlayer

	HomeRoster []RosterPlayer
	AwayRoster []RosterPlayer

	Status record.MatchStatus
}

// RosterPage is the decoded members.php page.
type RosterPage struct {
	NativeID int64
	Team     TeamRef
	Players  []RosterPlayer
}

var (
	teamLinkRe  = regexp.MustCompile(`team\.php\?id=(\d+)`)
	trnLinkRe   = regexp.MustCompile(`trntable\.php`)
	kickoffRe   = regexp.MustCompile(`(\d{2}\.\d{2}\.\d{4}),?\s*(\d{2}:\d{2})`)
	scoreRe     = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	setScoresRe = regexp.MustCompile(`\(([^)]+)\)`)
	guestsRe    = regexp.MustCompile(`Гости[:\s]*(\d+)\s*([^Х\d]*)`)
	hostsRe     = regexp.MustCompile(`Хозяева[:\s]*(\d+)\s*(.*)$`)
	playerPhoto = regexp.MustCompile(`/uploads/player/t/(\d+)`)
	heightRe    = regexp.MustCompile(`Рост[:\s]*(\d{3})`)
	birthYearRe = regexp.MustCompile(`Год\s*рожд[:\s]*((?:19|20)\d{2})`)
)

var positions = []string{
	"Связующий", "Диагональ", "Доигровщик", "Центральный", "Либеро",
	"ЛБ", "СВ", "ДИ", "ДО", "ЦБ",
}

// DecodeMatch parses a match.php page. A "Матч не найден" placeholder is
// source.ErrEmpty; a page without the results table is malformed.
func DecodeMatch(raw []byte, matchID int64) (*MatchPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, source.Malformed("match", "parse html: %w", err)
	}

	pageText := strings.ToLower(doc.Text())
	if strings.Contains(pageText, "матч не найден") ||
		strings.Contains(pageText, "страница не найдена") {
		return nil, fmt.Errorf("match %d: %w", matchID, source.ErrEmpty)
	}

	m := &MatchPage{NativeID: matchID, Status: record.StatusUnknown}

	mainTable := findTableContaining(doc, "Результат матча")
	if mainTable == nil {
		return nil, source.Malformed("match", "match %d: results table missing", matchID)
	}
	decodeMainTable(mainTable, m)

	if m.Home.NativeID == 0 || m.Away.NativeID == 0 {
		return nil, source.Malformed("match", "match %d: team links missing", matchID)
	}

	m.HomeRoster, m.AwayRoster = decodeRosters(doc, m.Home.Name, m.Away.Name)

	switch {
	case m.HomeScore != nil && m.AwayScore != nil:
		m.Status = record.StatusPlayed
	case m.Kickoff != nil && m.Kickoff.After(time.Now()):
		m.Status = record.StatusScheduled
	}
	return m, nil
}

// findTableContaining returns the first gray match table whose text holds the
// marker, or nil.
func findTableContaining(doc *goquery.Document, marker string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find(`table[bgcolor="#CCCCCC"]`).EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		if strings.Contains(tbl.Text(), marker) {
			found = tbl
			return false
		}
		return true
	})
	return found
}

func decodeMainTable(table *goquery.Selection, m *MatchPage) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		first := source.CleanText(cells.Eq(0).Text())
		second := ""
		if cells.Length() > 1 {
			second = source.CleanText(cells.Eq(1).Text())
		}

		// Tournament path: the breadcrumb link into trntable.php.
		row.Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			if trnLinkRe.MatchString(href) && strings.Contains(a.Text(), ">") {
				m.TournamentPath = source.CleanText(a.Text())
				return false
			}
			return true
		})

		if g := kickoffRe.FindStringSubmatch(first); g != nil {
			if t, err := time.ParseInLocation("02.01.2006 15:04", g[1]+" "+g[2], time.Local); err == nil {
				m.Kickoff = &t
			}
		}

		var teamLinks []*goquery.Selection
		row.Find("a").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if teamLinkRe.MatchString(href) {
				teamLinks = append(teamLinks, a)
			}
		})
		if len(teamLinks) >= 2 {
			m.Home = teamRefFromLink(teamLinks[0])
			m.Away = teamRefFromLink(teamLinks[1])

			if cells.Length() > 1 {
				scoreText := cells.Eq(1).Text()
				if g := scoreRe.FindStringSubmatch(scoreText); g != nil {
					m.HomeScore = source.ParseInt(g[1])
					m.AwayScore = source.ParseInt(g[2])
				}
				if g := setScoresRe.FindStringSubmatch(scoreText); g != nil {
					m.SetScores = source.CleanText(g[1])
				}
			}
		}

		if strings.Contains(first, "Первый судья") && second != "" {
			m.RefereeName = record.SplitName(second)
		}

		if strings.Contains(first, "Оценка судейства") {
			if g := guestsRe.FindStringSubmatch(second); g != nil {
				m.RefereeRatingAway = source.ParseInt(g[1])
				m.RefereeRatingAwayText = source.CleanText(g[2])
			}
			if g := hostsRe.FindStringSubmatch(second); g != nil {
				m.RefereeRatingHome = source.ParseInt(g[1])
				m.RefereeRatingHomeText = source.CleanText(g[2])
			}
		}

		// Best player rows pair a team name with a bare player name.
		if second != "" && !scoreRe.MatchString(second) && !strings.Contains(second, "Лучшие") {
			switch first {
			case m.Home.Name:
				if m.Home.Name != "" {
					m.BestPlayers = append(m.BestPlayers, BestPlayer{
						TeamName: first, Name: record.SplitName(second),
					})
				}
			case m.Away.Name:
				if m.Away.Name != "" {
					m.BestPlayers = append(m.BestPlayers, BestPlayer{
						TeamName: first, Name: record.SplitName(second),
					})
				}
			}
		}
	})
}

func teamRefFromLink(a *goquery.Selection) TeamRef {
	href, _ := a.Attr("href")
	var id int64
	if g := teamLinkRe.FindStringSubmatch(href); g != nil {
		id, _ = strconv.ParseInt(g[1], 10, 64)
	}
	return TeamRef{NativeID: id, Name: source.CleanText(a.Text())}
}

// decodeRosters walks the second gray table: a header row naming the two
// teams, then one data row whose cells each hold a nested player table.
func decodeRosters(doc *goquery.Document, homeName, awayName string) (home, away []RosterPlayer) {
	if homeName == "" || awayName == "" {
		return nil, nil
	}

	doc.Find(`table[bgcolor="#CCCCCC"]`).EachWithBreak(func(_ int, tbl *goquery.Selection) bool {
		if strings.Contains(tbl.Text(), "Результат матча") {
			return true
		}
		rows := tbl.Find("tr")
		if rows.Length() < 2 {
			return true
		}
		headCells := rows.Eq(0).Find("td")
		if headCells.Length() != 2 {
			return true
		}
		left := source.CleanText(headCells.Eq(0).Text())
		right := source.CleanText(headCells.Eq(1).Text())
		if !strings.Contains(left, homeName) && !strings.Contains(right, homeName) &&
			!strings.Contains(left, awayName) && !strings.Contains(right, awayName) {
			return true
		}
		homeCol := 0
		if !strings.Contains(left, homeName) {
			homeCol = 1
		}

		dataCells := rows.Eq(1).ChildrenFiltered("td")
		if dataCells.Length() < 2 {
			return true
		}
		for col := 0; col < 2; col++ {
			players := decodeRosterColumn(dataCells.Eq(col))
			if col == homeCol {
				home = players
			} else {
				away = players
			}
		}
		return false
	})
	return home, away
}

func decodeRosterColumn(cell *goquery.Selection) []RosterPlayer {
	nested := cell.Find("table").First()
	if nested.Length() == 0 {
		return nil
	}
	var players []RosterPlayer
	nested.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		src, _ := cells.Eq(0).Find("img").Attr("src")
		g := playerPhoto.FindStringSubmatch(src)
		if g == nil {
			return
		}
		id, _ := strconv.ParseInt(g[1], 10, 64)
		name := source.CleanText(cells.Eq(1).Text())
		if id == 0 || name == "" {
			return
		}
		players = append(players, RosterPlayer{
			NativeID: id,
			Name:     record.SplitName(name),
			PhotoURL: absoluteURL(src),
		})
	})
	return players
}

func absoluteURL(src string) string {
	if strings.HasPrefix(src, "/") {
		return DefaultBaseURL + src
	}
	return src
}

// DecodeRoster parses a members.php page. Players are located by their photo
// path; bio lines (Рост, Год рожд, position) live in a nested table next to
// each photo.
func DecodeRoster(raw []byte, rosterID int64) (*RosterPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, source.Malformed("roster", "parse html: %w", err)
	}

	pageText := strings.ToLower(doc.Text())
	if strings.Contains(pageText, "состав не найден") ||
		strings.Contains(pageText, "страница не найдена") {
		return nil, fmt.Errorf("roster %d: %w", rosterID, source.ErrEmpty)
	}

	page := &RosterPage{NativeID: rosterID}

	if a := doc.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		return teamLinkRe.MatchString(href)
	}).First(); a.Length() > 0 {
		page.Team = teamRefFromLink(a)
	}

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		g := playerPhoto.FindStringSubmatch(src)
		if g == nil {
			return
		}
		id, _ := strconv.ParseInt(g[1], 10, 64)
		row := img.ParentsFiltered("tr").First()
		if row.Length() == 0 {
			return
		}

		p := RosterPlayer{NativeID: id, PhotoURL: absoluteURL(src)}

		nested := row.Find("table").First()
		if nested.Length() > 0 {
			if strong := nested.Find("strong").First(); strong.Length() > 0 {
				// Name lines are separated by <br>; goquery flattens them,
				// so rely on the Фамилия Имя [Отчество] order.
				p.Name = record.SplitName(source.CleanText(strong.Text()))
			}
			text := nested.Text()
			if g := heightRe.FindStringSubmatch(text); g != nil {
				if h := source.ParseInt(g[1]); h != nil && *h >= 150 && *h <= 230 {
					p.Height = h
				}
			}
			if g := birthYearRe.FindStringSubmatch(text); g != nil {
				p.BirthYear = source.ParseInt(g[1])
			}
			for _, pos := range positions {
				if strings.Contains(text, pos) {
					p.Position = pos
					break
				}
			}
		}

		if p.Name.Last != "" || p.Name.First != "" {
			page.Players = append(page.Players, p)
		}
	})

	if len(page.Players) == 0 {
		return nil, fmt.Errorf("roster %d: %w", rosterID, source.ErrEmpty)
	}
	return page, nil
}
