package bcl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vbstat/volleycrawl/internal/source"
)

const seasonHTML = `<html><head><title>Лига</title></head><body><nav>
<a href="/season-29">Весна 2025</a>
<a href="/season-30">Осень 2025</a>
</nav></body></html>`

func TestDecodeSeason(t *testing.T) {
	t.Parallel()

	s, err := DecodeSeason([]byte(seasonHTML), 30)
	require.NoError(t, err)
	require.Equal(t, 30, s.Number)
	require.Equal(t, "Осень 2025", s.Label)
}

func TestDecodeSeasonOutOfRange(t *testing.T) {
	t.Parallel()

	// The server echoes the current season's page for an out-of-range
	// ordinal; no nav link matches /season-31, so the season does not exist.
	_, err := DecodeSeason([]byte(seasonHTML), 31)
	require.ErrorIs(t, err, source.ErrEmpty)
}

const scheduleHTML = `<html><body><div class="content">
<article>
 <header>Кварц</header>
 <article class="option">
  <header>Тур 3</header>
  <table><tbody>
   <tr>
    <td>11.10.2025 (Сб) - 10:00</td>
    <td>Зал №1</td>
    <td><a href="/season-30/teams/101">Альфа</a></td>
    <td><a href="/season-30/matches/5001">3:1</a></td>
    <td><a href="/season-30/teams/102">Бета</a></td>
   </tr>
   <tr>
    <td>12.10.2025 (Вс) - 12:00</td>
    <td>Зал №2</td>
    <td><a href="/season-30/teams/103">Гамма</a></td>
    <td><a href="/season-30/matches/5002">-</a></td>
    <td><a href="/season-30/teams/101">Альфа</a></td>
   </tr>
  </tbody></table>
 </article>
</article>
</div></body></html>`

func TestDecodeSchedule(t *testing.T) {
	t.Parallel()

	rows, err := DecodeSchedule([]byte(scheduleHTML), TournamentChampionship)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	played := rows[0]
	require.EqualValues(t, 5001, played.NativeID)
	require.Equal(t, "Кварц", played.DivisionName)
	require.Equal(t, "Тур 3", played.RoundName)
	require.Equal(t, TournamentChampionship, played.TournamentType)
	require.Equal(t, "Зал №1", played.Venue)
	require.EqualValues(t, 101, played.Home.NativeID)
	require.Equal(t, "Альфа", played.Home.Name)
	require.EqualValues(t, 102, played.Away.NativeID)
	require.NotNil(t, played.HomeScore)
	require.Equal(t, 3, *played.HomeScore)
	require.NotNil(t, played.AwayScore)
	require.Equal(t, 1, *played.AwayScore)
	require.Equal(t, "played", string(played.Status))
	require.NotNil(t, played.Kickoff)
	require.Equal(t, time.October, played.Kickoff.Month())
	require.Equal(t, 10, played.Kickoff.Hour())

	stub := rows[1]
	require.EqualValues(t, 5002, stub.NativeID)
	require.Nil(t, stub.HomeScore)
	require.Nil(t, stub.AwayScore)
	require.Equal(t, "scheduled", string(stub.Status))
}

const matchHTML = `<html><head><title>Матч</title></head><body>
<div class="title">
 <div class="team-name"><a href="/season-30/teams/101">Альфа</a></div>
 <div class="score"><span>3</span><span>1</span></div>
 <div class="team-name"><a href="/season-30/teams/102">Бета</a></div>
</div>
<div class="text-center bold clear">Кварц - Тур 3</div>
<div class="text-center">26 Октября 2025 года Вс, 11:00 мск</div>
<div class="score-table"><table>
<tr><td class="name"><a href="/season-30/teams/101">Альфа</a></td><td>25</td><td>25</td><td>19</td><td>25</td><td class="final-score">94</td></tr>
<tr><td class="name"><a href="/season-30/teams/102">Бета</a></td><td>20</td><td>17</td><td>25</td><td>21</td><td class="final-score">83</td></tr>
</table></div>
<section><header>Лучшие игроки</header>
 <div class="bordered"><a class="blue" href="/season-30/players/7561">Смирнов Андрей</a></div>
 <div class="bordered"><a class="blue" href="/season-30/players/7600">Орлов Виктор</a></div>
</section>
<section><header>Статистика команды Альфа</header>
<table class="ruler"><tbody>
<tr><td>5</td><td><a href="/season-30/players/7561">Смирнов Андрей</a></td><td>15</td><td>10</td><td>3</td><td>2</td></tr>
<tr><td>7</td><td><a href="/season-30/players/7562">Новиков Илья</a></td><td>8</td><td>6</td><td></td><td>1</td></tr>
</tbody></table></section>
<section><header>Статистика команды Бета</header>
<table class="ruler"><tbody>
<tr><td>9</td><td><a href="/season-30/players/7600">Орлов Виктор</a></td><td>12</td><td>9</td><td>2</td><td>1</td></tr>
</tbody></table></section>
<section><header>Судейская бригада</header>
 <div><a href="/season-30/referees/301">Волков Сергей</a></div>
</section>
</body></html>`

func TestDecodeMatch(t *testing.T) {
	t.Parallel()

	m, err := DecodeMatch([]byte(matchHTML), 30, 5001)
	require.NoError(t, err)

	require.EqualValues(t, 5001, m.NativeID)
	require.Equal(t, 30, m.SeasonNumber)
	require.EqualValues(t, 101, m.Home.NativeID)
	require.EqualValues(t, 102, m.Away.NativeID)

	require.NotNil(t, m.HomeScore)
	require.Equal(t, 3, *m.HomeScore)
	require.Equal(t, "played", string(m.Status))
	require.Equal(t, "25:20, 25:17, 19:25, 25:21", m.SetScores)
	require.NotNil(t, m.HomeTotalPoints)
	require.Equal(t, 94, *m.HomeTotalPoints)
	require.NotNil(t, m.AwayTotalPoints)
	require.Equal(t, 83, *m.AwayTotalPoints)

	require.Equal(t, "Кварц", m.DivisionName)
	require.Equal(t, "Тур 3", m.RoundName)
	require.NotNil(t, m.Kickoff)
	require.Equal(t, time.October, m.Kickoff.Month())
	require.Equal(t, 11, m.Kickoff.Hour())

	require.Len(t, m.BestPlayers, 2)
	require.EqualValues(t, 7561, m.BestPlayers[0].PlayerNativeID)
	require.Equal(t, "Смирнов Андрей", m.BestPlayers[0].PlayerName)

	require.Len(t, m.HomeStats, 2)
	first := m.HomeStats[0]
	require.EqualValues(t, 7561, first.PlayerNativeID)
	require.NotNil(t, first.JerseyNumber)
	require.Equal(t, 5, *first.JerseyNumber)
	require.NotNil(t, first.Points)
	require.Equal(t, 15, *first.Points)

	// An empty stat cell stays nil, it is not a zero.
	second := m.HomeStats[1]
	require.Nil(t, second.Serves)
	require.NotNil(t, second.Blocks)
	require.Equal(t, 1, *second.Blocks)

	require.Len(t, m.AwayStats, 1)

	require.Len(t, m.Referees, 1)
	require.EqualValues(t, 301, m.Referees[0].NativeID)
	require.Equal(t, "Волков", m.Referees[0].Name.Last)
}

func TestDecodeMatchNotFound(t *testing.T) {
	t.Parallel()

	const html = `<html><head><title>404 - страница не найдена</title></head><body></body></html>`
	_, err := DecodeMatch([]byte(html), 30, 9999)
	require.ErrorIs(t, err, source.ErrEmpty)
}

const playerHTML = `<html><head><title>Игрок</title></head><body>
<h1>Смирнов Андрей</h1>
<img class="bordered-image" src="/upload/players/7561.jpg">
<table class="values-table">
<tr><th>Команда:</th><td><a href="/season-30/teams/101">Альфа</a></td></tr>
<tr><th>Должность:</th><td>Доигровщик</td></tr>
<tr><th>Рост:</th><td>192 см</td></tr>
<tr><th>Вес:</th><td>85 кг</td></tr>
<tr><th>Дата рождения:</th><td>20.06.2004</td></tr>
</table>
</body></html>`

func TestDecodePlayer(t *testing.T) {
	t.Parallel()

	p, err := DecodePlayer([]byte(playerHTML), 7561)
	require.NoError(t, err)

	require.EqualValues(t, 7561, p.NativeID)
	require.Equal(t, "Смирнов", p.Name.Last)
	require.Equal(t, "Андрей", p.Name.First)
	require.Equal(t, DefaultBaseURL+"/upload/players/7561.jpg", p.PhotoURL)
	require.EqualValues(t, 101, p.TeamNativeID)
	require.Equal(t, "Альфа", p.TeamName)
	require.Equal(t, "Доигровщик", p.Position)
	require.NotNil(t, p.Height)
	require.Equal(t, 192, *p.Height)
	require.NotNil(t, p.Weight)
	require.Equal(t, 85, *p.Weight)
	require.Equal(t, "20.06.2004", p.BirthDate)
}

func TestDecodeTeams(t *testing.T) {
	t.Parallel()

	const html = `<html><body><div class="content">
<a href="/season-30/teams/101">Альфа</a>
<a href="/season-30/teams/102">Бета (ж)</a>
<a href="/season-30/teams/101">Альфа</a>
</div></body></html>`

	teams, err := DecodeTeams([]byte(html))
	require.NoError(t, err)
	require.Len(t, teams, 2)
	require.Equal(t, "Альфа", teams[0].Name)
	require.False(t, teams[0].Women)
	require.Equal(t, "Бета", teams[1].Name)
	require.True(t, teams[1].Women)
}

func TestDecodeReferees(t *testing.T) {
	t.Parallel()

	const html = `<html><body>
<div><a href="/season-30/referees/301">Волков Сергей</a><img src="/upload/refs/301.jpg"></div>
<div><a href="/season-30/referees/302">Зайцев Олег</a></div>
</body></html>`

	refs, err := DecodeReferees([]byte(html))
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.EqualValues(t, 301, refs[0].NativeID)
	require.Equal(t, "Волков", refs[0].Name.Last)
	require.Equal(t, DefaultBaseURL+"/upload/refs/301.jpg", refs[0].PhotoURL)
	require.Empty(t, refs[1].PhotoURL)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d := ParseDate("11.10.2025 (Сб) - 10:00")
	require.NotNil(t, d)
	require.Equal(t, 2025, d.Year())
	require.Equal(t, 10, d.Hour())

	d = ParseDate("11.10.2025")
	require.NotNil(t, d)
	require.Equal(t, 0, d.Hour())

	d = ParseDate("26 Октября 2025 года Вс, 11:00 мск")
	require.NotNil(t, d)
	require.Equal(t, time.October, d.Month())
	require.Equal(t, 26, d.Day())
	require.Equal(t, 11, d.Hour())

	require.Nil(t, ParseDate("по договорённости"))
	require.Nil(t, ParseDate(""))
}

func TestURLBuilders(t *testing.T) {
	t.Parallel()

	require.Equal(t, DefaultBaseURL+"/season-30/matches/5001", MatchURL(DefaultBaseURL, 30, 5001))
	require.Equal(t, DefaultBaseURL+"/season-30/championship/schedule",
		ScheduleURL(DefaultBaseURL, 30, TournamentChampionship))
	require.Equal(t, DefaultBaseURL+"/season-30/players/7561", PlayerURL(DefaultBaseURL, 30, 7561))
}
