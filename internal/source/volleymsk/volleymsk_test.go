package volleymsk

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vbstat/volleycrawl/internal/source"
)

const playedMatchHTML = `<html><body>
<table bgcolor="#CCCCCC">
 <tr><td><a href="trntable.php?id=5">Чемпионат &gt; Лига А &gt; Тур 3</a></td></tr>
 <tr><td>26.01.2026, 20:00</td></tr>
 <tr><td>Результат матча</td></tr>
 <tr>
  <td><a href="team.php?id=11">INEX</a> - <a href="team.php?id=22">КПРФ Москва</a></td>
  <td>1 - 3 (19:25, 19:25, 25:19, 21:25)</td>
 </tr>
 <tr><td>Первый судья</td><td>Иванов Петр Сергеевич</td></tr>
 <tr><td>Оценка судейства</td><td>Гости: 5 отличное, идеальное судейство Хозяева: 4 хорошее</td></tr>
 <tr><td>Лучшие игроки</td></tr>
 <tr><td>INEX</td><td>Сидоров Алексей</td></tr>
 <tr><td>КПРФ Москва</td><td>Кузнецов Дмитрий</td></tr>
</table>
<table bgcolor="#CCCCCC">
 <tr><td>INEX</td><td>КПРФ Москва</td></tr>
 <tr>
  <td><table>
   <tr><td><img src="/uploads/player/t/778979.PNG"></td><td>Сидоров Алексей Иванович</td></tr>
   <tr><td><img src="/uploads/player/t/50478.jpeg"></td><td>Петров Максим</td></tr>
  </table></td>
  <td><table>
   <tr><td><img src="/uploads/player/t/2337_50f2aae6.jpg"></td><td>Кузнецов Дмитрий</td></tr>
  </table></td>
 </tr>
</table>
</body></html>`

func TestDecodeMatchPlayed(t *testing.T) {
	t.Parallel()

	m, err := DecodeMatch([]byte(playedMatchHTML), 64120)
	require.NoError(t, err)

	require.EqualValues(t, 64120, m.NativeID)
	require.EqualValues(t, 11, m.Home.NativeID)
	require.Equal(t, "INEX", m.Home.Name)
	require.EqualValues(t, 22, m.Away.NativeID)
	require.Equal(t, "КПРФ Москва", m.Away.Name)

	require.NotNil(t, m.HomeScore)
	require.Equal(t, 1, *m.HomeScore)
	require.NotNil(t, m.AwayScore)
	require.Equal(t, 3, *m.AwayScore)
	require.Equal(t, "19:25, 19:25, 25:19, 21:25", m.SetScores)
	require.Equal(t, "played", string(m.Status))

	require.NotNil(t, m.Kickoff)
	require.Equal(t, 2026, m.Kickoff.Year())
	require.Equal(t, 20, m.Kickoff.Hour())

	require.Equal(t, "Чемпионат > Лига А > Тур 3", m.TournamentPath)
	require.Equal(t, "Иванов", m.RefereeName.Last)
	require.Equal(t, "Петр", m.RefereeName.First)
	require.Equal(t, "Сергеевич", m.RefereeName.Patronymic)

	require.NotNil(t, m.RefereeRatingAway)
	require.Equal(t, 5, *m.RefereeRatingAway)
	require.Equal(t, "отличное, идеальное судейство", m.RefereeRatingAwayText)
	require.NotNil(t, m.RefereeRatingHome)
	require.Equal(t, 4, *m.RefereeRatingHome)
	require.Equal(t, "хорошее", m.RefereeRatingHomeText)

	require.Len(t, m.BestPlayers, 2)
	require.Equal(t, "INEX", m.BestPlayers[0].TeamName)
	require.Equal(t, "Сидоров", m.BestPlayers[0].Name.Last)
	require.Equal(t, "КПРФ Москва", m.BestPlayers[1].TeamName)

	require.Len(t, m.HomeRoster, 2)
	require.EqualValues(t, 778979, m.HomeRoster[0].NativeID)
	require.Equal(t, "Сидоров", m.HomeRoster[0].Name.Last)
	require.Equal(t, "https://volleymsk.ru/uploads/player/t/778979.PNG", m.HomeRoster[0].PhotoURL)
	require.EqualValues(t, 50478, m.HomeRoster[1].NativeID)

	require.Len(t, m.AwayRoster, 1)
	require.EqualValues(t, 2337, m.AwayRoster[0].NativeID)
}

func TestDecodeMatchScheduled(t *testing.T) {
	t.Parallel()

	const html = `<html><body>
<table bgcolor="#CCCCCC">
 <tr><td>Результат матча</td></tr>
 <tr><td>26.01.2094, 20:00</td></tr>
 <tr>
  <td><a href="team.php?id=11">INEX</a> - <a href="team.php?id=22">КПРФ Москва</a></td>
  <td>-</td>
 </tr>
</table>
</body></html>`

	m, err := DecodeMatch([]byte(html), 70001)
	require.NoError(t, err)
	require.Nil(t, m.HomeScore)
	require.Nil(t, m.AwayScore)
	require.Equal(t, "scheduled", string(m.Status))
}

func TestDecodeMatchNotFound(t *testing.T) {
	t.Parallel()

	const html = `<html><body><p>Матч не найден</p></body></html>`
	_, err := DecodeMatch([]byte(html), 99999)
	require.ErrorIs(t, err, source.ErrEmpty)
}

func TestDecodeMatchMalformed(t *testing.T) {
	t.Parallel()

	const html = `<html><body><p>что-то совсем другое</p></body></html>`
	_, err := DecodeMatch([]byte(html), 5)
	require.Error(t, err)
	require.NotErrorIs(t, err, source.ErrEmpty)

	var derr *source.DecodeError
	require.ErrorAs(t, err, &derr)
}

const rosterHTML = `<html><body>
<a href="team.php?id=11">INEX</a>
<table>
 <tr>
  <td><img src="/uploads/player/t/778979.PNG"></td>
  <td><table><tr><td>
   <strong>Сидоров Алексей Иванович</strong>
   Рост: 195 Год рожд: 1992 Доигровщик
  </td></tr></table></td>
 </tr>
 <tr>
  <td><img src="/uploads/player/t/50478.jpeg"></td>
  <td><table><tr><td>
   <strong>Петров Максим</strong>
   Рост: 188 Год рожд: 1986 Либеро
  </td></tr></table></td>
 </tr>
</table>
</body></html>`

func TestDecodeRoster(t *testing.T) {
	t.Parallel()

	page, err := DecodeRoster([]byte(rosterHTML), 2337)
	require.NoError(t, err)

	require.EqualValues(t, 2337, page.NativeID)
	require.EqualValues(t, 11, page.Team.NativeID)
	require.Equal(t, "INEX", page.Team.Name)

	require.Len(t, page.Players, 2)
	p := page.Players[0]
	require.EqualValues(t, 778979, p.NativeID)
	require.Equal(t, "Сидоров", p.Name.Last)
	require.Equal(t, "Алексей", p.Name.First)
	require.NotNil(t, p.Height)
	require.Equal(t, 195, *p.Height)
	require.NotNil(t, p.BirthYear)
	require.Equal(t, 1992, *p.BirthYear)
	require.Equal(t, "Доигровщик", p.Position)
}

func TestDecodeRosterNotFound(t *testing.T) {
	t.Parallel()

	_, err := DecodeRoster([]byte(`<html><body>Состав не найден</body></html>`), 1)
	require.ErrorIs(t, err, source.ErrEmpty)
}

func TestURLBuilders(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://volleymsk.ru/ap/match.php?match_id=100",
		MatchURL(DefaultBaseURL, 100))
	require.Equal(t, "https://volleymsk.ru/ap/members.php?id=42",
		RosterURL(DefaultBaseURL, 42))
}
