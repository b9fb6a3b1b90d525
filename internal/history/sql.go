package history

const createGamesTable = `
CREATE TABLE IF NOT EXISTS games (
  session_id      varchar primary key,
  started_at      datetime not null,
  finished_at     datetime not null,
  winner          varchar not null default '',
  player_position int not null,
  robot_position  int not null,
  turns           int not null,
  error           varchar not null default ''
)`

const createTurnsTable = `
CREATE TABLE IF NOT EXISTS turns (
  session_id         varchar not null,
  number             int not null,
  actor              varchar not null,
  roll               int not null,
  from_field         int not null,
  landing_field      int not null,
  final_field        int not null,
  pre_move_collision boolean not null,
  bumped             boolean not null,
  outcome            varchar not null,
  duration_ms        int not null,
  recorded_at        datetime not null,
  PRIMARY KEY (session_id, number)
)`

const insertGame = `
INSERT OR REPLACE INTO games
  (session_id, started_at, finished_at, winner, player_position, robot_position, turns, error)
VALUES
  (:session_id, :started_at, :finished_at, :winner, :player_position, :robot_position, :turns, :error)
`

const insertTurn = `
INSERT OR REPLACE INTO turns
  (session_id, number, actor, roll, from_field, landing_field, final_field,
   pre_move_collision, bumped, outcome, duration_ms, recorded_at)
VALUES
  (:session_id, :number, :actor, :roll, :from_field, :landing_field, :final_field,
   :pre_move_collision, :bumped, :outcome, :duration_ms, :recorded_at)
`

const selectRecentGames = `
SELECT session_id, started_at, finished_at, winner, player_position, robot_position, turns, error
FROM games
ORDER BY finished_at DESC
LIMIT ?
`

const selectTurns = `
SELECT session_id, number, actor, roll, from_field, landing_field, final_field,
       pre_move_collision, bumped, outcome, duration_ms, recorded_at
FROM turns
WHERE session_id = ?
ORDER BY number
`

const selectStats = `
SELECT
  COUNT(*)                                              AS games,
  COALESCE(SUM(CASE winner WHEN 'player' THEN 1 END), 0) AS player_wins,
  COALESCE(SUM(CASE winner WHEN 'robot' THEN 1 END), 0)  AS robot_wins,
  COALESCE(SUM(CASE winner WHEN '' THEN 1 END), 0)       AS unfinished
FROM games
`
