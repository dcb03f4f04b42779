package protocol

// Well known config string indices.
const (
	CSServerInfo     = 0
	CSSystemInfo     = 1
	CSMusic          = 2
	CSMessage        = 3
	CSMotd           = 4
	CSWarmup         = 5
	CSScores1        = 6
	CSScores2        = 7
	CSVoteTime       = 8
	CSVoteString     = 9
	CSVoteYes        = 10
	CSVoteNo         = 11
	CSGameVersion    = 12
	CSLevelStartTime = 13
	CSIntermission   = 14
	CSItems          = 27
	CSModels         = 32
	CSSounds         = 288
	CSPlayers        = 544
	CSLocations      = 608
)

// PlayerState stats array indices.
const (
	StatHealth = 0
	StatArmor  = 6
)
