package usecase

// Test-only accessors for the pure scoring functions
var (
	Round2                  = round2
	Clamp                   = clamp
	ScreeningScale          = screeningScale
	QueryScale              = queryScale
	MeetingPointsAdjustment = meetingPointsAdjustment
	ComposeWorkload         = composeWorkload
	CoverageDenominator     = coverageDenominator
	DistributeWorkload      = distributeWorkload
	ReduceAverages          = reduceAverages
)

// StudyLoad exposes the distribution aggregate for tests
type StudyLoad = studyLoad
