package credentials

import "time"

// date builds an IST-midnight activation timestamp. Activation dates are
// calendar dates in the operator's timezone.
func date(y int, m time.Month, d int, loc *time.Location) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DefaultPlatforms returns the phase-1 stream registry: owner and
// activation date per platform.
func DefaultPlatforms(loc *time.Location) []Platform {
	return []Platform{
		{ID: "instagram_reels", Title: "Elina Instagram Reels", Owner: "elina", ActivateOn: date(2025, time.August, 21, loc)},
		{ID: "printify_pod", Title: "Printify POD Store", Owner: "kael", ActivateOn: date(2025, time.August, 23, loc)},
		{ID: "meshy_ai_store", Title: "Meshy AI Store", Owner: "kael", ActivateOn: date(2025, time.August, 25, loc)},
		{ID: "cad_crowd", Title: "Cad Crowd Auto Work", Owner: "riva", ActivateOn: date(2025, time.August, 27, loc)},
		{ID: "fiverr_freelance", Title: "Fiverr Freelance Store", Owner: "riva", ActivateOn: date(2025, time.August, 29, loc)},
		{ID: "youtube_automation", Title: "YouTube Automation", Owner: "kael", ActivateOn: date(2025, time.September, 11, loc)},
	}
}
