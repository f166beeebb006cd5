package automation

import "time"

// ShouldRunDiscovery reports whether a discovery run is due: the run hour
// has passed today and no discovery run completed since that hour.
func ShouldRunDiscovery(now time.Time, lastRun *time.Time, settings *Settings) bool {
	if !settings.Discovery.Enabled {
		return false
	}
	return dueSinceHour(now, lastRun, settings.Discovery.RunHour)
}

// ShouldRunContent reports whether a content generation run is due.
func ShouldRunContent(now time.Time, lastRun *time.Time, settings *Settings) bool {
	if !settings.Content.Enabled {
		return false
	}
	return dueSinceHour(now, lastRun, settings.Content.RunHour)
}

// ShouldRunLinkCheck reports whether the link health check is due.
func ShouldRunLinkCheck(now time.Time, lastRun *time.Time, settings *Settings) bool {
	if !settings.LinkCheck.Enabled {
		return false
	}
	if lastRun == nil {
		return true
	}
	interval := time.Duration(settings.LinkCheck.IntervalDays) * 24 * time.Hour
	return now.Sub(*lastRun) >= interval
}

// ShouldRunCommissionSync reports whether the commission sync is due.
func ShouldRunCommissionSync(now time.Time, lastRun *time.Time, settings *Settings) bool {
	if !settings.CommissionSync.Enabled {
		return false
	}
	if lastRun == nil {
		return true
	}
	interval := time.Duration(settings.CommissionSync.IntervalHours) * time.Hour
	return now.Sub(*lastRun) >= interval
}

// dueSinceHour is true when now is past today's run hour and the last run
// happened before that hour (or never).
func dueSinceHour(now time.Time, lastRun *time.Time, hour int) bool {
	threshold := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if now.Before(threshold) {
		return false
	}
	if lastRun == nil {
		return true
	}
	return lastRun.Before(threshold)
}
