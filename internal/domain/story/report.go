package story

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// SetupInstructions explains how to create the alerts the monitor reads.
const SetupInstructions = `🚀 **GOOGLE ALERTS SETUP**

1. Open https://www.google.com/alerts

2. Create these alerts, one at a time:
   • linkedin.com "coursera certificate" completed
   • linkedin.com "google certificate" career change
   • linkedin.com "coursera helped me" job
   • linkedin.com coursera "landed" OR "hired" OR "promoted"
   • linkedin.com "coursera course" "grateful" OR "thankful"

3. For each alert choose: as-it-happens, automatic sources, English,
   any region, only the best results, delivered to your Gmail address.

4. Alerts arrive from googlealerts-noreply@google.com with the subject
   "Google Alert - <terms>".

5. Create a Gmail app password (Google Account > Security > 2-Step
   Verification > App passwords, app "Mail") and export it as
   GMAIL_APP_PASSWORD together with GMAIL_USER.

6. Expect the first emails within a few hours. Start with a few alerts and
   add more once the quality is clear.`

// ReportOptions controls the outreach report.
type ReportOptions struct {
	MinScore       int
	HighValueScore int
	Limit          int
}

// DefaultReportOptions returns the built-in report thresholds.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		MinScore:       DefaultMinScore,
		HighValueScore: DefaultHighValueScore,
		Limit:          DefaultReportLimit,
	}
}

// Report renders the outreach digest for db as of today.
func Report(db Database, today time.Time, opts ReportOptions) string {
	var high []Story
	medium := 0
	for _, s := range db.Stories {
		switch {
		case s.StoryScore >= opts.HighValueScore:
			high = append(high, s)
		case s.StoryScore >= opts.MinScore:
			medium++
		}
	}
	sort.SliceStable(high, func(i, j int) bool { return high[i].StoryScore > high[j].StoryScore })

	lastProcessed := "Unknown"
	if db.LastProcessed != nil {
		lastProcessed = db.LastProcessed.Format("2006-01-02T15:04")
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("🎯 **LINKEDIN SUCCESS STORY DIGEST** | %s", today.Format("January 02, 2006"))
	line("")
	line("📊 **Summary from Google Alerts:**")
	line("• Total stories found: %d", len(db.Stories))
	line("• High-value outreach candidates (%d+ score): %d", opts.HighValueScore, len(high))
	line("• Medium-value stories (%d-%d score): %d", opts.MinScore, opts.HighValueScore-1, medium)
	line("• Last processed: %s", lastProcessed)
	line("• Links processed: %d", db.TotalLinksProcessed)
	line("")
	line("🌟 **TOP OUTREACH CANDIDATES:**")
	line("")

	for i, s := range high {
		if opts.Limit > 0 && i == opts.Limit {
			break
		}
		found := "Unknown"
		if !s.FoundDate.IsZero() {
			found = s.FoundDate.Format(time.DateOnly)
		}
		line("**#%d - Score: %d**", i+1, s.StoryScore)
		line("📅 Found: %s", found)
		line("🔗 URL: %s", s.URL)
		line("📝 Preview: %s...", clip(s.Text, 150))
		line("🎯 Signals: %s...", clip(strings.Join(s.Signals, ", "), 100))
		line("📧 From Alert: %s...", clip(s.AlertSubject, 50))
		line("")
		line("**Outreach Strategy:**")
		line("• Visit the LinkedIn post directly")
		line("• Engage with the post (like/comment) first")
		line("• Send a personalized connection request")
		line("• Mention the specific achievement from their post")
		line("• Offer to feature their success story")
		line("")
		line("---")
		line("")
	}

	if len(high) == 0 {
		line("No high-value stories found yet.")
		line("• Check that Google Alerts are set up correctly")
		line("• Verify Gmail credentials are working")
		line("• Consider adjusting the signal scores")
		line("")
	}

	line("📈 **Next Steps:**")
	line("1. Review top candidates above")
	line("2. Visit LinkedIn posts to verify quality")
	line("3. Craft personalized outreach messages")
	line("4. Track response rates in the stories file")
	line("")
	b.WriteString("_Generated by the Google Alerts success story monitor_")
	return b.String()
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
