package classify

import "github.com/okian/scout/internal/domain/model"

// Default rule confidences by tier.
const (
	confPainExplicit     = 0.95
	confPainGeneric      = 0.75
	confDoubtExplicit    = 0.9
	confStoryExplicit    = 0.9
	confStoryGeneric     = 0.75
	confQuestionExplicit = 0.85
	confQuestionGeneric  = 0.7
	confCourseExplicit   = 0.9
	confCourseGeneric    = 0.7
	confTitleQuestion    = 0.6

	// DefaultConfidence is returned when no rule matches.
	DefaultConfidence = 0.3
)

// DefaultCategory is returned when no rule matches.
const DefaultCategory = model.Motivation

// DefaultRules returns the built-in rule table in priority order.
// Pain is checked before success so mixed texts resolve to pain.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "pain_explicit",
			Category:   model.PainPoint,
			Confidence: confPainExplicit,
			Keywords: []string{
				"so hard to find", "hard to find a job", "can't find a job", "cannot find a job",
				"can't get a job", "no one is hiring", "nobody is hiring", "hundreds of applications",
				"no callbacks", "zero interviews", "still unemployed", "been applying for months",
				"got ghosted", "no response from",
			},
		},
		{
			Name:       "pain_generic",
			Category:   model.PainPoint,
			Confidence: confPainGeneric,
			Keywords: []string{
				"struggling", "frustrated", "rejected", "rejection", "laid off", "unemployed",
				"hopeless", "burned out", "burnt out", "giving up",
			},
		},
		{
			Name:       "doubt_explicit",
			Category:   model.Doubt,
			Confidence: confDoubtExplicit,
			Keywords: []string{
				"is it worth it", "worth it?", "waste of money", "waste of time", "scam",
				"is it legit", "does it actually help", "employers don't care", "regret",
			},
		},
		{
			Name:       "testimonial_explicit",
			Category:   model.Testimonial,
			Confidence: confStoryExplicit,
			Keywords: []string{
				"got hired after", "hired after finishing", "hired after completing",
				"landed a job after", "landed my first", "got the job", "got a job offer",
				"offer letter", "thanks to coursera", "thanks to the certificate",
			},
		},
		{
			Name:       "testimonial_generic",
			Category:   model.Testimonial,
			Confidence: confStoryGeneric,
			Keywords: []string{
				"hired", "landed", "got a job", "new job", "promoted", "promotion",
				"job offer", "success story",
			},
		},
		{
			Name:       "question_explicit",
			Category:   model.Motivation,
			Confidence: confQuestionExplicit,
			Keywords: []string{
				"should i", "how do i start", "where do i start", "how long does it take",
				"any advice", "need advice", "is it possible to",
			},
		},
		{
			Name:       "question_generic",
			Category:   model.Motivation,
			Confidence: confQuestionGeneric,
			Keywords:   []string{"advice", "tips", "motivation", "how to", "help me"},
		},
		{
			Name:       "course_explicit",
			Category:   model.CourseRecommendation,
			Confidence: confCourseExplicit,
			Keywords: []string{
				"finished the course", "completed the course", "completed my certificate",
				"finished my certificate", "just completed", "passed the exam",
				"earned my certificate", "which course", "recommend a course",
			},
		},
		{
			Name:       "course_generic",
			Category:   model.CourseRecommendation,
			Confidence: confCourseGeneric,
			Keywords: []string{
				"course", "certificate", "certification", "specialization", "bootcamp",
			},
		},
		{
			Name:          "title_question",
			Category:      model.Motivation,
			Confidence:    confTitleQuestion,
			TitleQuestion: true,
		},
	}
}
