package classify_test

import (
	"errors"
	"testing"

	"github.com/okian/scout/internal/domain/classify"
	"github.com/okian/scout/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDefaultTable(t *testing.T) {
	Convey("Given the default classifier", t, func() {
		c, err := classify.New()
		So(err, ShouldBeNil)

		Convey("When a title states a hire caused by a certificate", func() {
			res := c.Classify("Just got hired after finishing my Coursera IT certificate", "")

			Convey("Then it is an explicit testimonial", func() {
				So(res.Category, ShouldEqual, model.Testimonial)
				So(res.Confidence, ShouldBeGreaterThanOrEqualTo, 0.8)
				So(res.Rule, ShouldEqual, "testimonial_explicit")
			})
		})

		Convey("When a title complains about the entry-level market", func() {
			res := c.Classify("Why is it so hard to find an entry-level job?", "")

			Convey("Then it is an explicit pain point", func() {
				So(res.Category, ShouldEqual, model.PainPoint)
				So(res.Confidence, ShouldBeGreaterThanOrEqualTo, 0.9)
			})
		})

		Convey("When an explicit pain phrase appears next to a generic success word", func() {
			texts := [][2]string{
				{"I can't find a job even though my roommate got hired last week", ""},
				{"Got hired? Not me.", "Hundreds of applications and nothing back"},
				{"Still unemployed", "everyone around me landed a job after the bootcamp"},
			}

			Convey("Then pain wins with high confidence", func() {
				for _, tx := range texts {
					res := c.Classify(tx[0], tx[1])
					So(res.Category, ShouldEqual, model.PainPoint)
					So(res.Confidence, ShouldBeGreaterThanOrEqualTo, 0.9)
				}
			})
		})

		Convey("When matching is done", func() {
			Convey("Then it is case-insensitive and spans title and body", func() {
				res := c.Classify("Update", "I GOT THE JOB today")
				So(res.Category, ShouldEqual, model.Testimonial)
				So(res.Confidence, ShouldEqual, 0.9)
			})
		})

		Convey("When only a generic success word appears", func() {
			res := c.Classify("Finally hired", "")

			Convey("Then the generic tier applies", func() {
				So(res.Category, ShouldEqual, model.Testimonial)
				So(res.Confidence, ShouldEqual, 0.75)
			})
		})

		Convey("When the text doubts the credential", func() {
			res := c.Classify("Is the Google cert a waste of money", "")

			Convey("Then it is a doubt", func() {
				So(res.Category, ShouldEqual, model.Doubt)
				So(res.Confidence, ShouldBeGreaterThanOrEqualTo, 0.9)
			})
		})

		Convey("When the text reports course progress", func() {
			res := c.Classify("Just completed module 3", "")

			Convey("Then it is a course recommendation", func() {
				So(res.Category, ShouldEqual, model.CourseRecommendation)
				So(res.Confidence, ShouldEqual, 0.9)
			})
		})

		Convey("When nothing but a question mark matches", func() {
			res := c.Classify("Thinking about switching careers?", "")

			Convey("Then the structural fallback applies", func() {
				So(res.Category, ShouldEqual, model.Motivation)
				So(res.Confidence, ShouldEqual, 0.6)
				So(res.Rule, ShouldEqual, "title_question")
			})
		})

		Convey("When nothing matches", func() {
			res := c.Classify("Random musings on data", "")

			Convey("Then the default is returned", func() {
				So(res.Category, ShouldEqual, classify.DefaultCategory)
				So(res.Confidence, ShouldEqual, classify.DefaultConfidence)
				So(res.Rule, ShouldEqual, classify.DefaultRuleName)
			})
		})
	})
}

func TestCustomTable(t *testing.T) {
	Convey("Given a custom rule table", t, func() {
		c, err := classify.New(
			classify.WithRules([]classify.Rule{
				{Name: "first", Category: model.Doubt, Keywords: []string{"  Worth  "}, Confidence: 0.5},
				{Name: "second", Category: model.Testimonial, Keywords: []string{"worth"}, Confidence: 0.9},
			}),
			classify.WithDefault(model.CourseRecommendation, 0.1),
		)
		So(err, ShouldBeNil)

		Convey("Then ties favour the earlier rule", func() {
			res := c.Classify("Was it worth it", "")
			So(res.Rule, ShouldEqual, "first")
			So(res.Category, ShouldEqual, model.Doubt)
		})

		Convey("Then keywords are normalised", func() {
			So(c.Rules()[0].Keywords, ShouldResemble, []string{"worth"})
		})

		Convey("Then the custom default is used", func() {
			res := c.Classify("nothing here", "")
			So(res.Category, ShouldEqual, model.CourseRecommendation)
			So(res.Confidence, ShouldEqual, 0.1)
		})
	})

	Convey("Given malformed tables", t, func() {
		cases := map[string][]classify.Rule{
			"unknown category": {{Name: "x", Category: "hype", Keywords: []string{"a"}, Confidence: 0.5}},
			"confidence > 1":   {{Name: "x", Category: model.Doubt, Keywords: []string{"a"}, Confidence: 1.5}},
			"no keywords":      {{Name: "x", Category: model.Doubt, Keywords: []string{" "}, Confidence: 0.5}},
		}

		Convey("Then New rejects each", func() {
			for _, rules := range cases {
				_, err := classify.New(classify.WithRules(rules))
				So(errors.Is(err, classify.ErrInvalidRule), ShouldBeTrue)
			}
			_, err := classify.New(classify.WithDefault("hype", 0.3))
			So(errors.Is(err, classify.ErrInvalidRule), ShouldBeTrue)
		})
	})
}
