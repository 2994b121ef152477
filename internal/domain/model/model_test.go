package model_test

import (
	"testing"

	model "github.com/okian/scout/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestCategory(t *testing.T) {
	convey.Convey("Given the category enumeration", t, func() {
		convey.Convey("Then every listed category is valid and titled", func() {
			convey.So(model.Categories(), convey.ShouldHaveLength, 5)
			for _, c := range model.Categories() {
				convey.So(c.Valid(), convey.ShouldBeTrue)
				convey.So(c.Title(), convey.ShouldNotEqual, string(c))
			}
		})

		convey.Convey("When parsing a known name", func() {
			c, err := model.ParseCategory("pain_point")

			convey.Convey("Then it maps to the constant", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(c, convey.ShouldEqual, model.PainPoint)
			})
		})

		convey.Convey("When parsing an unknown name", func() {
			_, err := model.ParseCategory("hype")

			convey.Convey("Then it is rejected", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(model.Category("hype").Valid(), convey.ShouldBeFalse)
				convey.So(model.Category("hype").Title(), convey.ShouldEqual, "hype")
			})
		})
	})
}

func TestScoredCandidateEmbedsCandidate(t *testing.T) {
	convey.Convey("Given a scored candidate", t, func() {
		sc := model.ScoredCandidate{
			Candidate: model.Candidate{Title: "t", Upvotes: 4, Source: model.SourcePost},
			Category:  model.Testimonial,
		}

		convey.Convey("Then candidate fields are promoted", func() {
			convey.So(sc.Title, convey.ShouldEqual, "t")
			convey.So(sc.Upvotes, convey.ShouldEqual, 4)
			convey.So(sc.Source, convey.ShouldEqual, model.SourcePost)
		})
	})
}
