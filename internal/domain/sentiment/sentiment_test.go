package sentiment_test

import (
	"strings"
	"testing"

	"github.com/okian/scout/internal/domain/sentiment"
	. "github.com/smartystreets/goconvey/convey"
)

func TestVader(t *testing.T) {
	Convey("Given the VADER analyzer", t, func() {
		v := sentiment.NewVader()

		Convey("When the text is clearly positive", func() {
			p := v.Polarity("I am so happy and grateful, this is wonderful!")

			Convey("Then the polarity is positive", func() {
				So(p, ShouldBeGreaterThan, 0.5)
				So(p, ShouldBeLessThanOrEqualTo, 1)
			})
		})

		Convey("When the text is clearly negative", func() {
			p := v.Polarity("This is terrible, I hate it and I feel awful.")

			Convey("Then the polarity is negative", func() {
				So(p, ShouldBeLessThan, -0.5)
				So(p, ShouldBeGreaterThanOrEqualTo, -1)
			})
		})

		Convey("When the text is empty", func() {
			Convey("Then the polarity is neutral", func() {
				So(v.Polarity(""), ShouldEqual, 0)
			})
		})
	})
}

func TestFakes(t *testing.T) {
	Convey("Given deterministic analyzers", t, func() {
		Convey("Then Fixed returns its value clamped", func() {
			So(sentiment.Fixed(0.6).Polarity("anything"), ShouldEqual, 0.6)
			So(sentiment.Fixed(3).Polarity("anything"), ShouldEqual, 1)
			So(sentiment.Fixed(-3).Polarity("anything"), ShouldEqual, -1)
		})

		Convey("Then Func dispatches on text", func() {
			f := sentiment.Func(func(text string) float64 {
				if strings.Contains(text, "hired") {
					return 0.7
				}
				return -0.2
			})
			So(f.Polarity("got hired"), ShouldEqual, 0.7)
			So(f.Polarity("meh"), ShouldEqual, -0.2)
		})
	})
}
