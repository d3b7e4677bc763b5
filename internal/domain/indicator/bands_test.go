package indicator

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestBands(t *testing.T) {
	convey.Convey("Given the absolute band table", t, func() {
		convey.Convey("Upper bounds are inclusive", func() {
			convey.So(AbsoluteBands.Classify(75), convey.ShouldEqual, BandGood)
			convey.So(AbsoluteBands.Classify(75.01), convey.ShouldEqual, BandOptimal)
			convey.So(AbsoluteBands.Classify(50), convey.ShouldEqual, BandSufficient)
			convey.So(AbsoluteBands.Classify(25.01), convey.ShouldEqual, BandSufficient)
		})
		convey.Convey("25 and below is Regular", func() {
			convey.So(AbsoluteBands.Classify(25), convey.ShouldEqual, BandRegular)
			convey.So(AbsoluteBands.Classify(0), convey.ShouldEqual, BandRegular)
		})
		convey.Convey("Percentages are rounded before matching", func() {
			convey.So(AbsoluteBands.Classify(74.999), convey.ShouldEqual, BandGood)
			convey.So(AbsoluteBands.Classify(100), convey.ShouldEqual, BandOptimal)
		})
	})

	convey.Convey("Given the access band table", t, func() {
		convey.Convey("The programmed share peaks at 70", func() {
			convey.So(AccessBands.Classify(70), convey.ShouldEqual, BandOptimal)
			convey.So(AccessBands.Classify(50.01), convey.ShouldEqual, BandOptimal)
			convey.So(AccessBands.Classify(50), convey.ShouldEqual, BandGood)
			convey.So(AccessBands.Classify(30), convey.ShouldEqual, BandSufficient)
		})
		convey.Convey("Shares outside (10, 70] are Regular", func() {
			convey.So(AccessBands.Classify(70.01), convey.ShouldEqual, BandRegular)
			convey.So(AccessBands.Classify(10), convey.ShouldEqual, BandRegular)
			convey.So(AccessBands.Classify(100), convey.ShouldEqual, BandRegular)
		})
	})
}
